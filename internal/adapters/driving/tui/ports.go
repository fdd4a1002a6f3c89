// Package tui is the interactive terminal front end built on Bubble Tea.
package tui

import (
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ports are the services the screens call. Settings may be nil; the settings
// screen then shows an error instead of a form.
type Ports struct {
	Answering driving.AnsweringService
	Settings  driving.SettingsService
}

func NewPorts(answering driving.AnsweringService, settings driving.SettingsService) *Ports {
	return &Ports{Answering: answering, Settings: settings}
}

func (p *Ports) Validate() error {
	if p.Answering == nil {
		return ErrMissingAnsweringService
	}
	return nil
}
