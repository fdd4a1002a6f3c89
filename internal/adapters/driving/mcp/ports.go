package mcp

import (
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ports backs the tools and resources. Without Settings the settings
// resource is reported as not found.
type Ports struct {
	Answering driving.AnsweringService
	Settings  driving.SettingsService
}

func (p *Ports) Validate() error {
	if p.Answering == nil {
		return ErrMissingAnsweringService
	}
	return nil
}
