package tui

import "errors"

var (
	ErrMissingAnsweringService = errors.New("tui: answering service is required")
	ErrInvalidPorts            = errors.New("tui: invalid ports configuration")
)
