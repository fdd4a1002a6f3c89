// Package mcp exposes document question answering to MCP clients over stdio
// or streamable HTTP.
package mcp

import "errors"

var ErrMissingAnsweringService = errors.New("mcp: answering service is required")
