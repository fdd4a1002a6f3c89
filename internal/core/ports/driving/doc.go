// Package driving holds the inbound ports used by the HTTP, MCP, CLI and TUI
// adapters. internal/core/services implements them.
package driving
