// Package file keeps settings in config.toml and prompt overrides in
// prompts/*.txt under the docqa config directory.
package file
