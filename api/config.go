// Package api provides the HTTP API server for the scout topic memory.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string

	// DisableMCP skips mounting the MCP server on /mcp
	DisableMCP bool
}
