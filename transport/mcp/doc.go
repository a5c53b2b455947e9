// Package mcp exposes the game server to MCP-speaking agents.
//
// Client is a thin proxy: every tool call turns into a request against
// the REST API, so an agent and a browser client always see the same
// state. Tools cover session creation, lobby listing, joining,
// steering, starting, and leaving. The MCP server itself is served
// over stdio from the mcp CLI command.
package mcp
