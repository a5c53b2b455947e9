// Package service defines the game operations exposed to transports.
//
// GameService is the single entry point used by the REST API, the
// WebSocket hub, and the MCP tools. It translates the registry's
// boolean outcomes into sentinel errors, validates inbound settings
// and direction strings, resolves presets, and mints player IDs.
//
// Error Handling:
//
// Operations return wrapped sentinel errors (ErrSessionNotFound,
// ErrJoinRejected, ErrNotHost, ...) that transports map to status
// codes with errors.Is. The registry layer below stays error-free.
package service
