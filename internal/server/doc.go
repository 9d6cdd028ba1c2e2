// Package server binds the chat router to WebSocket connections.
//
// The implementation is organized into specialized files for configuration,
// origin checks, the hub event loop, per-connection clients, routing, and
// HTTP handlers. Frames on the wire are JSON objects of the form
// {"event": "<name>", "data": <payload>} in both directions.
package server
