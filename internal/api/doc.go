// Package api exposes the operational HTTP surface of Pulse Core: liveness
// and readiness probes, a status summary, and the WebSocket event feed
// mirroring outbound bus events to connected clients.
//
// The server follows the same lifecycle pattern as the other
// infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: all methods are safe for concurrent use.
package api
