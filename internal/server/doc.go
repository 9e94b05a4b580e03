// Package server exposes a session lifecycle over HTTP.
//
// # Routes
//
//	POST   /chat                  run the assistant on a dialogue and present its reply
//	POST   /api/sessions          present a dataset (JSON, or YAML by Content-Type)
//	GET    /api/sessions/current  describe the active session
//	DELETE /api/sessions/current  stop the active session
//	GET    /api/graph             elements, styles and the current frame
//	GET    /api/frames            server-sent stream of frames
//	GET    /health                liveness
//	GET    /metrics               Prometheus metrics, when a collector is set
//
// A browser frontend mounts the elements from /api/graph and applies the
// frames from /api/frames: each frame names the visible elements and the
// current node positions, so the staged reveal and the floating motion are
// computed server side.
//
// # Errors
//
// Failures are returned as {"error": {"code": ..., "message": ...}} with a
// status derived from the error code.
package server
