// Package server provides HTTP routing, middleware, and the JSON API for favorite tasks.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// [RequestLogger] and [Recoverer] are installed by [NewRouter].
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # API
//
// [API] registers:
//   - POST /api/favorites runs a favorite task for {account, status_id}, using the cached status snapshot when present
//   - GET /api/favorites/inflight?account=&status= reports whether a favorite is being created
//   - GET /api/drafts lists leftover drafts, optionally for one account
//   - POST /api/drafts/{id}/retry and POST /api/drafts/retry resubmit leftover drafts
//   - DELETE /api/drafts/{id} discards a leftover draft
//
// Task failures map to gateway statuses (502, 504, 429) when the remote call failed and to 500 otherwise.
//
// # Events
//
// [EventsHandler] streams task events over server-sent events. Every connection subscribes to the
// notification bus with its own buffer and client id.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
// [EventsHandler] and [MetricsHandler] are registered this way.
package server
