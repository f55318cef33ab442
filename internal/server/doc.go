// Package server provides HTTP routing, middleware, and the player's local control surface.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally and dispatches on method per path.
//
// # Control Surface
//
// [ControlHandler] exposes the playback controller and playlist cache as JSON endpoints so the
// player can run headless (ncp serve) and be driven from scripts or other tools. Every transport
// endpoint responds with the resulting [StateResponse]; failures keep the state body and map the
// error sentinel to an HTTP status (400 bad input, 404 unknown track, 502 catalog/engine, 504 load timeout).
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
// [HealthHandler] is registered this way.
package server
