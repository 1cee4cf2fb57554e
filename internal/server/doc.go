// Package server provides HTTP routing, middleware, and JSON handlers over the library navigator.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order so the first registered runs outermost.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns internally.
//
// # Endpoints
//
// [LibraryHandler] registers:
//   - GET /health
//   - GET /root
//   - GET /browse?uri=
//   - GET /lookup?uri=&uri=
//   - GET /search?any=&artist=&album=&track_name=
//   - GET /images?uri=
//   - GET /distinct/{field}
//
// # Errors
//
// Errors are returned as {"error": "..."} with a status from [StatusFor]:
// missing music root or item gives 404, an unreachable Emby server 502, bad input 400,
// anything else 500.
package server
