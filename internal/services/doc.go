// Package services defines the [Service] interface for a remote Emby library and implements it with [EmbyService].
//
// # Emby Implementation
//
// [EmbyService] issues authenticated GET requests against the Emby REST API:
//   - /Users/Public : user id lookup by name when no id is configured
//   - /Users/{user}/Views : music root discovery
//   - /Users/{user}/Items : directory listings and recursive typed listings
//   - /Users/{user}/Items/{id} : single items
//   - /Search/Hints : remote search
//
// Every request carries format=json, the X-Emby-Authorization header and, when configured, X-Emby-Token.
//
// # Retries
//
// Transport errors, 5xx responses and undecodable bodies are retried immediately up to the
// configured attempt count (6 by default). Each attempt runs under its own timeout.
// 4xx responses are returned at once. Exhaustion wraps [shared.ErrRemoteUnavailable].
//
// # Caching
//
// Responses are memoized through a [cache.Cache] keyed by operation and arguments.
// Failed calls are never cached.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrRemoteUnavailable] : every attempt failed
//   - [shared.ErrItemNotFound] : 404 from the server
//   - [shared.ErrAPIRequest] : other 4xx responses
//   - [shared.ErrDecode] : body could not be decoded or failed validation
//   - [shared.ErrRootNotFound] : no view with collection type "music"
//   - [shared.ErrUserNotFound] : configured user name absent from /Users/Public
//   - [shared.ErrUnknownField] : search field outside any, artist, album, track_name
package services
