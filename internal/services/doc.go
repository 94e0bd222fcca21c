// Package services is the HTTP client layer for the HitNote REST backend.
//
// # Facade
//
// [APIService.Do] performs one JSON request: it encodes the body, attaches a bearer token and an X-Request-ID,
// and decodes 2xx bodies into the caller's value. Failures come back as one of two types:
//   - [*HTTPError] : a response with a non-2xx status. The message is the backend's detail field when present,
//     otherwise "request failed: <status>".
//   - [*TransportError] : no response at all (DNS, refused connection, cancelled context).
//
// Both satisfy errors.Is against the shared sentinels, so callers can test for [shared.ErrNotAuthorized] (403),
// [shared.ErrNotAuthenticated] (401), [shared.ErrNotFound] (404) and [shared.ErrTransport] without type switches.
// Nothing is retried.
//
// # Endpoints
//
// [HitnoteService] implements [Backend], one method per REST route. Authenticated routes take the bearer token
// as an argument and fail fast with [shared.ErrLoginRequired] when it is empty, before any request is sent.
package services
