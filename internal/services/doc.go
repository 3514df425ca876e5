// Package services implements the remote side of the favorite action for each supported backend.
//
// # Backends
//
// Every backend type has its own HTTP client and raw response type:
//   - Twitter-style ([TwitterClient], default): POST /1.1/favorites/create.json with form id=<status>
//   - Fanfou ([FanfouClient]): POST /favorites/create/<id>.json
//   - Mastodon ([MastodonClient]): POST /api/v1/statuses/<id>/favourite
//
// Raw responses are normalized into a backend-agnostic [models.FavoriteResult].
//
// # Dispatcher
//
// [Dispatcher] holds a strategy table keyed by [models.BackendType]. Unrecognized types use the
// Twitter-style entry. Each backend has its own rate limiter, waited on before the call.
//
// Clients authenticate with the account's access token as a bearer token through an
// [oauth2.StaticTokenSource].
//
// # Error Handling
//
// Every failure is a [*RemoteError] carrying an [ErrorCode]. RemoteError unwraps to a shared sentinel:
//   - [shared.ErrTimeout] : the HTTP client timeout elapsed
//   - [shared.ErrNotAuthenticated] : 401 or 403
//   - [shared.ErrRemoteNotFound] : 404
//   - [shared.ErrRateLimited] : 429 or the local limiter refused to wait
//   - [shared.ErrAPIRequest] : other non-2xx responses and undecodable bodies
//   - [shared.ErrServiceUnavailable] : connection failures
//   - [shared.ErrInvalidInput] : the account cannot make remote calls
package services
