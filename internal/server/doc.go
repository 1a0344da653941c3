// Package server exposes the cached playback status over HTTP.
//
// # Routes
//
//   - GET /nowplaying/song answers 200 with the current status text encoded as a JSON string.
//     It reads the [status.Cache] and never waits on Spotify.
//   - GET /healthz answers 200 with a [models.HealthReport]: refresher health and the time and
//     sequence number of the last publish.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support. [BasicRouter] registers
// method patterns on an [http.ServeMux]. [Middleware] wraps handlers in reverse order (last added
// executes first). [NewRouter] installs [Recover], [RequestLogger] and the [CORS] toggle.
//
// # OAuth Callback Handler
//
// [OAuthHandler] backs the `auth` command: a temporary server on the redirect URI receives the
// authorization code, validates the state parameter, exchanges the code and hands the token,
// including the long-lived refresh token, back through a channel. It processes one callback only.
package server
