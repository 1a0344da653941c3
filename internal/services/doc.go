// Package services implements the clients the service talks to.
//
// # Spotify
//
// [SpotifyService] implements [PlaybackSource] with the zmb3/spotify client and [TokenRefresher]
// with the [oauth2] refresh grant. API requests authenticate through an [oauth2.Transport] whose
// token source is the shared credential store, so every request uses whatever token the refresher
// installed last. The service never refreshes on its own.
//
// Playback responses map to [models.Playback]:
//   - 204 No Content, or an empty body: nothing playing
//   - an item that is a track: artists and title
//   - no track item while something plays (episodes, ads): other playable
//
// # Service API client
//
// [APIService] is a small client for a running instance's HTTP surface, used by the status and
// watch commands.
//
// # Error Handling
//
// Refresh errors wrap [shared.ErrRefreshFailed] (or [shared.ErrNoRefreshToken]). API client errors
// wrap [shared.ErrAPIRequest] or [shared.ErrServiceUnavailable].
package services
