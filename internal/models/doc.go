// Package models defines the domain types shared by the poller, the formatter, and the source clients.
//
// A [Playback] is the result of a single "what is playing right now" query. It is a tagged variant:
//   - [KindTrack] : a music track with ordered artist names and a title
//   - [KindNothingPlaying] : the account is idle
//   - [KindOtherPlayable] : something is playing that is not a track (episode, ad, local item)
//   - [KindQueryFailed] : the query itself failed, with a message
//
// Values are transient. One is produced per poll cycle and discarded once formatted.
package models
