// package formatter renders playback query results as the status text served to clients
package formatter

import (
	"strings"

	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/shared"
)

const (
	// Sentinel is the status held by the cache before the first poll completes.
	Sentinel = "init"

	NothingPlayingText = "No song playing"
	OtherPlayableText  = "Unknown"
	errorPrefix        = "Error! "
	artistSeparator    = ", "
	titleSeparator     = " - "
)

// Status maps a [models.Playback] to its display string. It is total over every [models.PlaybackKind].
//
// Track text is passed through as-is. A track without artists renders as the bare title.
func Status(p models.Playback) string {
	switch p.Kind {
	case models.KindTrack:
		if len(p.Artists) == 0 {
			return p.Title
		}
		return strings.Join(p.Artists, artistSeparator) + titleSeparator + p.Title
	case models.KindNothingPlaying:
		return NothingPlayingText
	case models.KindQueryFailed:
		return errorPrefix + p.Message
	default:
		return OtherPlayableText
	}
}

// IsError reports whether status was produced from a failed query.
func IsError(status string) bool {
	return strings.HasPrefix(status, errorPrefix)
}

// StatusJSON encodes status as a JSON string literal (quoted and escaped).
func StatusJSON(status string) ([]byte, error) {
	return shared.MarshalJSON(status, false)
}
