package models

// PlaybackKind tags the variant held by a [Playback].
type PlaybackKind int

const (
	KindNothingPlaying PlaybackKind = iota
	KindTrack
	KindOtherPlayable
	KindQueryFailed
)

func (k PlaybackKind) String() string {
	switch k {
	case KindTrack:
		return "track"
	case KindNothingPlaying:
		return "nothing_playing"
	case KindOtherPlayable:
		return "other"
	case KindQueryFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Playback is the result of one playback query.
//
// Only the fields relevant to Kind are set: Artists and Title for [KindTrack], Message for [KindQueryFailed].
type Playback struct {
	Kind    PlaybackKind
	Artists []string // Artist names in the order the source lists them
	Title   string
	Message string
}

// TrackPlayback constructs a [KindTrack] result.
func TrackPlayback(artists []string, title string) Playback {
	return Playback{Kind: KindTrack, Artists: artists, Title: title}
}

// NothingPlaying constructs a [KindNothingPlaying] result.
func NothingPlaying() Playback {
	return Playback{Kind: KindNothingPlaying}
}

// OtherPlayable constructs a [KindOtherPlayable] result.
func OtherPlayable() Playback {
	return Playback{Kind: KindOtherPlayable}
}

// QueryFailed constructs a [KindQueryFailed] result from err. A nil err yields an empty message.
func QueryFailed(err error) Playback {
	p := Playback{Kind: KindQueryFailed}
	if err != nil {
		p.Message = err.Error()
	}
	return p
}
