package formatter

import (
	"errors"
	"testing"

	"github.com/desertthunder/nowplaying/internal/models"
)

func TestStatus(t *testing.T) {
	tc := []struct {
		name     string
		playback models.Playback
		want     string
	}{
		{
			name:     "single artist",
			playback: models.TrackPlayback([]string{"Alice"}, "Song"),
			want:     "Alice - Song",
		},
		{
			name:     "multiple artists joined in order",
			playback: models.TrackPlayback([]string{"A", "B"}, "T"),
			want:     "A, B - T",
		},
		{
			name:     "no artists renders bare title",
			playback: models.TrackPlayback(nil, "Untitled"),
			want:     "Untitled",
		},
		{
			name:     "text passed through unmodified",
			playback: models.TrackPlayback([]string{"  Sigur Rós "}, `"Hoppípolla" <live>`),
			want:     `  Sigur Rós  - "Hoppípolla" <live>`,
		},
		{
			name:     "nothing playing",
			playback: models.NothingPlaying(),
			want:     "No song playing",
		},
		{
			name:     "other playable",
			playback: models.OtherPlayable(),
			want:     "Unknown",
		},
		{
			name:     "query failed",
			playback: models.QueryFailed(errors.New("x")),
			want:     "Error! x",
		},
		{
			name:     "query failed without error",
			playback: models.QueryFailed(nil),
			want:     "Error! ",
		},
		{
			name:     "unknown kind falls back",
			playback: models.Playback{Kind: models.PlaybackKind(42)},
			want:     "Unknown",
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := Status(tt.playback); got != tt.want {
				t.Errorf("Status() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsError(t *testing.T) {
	if !IsError(Status(models.QueryFailed(errors.New("boom")))) {
		t.Error("expected failed query status to be an error")
	}
	if IsError(Status(models.NothingPlaying())) {
		t.Error("expected idle status not to be an error")
	}
	if IsError(Sentinel) {
		t.Error("expected sentinel not to be an error")
	}
}

func TestStatusJSON(t *testing.T) {
	t.Run("quotes plain text", func(t *testing.T) {
		data, err := StatusJSON("Alice - Song")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if string(data) != `"Alice - Song"` {
			t.Errorf("expected quoted string, got %s", data)
		}
	})

	t.Run("escapes quotes and control characters", func(t *testing.T) {
		data, err := StatusJSON("say \"hi\"\n")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if string(data) != `"say \"hi\"\n"` {
			t.Errorf("unexpected encoding: %s", data)
		}
	})

	t.Run("leaves HTML characters readable", func(t *testing.T) {
		data, err := StatusJSON("Tom & Jerry - <3")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if string(data) != `"Tom & Jerry - <3"` {
			t.Errorf("unexpected encoding: %s", data)
		}
	})
}
