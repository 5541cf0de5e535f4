// Package transcriber submits finalized audio clips to the
// transcription endpoint and validates what comes back.
package transcriber

import (
	"context"
	"errors"
	"strings"
)

// MinClipBytes rejects near-silent clips locally before spending a
// network round trip. Anything smaller cannot hold two seconds of
// real speech.
const MinClipBytes = 1024

var (
	// ErrClipTooShort means the clip never left the machine.
	ErrClipTooShort = errors.New("clip too short: speak for at least 2-3 seconds before stopping")

	// ErrNoMeaningfulAudio means the service answered with nothing
	// usable: empty, too short, or a known placeholder artifact.
	ErrNoMeaningfulAudio = errors.New("no meaningful audio detected")
)

// Client turns an audio clip into text. Language is a hint code
// ("en", "es", ...) passed through to the service.
type Client interface {
	Name() string
	Transcribe(ctx context.Context, clip []byte, format, language string) (string, error)
}

// placeholderArtifacts are strings speech models emit for silence or
// background noise, mostly auto-caption boilerplate learned from
// video subtitles. A result matching one of these is treated as no
// speech at all.
var placeholderArtifacts = []string{
	"you",
	"thank you.",
	"thanks for watching!",
	"thank you for watching!",
	"thank you for watching",
	"subtitles by the amara.org community",
	"[blank_audio]",
	"[music]",
	"(music)",
	".",
}

// CheckText validates a transcription result the way the caller must:
// non-empty, at least three characters, and not a known placeholder.
// Returns ErrNoMeaningfulAudio otherwise.
func CheckText(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < 3 {
		return "", ErrNoMeaningfulAudio
	}
	lower := strings.ToLower(trimmed)
	for _, artifact := range placeholderArtifacts {
		if lower == artifact {
			return "", ErrNoMeaningfulAudio
		}
	}
	return trimmed, nil
}
