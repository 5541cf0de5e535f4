package transcriber

import "context"

// Fake is a scripted Client for tests and headless runs. Each call
// pops the next queued result; Err, when set, wins over results.
type Fake struct {
	Results []string
	Err     error

	Calls []FakeCall
}

type FakeCall struct {
	ClipBytes int
	Format    string
	Language  string
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Transcribe(_ context.Context, clip []byte, format, language string) (string, error) {
	if len(clip) < MinClipBytes {
		return "", ErrClipTooShort
	}
	f.Calls = append(f.Calls, FakeCall{ClipBytes: len(clip), Format: format, Language: language})
	if f.Err != nil {
		return "", f.Err
	}
	if len(f.Results) == 0 {
		return "", ErrNoMeaningfulAudio
	}
	text := f.Results[0]
	f.Results = f.Results[1:]
	return text, nil
}
