package responder

import "context"

// Fake is a scripted Streamer. Fragments are delivered one by one on
// the streaming path; the fallback returns their concatenation.
type Fake struct {
	Fragments []string
	StreamErr error // fail the streaming path to force fallback
	GenErr    error

	StreamCalls   int
	GenerateCalls int
	LastPrompt    Prompt
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Stream(_ context.Context, p Prompt, onDelta func(string)) error {
	f.StreamCalls++
	f.LastPrompt = p
	if f.StreamErr != nil {
		return f.StreamErr
	}
	for _, frag := range f.Fragments {
		onDelta(frag)
	}
	return nil
}

func (f *Fake) Generate(_ context.Context, p Prompt) (string, error) {
	f.GenerateCalls++
	f.LastPrompt = p
	if f.GenErr != nil {
		return "", f.GenErr
	}
	var out string
	for _, frag := range f.Fragments {
		out += frag
	}
	return out, nil
}
