package audio

import (
	"sync"
	"testing"
)

func newFakeDevice(t *testing.T, pcm []byte) *FakeCapture {
	t.Helper()
	ctx := NewFakePCM(pcm, false)
	dev, err := ctx.NewCapture(nil, CaptureConfig{SampleRate: 16000, Channels: 1})
	if err != nil {
		t.Fatal(err)
	}
	return dev.(*FakeCapture)
}

func TestFakeCaptureStopBeforeStart(t *testing.T) {
	dev := newFakeDevice(t, make([]byte, 4096))
	// Release paths stop unconditionally, even when recording never
	// started.
	dev.Stop()
	dev.Close()
}

func TestFakeCaptureStopIdempotent(t *testing.T) {
	dev := newFakeDevice(t, make([]byte, 4096))
	if err := dev.Start(); err != nil {
		t.Fatal(err)
	}
	dev.Stop()
	dev.Stop()
}

func TestFakeCaptureDeliversPCM(t *testing.T) {
	pcm := make([]byte, 4096)
	for i := range pcm {
		pcm[i] = byte(i)
	}
	dev := newFakeDevice(t, pcm)

	var mu sync.Mutex
	var got []byte
	dev.SetCallback(func(chunk []byte, _ uint32) {
		mu.Lock()
		got = append(got, chunk...)
		mu.Unlock()
	})

	if err := dev.Start(); err != nil {
		t.Fatal(err)
	}
	<-dev.AudioDone()
	dev.Stop()

	mu.Lock()
	defer mu.Unlock()
	if len(got) < len(pcm) {
		t.Fatalf("delivered %d bytes, want at least %d", len(got), len(pcm))
	}
	for i := range pcm {
		if got[i] != pcm[i] {
			t.Fatalf("byte %d = %d, want %d", i, got[i], pcm[i])
		}
	}
}
