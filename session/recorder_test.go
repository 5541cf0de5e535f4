package session

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"prompter/audio"
)

func fakeCapture(t *testing.T, pcm []byte) audio.CaptureDevice {
	t.Helper()
	ctx := audio.NewFakePCM(pcm, false)
	dev, err := ctx.NewCapture(nil, audio.CaptureConfig{SampleRate: 16000, Channels: 1})
	if err != nil {
		t.Fatalf("fake capture: %v", err)
	}
	return dev
}

func TestRecorderStartWithoutCapture(t *testing.T) {
	r := NewRecorder()
	if err := r.Start(0); !errors.Is(err, ErrNoCapture) {
		t.Fatalf("expected ErrNoCapture, got %v", err)
	}
}

func TestRecorderProducesClip(t *testing.T) {
	r := NewRecorder()
	r.minDuration = 0
	if err := r.Attach(fakeCapture(t, speechPCM(32000))); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if r.State() != StateReady {
		t.Fatalf("state = %v, want ready", r.State())
	}

	if err := r.Start(0); err != nil {
		t.Fatalf("start: %v", err)
	}
	if r.State() != StateRecording {
		t.Fatalf("state = %v, want recording", r.State())
	}
	if err := r.Start(0); !errors.Is(err, ErrBusy) {
		t.Fatalf("second start: expected ErrBusy, got %v", err)
	}

	clip, err := r.Stop()
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if r.State() != StateProcessing {
		t.Fatalf("state = %v, want processing", r.State())
	}
	if clip.Format != "flac" {
		t.Errorf("format = %q", clip.Format)
	}
	if clip.Frames < 16000 {
		t.Errorf("frames = %d, want at least the canned second of audio", clip.Frames)
	}
	if len(clip.Data) == 0 {
		t.Error("empty clip data")
	}

	r.Done()
	if r.State() != StateReady {
		t.Fatalf("state after done = %v, want ready", r.State())
	}
}

func TestRecorderStopTooShortKeepsRecording(t *testing.T) {
	r := NewRecorder()
	if err := r.Attach(fakeCapture(t, speechPCM(32000))); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := r.Start(0); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := r.Stop(); !errors.Is(err, ErrRecordingTooShort) {
		t.Fatalf("expected ErrRecordingTooShort, got %v", err)
	}
	if r.State() != StateRecording {
		t.Fatalf("state = %v, recording should continue", r.State())
	}
	r.Abort()
	if r.State() != StateReady {
		t.Fatalf("state after abort = %v, want ready", r.State())
	}
}

func TestRecorderAutoStopTimerFires(t *testing.T) {
	r := NewRecorder()
	r.minDuration = 0
	if err := r.Attach(fakeCapture(t, speechPCM(32000))); err != nil {
		t.Fatalf("attach: %v", err)
	}

	var fired atomic.Bool
	done := make(chan struct{})
	r.OnAutoStop = func() {
		fired.Store(true)
		if _, err := r.Stop(); err != nil {
			t.Errorf("auto-stop: %v", err)
		}
		close(done)
	}

	if err := r.Start(20 * time.Millisecond); err != nil {
		t.Fatalf("start: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("auto-stop timer never fired")
	}
	if !fired.Load() {
		t.Fatal("OnAutoStop not invoked")
	}
	if r.State() != StateProcessing {
		t.Fatalf("state = %v, want processing after auto-stop", r.State())
	}
}

func TestRecorderStopDisarmsAutoStop(t *testing.T) {
	r := NewRecorder()
	r.minDuration = 0
	if err := r.Attach(fakeCapture(t, speechPCM(32000))); err != nil {
		t.Fatalf("attach: %v", err)
	}

	var fired atomic.Bool
	r.OnAutoStop = func() { fired.Store(true) }

	if err := r.Start(50 * time.Millisecond); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := r.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if fired.Load() {
		t.Fatal("auto-stop fired after a normal stop")
	}
}

func TestRecorderDetachOnlyWhenIdle(t *testing.T) {
	r := NewRecorder()
	r.minDuration = 0
	if err := r.Attach(fakeCapture(t, speechPCM(32000))); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := r.Start(0); err != nil {
		t.Fatalf("start: %v", err)
	}
	r.Detach()
	if r.State() != StateRecording {
		t.Fatalf("detach during recording changed state to %v", r.State())
	}
	r.Abort()
	r.Detach()
	if r.State() != StateNoCapture {
		t.Fatalf("state = %v, want no-capture after detach", r.State())
	}
}
