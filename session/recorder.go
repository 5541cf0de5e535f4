package session

import (
	"encoding/binary"
	"math"
	"sync"
	"time"

	"prompter/audio"
	"prompter/encoder"
	"prompter/log"
)

// MinRecording is how long a recording must run before stop is
// honored. Shorter stops are refused and the recording keeps going,
// which avoids burning transcription calls on accidental double taps.
const MinRecording = 2 * time.Second

type State int

const (
	StateNoCapture State = iota
	StateReady
	StateRecording
	StateProcessing
)

func (s State) String() string {
	switch s {
	case StateNoCapture:
		return "no-capture"
	case StateReady:
		return "ready"
	case StateRecording:
		return "recording"
	case StateProcessing:
		return "processing"
	}
	return "unknown"
}

// Clip is a finished recording ready for transcription.
type Clip struct {
	Data     []byte
	Format   string
	Frames   uint64
	Duration float64 // seconds of audio
}

// Recorder runs the recording state machine over an attached capture
// device. All transitions happen on stop/start calls or the budget
// timer; audio data itself never changes state.
type Recorder struct {
	// OnAutoStop fires when the budget time limit elapses. It is
	// expected to run the same stop path a user toggle would.
	OnAutoStop func()
	// OnLevel receives an RMS level per capture callback, for meters.
	OnLevel func(float64)
	// OnPCM receives a copy of each PCM chunk, for voice detection.
	OnPCM func([]byte)

	mu          sync.Mutex
	state       State
	capture     audio.CaptureDevice
	startedAt   time.Time
	autoStop    *time.Timer
	minDuration time.Duration

	wmu    sync.Mutex
	writer *encoder.ClipWriter
	closed bool
}

func NewRecorder() *Recorder {
	return &Recorder{minDuration: MinRecording}
}

func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Attach hands the recorder a capture device and moves it to Ready.
func (r *Recorder) Attach(capture audio.CaptureDevice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateRecording || r.state == StateProcessing {
		return ErrBusy
	}
	r.capture = capture
	r.state = StateReady
	return nil
}

// Detach drops the capture device. No-op unless the recorder is idle.
func (r *Recorder) Detach() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateReady {
		r.capture = nil
		r.state = StateNoCapture
	}
}

// Start begins recording. A positive limit arms a timer that fires
// OnAutoStop when the remaining usage budget would be exceeded; the
// timer is re-armed fresh on every start and disarmed on stop.
func (r *Recorder) Start(limit time.Duration) error {
	r.mu.Lock()
	switch r.state {
	case StateNoCapture:
		r.mu.Unlock()
		return ErrNoCapture
	case StateRecording, StateProcessing:
		r.mu.Unlock()
		return ErrBusy
	}

	w, err := encoder.NewClipWriter()
	if err != nil {
		r.mu.Unlock()
		return err
	}
	r.wmu.Lock()
	r.writer = w
	r.closed = false
	r.wmu.Unlock()

	capture := r.capture
	capture.SetCallback(r.onData)
	if err := capture.Start(); err != nil {
		capture.ClearCallback()
		r.mu.Unlock()
		return err
	}

	r.startedAt = time.Now()
	r.state = StateRecording
	if limit > 0 {
		r.autoStop = time.AfterFunc(limit, func() {
			if fn := r.OnAutoStop; fn != nil {
				fn()
			}
		})
	}
	r.mu.Unlock()
	return nil
}

func (r *Recorder) onData(data []byte, _ uint32) {
	if len(data) == 0 {
		return
	}
	pcm := make([]byte, len(data))
	copy(pcm, data)

	r.wmu.Lock()
	if r.closed || r.writer == nil {
		r.wmu.Unlock()
		return
	}
	err := r.writer.Write(pcm)
	r.wmu.Unlock()
	if err != nil {
		log.Errorf("clip write error: %v", err)
		return
	}

	if fn := r.OnPCM; fn != nil {
		fn(pcm)
	}
	if fn := r.OnLevel; fn != nil {
		fn(rmsLevel(pcm))
	}
}

func rmsLevel(pcm []byte) float64 {
	if len(pcm) < 2 {
		return 0
	}
	var sumSquares float64
	for i := 0; i+1 < len(pcm); i += 2 {
		sample := int16(binary.LittleEndian.Uint16(pcm[i:]))
		normalized := float64(sample) / 32768.0
		sumSquares += normalized * normalized
	}
	return math.Sqrt(sumSquares / float64(len(pcm)/2))
}

// Stop ends the recording and returns the finished clip. If the
// recording is younger than the minimum duration it is refused with
// ErrRecordingTooShort and keeps running, budget timer included.
// On success the recorder holds StateProcessing until Done is called.
func (r *Recorder) Stop() (*Clip, error) {
	r.mu.Lock()
	if r.state != StateRecording {
		r.mu.Unlock()
		return nil, ErrBusy
	}
	if time.Since(r.startedAt) < r.minDuration {
		r.mu.Unlock()
		return nil, ErrRecordingTooShort
	}
	if r.autoStop != nil {
		r.autoStop.Stop()
		r.autoStop = nil
	}
	r.state = StateProcessing
	capture := r.capture
	r.mu.Unlock()

	capture.Stop()
	capture.ClearCallback()

	r.wmu.Lock()
	r.closed = true
	w := r.writer
	r.writer = nil
	r.wmu.Unlock()

	data, err := w.Finalize()
	if err != nil {
		r.Done()
		return nil, err
	}
	return &Clip{
		Data:     data,
		Format:   "flac",
		Frames:   w.Frames(),
		Duration: w.Duration(),
	}, nil
}

// Abort discards an in-flight recording without producing a clip.
// Safe to call in any state.
func (r *Recorder) Abort() {
	r.mu.Lock()
	if r.state != StateRecording {
		r.mu.Unlock()
		return
	}
	if r.autoStop != nil {
		r.autoStop.Stop()
		r.autoStop = nil
	}
	r.state = StateReady
	capture := r.capture
	r.mu.Unlock()

	capture.Stop()
	capture.ClearCallback()

	r.wmu.Lock()
	r.closed = true
	r.writer = nil
	r.wmu.Unlock()
}

// Done returns the recorder to Ready after turn processing finishes.
func (r *Recorder) Done() {
	r.mu.Lock()
	if r.state == StateProcessing {
		r.state = StateReady
	}
	r.mu.Unlock()
}

// Elapsed reports how long the current recording has been running.
func (r *Recorder) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateRecording {
		return 0
	}
	return time.Since(r.startedAt)
}
