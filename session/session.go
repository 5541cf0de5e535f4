// Package session wires the capture device, recorder, transcriber,
// responder and usage meter into one interview session. Recording
// state only ever changes on a user toggle, a capture stop, or the
// budget timer firing.
package session

import (
	"context"
	"crypto/rand"
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"prompter/clipboard"
	"prompter/log"
	"prompter/responder"
	"prompter/transcriber"
	"prompter/usage"
)

type Config struct {
	Setup       Setup
	Capture     *Capture
	Transcriber transcriber.Client
	Responder   responder.Streamer
	Meter       *usage.Meter
	Events      EventSink

	// CopyAnswers puts each completed answer on the system clipboard.
	CopyAnswers bool
}

type Session struct {
	setup       Setup
	capture     *Capture
	recorder    *Recorder
	transcriber transcriber.Client
	responder   responder.Streamer
	meter       *usage.Meter
	events      EventSink
	copyAnswers bool

	vad *vadProcessor

	mu      sync.Mutex
	turns   []Turn
	entropy *ulid.MonotonicEntropy

	tick time.Duration
}

func New(cfg Config) *Session {
	if cfg.Events == nil {
		cfg.Events = NopSink{}
	}
	s := &Session{
		setup:       cfg.Setup,
		capture:     cfg.Capture,
		recorder:    NewRecorder(),
		transcriber: cfg.Transcriber,
		responder:   cfg.Responder,
		meter:       cfg.Meter,
		events:      cfg.Events,
		copyAnswers: cfg.CopyAnswers,
		entropy:     ulid.Monotonic(rand.Reader, 0),
		tick:        tickInterval,
	}
	s.setup.ApplyDefaults()

	vp, err := newVADProcessor()
	if err != nil {
		log.Warnf("voice detection unavailable: %v", err)
	} else {
		s.vad = vp
	}

	s.recorder.OnAutoStop = func() {
		log.Info("budget_auto_stop")
		s.events.Status("time limit reached, processing what we have")
		if err := s.stopRecording(context.Background()); err != nil {
			s.events.Failure(err)
		}
	}
	s.recorder.OnLevel = func(level float64) { s.events.AudioLevel(level) }
	s.recorder.OnPCM = func(pcm []byte) {
		if s.vad != nil {
			s.vad.Process(pcm)
		}
	}
	return s
}

func (s *Session) Setup() Setup         { return s.setup }
func (s *Session) State() State         { return s.recorder.State() }
func (s *Session) Budget() usage.Budget { return s.meter.Budget() }

// StartCapture acquires the microphone and readies the recorder.
func (s *Session) StartCapture() error {
	dev, err := s.capture.Acquire()
	if err != nil {
		return err
	}
	if err := s.recorder.Attach(dev); err != nil {
		return err
	}
	log.Info("capture_start: " + dev.DeviceName())
	s.events.StateChanged(s.recorder.State())
	return nil
}

// StopCapture releases the microphone. An in-flight recording is
// discarded; discarded audio consumes no budget by default.
func (s *Session) StopCapture() {
	s.recorder.Abort()
	s.recorder.Detach()
	s.capture.Release()
	log.Info("capture_stop")
	s.events.StateChanged(s.recorder.State())
}

// Toggle flips between recording and not recording, exactly like the
// hotkey does.
func (s *Session) Toggle(ctx context.Context) error {
	switch s.recorder.State() {
	case StateNoCapture:
		return ErrNoCapture
	case StateProcessing:
		return ErrBusy
	case StateRecording:
		return s.stopRecording(ctx)
	default:
		return s.startRecording()
	}
}

func (s *Session) startRecording() error {
	b := s.meter.Budget()
	if b.Exhausted() {
		return ErrBudgetExhausted
	}
	var limit time.Duration
	if !b.Unlimited {
		limit = time.Duration(b.RemainingSeconds()) * time.Second
	}
	if s.vad != nil {
		s.vad.Reset()
	}
	if err := s.recorder.Start(limit); err != nil {
		return err
	}
	log.Info("recording_start")
	s.events.RecordingStart()
	s.events.StateChanged(StateRecording)
	go s.monitor()
	return nil
}

func (s *Session) stopRecording(ctx context.Context) error {
	clip, err := s.recorder.Stop()
	if err != nil {
		if errors.Is(err, ErrRecordingTooShort) {
			s.events.Status("keep talking, a recording needs a couple of seconds")
		}
		return err
	}
	log.Info("recording_stop")
	s.events.RecordingStop()
	s.events.StateChanged(StateProcessing)
	go s.processTurn(ctx, clip)
	return nil
}

// monitor drives the elapsed-time tick and the silence warning while
// a recording runs.
func (s *Session) monitor() {
	mon := newSilenceMonitor()
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for range ticker.C {
		if s.recorder.State() != StateRecording {
			return
		}
		s.events.RecordingTick(s.recorder.Elapsed().Seconds())
		if s.vad == nil {
			continue
		}
		switch mon.Tick(s.vad.HasSpeechTick()) {
		case SilenceWarn:
			log.Info("no_voice_warning")
			s.events.NoVoiceWarning()
		case SilenceWarnClear:
			s.events.VoiceCleared()
		case SilenceRepeat:
			s.events.NoVoiceWarning()
		}
	}
}

// processTurn runs the whole turn pipeline for one clip: estimate,
// transcribe, stream the answer, then reconcile usage with the
// backend. The local budget is always overwritten with the server's
// answer, never merged.
func (s *Session) processTurn(ctx context.Context, clip *Clip) {
	defer func() {
		s.recorder.Done()
		s.events.StateChanged(s.recorder.State())
	}()

	estimate := usage.EstimateSeconds(len(clip.Data))
	seconds := s.meter.Budget().ClampToRemaining(estimate)

	tStart := time.Now()
	text, err := s.transcriber.Transcribe(ctx, clip.Data, clip.Format, s.setup.Language)
	transcribeMs := time.Since(tStart).Milliseconds()
	if err == nil {
		text, err = transcriber.CheckText(text)
	}
	if err != nil {
		log.Errorf("transcription error: %v", err)
		s.events.Failure(err)
		s.chargeDiscarded(ctx, seconds)
		return
	}

	turn := s.appendTurn(text)
	s.events.TurnsChanged(s.Turns())

	prompt := s.buildPrompt(turn)
	rStart := time.Now()
	streamed := true
	err = s.responder.Stream(ctx, prompt, func(delta string) {
		s.appendAnswer(turn.ID, delta)
		s.events.TurnsChanged(s.Turns())
	})
	if err != nil {
		log.Warnf("stream failed, trying non-streaming fallback: %v", err)
		streamed = false
		answer, genErr := s.responder.Generate(ctx, prompt)
		if genErr != nil {
			// Whatever streamed in before the failure stays visible.
			log.Errorf("response error: %v", genErr)
			s.events.Failure(genErr)
		} else {
			s.setAnswer(turn.ID, answer)
			s.events.TurnsChanged(s.Turns())
		}
	}
	respondMs := time.Since(rStart).Milliseconds()

	final := s.turnByID(turn.ID)
	if s.copyAnswers && final.Answer != "" {
		if err := clipboard.Copy(final.Answer); err != nil {
			log.Warnf("clipboard copy failed: %v", err)
		}
	}

	user, rerr := s.meter.Reconcile(ctx, seconds)
	if rerr != nil {
		log.Warnf("usage reconcile failed, keeping last known budget: %v", rerr)
	} else {
		b := s.meter.Budget()
		log.UsageReconciled(seconds, b.RemainingMinutes, b.Unlimited)
		s.events.UserChanged(user)
	}
	s.events.BudgetChanged(s.meter.Budget())

	log.Turn(log.TurnMetrics{
		ClipBytes:       len(clip.Data),
		ClipSeconds:     clip.Duration,
		EstimateSeconds: seconds,
		TranscribeMs:    transcribeMs,
		RespondMs:       respondMs,
		Streamed:        streamed,
		QuestionChars:   len(final.Question),
		AnswerChars:     len(final.Answer),
	})
	log.TurnText(final.Question, final.Answer)
}

// chargeDiscarded optionally reports the estimate for a clip that
// never produced a turn.
func (s *Session) chargeDiscarded(ctx context.Context, seconds int) {
	if !s.meter.ChargeDiscarded {
		return
	}
	if _, err := s.meter.Reconcile(ctx, seconds); err != nil {
		log.Warnf("usage reconcile failed: %v", err)
		return
	}
	b := s.meter.Budget()
	log.UsageReconciled(seconds, b.RemainingMinutes, b.Unlimited)
	s.events.BudgetChanged(b)
}

func (s *Session) buildPrompt(current Turn) responder.Prompt {
	s.mu.Lock()
	history := make([]responder.Exchange, 0, len(s.turns))
	for _, t := range s.turns {
		if t.ID == current.ID {
			continue
		}
		history = append(history, responder.Exchange{Question: t.Question, Answer: t.Answer})
	}
	s.mu.Unlock()
	return responder.Prompt{
		PersonaName:     s.setup.PersonaName,
		Language:        s.setup.Language,
		PersonalContext: s.setup.PersonalContext,
		History:         history,
		Question:        current.Question,
	}
}

func (s *Session) appendTurn(question string) Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	t := Turn{
		ID:        newTurnID(now, s.entropy),
		Timestamp: now,
		Question:  question,
	}
	s.turns = append(s.turns, t)
	return t
}

func (s *Session) appendAnswer(id, delta string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.turns {
		if s.turns[i].ID == id {
			s.turns[i].Answer += delta
			return
		}
	}
}

func (s *Session) setAnswer(id, answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.turns {
		if s.turns[i].ID == id {
			s.turns[i].Answer = answer
			return
		}
	}
}

func (s *Session) turnByID(id string) Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.turns {
		if t.ID == id {
			return t
		}
	}
	return Turn{}
}

// Turns returns a snapshot of the history in completion order.
func (s *Session) Turns() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Close releases the capture and logs the session summary.
func (s *Session) Close() {
	s.StopCapture()
	log.SessionEnd(len(s.Turns()))
}
