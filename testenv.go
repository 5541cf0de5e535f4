package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"prompter/account"
	"prompter/audio"
	"prompter/cue"
	"prompter/log"
	"prompter/responder"
	"prompter/session"
	"prompter/usage"
)

// echoTranscriber produces a numbered canned question per clip so
// scripted runs never hit the network.
type echoTranscriber struct {
	n int
}

func (e *echoTranscriber) Name() string { return "echo" }

func (e *echoTranscriber) Transcribe(_ context.Context, clip []byte, _, _ string) (string, error) {
	if len(clip) < 1024 {
		return "", fmt.Errorf("clip too short (%d bytes)", len(clip))
	}
	e.n++
	return fmt.Sprintf("Scripted question %d?", e.n), nil
}

// localConsumer meters against an in-process balance.
type localConsumer struct {
	mu          sync.Mutex
	secondsLeft int
}

func (c *localConsumer) Consume(_ context.Context, seconds int) (*account.User, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.secondsLeft -= seconds
	if c.secondsLeft < 0 {
		c.secondsLeft = 0
	}
	return &account.User{
		Subscription: account.Subscription{Plan: "test", MinutesLeft: c.secondsLeft / 60},
	}, false, nil
}

// testSink adds a ready signal on top of the console output so WAIT
// can block until a turn finishes.
type testSink struct {
	*consoleSink
	ready chan struct{}
}

func (s *testSink) StateChanged(st session.State) {
	s.consoleSink.StateChanged(st)
	if st == session.StateReady {
		select {
		case s.ready <- struct{}{}:
		default:
		}
	}
}

func (s *testSink) TurnsChanged(turns []session.Turn) {
	if len(turns) == 0 {
		return
	}
	last := turns[len(turns)-1]
	if last.Answer != "" {
		fmt.Printf("A: %s\n", last.Answer)
	} else {
		fmt.Printf("Q: %s\n", last.Question)
	}
}

// runTestMode drives a full session from stdin commands: TOGGLE,
// WAIT (blocks until the turn is processed), WAIT_AUDIO_DONE,
// SLEEP <ms>, QUIT. Audio comes from the given WAV file; every
// network dependency is replaced with a local fake.
func runTestMode(wavPath string, setup session.Setup, chargeDiscarded bool) {
	cue.Disable()
	defer log.Close()

	fakeCtx, err := audio.NewFakeContext(wavPath, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading WAV: %v\n", err)
		os.Exit(1)
	}

	meter := usage.NewMeter(&localConsumer{secondsLeft: 5 * 60}, usage.Budget{RemainingMinutes: 5})
	meter.ChargeDiscarded = chargeDiscarded

	sink := &testSink{consoleSink: newConsoleSink(), ready: make(chan struct{}, 1)}
	capman := session.NewCaptureManager(fakeCtx, nil)
	sess := session.New(session.Config{
		Setup:       setup,
		Capture:     capman,
		Transcriber: &echoTranscriber{},
		Responder: &responder.Fake{
			Fragments: []string{"That ", "is ", "a ", "thoughtful ", "question."},
		},
		Meter:  meter,
		Events: sink,
	})

	log.SessionStart(string(setup.InterviewType), setup.Language, "test", 5)

	if err := sess.StartCapture(); err != nil {
		fmt.Fprintf(os.Stderr, "Error starting capture: %v\n", err)
		os.Exit(1)
	}

	var audioDone <-chan struct{}
	if dev, ok := capman.Active().(*audio.FakeCapture); ok {
		audioDone = dev.AudioDone()
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		cmd := strings.TrimSpace(scanner.Text())
		switch cmd {
		case "TOGGLE":
			if err := sess.Toggle(context.Background()); err != nil {
				fmt.Printf("toggle refused: %v\n", err)
			}
		case "WAIT":
			<-sink.ready
		case "WAIT_AUDIO_DONE":
			if audioDone != nil {
				<-audioDone
			}
		case "QUIT":
			sess.Close()
			return
		default:
			if strings.HasPrefix(cmd, "SLEEP ") {
				if ms, err := strconv.Atoi(cmd[6:]); err == nil {
					time.Sleep(time.Duration(ms) * time.Millisecond)
				}
			}
		}
	}
	sess.Close()
}
