// Package log writes diagnostics and the session transcript to
// per-install log files. Logging is optional: before Init (or after
// Close) every helper is a no-op.
package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	diagLog        zerolog.Logger
	diagFile       *os.File
	transcriptFile *os.File
	logMu          sync.Mutex
	logReady       bool
	pid            int
	dir            string
)

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: -logpath flag
	if flagPath != "" {
		if !filepath.IsAbs(flagPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, flagPath), nil
		}
		return flagPath, nil
	}

	// Priority 2: PROMPTER_LOG_PATH environment variable
	envPath := os.Getenv("PROMPTER_LOG_PATH")
	if envPath != "" {
		if !filepath.IsAbs(envPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, envPath), nil
		}
		return envPath, nil
	}

	// Priority 3: default OS-specific location
	return getDefaultDir()
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error

	diagPath := filepath.Join(dir, "diagnostics_log.txt")
	diagFile, err = os.OpenFile(diagPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	transcriptPath := filepath.Join(dir, "transcript_log.txt")
	transcriptFile, err = os.OpenFile(transcriptPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if transcriptFile != nil {
		transcriptFile.Close()
		transcriptFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

// SessionStart records the configuration of a new interview session.
func SessionStart(interviewType, language, plan string, remainingMinutes int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("type", interviewType).
		Str("language", language).
		Str("plan", plan).
		Int("remaining_min", remainingMinutes).
		Msg("session_start")
}

// SessionEnd records how many turns the session produced.
func SessionEnd(turns int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("turns", turns).
		Msg("session_end")
}

// TurnMetrics records the timings and sizes of one completed turn.
type TurnMetrics struct {
	ClipBytes        int
	ClipSeconds      float64
	EstimateSeconds  int
	TranscribeMs     int64
	RespondMs        int64
	Streamed         bool
	QuestionChars    int
	AnswerChars      int
}

func Turn(m TurnMetrics) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("clip_bytes", m.ClipBytes).
		Float64("clip_s", m.ClipSeconds).
		Int("estimate_s", m.EstimateSeconds).
		Int64("transcribe_ms", m.TranscribeMs).
		Int64("respond_ms", m.RespondMs).
		Bool("streamed", m.Streamed).
		Int("question_chars", m.QuestionChars).
		Int("answer_chars", m.AnswerChars).
		Msg("turn")
}

// UsageReconciled records the authoritative balance after a
// consumption report.
func UsageReconciled(seconds, remainingMinutes int, unlimited bool) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("seconds", seconds).
		Int("remaining_min", remainingMinutes).
		Bool("unlimited", unlimited).
		Msg("usage_reconciled")
}

// TurnText appends one finished exchange to the transcript log.
func TurnText(question, answer string) {
	if !logReady {
		return
	}
	logMu.Lock()
	defer logMu.Unlock()
	ts := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(transcriptFile, "%s\t[%d]\tQ\t%s\n", ts, pid, question)
	fmt.Fprintf(transcriptFile, "%s\t[%d]\tA\t%s\n", ts, pid, answer)
}
