package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func setupLogDir(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	SetDir(tmp)
	t.Cleanup(func() { Close(); SetDir("") })
	return tmp
}

func TestResolveDirFlag(t *testing.T) {
	got, err := ResolveDir("/tmp/mylog")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/mylog" {
		t.Errorf("got %q, want /tmp/mylog", got)
	}
}

func TestResolveDirFlagRelative(t *testing.T) {
	got, err := ResolveDir("logs")
	if err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(wd, "logs")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolveDirEnv(t *testing.T) {
	t.Setenv("PROMPTER_LOG_PATH", "/tmp/prompter-env-log")
	got, err := ResolveDir("")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/prompter-env-log" {
		t.Errorf("got %q, want /tmp/prompter-env-log", got)
	}
}

func TestResolveDirDefault(t *testing.T) {
	t.Setenv("PROMPTER_LOG_PATH", "")
	got, err := ResolveDir("")
	if err != nil {
		t.Fatal(err)
	}
	if got == "" {
		t.Error("expected non-empty default directory")
	}
}

func TestInitCreatesFiles(t *testing.T) {
	tmp := setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"diagnostics_log.txt", "transcript_log.txt"} {
		path := filepath.Join(tmp, name)
		if _, err := os.Stat(path); err != nil {
			t.Errorf("%s not created: %v", name, err)
		}
	}
}

func TestTurnText(t *testing.T) {
	tmp := setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}

	TurnText("What drives you?", "Curiosity, mostly.")

	data, err := os.ReadFile(filepath.Join(tmp, "transcript_log.txt"))
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if !strings.Contains(text, "What drives you?") {
		t.Errorf("transcript missing question, got: %q", text)
	}
	if !strings.Contains(text, "Curiosity, mostly.") {
		t.Errorf("transcript missing answer, got: %q", text)
	}
	if !strings.Contains(text, "\tQ\t") || !strings.Contains(text, "\tA\t") {
		t.Errorf("expected tab-separated Q/A rows, got: %q", text)
	}
}

func TestTurnRecordsTimings(t *testing.T) {
	tmp := setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}

	// Timings arrive as millisecond counts from time.Duration.
	transcribe := 340 * time.Millisecond
	respond := 1200 * time.Millisecond
	Turn(TurnMetrics{
		ClipBytes:       8192,
		ClipSeconds:     2.0,
		EstimateSeconds: 2,
		TranscribeMs:    transcribe.Milliseconds(),
		RespondMs:       respond.Milliseconds(),
		Streamed:        true,
		QuestionChars:   20,
		AnswerChars:     80,
	})

	data, err := os.ReadFile(filepath.Join(tmp, "diagnostics_log.txt"))
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if !strings.Contains(text, "turn") {
		t.Fatalf("turn event not logged, got: %q", text)
	}
	if !strings.Contains(text, "transcribe_ms=340") || !strings.Contains(text, "respond_ms=1200") {
		t.Errorf("timings missing from turn event, got: %q", text)
	}
}

func TestHelpersNoOpWithoutInit(t *testing.T) {
	SetDir(t.TempDir())
	t.Cleanup(func() { SetDir("") })
	// none of these should panic before Init
	Info("x")
	Warnf("y %d", 1)
	Turn(TurnMetrics{})
	UsageReconciled(1, 2, false)
	TurnText("q", "a")
}

func TestCloseIdempotent(t *testing.T) {
	setupLogDir(t)

	if err := Init(); err != nil {
		t.Fatal(err)
	}
	Close()
	Close() // should not panic
}
