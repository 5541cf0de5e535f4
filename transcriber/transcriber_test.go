package transcriber

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestCheckText(t *testing.T) {
	for _, tt := range []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"normal question", "What is your biggest weakness?", "What is your biggest weakness?", true},
		{"trims whitespace", "  hello there  ", "hello there", true},
		{"empty", "", "", false},
		{"too short", "ab", "", false},
		{"caption artifact", "Thanks for watching!", "", false},
		{"caption artifact case-insensitive", "THANK YOU.", "", false},
		{"blank audio marker", "[BLANK_AUDIO]", "", false},
		{"artifact as substring is fine", "thank you for the question, let me answer", "thank you for the question, let me answer", true},
	} {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CheckText(tt.input)
			if tt.ok {
				if err != nil {
					t.Fatalf("CheckText(%q) error: %v", tt.input, err)
				}
				if got != tt.want {
					t.Errorf("got %q, want %q", got, tt.want)
				}
			} else if !errors.Is(err, ErrNoMeaningfulAudio) {
				t.Errorf("CheckText(%q) = %q, %v; want ErrNoMeaningfulAudio", tt.input, got, err)
			}
		})
	}
}

func TestWhisperRejectsShortClipLocally(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	w := NewWhisper(srv.URL, "test-token")
	_, err := w.Transcribe(context.Background(), make([]byte, 500), "flac", "en")
	if !errors.Is(err, ErrClipTooShort) {
		t.Fatalf("err = %v, want ErrClipTooShort", err)
	}
	if calls.Load() != 0 {
		t.Error("short clip must never reach the endpoint")
	}
}

func TestWhisperTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ai/transcribe" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parsing multipart: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("model = %q", got)
		}
		if got := r.FormValue("language"); got != "es" {
			t.Errorf("language = %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		if header.Filename != "audio.flac" {
			t.Errorf("filename = %q", header.Filename)
		}
		data, _ := io.ReadAll(file)
		if len(data) != 2048 {
			t.Errorf("uploaded %d bytes, want 2048", len(data))
		}
		w.Write([]byte(`{"text":"¿Cuál es tu mayor debilidad?"}`))
	}))
	defer srv.Close()

	wh := NewWhisper(srv.URL, "test-token")
	text, err := wh.Transcribe(context.Background(), make([]byte, 2048), "flac", "es")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "¿Cuál es tu mayor debilidad?" {
		t.Errorf("text = %q", text)
	}
	if wh.Metrics == nil {
		t.Error("expected network metrics to be recorded")
	}
}

func TestWhisperErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	wh := NewWhisper(srv.URL, "test-token")
	_, err := wh.Transcribe(context.Background(), make([]byte, 2048), "flac", "en")
	if err == nil {
		t.Fatal("expected error on non-200 status")
	}
}
