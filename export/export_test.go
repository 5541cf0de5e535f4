package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"prompter/session"
)

func sampleTranscript() (session.Setup, time.Time, []session.Turn) {
	setup := session.Setup{InterviewType: session.Technical, Language: "en", PersonaName: "Dana"}
	start := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	turns := []session.Turn{
		{ID: "a", Timestamp: start.Add(time.Minute), Question: "What is a goroutine?", Answer: "A lightweight thread managed by the runtime."},
		{ID: "b", Timestamp: start.Add(3 * time.Minute), Question: "Explain channels.", Answer: ""},
	}
	return setup, start, turns
}

func TestMarkdownTranscript(t *testing.T) {
	setup, start, turns := sampleTranscript()
	md := Markdown(setup, start, turns)

	for _, want := range []string{
		"# Interview transcript",
		"- Type: technical",
		"- Candidate: Dana",
		"- Questions: 2",
		"## Q1",
		"**What is a goroutine?**",
		"A lightweight thread managed by the runtime.",
		"## Q2",
		"_no answer generated_",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}

	// Questions stay in completion order.
	if strings.Index(md, "goroutine") > strings.Index(md, "channels") {
		t.Error("turn order not preserved")
	}
}

func TestHTMLTranscript(t *testing.T) {
	setup, start, turns := sampleTranscript()
	html, err := HTML(setup, start, turns)
	if err != nil {
		t.Fatalf("html: %v", err)
	}
	for _, want := range []string{
		`<html lang="en">`,
		"<h1>Interview transcript</h1>",
		"<strong>What is a goroutine?</strong>",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("html missing %q", want)
		}
	}
}

func TestWriteFilePicksFormatByExtension(t *testing.T) {
	setup, start, turns := sampleTranscript()
	dir := t.TempDir()

	htmlPath := filepath.Join(dir, "transcript.html")
	if err := WriteFile(htmlPath, setup, start, turns); err != nil {
		t.Fatalf("write html: %v", err)
	}
	data, err := os.ReadFile(htmlPath)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.HasPrefix(string(data), "<!DOCTYPE html>") {
		t.Error("html export missing doctype")
	}

	mdPath := filepath.Join(dir, "transcript.md")
	if err := WriteFile(mdPath, setup, start, turns); err != nil {
		t.Fatalf("write md: %v", err)
	}
	data, err = os.ReadFile(mdPath)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.HasPrefix(string(data), "# Interview transcript") {
		t.Error("markdown export missing heading")
	}
}
