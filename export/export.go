// Package export renders an interview transcript as Markdown or a
// standalone HTML page.
package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"prompter/session"
)

// Markdown renders the transcript. Turns appear in completion order;
// an unanswered question still shows up with an empty answer block.
func Markdown(setup session.Setup, startedAt time.Time, turns []session.Turn) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Interview transcript\n\n")
	fmt.Fprintf(&b, "- Type: %s\n", setup.InterviewType)
	fmt.Fprintf(&b, "- Language: %s\n", setup.Language)
	if setup.PersonaName != "" {
		fmt.Fprintf(&b, "- Candidate: %s\n", setup.PersonaName)
	}
	fmt.Fprintf(&b, "- Date: %s\n", startedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "- Questions: %d\n", len(turns))

	for i, t := range turns {
		fmt.Fprintf(&b, "\n## Q%d (%s)\n\n", i+1, t.Timestamp.Format("15:04:05"))
		fmt.Fprintf(&b, "**%s**\n\n", t.Question)
		if t.Answer != "" {
			fmt.Fprintf(&b, "%s\n", t.Answer)
		} else {
			fmt.Fprintf(&b, "_no answer generated_\n")
		}
	}
	return b.String()
}

const htmlShell = `<!DOCTYPE html>
<html lang=%q>
<head>
<meta charset="utf-8">
<title>Interview transcript</title>
<style>
body { max-width: 46rem; margin: 2rem auto; padding: 0 1rem; font-family: system-ui, sans-serif; line-height: 1.5; }
h2 { border-top: 1px solid #ddd; padding-top: 1rem; }
</style>
</head>
<body>
%s</body>
</html>
`

// HTML renders the transcript to a self-contained HTML document.
func HTML(setup session.Setup, startedAt time.Time, turns []session.Turn) (string, error) {
	md := Markdown(setup, startedAt, turns)
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("render transcript: %w", err)
	}
	lang := setup.Language
	if lang == "" {
		lang = "en"
	}
	return fmt.Sprintf(htmlShell, lang, buf.String()), nil
}

// WriteFile exports the transcript to path, choosing the format from
// the extension (.html renders HTML, everything else Markdown).
func WriteFile(path string, setup session.Setup, startedAt time.Time, turns []session.Turn) error {
	var out string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		html, err := HTML(setup, startedAt, turns)
		if err != nil {
			return err
		}
		out = html
	default:
		out = Markdown(setup, startedAt, turns)
	}
	return os.WriteFile(path, []byte(out), 0o644)
}
