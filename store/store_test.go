package store

import (
	"path/filepath"
	"testing"
	"time"

	"prompter/session"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "sessions.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleTurns(start time.Time) []session.Turn {
	return []session.Turn{
		{ID: "01TURNAAAAAAAAAAAAAAAAAAAA", Timestamp: start, Question: "Why us?", Answer: "Because of the mission."},
		{ID: "01TURNBBBBBBBBBBBBBBBBBBBB", Timestamp: start.Add(time.Minute), Question: "Biggest weakness?", Answer: "Delegating."},
	}
}

func TestSaveAndLoadSession(t *testing.T) {
	s := openTestStore(t)

	start := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	end := start.Add(20 * time.Minute)
	setup := session.Setup{InterviewType: session.Behavioral, Language: "en", PersonaName: "Dana"}

	id, err := s.SaveSession(setup, start, end, sampleTurns(start))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if id == "" {
		t.Fatal("save returned empty id")
	}

	rec, err := s.Session(id)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rec == nil {
		t.Fatal("session not found after save")
	}
	if rec.InterviewType != "behavioral" || rec.Language != "en" || rec.PersonaName != "Dana" {
		t.Errorf("record = %+v", rec)
	}
	if rec.TurnCount != 2 {
		t.Errorf("turn count = %d, want 2", rec.TurnCount)
	}
	// Timestamps are stored as float seconds, so compare at second
	// precision.
	if rec.StartedAt.Unix() != start.Unix() {
		t.Errorf("startedAt = %v, want %v", rec.StartedAt, start)
	}

	turns, err := s.Turns(id)
	if err != nil {
		t.Fatalf("turns: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("got %d turns, want 2", len(turns))
	}
	if turns[0].Question != "Why us?" || turns[1].Question != "Biggest weakness?" {
		t.Errorf("turn order wrong: %q, %q", turns[0].Question, turns[1].Question)
	}
	if turns[1].Answer != "Delegating." {
		t.Errorf("answer = %q", turns[1].Answer)
	}
}

func TestEmptySessionNotArchived(t *testing.T) {
	s := openTestStore(t)

	id, err := s.SaveSession(session.Setup{InterviewType: session.General, Language: "en"},
		time.Now(), time.Now(), nil)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if id != "" {
		t.Fatalf("empty session archived with id %q", id)
	}

	records, err := s.Sessions()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

func TestSessionsNewestFirst(t *testing.T) {
	s := openTestStore(t)

	setup := session.Setup{InterviewType: session.Technical, Language: "en"}
	older := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	newer := older.Add(48 * time.Hour)

	turnsA := []session.Turn{{ID: "01TURNCCCCCCCCCCCCCCCCCCCC", Timestamp: older, Question: "q", Answer: "a"}}
	turnsB := []session.Turn{{ID: "01TURNDDDDDDDDDDDDDDDDDDDD", Timestamp: newer, Question: "q", Answer: "a"}}

	if _, err := s.SaveSession(setup, older, older.Add(time.Hour), turnsA); err != nil {
		t.Fatalf("save older: %v", err)
	}
	if _, err := s.SaveSession(setup, newer, newer.Add(time.Hour), turnsB); err != nil {
		t.Fatalf("save newer: %v", err)
	}

	records, err := s.Sessions()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if !records[0].StartedAt.After(records[1].StartedAt) {
		t.Errorf("not newest first: %v then %v", records[0].StartedAt, records[1].StartedAt)
	}
}

func TestUnknownSessionIsNil(t *testing.T) {
	s := openTestStore(t)
	rec, err := s.Session("does-not-exist")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected nil, got %+v", rec)
	}
}
