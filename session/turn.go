package session

import (
	"io"
	"time"

	"github.com/oklog/ulid/v2"
)

// Turn is one question/answer exchange. The Answer grows while the
// response streams in; turns are located by ID, never by position,
// so streaming updates land on the right turn even after the history
// changes.
type Turn struct {
	ID        string
	Timestamp time.Time
	Question  string
	Answer    string
}

func newTurnID(t time.Time, entropy io.Reader) string {
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}
