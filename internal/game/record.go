package game

import (
	"errors"
	"time"

	"github.com/nenshoukei/zombals-sub000/internal/game/action"
	"github.com/nenshoukei/zombals-sub000/internal/game/model"
)

// ErrRecordUnfinished rejects saving a record of a running match.
var ErrRecordUnfinished = errors.New("record is not finished")

// RecordPlayer is one participant of a recorded match.
type RecordPlayer struct {
	Leader model.Leader `json:"leader"`
	UserID string       `json:"userId"`
	Deck   Deck         `json:"deck"`
}

// Record is the permanent artifact of a match. Replaying Actions from the empty
// state reproduces the final state.
type Record struct {
	ID           string         `json:"id"`
	Seed         uint64         `json:"seed"`
	Players      []RecordPlayer `json:"players"`
	FirstUserID  string         `json:"firstUserId"`
	Actions      action.Log     `json:"actions"`
	StartedAt    time.Time      `json:"startedAt"`
	FinishedAt   *time.Time     `json:"finishedAt,omitempty"`
	Winner       model.Leader   `json:"winner"`
	WinnerUserID string         `json:"winnerUserId,omitempty"`
}

// IsFinished reports whether the record may be persisted.
func (r *Record) IsFinished() bool {
	return r != nil && r.FinishedAt != nil
}
