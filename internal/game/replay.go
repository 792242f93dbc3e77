package game

import (
	"fmt"
	"sync"

	"github.com/r3labs/diff/v3"

	"github.com/nenshoukei/zombals-sub000/internal/game/action"
	"github.com/nenshoukei/zombals-sub000/internal/game/model"
)

// Replay steps through the action log of a record, folding each action into
// the state as it goes.
type Replay struct {
	GameID string

	mu      sync.RWMutex
	actions action.Log
	index   int
	state   model.GameState
}

// NewReplay creates a replay positioned before the first action.
func NewReplay(r *Record) *Replay {
	return &Replay{
		GameID:  r.ID,
		actions: r.Actions,
		state:   model.NewGameState(),
	}
}

// Start rewinds to the empty state.
func (r *Replay) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.index = 0
	r.state = model.NewGameState()
}

// Next applies the next action and returns it. It returns nil at the end.
func (r *Replay) Next() (action.Action, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.index >= len(r.actions) {
		return nil, nil
	}
	a := r.actions[r.index]
	next, err := action.Apply(r.state, a)
	if err != nil {
		return nil, fmt.Errorf("action %d (%s): %w", r.index, a.ActionType(), err)
	}
	r.state = next
	r.index++
	return a, nil
}

// Skip applies up to count actions.
func (r *Replay) Skip(count int) error {
	for i := 0; i < count; i++ {
		a, err := r.Next()
		if err != nil {
			return err
		}
		if a == nil {
			return nil
		}
	}
	return nil
}

// State returns the state after the actions applied so far.
func (r *Replay) State() model.GameState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Index returns the number of actions applied.
func (r *Replay) Index() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index
}

// Size returns the length of the log.
func (r *Replay) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.actions)
}

// Verify replays the whole record and compares the result with want. The
// changelog is empty when the log reproduces want exactly.
func Verify(r *Record, want model.GameState) (diff.Changelog, error) {
	got, err := action.Replay(r.Actions)
	if err != nil {
		return nil, err
	}
	if got.MustDigest() == want.MustDigest() {
		return diff.Changelog{}, nil
	}
	changes, err := diff.Diff(want, got)
	if err != nil {
		return nil, fmt.Errorf("diff replayed state: %w", err)
	}
	return changes, nil
}
