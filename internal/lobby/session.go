package lobby

import (
	"time"

	"golang.org/x/text/language"

	"github.com/nenshoukei/zombals-sub000/internal/game"
	"github.com/nenshoukei/zombals-sub000/internal/game/model"
	"github.com/nenshoukei/zombals-sub000/internal/protocol"
	"github.com/nenshoukei/zombals-sub000/internal/scheduler"
)

// State is the lobby state of one user.
type State int

const (
	StateWaiting State = iota + 1
	StateWaitingAccept
	StateOngoing
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateWaiting:
		return "WAITING"
	case StateWaitingAccept:
		return "WAITING_ACCEPT"
	case StateOngoing:
		return "ONGOING"
	case StateEnded:
		return "ENDED"
	default:
		return "UNKNOWN"
	}
}

// Conn is the lobby's view of a client socket. Send must not block.
type Conn interface {
	ID() string
	UserID() string
	Language() language.Tag
	Send(r protocol.Response)
	Close()
}

// session is the lobby entry of one user. Guarded by Lobby.mu.
type session struct {
	userID   string
	deck     game.Deck
	passCode string
	state    State
	deadline time.Time
	timer    scheduler.Timer
	gen      uint64

	pairing *pairing
	match   *game.Match
	started <-chan struct{}
	leader  model.Leader
}

// stopTimer cancels the pending deadline. A callback that already started
// sees a stale generation and does nothing.
func (s *session) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}

// pairing is a found match waiting for both accepts.
type pairing struct {
	sessions [2]*session
	accepted [2]bool
	deadline time.Time
	timer    scheduler.Timer
	done     bool
}

func (p *pairing) index(s *session) int {
	if p.sessions[0] == s {
		return 0
	}
	return 1
}

func (p *pairing) allAccepted() bool {
	return p.accepted[0] && p.accepted[1]
}

func (p *pairing) stop() {
	p.done = true
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

// SessionSnapshot is a consistent view of a user's lobby entry.
type SessionSnapshot struct {
	UserID   string
	State    State
	Deadline time.Time
	MatchID  string
	Leader   model.Leader
}

func (s *session) snapshot() SessionSnapshot {
	snap := SessionSnapshot{UserID: s.userID, State: s.state, Deadline: s.deadline, Leader: s.leader}
	if s.match != nil {
		snap.MatchID = s.match.ID()
	}
	return snap
}
