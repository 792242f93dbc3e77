package lobby

import (
	"go.uber.org/zap"

	"github.com/nenshoukei/zombals-sub000/internal/protocol"
)

// sendLocked pushes r to the user's live socket, if any.
func (l *Lobby) sendLocked(userID string, r protocol.Response) {
	if c, ok := l.conns[userID]; ok {
		c.Send(r)
	}
}

// armWaitingLocked (re)starts the matchmaking deadline of s.
func (l *Lobby) armWaitingLocked(s *session) {
	s.stopTimer()
	s.deadline = l.clock().Add(l.cfg.WaitingTimeout)
	gen := s.gen
	s.timer = l.sched.AfterFunc(l.cfg.WaitingTimeout, func() { l.expireWaiting(s, gen) })
}

func (l *Lobby) expireWaiting(s *session, gen uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sessions[s.userID] != s || s.state != StateWaiting || s.gen != gen {
		return
	}
	s.timer = nil
	l.dropLocked(s)
	l.expired.Add(1)
	l.logger.Debug("matchmaking expired", zap.String("user_id", s.userID))
	l.sendLocked(s.userID, protocol.Deny(protocol.ReasonExpired, "no opponent found"))
}

// dropLocked removes a waiting session entirely.
func (l *Lobby) dropLocked(s *session) {
	s.stopTimer()
	l.removeQueuedLocked(s)
	delete(l.sessions, s.userID)
}

func (l *Lobby) removeQueuedLocked(s *session) {
	for i, q := range l.queue {
		if q == s {
			l.queue = append(l.queue[:i], l.queue[i+1:]...)
			return
		}
	}
}

// matchQueueLocked pairs waiting sessions first come first served. Two
// sessions match when their passcodes are equal.
func (l *Lobby) matchQueueLocked() {
	for {
		i, j, ok := l.findPairLocked()
		if !ok {
			return
		}
		a, b := l.queue[i], l.queue[j]
		l.queue = append(l.queue[:j], l.queue[j+1:]...)
		l.queue = append(l.queue[:i], l.queue[i+1:]...)
		l.pairLocked(a, b)
	}
}

func (l *Lobby) findPairLocked() (int, int, bool) {
	for i := 0; i < len(l.queue); i++ {
		for j := i + 1; j < len(l.queue); j++ {
			if l.queue[i].passCode == l.queue[j].passCode {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

func (l *Lobby) pairLocked(a, b *session) {
	p := &pairing{
		sessions: [2]*session{a, b},
		deadline: l.clock().Add(l.cfg.AcceptTimeout),
	}
	for _, s := range p.sessions {
		s.stopTimer()
		s.state = StateWaitingAccept
		s.pairing = p
		s.deadline = p.deadline
		l.sendLocked(s.userID, protocol.GameWaiting{WaitUntil: p.deadline.UnixMilli()})
	}
	p.timer = l.sched.AfterFunc(l.cfg.AcceptTimeout, func() { l.expirePairing(p) })
	l.paired.Add(1)
	l.logger.Debug("users paired", zap.String("a", a.userID), zap.String("b", b.userID))
}

// expirePairing ends an accept window that ran out. Users who accepted go back
// to the front of the queue; the others are told the match expired.
func (l *Lobby) expirePairing(p *pairing) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if p.done {
		return
	}
	p.stop()

	var back []*session
	for i, s := range p.sessions {
		if p.accepted[i] {
			back = append(back, s)
			continue
		}
		s.stopTimer()
		delete(l.sessions, s.userID)
		l.expired.Add(1)
		l.sendLocked(s.userID, protocol.Deny(protocol.ReasonExpired, "match was not accepted in time"))
	}
	l.requeueFrontLocked(back)
	l.matchQueueLocked()
}

// breakPairingLocked cancels a pairing because leaving left it. The partner
// returns to the front of the queue.
func (l *Lobby) breakPairingLocked(p *pairing, leaving *session) {
	p.stop()
	var back []*session
	for _, s := range p.sessions {
		if s == leaving {
			s.stopTimer()
			delete(l.sessions, s.userID)
			continue
		}
		back = append(back, s)
	}
	l.requeueFrontLocked(back)
	l.matchQueueLocked()
}

func (l *Lobby) requeueFrontLocked(sessions []*session) {
	if len(sessions) == 0 {
		return
	}
	for _, s := range sessions {
		s.pairing = nil
		s.state = StateWaiting
		l.armWaitingLocked(s)
		l.sendLocked(s.userID, protocol.LobbyWaiting{WaitUntil: s.deadline.UnixMilli()})
	}
	l.queue = append(append(make([]*session, 0, len(sessions)+len(l.queue)), sessions...), l.queue...)
}
