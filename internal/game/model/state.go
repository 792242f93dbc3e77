package model

import "time"

// GameState is the immutable root snapshot of one match. Mutations go through
// the With* helpers, which return copies and never touch the receiver.
type GameState struct {
	Turn         int                    `json:"turn"`
	TurnEndAt    *time.Time             `json:"turnEndAt,omitempty"`
	ActiveLeader Leader                 `json:"activeLeader"`
	Players      map[Leader]PlayerState `json:"players"`
	Field        FieldState             `json:"field"`
	Effects      []EffectState          `json:"effects"`
	Finished     bool                   `json:"finished"`
	Winner       Leader                 `json:"winner"`
	LastObjectID int                    `json:"lastObjectId"`
}

// NewGameState returns the empty pre-start state every replay begins from.
func NewGameState() GameState {
	return GameState{
		Players: map[Leader]PlayerState{
			LeaderFirst:  {Leader: LeaderFirst},
			LeaderSecond: {Leader: LeaderSecond},
		},
		Field:   NewFieldState(),
		Effects: []EffectState{},
	}
}

// Player returns the state of leader l.
func (s GameState) Player(l Leader) PlayerState {
	return s.Players[l]
}

// WithPlayer returns a copy of the state with p replacing its leader's entry.
func (s GameState) WithPlayer(p PlayerState) GameState {
	players := make(map[Leader]PlayerState, len(s.Players))
	for k, v := range s.Players {
		players[k] = v
	}
	players[p.Leader] = p
	s.Players = players
	return s
}

// WithField returns a copy of the state with a new field.
func (s GameState) WithField(f FieldState) GameState {
	s.Field = f
	return s
}

// WithEffects returns a copy of the state with a new effect list.
func (s GameState) WithEffects(effects []EffectState) GameState {
	s.Effects = effects
	return s
}

// Effect returns the effect with the given id.
func (s GameState) Effect(id int) (EffectState, bool) {
	for _, e := range s.Effects {
		if e.ID == id {
			return e, true
		}
	}
	return EffectState{}, false
}

// IsDraw reports whether the match finished without a winner.
func (s GameState) IsDraw() bool {
	return s.Finished && s.Winner == LeaderNone
}

// IsMulligan reports whether the match is in the mulligan phase.
func (s GameState) IsMulligan() bool {
	return s.Turn == 0 && !s.Finished && s.Players[LeaderFirst].MaxHP > 0
}

// FindCard looks for a card id in every zone of both players.
func (s GameState) FindCard(id int) (CardState, bool) {
	for _, l := range Leaders {
		p := s.Players[l]
		if c, ok := p.HandCard(id); ok {
			return c, true
		}
		if i := p.LibraryIndex(id); i >= 0 {
			return p.Library[i], true
		}
		if c, ok := p.ResidentCard(id); ok {
			return c, true
		}
	}
	return CardState{}, false
}
