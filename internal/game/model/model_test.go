package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositionLayout(t *testing.T) {
	assert.Equal(t, Position(1), NewPosition(LeaderFirst, RowFront, 0))
	assert.Equal(t, Position(6), NewPosition(LeaderFirst, RowBack, 2))
	assert.Equal(t, Position(7), NewPosition(LeaderSecond, RowFront, 0))
	assert.Equal(t, Position(12), NewPosition(LeaderSecond, RowBack, 2))
	assert.Equal(t, Position(0), NewPosition(LeaderNone, RowFront, 0))
	assert.Equal(t, Position(0), NewPosition(LeaderFirst, RowFront, 3))

	for _, p := range AllPositions() {
		require.True(t, p.Valid())
		assert.Equal(t, p, NewPosition(p.Leader(), p.Row(), p.Column()), "round trip %s", p)
	}
	assert.Len(t, AllPositions(), CellCount)
}

func TestPositionAdjacentStaysOnSide(t *testing.T) {
	p := NewPosition(LeaderSecond, RowFront, 1)
	adj := p.Adjacent()
	assert.Len(t, adj, 3)
	for _, a := range adj {
		assert.Equal(t, LeaderSecond, a.Leader())
	}
	assert.Len(t, NewPosition(LeaderFirst, RowBack, 0).Adjacent(), 2)
}

func TestLeaderOpponent(t *testing.T) {
	assert.Equal(t, LeaderSecond, LeaderFirst.Opponent())
	assert.Equal(t, LeaderFirst, LeaderSecond.Opponent())
	assert.Equal(t, LeaderNone, LeaderNone.Opponent())
}

func TestTargetSide(t *testing.T) {
	assert.Equal(t, LeaderSecond, CellTarget(9).Side())
	assert.Equal(t, LeaderFirst, LeaderTarget(LeaderFirst).Side())
	assert.True(t, Target{}.IsZero())
	assert.False(t, Target{Leader: LeaderFirst, Position: 8}.IsLeader())
}

func TestWithPlayerDoesNotMutateReceiver(t *testing.T) {
	s := NewGameState()
	p := s.Player(LeaderFirst)
	p.HP = 12
	next := s.WithPlayer(p)

	assert.Equal(t, 0, s.Player(LeaderFirst).HP)
	assert.Equal(t, 12, next.Player(LeaderFirst).HP)
}

func TestFieldCopyOnWrite(t *testing.T) {
	f := NewFieldState()
	u := &FieldUnitState{ID: 3, Owner: LeaderFirst, Position: 2, BaseMaxHP: 2, HP: 2}
	f2 := f.WithObject(2, FieldObject{Unit: u})

	assert.True(t, f.IsEmpty(2))
	got, ok := f2.UnitByID(3)
	require.True(t, ok)
	assert.Equal(t, Position(2), got.Position)

	f3 := f2.WithoutObject(2)
	assert.True(t, f3.IsEmpty(2))
	assert.False(t, f2.IsEmpty(2))
}

func TestCardSliceHelpers(t *testing.T) {
	cards := []CardState{{ID: 1}, {ID: 2}, {ID: 3}}
	assert.Equal(t, []CardState{{ID: 1}, {ID: 3}}, RemoveCard(cards, 2))
	assert.Equal(t, []CardState{{ID: 9}, {ID: 1}, {ID: 2}, {ID: 3}}, InsertCard(cards, -1, CardState{ID: 9}))
	assert.Equal(t, []CardState{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 9}}, InsertCard(cards, 99, CardState{ID: 9}))
	assert.Len(t, cards, 3)
}

func TestMaskCards(t *testing.T) {
	masked := MaskCards([]CardState{{ID: 4, DefID: 100, Owner: LeaderSecond, Kind: CardKindUnit, Cost: 2}})
	require.Len(t, masked, 1)
	assert.True(t, masked[0].IsMasked())
	assert.Zero(t, masked[0].ID)
	assert.Zero(t, masked[0].DefID)
	assert.Equal(t, LeaderSecond, masked[0].Owner)
}

func TestDigestStableAcrossEqualStates(t *testing.T) {
	a := NewGameState()
	b := NewGameState()
	assert.Equal(t, a.MustDigest(), b.MustDigest())

	p := b.Player(LeaderSecond)
	p.MP = 3
	b = b.WithPlayer(p)
	assert.NotEqual(t, a.MustDigest(), b.MustDigest())
}

func TestGameStateJSONRoundTrip(t *testing.T) {
	s := NewGameState()
	s = s.WithField(s.Field.WithObject(8, FieldObject{Unit: &FieldUnitState{ID: 1, Owner: LeaderSecond, Position: 8}}))
	s = s.WithEffects([]EffectState{{ID: 2, DefID: 5, Target: TargetUnit(1), Source: SourceLeader(LeaderFirst), Expiry: UntilTurnEnd(LeaderFirst)}})

	data, err := json.Marshal(s)
	require.NoError(t, err)
	var back GameState
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, s.MustDigest(), back.MustDigest())
	assert.True(t, back.Effects[0].ExpiresAtTurnEndOf(LeaderFirst))
}
