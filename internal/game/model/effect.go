package model

import "encoding/json"

// EffectTargetKind says what an effect is pinned to.
type EffectTargetKind string

const (
	EffectTargetNone   EffectTargetKind = "none"
	EffectTargetLeader EffectTargetKind = "leader"
	EffectTargetUnit   EffectTargetKind = "unit"
	EffectTargetFloor  EffectTargetKind = "floor"
)

// EffectTarget pins an effect. Leader is set for leader targets, ID for unit and floor targets.
type EffectTarget struct {
	Kind   EffectTargetKind `json:"kind"`
	Leader Leader           `json:"leader,omitempty"`
	ID     int              `json:"id,omitempty"`
}

// NoTarget is the target of untargeted effects.
var NoTarget = EffectTarget{Kind: EffectTargetNone}

// TargetLeader pins an effect to a leader.
func TargetLeader(l Leader) EffectTarget {
	return EffectTarget{Kind: EffectTargetLeader, Leader: l}
}

// TargetUnit pins an effect to a unit id.
func TargetUnit(id int) EffectTarget {
	return EffectTarget{Kind: EffectTargetUnit, ID: id}
}

// TargetFloor pins an effect to a floor id.
func TargetFloor(id int) EffectTarget {
	return EffectTarget{Kind: EffectTargetFloor, ID: id}
}

// IsNone reports whether the effect is untargeted.
func (t EffectTarget) IsNone() bool {
	return t.Kind == EffectTargetNone || t.Kind == ""
}

// EffectSourceKind says what created an effect.
type EffectSourceKind string

const (
	EffectSourceLeader   EffectSourceKind = "leader"
	EffectSourceCard     EffectSourceKind = "card"
	EffectSourceUnit     EffectSourceKind = "unit"
	EffectSourceBuilding EffectSourceKind = "building"
	EffectSourceFloor    EffectSourceKind = "floor"
	EffectSourceWeapon   EffectSourceKind = "weapon"
	EffectSourceBadge    EffectSourceKind = "badge"
)

// EffectSource records the creator of an effect.
type EffectSource struct {
	Kind   EffectSourceKind `json:"kind"`
	Leader Leader           `json:"leader,omitempty"`
	ID     int              `json:"id,omitempty"`
}

// SourceLeader names a leader as the source.
func SourceLeader(l Leader) EffectSource {
	return EffectSource{Kind: EffectSourceLeader, Leader: l}
}

// SourceOf names an entity of the given kind as the source.
func SourceOf(kind EffectSourceKind, owner Leader, id int) EffectSource {
	return EffectSource{Kind: kind, Leader: owner, ID: id}
}

// ExpiryKind names when an effect expires.
type ExpiryKind string

// ExpiryTurnEnd expires an effect when the given leader's turn ends.
const ExpiryTurnEnd ExpiryKind = "TURN_END"

// Expiry is an optional expiry condition.
type Expiry struct {
	Kind   ExpiryKind `json:"kind"`
	Leader Leader     `json:"leader"`
}

// UntilTurnEnd builds an expiry at the end of leader's turn.
func UntilTurnEnd(l Leader) *Expiry {
	return &Expiry{Kind: ExpiryTurnEnd, Leader: l}
}

// EffectState is a persistent effect record.
type EffectState struct {
	ID      int             `json:"id"`
	DefID   int             `json:"defId"`
	Owner   Leader          `json:"owner"`
	Target  EffectTarget    `json:"target"`
	Source  EffectSource    `json:"source"`
	Expiry  *Expiry         `json:"expiry,omitempty"`
	Storage json.RawMessage `json:"storage,omitempty"`
}

// ExpiresAtTurnEndOf reports whether the effect expires when leader's turn ends.
func (e EffectState) ExpiresAtTurnEndOf(l Leader) bool {
	return e.Expiry != nil && e.Expiry.Kind == ExpiryTurnEnd && e.Expiry.Leader == l
}
