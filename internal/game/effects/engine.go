// Package effects implements the persistent effect queries, cascades and expiry
// rules over the EffectState records of a match.
package effects

import (
	"github.com/samber/lo"

	"github.com/nenshoukei/zombals-sub000/internal/game/model"
)

// FindByDefinitionAndTarget returns the first effect of defID pinned to target.
func FindByDefinitionAndTarget(effects []model.EffectState, defID int, target model.EffectTarget) (model.EffectState, bool) {
	return lo.Find(effects, func(e model.EffectState) bool {
		return e.DefID == defID && sameTarget(e.Target, target)
	})
}

// FindAllByDefinition returns every effect of defID in insertion order.
func FindAllByDefinition(effects []model.EffectState, defID int) []model.EffectState {
	return lo.Filter(effects, func(e model.EffectState, _ int) bool {
		return e.DefID == defID
	})
}

// FindAllByTarget returns every effect pinned to target in insertion order.
func FindAllByTarget(effects []model.EffectState, target model.EffectTarget) []model.EffectState {
	return lo.Filter(effects, func(e model.EffectState, _ int) bool {
		return sameTarget(e.Target, target)
	})
}

// FindAllByTargetOrUntargeted returns the effects pinned to target plus the
// untargeted effects of owner, which apply to everything on owner's side.
func FindAllByTargetOrUntargeted(effects []model.EffectState, target model.EffectTarget, owner model.Leader) []model.EffectState {
	return FindAllByTargetsOrUntargeted(effects, owner, target)
}

// FindAllByTargetsOrUntargeted is FindAllByTargetOrUntargeted for several
// targets at once, keeping a single insertion order.
func FindAllByTargetsOrUntargeted(effects []model.EffectState, owner model.Leader, targets ...model.EffectTarget) []model.EffectState {
	return lo.Filter(effects, func(e model.EffectState, _ int) bool {
		if e.Target.IsNone() {
			return e.Owner == owner
		}
		return lo.ContainsBy(targets, func(t model.EffectTarget) bool {
			return sameTarget(e.Target, t)
		})
	})
}

// FindAllBySource returns every effect created by source. Object sources match
// by id alone, so an effect follows its source across an owner change.
func FindAllBySource(effects []model.EffectState, source model.EffectSource) []model.EffectState {
	return lo.Filter(effects, func(e model.EffectState, _ int) bool {
		if e.Source.Kind != source.Kind {
			return false
		}
		if source.Kind == model.EffectSourceLeader {
			return e.Source.Leader == source.Leader
		}
		return e.Source.ID == source.ID
	})
}

// ExpiringAtTurnEnd returns the effects that expire when leader's turn ends.
func ExpiringAtTurnEnd(effects []model.EffectState, leader model.Leader) []model.EffectState {
	return lo.Filter(effects, func(e model.EffectState, _ int) bool {
		return e.ExpiresAtTurnEndOf(leader)
	})
}

func sameTarget(a, b model.EffectTarget) bool {
	if a.IsNone() || b.IsNone() {
		return a.IsNone() && b.IsNone()
	}
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind == model.EffectTargetLeader {
		return a.Leader == b.Leader
	}
	return a.ID == b.ID
}

// Orphaned returns the ids of effects whose target or source no longer exists
// in s. Leader targets and leader sources never leave.
func Orphaned(s model.GameState) []int {
	ids := make([]int, 0)
	for _, e := range s.Effects {
		if !targetPresent(s, e.Target) || !sourcePresent(s, e.Source) {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

func targetPresent(s model.GameState, t model.EffectTarget) bool {
	switch t.Kind {
	case model.EffectTargetUnit:
		_, ok := s.Field.UnitByID(t.ID)
		return ok
	case model.EffectTargetFloor:
		_, ok := s.Field.FloorByID(t.ID)
		return ok
	default:
		return true
	}
}

func sourcePresent(s model.GameState, src model.EffectSource) bool {
	switch src.Kind {
	case model.EffectSourceUnit:
		_, ok := s.Field.UnitByID(src.ID)
		return ok
	case model.EffectSourceBuilding:
		_, ok := s.Field.BuildingByID(src.ID)
		return ok
	case model.EffectSourceFloor:
		_, ok := s.Field.FloorByID(src.ID)
		return ok
	case model.EffectSourceWeapon:
		w := s.Player(src.Leader).Weapon
		return w != nil && w.CardID == src.ID
	case model.EffectSourceBadge:
		return lo.ContainsBy(s.Player(src.Leader).Badges, func(b model.BadgeState) bool {
			return b.ID == src.ID
		})
	default:
		return true
	}
}
