package action

import (
	"errors"
	"fmt"
	"time"

	"github.com/nenshoukei/zombals-sub000/internal/game/model"
)

// ErrInconsistent is returned when an action does not fit the state it is applied to.
var ErrInconsistent = errors.New("inconsistent action")

func inconsistent(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInconsistent, fmt.Sprintf(format, args...))
}

// Apply folds a into s and returns the next state. s is never modified.
func Apply(s model.GameState, a Action) (model.GameState, error) {
	switch a := a.(type) {
	case *Start:
		return applyStart(s, a)
	case *Mulligan:
		return applyMulligan(s, a)
	case *TurnStart:
		return applyTurnStart(s, a)
	case *End:
		s.Finished = true
		s.Winner = a.Winner
		s.TurnEndAt = nil
		return s, nil
	case *Surrender, *Emote, *SelectOption, *OptionSelected, *SelectHand, *HandSelected:
		return s, nil
	case *Draw:
		return applyDraw(s, a)
	case *AddCard:
		p := s.Player(a.Card.Owner)
		if len(p.Hand) < model.MaxHand {
			p.Hand = model.AppendCard(p.Hand, a.Card)
		}
		return bump(s.WithPlayer(p), a.Card.ID), nil
	case *Discard:
		p := s.Player(a.Card.Owner)
		p.Hand = model.RemoveCard(p.Hand, a.Card.ID)
		p.Library = model.RemoveCard(p.Library, a.Card.ID)
		return s.WithPlayer(p), nil
	case *Attack:
		return applyAttack(s, a)
	case *TensionUp:
		p := s.Player(a.Actor)
		p.Tension = min(p.Tension+1, model.MaxTension)
		p.TensionUpUsed = true
		return s.WithPlayer(p), nil
	case *TensionSet:
		p := s.Player(a.Actor)
		p.Tension = max(0, min(a.Tension, model.MaxTension))
		return s.WithPlayer(p), nil
	case *UseCard:
		return applyUseCard(s, a)
	case *EquipWeapon:
		p := s.Player(a.Actor)
		w := a.Weapon
		p.Weapon = &w
		return s.WithPlayer(p), nil
	case *BreakWeapon:
		p := s.Player(a.Actor)
		p.Weapon = nil
		return s.WithPlayer(p), nil
	case *WeaponUpdate:
		p := s.Player(a.Actor)
		if p.Weapon == nil {
			return s, inconsistent("leader %s has no weapon", a.Actor)
		}
		w := *p.Weapon
		w.Power = a.Power
		w.Durability = a.Durability
		p.Weapon = &w
		return s.WithPlayer(p), nil
	case *TensionSkillChanged:
		p := s.Player(a.Card.Owner)
		c := a.Card
		p.TensionSkill = &c
		return bump(s.WithPlayer(p), c.ID), nil
	case *HeroSkillChanged:
		p := s.Player(a.Card.Owner)
		c := a.Card
		p.HeroSkill = &c
		return bump(s.WithPlayer(p), c.ID), nil
	case *LeaderUpdate:
		p := s.Player(a.Leader)
		p.HP, p.MaxHP, p.MP, p.MaxMP = a.HP, a.MaxHP, a.MP, a.MaxMP
		return s.WithPlayer(p), nil
	case *LeaderGainDamage:
		p := s.Player(a.Leader)
		p.HP -= a.Amount
		return s.WithPlayer(p), nil
	case *LeaderHeal:
		p := s.Player(a.Leader)
		p.HP = min(p.HP+a.Amount, p.MaxHP)
		return s.WithPlayer(p), nil
	case *UnitUpdate:
		return updateUnit(s, a.ID, func(u *model.FieldUnitState) { u.HP = a.HP })
	case *UnitGainDamage:
		return updateUnit(s, a.ID, func(u *model.FieldUnitState) { u.HP -= a.Amount })
	case *UnitHeal:
		return updateUnit(s, a.ID, func(u *model.FieldUnitState) { u.HP += a.Amount })
	case *BuildingUpdate:
		return updateBuilding(s, a.ID, func(b *model.FieldBuildingState) { b.Durability = a.Durability })
	case *BuildingGainDamage:
		return updateBuilding(s, a.ID, func(b *model.FieldBuildingState) { b.Durability -= a.Amount })
	case *BuildingHeal:
		return updateBuilding(s, a.ID, func(b *model.FieldBuildingState) { b.Durability += a.Amount })
	case *UnitPut:
		u := a.Unit
		if !u.Position.Valid() || !s.Field.IsEmpty(u.Position) {
			return s, inconsistent("cannot put unit %d at %s", u.ID, u.Position)
		}
		return bump(s.WithField(s.Field.WithObject(u.Position, model.FieldObject{Unit: &u})), u.ID), nil
	case *UnitMove:
		return applyUnitMove(s, a)
	case *UnitSwap:
		return applyUnitSwap(s, a)
	case *UnitOwnerChanged:
		return applyOwnerChanged(s, a)
	case *UnitDestroyed:
		u, ok := s.Field.UnitByID(a.ID)
		if !ok {
			return s, inconsistent("unit %d not on field", a.ID)
		}
		s = s.WithField(s.Field.WithoutObject(u.Position))
		p := s.Player(u.Owner)
		p.DeadUnitDefIDs = model.AppendInt(p.DeadUnitDefIDs, u.DefID)
		return s.WithPlayer(p), nil
	case *UnitExiled:
		u, ok := s.Field.UnitByID(a.ID)
		if !ok {
			return s, inconsistent("unit %d not on field", a.ID)
		}
		return s.WithField(s.Field.WithoutObject(u.Position)), nil
	case *BuildingPut:
		b := a.Building
		if !b.Position.Valid() || !s.Field.IsEmpty(b.Position) {
			return s, inconsistent("cannot put building %d at %s", b.ID, b.Position)
		}
		return bump(s.WithField(s.Field.WithObject(b.Position, model.FieldObject{Building: &b})), b.ID), nil
	case *BuildingDestroyed:
		b, ok := s.Field.BuildingByID(a.ID)
		if !ok {
			return s, inconsistent("building %d not on field", a.ID)
		}
		return s.WithField(s.Field.WithoutObject(b.Position)), nil
	case *FloorPut:
		if !a.Floor.Position.Valid() {
			return s, inconsistent("cannot put floor %d at %s", a.Floor.ID, a.Floor.Position)
		}
		if _, ok := s.Field.Floor(a.Floor.Position); ok {
			return s, inconsistent("floor already laid at %s", a.Floor.Position)
		}
		return bump(s.WithField(s.Field.WithFloor(a.Floor)), a.Floor.ID), nil
	case *FloorDestroyed:
		f, ok := s.Field.FloorByID(a.ID)
		if !ok {
			return s, inconsistent("floor %d not on field", a.ID)
		}
		return s.WithField(s.Field.WithoutFloor(f.Position)), nil
	case *BadgeAdded:
		p := s.Player(a.Leader)
		badges := make([]model.BadgeState, len(p.Badges), len(p.Badges)+1)
		copy(badges, p.Badges)
		p.Badges = append(badges, a.Badge)
		return bump(s.WithPlayer(p), a.Badge.ID), nil
	case *BadgeRemoved:
		p := s.Player(a.Leader)
		badges := make([]model.BadgeState, 0, len(p.Badges))
		for _, b := range p.Badges {
			if b.ID != a.ID {
				badges = append(badges, b)
			}
		}
		if len(badges) == len(p.Badges) {
			return s, inconsistent("badge %d not attached to %s", a.ID, a.Leader)
		}
		p.Badges = badges
		return s.WithPlayer(p), nil
	case *EffectAdded:
		if _, ok := s.Effect(a.Effect.ID); ok {
			return s, inconsistent("effect %d already exists", a.Effect.ID)
		}
		effects := make([]model.EffectState, len(s.Effects), len(s.Effects)+1)
		copy(effects, s.Effects)
		return bump(s.WithEffects(append(effects, a.Effect)), a.Effect.ID), nil
	case *EffectRemoved:
		effects := make([]model.EffectState, 0, len(s.Effects))
		for _, e := range s.Effects {
			if e.ID != a.ID {
				effects = append(effects, e)
			}
		}
		if len(effects) == len(s.Effects) {
			return s, inconsistent("effect %d not found", a.ID)
		}
		return s.WithEffects(effects), nil
	case *CardUpdate:
		return applyCardUpdate(s, a)
	default:
		return s, inconsistent("unhandled action %T", a)
	}
}

// Replay folds log over the empty state.
func Replay(log []Action) (model.GameState, error) {
	s := model.NewGameState()
	for i, a := range log {
		next, err := Apply(s, a)
		if err != nil {
			return s, fmt.Errorf("action %d (%s): %w", i, a.ActionType(), err)
		}
		s = next
	}
	return s, nil
}

func bump(s model.GameState, id int) model.GameState {
	if id > s.LastObjectID {
		s.LastObjectID = id
	}
	return s
}

func applyStart(s model.GameState, a *Start) (model.GameState, error) {
	if s.Finished || s.Turn != 0 {
		return s, inconsistent("match already running")
	}
	for _, l := range model.Leaders {
		sp, ok := a.Players[l]
		if !ok {
			return s, inconsistent("start is missing leader %s", l)
		}
		s = s.WithPlayer(model.PlayerState{
			Leader:         l,
			HP:             sp.HP,
			MaxHP:          sp.MaxHP,
			MP:             sp.MP,
			MaxMP:          sp.MaxMP,
			Hand:           append([]model.CardState{}, sp.Hand...),
			Library:        append([]model.CardState{}, sp.Library...),
			TensionSkill:   sp.TensionSkill,
			HeroSkill:      sp.HeroSkill,
			Badges:         []model.BadgeState{},
			UsedCardDefIDs: []int{},
			DeadUnitDefIDs: []int{},
		})
	}
	s.ActiveLeader = model.LeaderNone
	return bump(s, a.LastObjectID), nil
}

func applyMulligan(s model.GameState, a *Mulligan) (model.GameState, error) {
	if len(a.Swapped) != len(a.Positions) {
		return s, inconsistent("mulligan has %d cards but %d positions", len(a.Swapped), len(a.Positions))
	}
	p := s.Player(a.Actor)
	for i, id := range a.Swapped {
		c, ok := p.HandCard(id)
		if !ok {
			return s, inconsistent("mulligan card %d not in hand", id)
		}
		p.Hand = model.RemoveCard(p.Hand, id)
		p.Library = model.InsertCard(p.Library, a.Positions[i], c)
	}
	return s.WithPlayer(p), nil
}

func applyTurnStart(s model.GameState, a *TurnStart) (model.GameState, error) {
	if !a.Actor.Valid() {
		return s, inconsistent("turn start without leader")
	}
	s.Turn = a.Turn
	s.ActiveLeader = a.Actor
	s.TurnEndAt = nil
	if a.TurnEndAt != nil {
		t := time.UnixMilli(*a.TurnEndAt).UTC()
		s.TurnEndAt = &t
	}

	p := s.Player(a.Actor)
	p.AttackCount = 0
	p.TensionUpUsed = false
	p.HeroSkillUsed = false
	s = s.WithPlayer(p)

	field := s.Field
	for _, u := range field.Units(a.Actor) {
		if u.AttackCount == 0 {
			continue
		}
		u.AttackCount = 0
		field = field.WithObject(u.Position, model.FieldObject{Unit: &u})
	}
	return s.WithField(field), nil
}

func applyDraw(s model.GameState, a *Draw) (model.GameState, error) {
	p := s.Player(a.Card.Owner)
	if a.Card.IsFatigue() {
		p.FatigueCount++
		return s.WithPlayer(p), nil
	}
	if p.LibraryIndex(a.Card.ID) < 0 {
		return s, inconsistent("card %d not in library of %s", a.Card.ID, a.Card.Owner)
	}
	p.Library = model.RemoveCard(p.Library, a.Card.ID)
	if len(p.Hand) < model.MaxHand {
		p.Hand = model.AppendCard(p.Hand, a.Card)
	}
	return s.WithPlayer(p), nil
}

func applyAttack(s model.GameState, a *Attack) (model.GameState, error) {
	if a.Attacker.IsCell() {
		u, ok := s.Field.Unit(a.Attacker.Position)
		if !ok {
			return s, inconsistent("no attacker at %s", a.Attacker.Position)
		}
		u.AttackCount++
		return s.WithField(s.Field.WithObject(u.Position, model.FieldObject{Unit: &u})), nil
	}
	if !a.Attacker.IsLeader() {
		return s, inconsistent("attack without attacker")
	}
	p := s.Player(a.Attacker.Leader)
	p.AttackCount++
	return s.WithPlayer(p), nil
}

func applyUseCard(s model.GameState, a *UseCard) (model.GameState, error) {
	p := s.Player(a.Card.Owner)
	if !a.Card.Kind.IsResident() {
		if p.HandIndex(a.Card.ID) < 0 {
			return s, inconsistent("card %d not in hand", a.Card.ID)
		}
		p.Hand = model.RemoveCard(p.Hand, a.Card.ID)
	}
	p.MP = max(0, p.MP-a.Card.Cost)
	p.UsedCardDefIDs = model.AppendInt(p.UsedCardDefIDs, a.Card.DefID)
	if a.Card.Kind == model.CardKindHeroSkill {
		p.HeroSkillUsed = true
	}
	return s.WithPlayer(p), nil
}

func applyCardUpdate(s model.GameState, a *CardUpdate) (model.GameState, error) {
	p := s.Player(a.Card.Owner)
	c := a.Card
	switch {
	case p.HandIndex(c.ID) >= 0:
		p.Hand = model.ReplaceCard(p.Hand, c)
	case p.LibraryIndex(c.ID) >= 0:
		p.Library = model.ReplaceCard(p.Library, c)
	case p.TensionSkill != nil && p.TensionSkill.ID == c.ID:
		p.TensionSkill = &c
	case p.HeroSkill != nil && p.HeroSkill.ID == c.ID:
		p.HeroSkill = &c
	default:
		return s, inconsistent("card %d not held by %s", c.ID, c.Owner)
	}
	return s.WithPlayer(p), nil
}

func updateUnit(s model.GameState, id int, fn func(u *model.FieldUnitState)) (model.GameState, error) {
	u, ok := s.Field.UnitByID(id)
	if !ok {
		return s, inconsistent("unit %d not on field", id)
	}
	fn(&u)
	return s.WithField(s.Field.WithObject(u.Position, model.FieldObject{Unit: &u})), nil
}

func updateBuilding(s model.GameState, id int, fn func(b *model.FieldBuildingState)) (model.GameState, error) {
	b, ok := s.Field.BuildingByID(id)
	if !ok {
		return s, inconsistent("building %d not on field", id)
	}
	fn(&b)
	return s.WithField(s.Field.WithObject(b.Position, model.FieldObject{Building: &b})), nil
}

func applyUnitMove(s model.GameState, a *UnitMove) (model.GameState, error) {
	u, ok := s.Field.Unit(a.From)
	if !ok || u.ID != a.ID {
		return s, inconsistent("unit %d not at %s", a.ID, a.From)
	}
	if !a.To.Valid() || !s.Field.IsEmpty(a.To) {
		return s, inconsistent("cell %s is not free", a.To)
	}
	u.Position = a.To
	field := s.Field.WithoutObject(a.From).WithObject(a.To, model.FieldObject{Unit: &u})
	return s.WithField(field), nil
}

func applyUnitSwap(s model.GameState, a *UnitSwap) (model.GameState, error) {
	if !a.A.Valid() || !a.B.Valid() || a.A == a.B {
		return s, inconsistent("cannot swap %s and %s", a.A, a.B)
	}
	oa, okA := s.Field.Objects[a.A]
	ob, okB := s.Field.Objects[a.B]
	if !okA && !okB {
		return s, inconsistent("nothing to swap at %s and %s", a.A, a.B)
	}
	field := s.Field.WithoutObject(a.A).WithoutObject(a.B)
	if okA {
		field = field.WithObject(a.B, relocate(oa, a.B))
	}
	if okB {
		field = field.WithObject(a.A, relocate(ob, a.A))
	}
	return s.WithField(field), nil
}

func relocate(o model.FieldObject, pos model.Position) model.FieldObject {
	if o.Unit != nil {
		u := *o.Unit
		u.Position = pos
		return model.FieldObject{Unit: &u}
	}
	b := *o.Building
	b.Position = pos
	return model.FieldObject{Building: &b}
}

func applyOwnerChanged(s model.GameState, a *UnitOwnerChanged) (model.GameState, error) {
	u, ok := s.Field.Unit(a.From)
	if !ok || u.ID != a.ID {
		return s, inconsistent("unit %d not at %s", a.ID, a.From)
	}
	if a.To.Leader() != a.Owner || !s.Field.IsEmpty(a.To) {
		return s, inconsistent("cell %s cannot take unit of %s", a.To, a.Owner)
	}
	u.Owner = a.Owner
	u.Position = a.To
	field := s.Field.WithoutObject(a.From).WithObject(a.To, model.FieldObject{Unit: &u})
	return s.WithField(field), nil
}
