package game

import (
	"github.com/nenshoukei/zombals-sub000/internal/game/action"
	"github.com/nenshoukei/zombals-sub000/internal/game/model"
)

// PlayerContext reads and changes one leader's side.
type PlayerContext struct {
	g      *GameContext
	leader model.Leader
}

func (p *PlayerContext) Leader() model.Leader       { return p.leader }
func (p *PlayerContext) State() model.PlayerState   { return p.g.m.state.Player(p.leader) }
func (p *PlayerContext) Opponent() *PlayerContext   { return p.g.Player(p.leader.Opponent()) }
func (p *PlayerContext) HP() int                    { return p.State().HP }
func (p *PlayerContext) MaxHP() int                 { return p.State().MaxHP }
func (p *PlayerContext) MP() int                    { return p.State().MP }
func (p *PlayerContext) MaxMP() int                 { return p.State().MaxMP }
func (p *PlayerContext) Tension() int               { return p.State().Tension }
func (p *PlayerContext) Hand() []model.CardState    { return p.State().Hand }
func (p *PlayerContext) subject() Subject           { return Subject{Owner: p.leader} }
func (p *PlayerContext) IsActive() bool             { return p.g.m.state.ActiveLeader == p.leader }
func (p *PlayerContext) Library() []model.CardState { return p.State().Library }

// CalculatedPower is the weapon power with every applicable effect folded in.
func (p *PlayerContext) CalculatedPower() int {
	base := 0
	if w := p.State().Weapon; w != nil {
		base = w.Power
	}
	return p.g.foldPower(p.subject(), base)
}

// HasStatus reports whether an effect grants s to the leader.
func (p *PlayerContext) HasStatus(s Status) bool {
	return p.g.effectGrants(p.subject(), s)
}

// Weapon returns the equipped weapon context.
func (p *PlayerContext) Weapon() (*WeaponContext, bool) {
	if p.State().Weapon == nil {
		return nil, false
	}
	return p.g.m.cached("weapon", int(p.leader), func() interface{} {
		return &WeaponContext{g: p.g, leader: p.leader}
	}).(*WeaponContext), true
}

// GainDamage deals damage to the leader and returns the amount applied.
func (p *PlayerContext) GainDamage(amount int) (int, error) {
	if amount <= 0 || p.HasStatus(StatusImmune) {
		return 0, nil
	}
	applied := min(amount, max(p.HP(), 0))
	if applied == 0 {
		return 0, nil
	}
	return applied, p.g.emit(p.leader, &action.LeaderGainDamage{Leader: p.leader, Amount: applied})
}

// Heal restores HP up to the maximum and returns the amount applied.
func (p *PlayerContext) Heal(amount int) (int, error) {
	applied := max(0, min(amount, p.MaxHP()-p.HP()))
	if applied == 0 {
		return 0, nil
	}
	return applied, p.g.emit(p.leader, &action.LeaderHeal{Leader: p.leader, Amount: applied})
}

func (p *PlayerContext) update(hp, maxHP, mp, maxMP int) error {
	s := p.State()
	maxMP = max(0, min(maxMP, model.MaxMP))
	mp = max(0, min(mp, maxMP))
	if s.HP == hp && s.MaxHP == maxHP && s.MP == mp && s.MaxMP == maxMP {
		return nil
	}
	return p.g.emit(p.leader, &action.LeaderUpdate{Leader: p.leader, HP: hp, MaxHP: maxHP, MP: mp, MaxMP: maxMP})
}

// GainMP adds n MP without exceeding the maximum.
func (p *PlayerContext) GainMP(n int) error {
	s := p.State()
	return p.update(s.HP, s.MaxHP, s.MP+n, s.MaxMP)
}

// SetMP sets the current MP.
func (p *PlayerContext) SetMP(n int) error {
	s := p.State()
	return p.update(s.HP, s.MaxHP, n, s.MaxMP)
}

// SetMaxMP sets the maximum MP, capped at model.MaxMP.
func (p *PlayerContext) SetMaxMP(n int) error {
	s := p.State()
	return p.update(s.HP, s.MaxHP, s.MP, n)
}

// SetMaxHP changes the maximum HP, clamping current HP down.
func (p *PlayerContext) SetMaxHP(n int) error {
	s := p.State()
	n = max(n, 0)
	return p.update(min(s.HP, n), n, s.MP, s.MaxMP)
}

// DrawCard draws from the end of the library. An empty library yields the
// fatigue pseudo-card and deals increasing damage. A draw into a full hand is
// discarded. The returned card is nil for fatigue and overflow.
func (p *PlayerContext) DrawCard() (*model.CardState, error) {
	s := p.State()
	if len(s.Library) == 0 {
		damage := s.FatigueCount + 1
		if err := p.g.emit(p.leader, &action.Draw{Card: model.FatigueCard(p.leader, damage)}); err != nil {
			return nil, err
		}
		_, err := p.GainDamage(damage)
		return nil, err
	}

	c := s.Library[len(s.Library)-1]
	full := len(s.Hand) >= model.MaxHand
	if err := p.g.emit(p.leader, &action.Draw{Card: c}); err != nil {
		return nil, err
	}
	if full {
		return nil, p.g.emit(p.leader, &action.Discard{Card: c})
	}
	return &c, nil
}

// AddCard creates a card of defID in the hand. Overflow is discarded.
func (p *PlayerContext) AddCard(defID int) (*model.CardState, error) {
	def, err := p.g.m.defs.Cards.Get(defID)
	if err != nil {
		return nil, err
	}
	c := def.Info().NewCard(p.g.newID(), p.leader)
	full := len(p.Hand()) >= model.MaxHand
	if err := p.g.emit(p.leader, &action.AddCard{Card: c}); err != nil {
		return nil, err
	}
	if full {
		return nil, p.g.emit(p.leader, &action.Discard{Card: c})
	}
	return &c, nil
}

// Discard removes a card from the hand.
func (p *PlayerContext) Discard(cardID int) error {
	c, ok := p.State().HandCard(cardID)
	if !ok {
		return runtimeErr("discard", "card %d not in hand of %s", cardID, p.leader)
	}
	return p.g.emit(p.leader, &action.Discard{Card: c})
}

// UpdateCard replaces a held card, typically to change its cost.
func (p *PlayerContext) UpdateCard(c model.CardState) error {
	s := p.State()
	_, inResident := s.ResidentCard(c.ID)
	if s.HandIndex(c.ID) < 0 && s.LibraryIndex(c.ID) < 0 && !inResident {
		return runtimeErr("update_card", "card %d not held by %s", c.ID, p.leader)
	}
	c.Owner = p.leader
	return p.g.emit(p.leader, &action.CardUpdate{Card: c})
}

// TensionUp raises tension by one. Unlike the player command it does not
// use up the once per turn tension up.
func (p *PlayerContext) TensionUp() error {
	return p.SetTension(p.Tension() + 1)
}

// SetTension sets tension within [0, MaxTension].
func (p *PlayerContext) SetTension(n int) error {
	n = max(0, min(n, model.MaxTension))
	if n == p.Tension() {
		return nil
	}
	return p.g.emit(p.leader, &action.TensionSet{Tension: n})
}

// EquipWeapon equips a weapon card, breaking the current one first.
func (p *PlayerContext) EquipWeapon(card model.CardState) (*WeaponContext, error) {
	if w, ok := p.Weapon(); ok {
		if err := w.Break(); err != nil {
			return nil, err
		}
	}
	weapon := model.WeaponState{CardID: card.ID, DefID: card.DefID, Power: card.Power, Durability: card.Durability}
	if err := p.g.emit(p.leader, &action.EquipWeapon{Weapon: weapon}); err != nil {
		return nil, err
	}
	w, _ := p.Weapon()
	return w, nil
}

// BreakWeapon breaks the equipped weapon, if any.
func (p *PlayerContext) BreakWeapon() error {
	if w, ok := p.Weapon(); ok {
		return w.Break()
	}
	return nil
}

// ChangeTensionSkill replaces the tension skill slot with a new card of defID.
func (p *PlayerContext) ChangeTensionSkill(defID int) error {
	def, err := p.g.m.defs.Cards.Get(defID)
	if err != nil {
		return err
	}
	c := def.Info().NewCard(p.g.newID(), p.leader)
	return p.g.emit(p.leader, &action.TensionSkillChanged{Card: c})
}

// ChangeHeroSkill replaces the hero skill slot with a new card of defID.
func (p *PlayerContext) ChangeHeroSkill(defID int) error {
	def, err := p.g.m.defs.Cards.Get(defID)
	if err != nil {
		return err
	}
	c := def.Info().NewCard(p.g.newID(), p.leader)
	return p.g.emit(p.leader, &action.HeroSkillChanged{Card: c})
}

// AddBadge attaches a badge of defID and returns its id.
func (p *PlayerContext) AddBadge(defID int) (int, error) {
	if _, err := p.g.m.defs.Badges.Get(defID); err != nil {
		return 0, err
	}
	b := model.BadgeState{ID: p.g.newID(), DefID: defID}
	if err := p.g.emit(p.leader, &action.BadgeAdded{Leader: p.leader, Badge: b}); err != nil {
		return 0, err
	}
	return b.ID, nil
}

// RemoveBadge detaches a badge and removes the effects it created.
func (p *PlayerContext) RemoveBadge(id int) error {
	found := false
	for _, b := range p.State().Badges {
		if b.ID == id {
			found = true
		}
	}
	if !found {
		return runtimeErr("remove_badge", "badge %d not attached to %s", id, p.leader)
	}
	if err := p.g.emit(p.leader, &action.BadgeRemoved{Leader: p.leader, ID: id}); err != nil {
		return err
	}
	return p.g.removeEffectsFrom(model.SourceOf(model.EffectSourceBadge, p.leader, id))
}

// Attack makes the leader attack target.
func (p *PlayerContext) Attack(target model.Target) error {
	return p.g.m.attack(p.leader, model.LeaderTarget(p.leader), target)
}
