package game

import (
	"github.com/nenshoukei/zombals-sub000/internal/game/model"
	"github.com/nenshoukei/zombals-sub000/internal/game/registry"
)

// Job is the class a deck is built for. JobNeutral cards fit every deck.
type Job int

const (
	JobNeutral Job = iota
	JobWarrior
	JobMage
	JobPriest
	JobThief
)

func (j Job) String() string {
	switch j {
	case JobNeutral:
		return "neutral"
	case JobWarrior:
		return "warrior"
	case JobMage:
		return "mage"
	case JobPriest:
		return "priest"
	case JobThief:
		return "thief"
	default:
		return "unknown"
	}
}

// Rarity of a card.
type Rarity string

const (
	RarityCommon Rarity = "common"
	RarityRare   Rarity = "rare"
	RarityEpic   Rarity = "epic"
	RarityLegend Rarity = "legend"
)

// Status is a boolean capability granted by a card or an effect.
type Status string

const (
	StatusHaste         Status = "haste"
	StatusGuardian      Status = "guardian"
	StatusSnipe         Status = "snipe"
	StatusStealth       Status = "stealth"
	StatusDoubleAttack  Status = "double_attack"
	StatusNoCounter     Status = "no_counter"
	StatusImmune        Status = "immune"
	StatusPenetrate     Status = "penetrate"
	StatusImmovable     Status = "immovable"
	StatusFortuneChoice Status = "fortune_choice"
	StatusFortuneAll    Status = "fortune_all"
)

// TargetRule says which targets a card accepts when used.
type TargetRule int

const (
	TargetNone TargetRule = iota
	TargetOwnEmptyCell
	TargetOwnFloorlessCell
	TargetAnyUnit
	TargetOwnUnit
	TargetEnemyUnit
	TargetEnemyAny
	TargetAny
)

// CardInfo is the static data of a card definition.
type CardInfo struct {
	ID         int
	Name       string
	Kind       model.CardKind
	Cost       int
	Rarity     Rarity
	Job        Job
	Token      bool
	Power      int
	HP         int
	Durability int
	Target     TargetRule
	Statuses   []Status
}

// NewCard creates a card instance of this definition.
func (i CardInfo) NewCard(id int, owner model.Leader) model.CardState {
	return model.CardState{
		ID:         id,
		DefID:      i.ID,
		Owner:      owner,
		Kind:       i.Kind,
		Cost:       i.Cost,
		Power:      i.Power,
		HP:         i.HP,
		Durability: i.Durability,
	}
}

// HasStatus reports whether the card grants s innately.
func (i CardInfo) HasStatus(s Status) bool {
	for _, st := range i.Statuses {
		if st == s {
			return true
		}
	}
	return false
}

// CardDefinition is the behaviour of one card id.
type CardDefinition interface {
	ID() int
	Info() CardInfo
	Use(c *CardContext, target *model.Target) error
}

// UsableChecker lets a card refuse use beyond the cost and target rules.
type UsableChecker interface {
	CanUse(c *CardContext) bool
}

// EffectDefinition is the behaviour of one persistent effect id. Behaviour is
// added through the capability interfaces below.
type EffectDefinition interface {
	ID() int
	Name() string
}

// Subject is what a modifier is evaluated for: a unit (UnitID set) or a leader.
type Subject struct {
	Owner  model.Leader
	UnitID int
}

// IsLeader reports whether the subject is a leader.
func (s Subject) IsLeader() bool { return s.UnitID == 0 }

type PowerModifier interface {
	ModifyPower(g *GameContext, e model.EffectState, subject Subject, power int) int
}

type MaxHPModifier interface {
	ModifyMaxHP(g *GameContext, e model.EffectState, subject Subject, hp int) int
}

type StatusGranter interface {
	GrantsStatus(e model.EffectState, subject Subject, s Status) bool
}

// CounterDamageModifier changes the counter damage an attacker receives.
type CounterDamageModifier interface {
	ModifyCounterDamage(e model.EffectState, damage int) int
}

// StorageValidator rejects a storage payload the definition cannot read.
// AddEffect runs it before the effect is logged.
type StorageValidator interface {
	ValidateStorage(e model.EffectState) error
}

// EffectHooks react to an effect entering and leaving the state. Each hook runs
// at most once per effect id.
type EffectHooks interface {
	OnAdded(g *GameContext, e model.EffectState) error
	OnRemoved(g *GameContext, e model.EffectState) error
}

// BadgeDefinition is the behaviour of one badge id.
type BadgeDefinition interface {
	ID() int
	Name() string
}

// FloorDefinition is the behaviour of one floor id.
type FloorDefinition interface {
	ID() int
	Name() string
}

// TurnStartHook runs at the start of the owner's turn for badges, buildings and floors.
type TurnStartHook interface {
	OnTurnStart(g *GameContext, owner model.Leader, objectID int) error
}

// DestroyedHook runs after a unit or building of this definition is destroyed.
// Exiled units skip it.
type DestroyedHook interface {
	OnDestroyed(g *GameContext, owner model.Leader, objectID int) error
}

// JobDefinition names the skills a job starts with.
type JobDefinition interface {
	ID() int
	TensionSkill() int
	HeroSkill() int
}

// Registries bundles every definition table a match needs.
type Registries struct {
	Cards   *registry.Registry[CardDefinition]
	Effects *registry.Registry[EffectDefinition]
	Badges  *registry.Registry[BadgeDefinition]
	Floors  *registry.Registry[FloorDefinition]
	Jobs    *registry.Registry[JobDefinition]
}

// NewRegistries creates empty tables.
func NewRegistries() *Registries {
	return &Registries{
		Cards:   registry.New[CardDefinition]("card"),
		Effects: registry.New[EffectDefinition]("effect"),
		Badges:  registry.New[BadgeDefinition]("badge"),
		Floors:  registry.New[FloorDefinition]("floor"),
		Jobs:    registry.New[JobDefinition]("job"),
	}
}
