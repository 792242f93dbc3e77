// Package action defines the append-only action log of a match and the reducer
// that folds it into game state.
package action

import (
	"github.com/nenshoukei/zombals-sub000/internal/game/model"
)

// Type is the wire discriminator of an action.
type Type string

const (
	TypeStart               Type = "START"
	TypeMulligan            Type = "MULLIGAN"
	TypeTurnStart           Type = "TURN_START"
	TypeSurrender           Type = "SURRENDER"
	TypeEnd                 Type = "END"
	TypeEmote               Type = "EMOTE"
	TypeDraw                Type = "DRAW"
	TypeAddCard             Type = "ADD_CARD"
	TypeDiscard             Type = "DISCARD"
	TypeAttack              Type = "ATTACK"
	TypeTensionUp           Type = "TENTION_UP"
	TypeTensionSet          Type = "TENTION_SET"
	TypeUseCard             Type = "USE_CARD"
	TypeEquipWeapon         Type = "EQUIP_WEAPON"
	TypeBreakWeapon         Type = "BREAK_WEAPON"
	TypeWeaponUpdate        Type = "WEAPON_UPDATE"
	TypeTensionSkillChanged Type = "TENTION_SKILL_CHANGED"
	TypeHeroSkillChanged    Type = "HERO_SKILL_CHANGED"
	TypeLeaderUpdate        Type = "LEADER_UPDATE"
	TypeLeaderGainDamage    Type = "LEADER_GAIN_DAMAGE"
	TypeLeaderHeal          Type = "LEADER_HEAL"
	TypeUnitUpdate          Type = "UNIT_UPDATE"
	TypeUnitGainDamage      Type = "UNIT_GAIN_DAMAGE"
	TypeUnitHeal            Type = "UNIT_HEAL"
	TypeBuildingUpdate      Type = "BUILDING_UPDATE"
	TypeBuildingGainDamage  Type = "BUILDING_GAIN_DAMAGE"
	TypeBuildingHeal        Type = "BUILDING_HEAL"
	TypeUnitPut             Type = "UNIT_PUT"
	TypeUnitMove            Type = "UNIT_MOVE"
	TypeUnitSwap            Type = "UNIT_SWAP"
	TypeUnitOwnerChanged    Type = "UNIT_OWNER_CHANGED"
	TypeUnitDestroyed       Type = "UNIT_DESTROYED"
	TypeUnitExiled          Type = "UNIT_EXILED"
	TypeBuildingPut         Type = "BUILDING_PUT"
	TypeBuildingDestroyed   Type = "BUILDING_DESTROYED"
	TypeFloorPut            Type = "FLOOR_PUT"
	TypeFloorDestroyed      Type = "FLOOR_DESTROYED"
	TypeBadgeAdded          Type = "BADGE_ADDED"
	TypeBadgeRemoved        Type = "BADGE_REMOVED"
	TypeSelectOption        Type = "SELECT_OPTION"
	TypeOptionSelected      Type = "OPTION_SELECTED"
	TypeSelectHand          Type = "SELECT_HAND"
	TypeHandSelected        Type = "HAND_SELECTED"
	TypeEffectAdded         Type = "EFFECT_ADDED"
	TypeEffectRemoved       Type = "EFFECT_REMOVED"
	TypeCardUpdate          Type = "CARD_UPDATE"
)

// Action is one entry of the match log.
type Action interface {
	ActionType() Type
	ActionBase() *Base
}

// Base carries the fields shared by every action.
type Base struct {
	Type      Type         `json:"type"`
	Actor     model.Leader `json:"actor"`
	Timestamp int64        `json:"timestamp"`
}

// ActionBase returns the shared header.
func (b *Base) ActionBase() *Base { return b }

// Stamp fills the header of a before it is appended to a log.
func Stamp(a Action, actor model.Leader, timestampMillis int64) Action {
	b := a.ActionBase()
	b.Type = a.ActionType()
	b.Actor = actor
	b.Timestamp = timestampMillis
	return a
}

// StartPlayer is one side's opening position.
type StartPlayer struct {
	HP           int               `json:"hp"`
	MaxHP        int               `json:"maxHp"`
	MP           int               `json:"mp"`
	MaxMP        int               `json:"maxMp"`
	Hand         []model.CardState `json:"hand"`
	Library      []model.CardState `json:"library"`
	TensionSkill *model.CardState  `json:"tensionSkill,omitempty"`
	HeroSkill    *model.CardState  `json:"heroSkill,omitempty"`
}

type Start struct {
	Base
	Players      map[model.Leader]StartPlayer `json:"players"`
	LastObjectID int                          `json:"lastObjectId"`
}

// Mulligan returns Swapped cards from the actor's hand to the library. Swapped[i]
// is inserted at Positions[i]; replacements are logged as DRAW actions before it.
type Mulligan struct {
	Base
	Swapped   []int `json:"swapped"`
	Positions []int `json:"positions"`
}

type TurnStart struct {
	Base
	Turn      int    `json:"turn"`
	TurnEndAt *int64 `json:"turnEndAt,omitempty"`
}

type Surrender struct {
	Base
}

// End finishes the match. Winner is zero for a draw.
type End struct {
	Base
	Winner model.Leader `json:"winner"`
}

type Emote struct {
	Base
	EmoteID int `json:"emoteId"`
}

type Draw struct {
	Base
	Card model.CardState `json:"card"`
}

type AddCard struct {
	Base
	Card model.CardState `json:"card"`
}

type Discard struct {
	Base
	Card model.CardState `json:"card"`
}

type Attack struct {
	Base
	Attacker model.Target `json:"attacker"`
	Target   model.Target `json:"target"`
}

type TensionUp struct {
	Base
}

type TensionSet struct {
	Base
	Tension int `json:"tension"`
}

type UseCard struct {
	Base
	Card   model.CardState `json:"card"`
	Target *model.Target   `json:"target,omitempty"`
}

type EquipWeapon struct {
	Base
	Weapon model.WeaponState `json:"weapon"`
}

type BreakWeapon struct {
	Base
}

type WeaponUpdate struct {
	Base
	Power      int `json:"power"`
	Durability int `json:"durability"`
}

type TensionSkillChanged struct {
	Base
	Card model.CardState `json:"card"`
}

type HeroSkillChanged struct {
	Base
	Card model.CardState `json:"card"`
}

// LeaderUpdate sets absolute leader stats.
type LeaderUpdate struct {
	Base
	Leader model.Leader `json:"leader"`
	HP     int          `json:"hp"`
	MaxHP  int          `json:"maxHp"`
	MP     int          `json:"mp"`
	MaxMP  int          `json:"maxMp"`
}

type LeaderGainDamage struct {
	Base
	Leader model.Leader `json:"leader"`
	Amount int          `json:"amount"`
}

type LeaderHeal struct {
	Base
	Leader model.Leader `json:"leader"`
	Amount int          `json:"amount"`
}

// UnitUpdate sets the current HP of a unit. Power and MaxHP are the calculated
// values at emission time, carried for display only.
type UnitUpdate struct {
	Base
	ID    int `json:"id"`
	HP    int `json:"hp"`
	Power int `json:"power"`
	MaxHP int `json:"maxHp"`
}

type UnitGainDamage struct {
	Base
	ID     int `json:"id"`
	Amount int `json:"amount"`
}

type UnitHeal struct {
	Base
	ID     int `json:"id"`
	Amount int `json:"amount"`
}

type BuildingUpdate struct {
	Base
	ID         int `json:"id"`
	Durability int `json:"durability"`
}

type BuildingGainDamage struct {
	Base
	ID     int `json:"id"`
	Amount int `json:"amount"`
}

type BuildingHeal struct {
	Base
	ID     int `json:"id"`
	Amount int `json:"amount"`
}

type UnitPut struct {
	Base
	Unit model.FieldUnitState `json:"unit"`
}

type UnitMove struct {
	Base
	ID   int            `json:"id"`
	From model.Position `json:"from"`
	To   model.Position `json:"to"`
}

// UnitSwap exchanges the objects at A and B.
type UnitSwap struct {
	Base
	A model.Position `json:"a"`
	B model.Position `json:"b"`
}

type UnitOwnerChanged struct {
	Base
	ID    int            `json:"id"`
	From  model.Position `json:"from"`
	To    model.Position `json:"to"`
	Owner model.Leader   `json:"owner"`
}

type UnitDestroyed struct {
	Base
	ID int `json:"id"`
}

type UnitExiled struct {
	Base
	ID int `json:"id"`
}

type BuildingPut struct {
	Base
	Building model.FieldBuildingState `json:"building"`
}

type BuildingDestroyed struct {
	Base
	ID int `json:"id"`
}

type FloorPut struct {
	Base
	Floor model.FloorState `json:"floor"`
}

type FloorDestroyed struct {
	Base
	ID int `json:"id"`
}

type BadgeAdded struct {
	Base
	Leader model.Leader     `json:"leader"`
	Badge  model.BadgeState `json:"badge"`
}

type BadgeRemoved struct {
	Base
	Leader model.Leader `json:"leader"`
	ID     int          `json:"id"`
}

type SelectOption struct {
	Base
	SelectID int      `json:"selectId"`
	Options  []string `json:"options"`
}

type OptionSelected struct {
	Base
	SelectID      int `json:"selectId"`
	SelectedIndex int `json:"selectedIndex"`
}

type SelectHand struct {
	Base
	SelectID int   `json:"selectId"`
	Count    int   `json:"count"`
	CardIDs  []int `json:"cardIds"`
}

type HandSelected struct {
	Base
	SelectID        int   `json:"selectId"`
	SelectedIndexes []int `json:"selectedIndexes"`
}

type EffectAdded struct {
	Base
	Effect model.EffectState `json:"effect"`
}

type EffectRemoved struct {
	Base
	ID int `json:"id"`
}

// CardUpdate replaces a card held in hand, library or a resident slot.
type CardUpdate struct {
	Base
	Card model.CardState `json:"card"`
}

func (*Start) ActionType() Type               { return TypeStart }
func (*Mulligan) ActionType() Type            { return TypeMulligan }
func (*TurnStart) ActionType() Type           { return TypeTurnStart }
func (*Surrender) ActionType() Type           { return TypeSurrender }
func (*End) ActionType() Type                 { return TypeEnd }
func (*Emote) ActionType() Type               { return TypeEmote }
func (*Draw) ActionType() Type                { return TypeDraw }
func (*AddCard) ActionType() Type             { return TypeAddCard }
func (*Discard) ActionType() Type             { return TypeDiscard }
func (*Attack) ActionType() Type              { return TypeAttack }
func (*TensionUp) ActionType() Type           { return TypeTensionUp }
func (*TensionSet) ActionType() Type          { return TypeTensionSet }
func (*UseCard) ActionType() Type             { return TypeUseCard }
func (*EquipWeapon) ActionType() Type         { return TypeEquipWeapon }
func (*BreakWeapon) ActionType() Type         { return TypeBreakWeapon }
func (*WeaponUpdate) ActionType() Type        { return TypeWeaponUpdate }
func (*TensionSkillChanged) ActionType() Type { return TypeTensionSkillChanged }
func (*HeroSkillChanged) ActionType() Type    { return TypeHeroSkillChanged }
func (*LeaderUpdate) ActionType() Type        { return TypeLeaderUpdate }
func (*LeaderGainDamage) ActionType() Type    { return TypeLeaderGainDamage }
func (*LeaderHeal) ActionType() Type          { return TypeLeaderHeal }
func (*UnitUpdate) ActionType() Type          { return TypeUnitUpdate }
func (*UnitGainDamage) ActionType() Type      { return TypeUnitGainDamage }
func (*UnitHeal) ActionType() Type            { return TypeUnitHeal }
func (*BuildingUpdate) ActionType() Type      { return TypeBuildingUpdate }
func (*BuildingGainDamage) ActionType() Type  { return TypeBuildingGainDamage }
func (*BuildingHeal) ActionType() Type        { return TypeBuildingHeal }
func (*UnitPut) ActionType() Type             { return TypeUnitPut }
func (*UnitMove) ActionType() Type            { return TypeUnitMove }
func (*UnitSwap) ActionType() Type            { return TypeUnitSwap }
func (*UnitOwnerChanged) ActionType() Type    { return TypeUnitOwnerChanged }
func (*UnitDestroyed) ActionType() Type       { return TypeUnitDestroyed }
func (*UnitExiled) ActionType() Type          { return TypeUnitExiled }
func (*BuildingPut) ActionType() Type         { return TypeBuildingPut }
func (*BuildingDestroyed) ActionType() Type   { return TypeBuildingDestroyed }
func (*FloorPut) ActionType() Type            { return TypeFloorPut }
func (*FloorDestroyed) ActionType() Type      { return TypeFloorDestroyed }
func (*BadgeAdded) ActionType() Type          { return TypeBadgeAdded }
func (*BadgeRemoved) ActionType() Type        { return TypeBadgeRemoved }
func (*SelectOption) ActionType() Type        { return TypeSelectOption }
func (*OptionSelected) ActionType() Type      { return TypeOptionSelected }
func (*SelectHand) ActionType() Type          { return TypeSelectHand }
func (*HandSelected) ActionType() Type        { return TypeHandSelected }
func (*EffectAdded) ActionType() Type         { return TypeEffectAdded }
func (*EffectRemoved) ActionType() Type       { return TypeEffectRemoved }
func (*CardUpdate) ActionType() Type          { return TypeCardUpdate }
