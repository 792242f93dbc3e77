package action

import (
	"encoding/json"
	"fmt"
)

var factories = map[Type]func() Action{
	TypeStart:               func() Action { return &Start{} },
	TypeMulligan:            func() Action { return &Mulligan{} },
	TypeTurnStart:           func() Action { return &TurnStart{} },
	TypeSurrender:           func() Action { return &Surrender{} },
	TypeEnd:                 func() Action { return &End{} },
	TypeEmote:               func() Action { return &Emote{} },
	TypeDraw:                func() Action { return &Draw{} },
	TypeAddCard:             func() Action { return &AddCard{} },
	TypeDiscard:             func() Action { return &Discard{} },
	TypeAttack:              func() Action { return &Attack{} },
	TypeTensionUp:           func() Action { return &TensionUp{} },
	TypeTensionSet:          func() Action { return &TensionSet{} },
	TypeUseCard:             func() Action { return &UseCard{} },
	TypeEquipWeapon:         func() Action { return &EquipWeapon{} },
	TypeBreakWeapon:         func() Action { return &BreakWeapon{} },
	TypeWeaponUpdate:        func() Action { return &WeaponUpdate{} },
	TypeTensionSkillChanged: func() Action { return &TensionSkillChanged{} },
	TypeHeroSkillChanged:    func() Action { return &HeroSkillChanged{} },
	TypeLeaderUpdate:        func() Action { return &LeaderUpdate{} },
	TypeLeaderGainDamage:    func() Action { return &LeaderGainDamage{} },
	TypeLeaderHeal:          func() Action { return &LeaderHeal{} },
	TypeUnitUpdate:          func() Action { return &UnitUpdate{} },
	TypeUnitGainDamage:      func() Action { return &UnitGainDamage{} },
	TypeUnitHeal:            func() Action { return &UnitHeal{} },
	TypeBuildingUpdate:      func() Action { return &BuildingUpdate{} },
	TypeBuildingGainDamage:  func() Action { return &BuildingGainDamage{} },
	TypeBuildingHeal:        func() Action { return &BuildingHeal{} },
	TypeUnitPut:             func() Action { return &UnitPut{} },
	TypeUnitMove:            func() Action { return &UnitMove{} },
	TypeUnitSwap:            func() Action { return &UnitSwap{} },
	TypeUnitOwnerChanged:    func() Action { return &UnitOwnerChanged{} },
	TypeUnitDestroyed:       func() Action { return &UnitDestroyed{} },
	TypeUnitExiled:          func() Action { return &UnitExiled{} },
	TypeBuildingPut:         func() Action { return &BuildingPut{} },
	TypeBuildingDestroyed:   func() Action { return &BuildingDestroyed{} },
	TypeFloorPut:            func() Action { return &FloorPut{} },
	TypeFloorDestroyed:      func() Action { return &FloorDestroyed{} },
	TypeBadgeAdded:          func() Action { return &BadgeAdded{} },
	TypeBadgeRemoved:        func() Action { return &BadgeRemoved{} },
	TypeSelectOption:        func() Action { return &SelectOption{} },
	TypeOptionSelected:      func() Action { return &OptionSelected{} },
	TypeSelectHand:          func() Action { return &SelectHand{} },
	TypeHandSelected:        func() Action { return &HandSelected{} },
	TypeEffectAdded:         func() Action { return &EffectAdded{} },
	TypeEffectRemoved:       func() Action { return &EffectRemoved{} },
	TypeCardUpdate:          func() Action { return &CardUpdate{} },
}

// New returns an empty action of type t.
func New(t Type) (Action, error) {
	f, ok := factories[t]
	if !ok {
		return nil, fmt.Errorf("unknown action type %q", t)
	}
	return f(), nil
}

// Unmarshal decodes one action using its type tag.
func Unmarshal(data []byte) (Action, error) {
	var head struct {
		Type Type `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("failed to read action type: %w", err)
	}
	a, err := New(head.Type)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, a); err != nil {
		return nil, fmt.Errorf("failed to decode %s action: %w", head.Type, err)
	}
	return a, nil
}

// Log is an ordered action list that decodes through the type tag.
type Log []Action

// UnmarshalJSON implements json.Unmarshaler.
func (l *Log) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	out := make(Log, 0, len(raws))
	for i, raw := range raws {
		a, err := Unmarshal(raw)
		if err != nil {
			return fmt.Errorf("action %d: %w", i, err)
		}
		out = append(out, a)
	}
	*l = out
	return nil
}
