package model

// CardKind tags the CardState union.
type CardKind string

const (
	CardKindUnit         CardKind = "unit"
	CardKindSpell        CardKind = "spell"
	CardKindWeapon       CardKind = "weapon"
	CardKindHero         CardKind = "hero"
	CardKindBuilding     CardKind = "building"
	CardKindTensionSkill CardKind = "tension_skill"
	CardKindHeroSkill    CardKind = "hero_skill"

	// CardKindFatigue is drawn in place of a card when the library is empty.
	CardKindFatigue CardKind = "fatigue"
	// CardKindMasked hides a card from a viewer who may not see it.
	CardKindMasked CardKind = "masked"
)

// IsResident reports whether cards of this kind stay in their slot after use.
func (k CardKind) IsResident() bool {
	return k == CardKindTensionSkill || k == CardKindHeroSkill
}

// CardState is a card instance. Kind-specific fields are zero when unused.
type CardState struct {
	ID    int      `json:"id"`
	DefID int      `json:"defId"`
	Owner Leader   `json:"owner"`
	Kind  CardKind `json:"kind"`
	Cost  int      `json:"cost"`

	Power         int `json:"power,omitempty"`
	HP            int `json:"hp,omitempty"`
	Durability    int `json:"durability,omitempty"`
	FatigueDamage int `json:"fatigueDamage,omitempty"`
}

// Masked returns a placeholder carrying no card identity.
func (c CardState) Masked() CardState {
	return CardState{Owner: c.Owner, Kind: CardKindMasked}
}

// IsMasked reports whether the card is a placeholder.
func (c CardState) IsMasked() bool {
	return c.Kind == CardKindMasked
}

// IsFatigue reports whether the card is the fatigue pseudo-card.
func (c CardState) IsFatigue() bool {
	return c.Kind == CardKindFatigue
}

// FatigueCard builds the pseudo-card for the n-th empty draw.
func FatigueCard(owner Leader, damage int) CardState {
	return CardState{Owner: owner, Kind: CardKindFatigue, FatigueDamage: damage}
}

// MaskCards masks every card in cards.
func MaskCards(cards []CardState) []CardState {
	if cards == nil {
		return nil
	}
	out := make([]CardState, len(cards))
	for i, c := range cards {
		out[i] = c.Masked()
	}
	return out
}

// WeaponState is a leader's equipped weapon.
type WeaponState struct {
	CardID     int `json:"cardId"`
	DefID      int `json:"defId"`
	Power      int `json:"power"`
	Durability int `json:"durability"`
}

// BadgeState is a badge attached to a leader.
type BadgeState struct {
	ID    int `json:"id"`
	DefID int `json:"defId"`
}
