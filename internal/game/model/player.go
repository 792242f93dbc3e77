package model

const (
	// MaxHand is the hand size bound.
	MaxHand = 10
	// MaxMP is the cap for maximum MP.
	MaxMP = 10
	// MaxTension is the tension counter cap.
	MaxTension = 3
	// InitialHP is each leader's starting HP.
	InitialHP = 20
)

// PlayerState is one leader's side of the match.
type PlayerState struct {
	Leader  Leader `json:"leader"`
	HP      int    `json:"hp"`
	MaxHP   int    `json:"maxHp"`
	MP      int    `json:"mp"`
	MaxMP   int    `json:"maxMp"`
	Tension int    `json:"tension"`

	Hand    []CardState `json:"hand"`
	Library []CardState `json:"library"`

	Weapon       *WeaponState `json:"weapon,omitempty"`
	TensionSkill *CardState   `json:"tensionSkill,omitempty"`
	HeroSkill    *CardState   `json:"heroSkill,omitempty"`
	Badges       []BadgeState `json:"badges"`

	AttackCount   int  `json:"attackCount"`
	TensionUpUsed bool `json:"tensionUpUsed"`
	HeroSkillUsed bool `json:"heroSkillUsed"`
	FatigueCount  int  `json:"fatigueCount"`

	UsedCardDefIDs []int `json:"usedCardDefIds"`
	DeadUnitDefIDs []int `json:"deadUnitDefIds"`
}

// HandIndex returns the index of card id in the hand, or -1.
func (p PlayerState) HandIndex(id int) int {
	return indexOfCard(p.Hand, id)
}

// LibraryIndex returns the index of card id in the library, or -1.
func (p PlayerState) LibraryIndex(id int) int {
	return indexOfCard(p.Library, id)
}

// HandCard looks up a card in hand.
func (p PlayerState) HandCard(id int) (CardState, bool) {
	if i := p.HandIndex(id); i >= 0 {
		return p.Hand[i], true
	}
	return CardState{}, false
}

// ResidentCard returns the tension or hero skill card with the given id.
func (p PlayerState) ResidentCard(id int) (CardState, bool) {
	if p.TensionSkill != nil && p.TensionSkill.ID == id {
		return *p.TensionSkill, true
	}
	if p.HeroSkill != nil && p.HeroSkill.ID == id {
		return *p.HeroSkill, true
	}
	return CardState{}, false
}

// HasBadge reports whether a badge of defID is attached.
func (p PlayerState) HasBadge(defID int) bool {
	for _, b := range p.Badges {
		if b.DefID == defID {
			return true
		}
	}
	return false
}

func indexOfCard(cards []CardState, id int) int {
	for i, c := range cards {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// RemoveCard returns a copy of cards without the card id.
func RemoveCard(cards []CardState, id int) []CardState {
	out := make([]CardState, 0, len(cards))
	for _, c := range cards {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}

// InsertCard returns a copy of cards with c inserted at index (clamped).
func InsertCard(cards []CardState, index int, c CardState) []CardState {
	if index < 0 {
		index = 0
	}
	if index > len(cards) {
		index = len(cards)
	}
	out := make([]CardState, 0, len(cards)+1)
	out = append(out, cards[:index]...)
	out = append(out, c)
	out = append(out, cards[index:]...)
	return out
}

// AppendCard returns a copy of cards with c appended.
func AppendCard(cards []CardState, c CardState) []CardState {
	out := make([]CardState, len(cards), len(cards)+1)
	copy(out, cards)
	return append(out, c)
}

// ReplaceCard returns a copy of cards where the card with c.ID is replaced.
func ReplaceCard(cards []CardState, c CardState) []CardState {
	out := make([]CardState, len(cards))
	copy(out, cards)
	for i := range out {
		if out[i].ID == c.ID {
			out[i] = c
		}
	}
	return out
}

// AppendInt returns a copy of xs with v appended.
func AppendInt(xs []int, v int) []int {
	out := make([]int, len(xs), len(xs)+1)
	copy(out, xs)
	return append(out, v)
}
