// Package deck checks submitted decks against the card registry. Problems are
// reported as a Result the lobby can render in the player's language, never as
// errors.
package deck

import (
	"github.com/samber/lo"
	"golang.org/x/text/language"

	"github.com/nenshoukei/zombals-sub000/internal/game"
	"github.com/nenshoukei/zombals-sub000/internal/game/registry"
)

const (
	// Size is the exact number of cards in a deck.
	Size = 20
	// MaxCopies bounds copies of one card.
	MaxCopies = 2
	// MaxLegendCopies bounds copies of one legend card.
	MaxLegendCopies = 1
)

// Code identifies a deck problem.
type Code string

const (
	CodeSize          Code = "size"
	CodeJob           Code = "job"
	CodeUnknownCard   Code = "unknown_card"
	CodeToken         Code = "token"
	CodeNotPlayable   Code = "not_playable"
	CodeJobMismatch   Code = "job_mismatch"
	CodeTooManyCopies Code = "too_many_copies"
	CodeLegend        Code = "duplicate_legend"
)

// Violation is one problem found in a deck. Card fields are zero for
// deck-wide problems.
type Violation struct {
	Code     Code   `json:"code"`
	CardID   int    `json:"cardId,omitempty"`
	CardName string `json:"cardName,omitempty"`
	Count    int    `json:"count,omitempty"`
}

// Result lists every problem of a deck in a stable order.
type Result struct {
	Violations []Violation `json:"violations"`
}

// OK reports whether the deck may be played.
func (r Result) OK() bool { return len(r.Violations) == 0 }

// Codes returns the violation codes in order.
func (r Result) Codes() []Code {
	return lo.Map(r.Violations, func(v Violation, _ int) Code { return v.Code })
}

// Messages renders every violation in the language closest to tag.
func (r Result) Messages(tag language.Tag) []string {
	p := printer(tag)
	return lo.Map(r.Violations, func(v Violation, _ int) string { return render(p, v) })
}

// Validator checks decks against a card registry.
type Validator struct {
	cards *registry.Registry[game.CardDefinition]
}

// NewValidator creates a validator over cards.
func NewValidator(cards *registry.Registry[game.CardDefinition]) *Validator {
	return &Validator{cards: cards}
}

// Validate reports every problem of d. A nil Violations list means the deck is valid.
func (v *Validator) Validate(d game.Deck) Result {
	var out []Violation
	if len(d.Cards) != Size {
		out = append(out, Violation{Code: CodeSize, Count: len(d.Cards)})
	}
	if d.Job <= game.JobNeutral || d.Job > game.JobThief {
		out = append(out, Violation{Code: CodeJob})
	}

	counts := lo.CountValues(d.Cards)
	for _, id := range lo.Uniq(d.Cards) {
		def, err := v.cards.Get(id)
		if err != nil {
			out = append(out, Violation{Code: CodeUnknownCard, CardID: id})
			continue
		}
		info := def.Info()
		card := func(code Code) Violation {
			return Violation{Code: code, CardID: id, CardName: info.Name, Count: counts[id]}
		}
		switch {
		case info.Token:
			out = append(out, card(CodeToken))
			continue
		case info.Kind.IsResident():
			out = append(out, card(CodeNotPlayable))
			continue
		}
		if info.Job != game.JobNeutral && info.Job != d.Job {
			out = append(out, card(CodeJobMismatch))
		}
		switch {
		case info.Rarity == game.RarityLegend && counts[id] > MaxLegendCopies:
			out = append(out, card(CodeLegend))
		case counts[id] > MaxCopies:
			out = append(out, card(CodeTooManyCopies))
		}
	}
	return Result{Violations: out}
}
