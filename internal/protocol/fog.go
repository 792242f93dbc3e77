package protocol

import (
	"github.com/nenshoukei/zombals-sub000/internal/game/action"
	"github.com/nenshoukei/zombals-sub000/internal/game/model"
)

// Filter returns the actions as viewer may see them. Logged actions are never
// modified; masked entries are copies.
//
// Hidden from viewer: the opponent's opening hand, both libraries in START,
// and the card of any DRAW, ADD_CARD or CARD_UPDATE owned by the opponent.
// Fatigue draws stay visible. LeaderNone sees no hidden card at all.
func Filter(viewer model.Leader, actions []action.Action) []action.Action {
	out := make([]action.Action, len(actions))
	for i, a := range actions {
		out[i] = filterOne(viewer, a)
	}
	return out
}

func filterOne(viewer model.Leader, a action.Action) action.Action {
	switch a := a.(type) {
	case *action.Start:
		c := *a
		c.Players = make(map[model.Leader]action.StartPlayer, len(a.Players))
		for l, p := range a.Players {
			p.Library = model.MaskCards(p.Library)
			if l != viewer {
				p.Hand = model.MaskCards(p.Hand)
			}
			c.Players[l] = p
		}
		return &c
	case *action.Draw:
		if hidden(viewer, a.Card) {
			c := *a
			c.Card = a.Card.Masked()
			return &c
		}
	case *action.AddCard:
		if hidden(viewer, a.Card) {
			c := *a
			c.Card = a.Card.Masked()
			return &c
		}
	case *action.CardUpdate:
		if hidden(viewer, a.Card) {
			c := *a
			c.Card = a.Card.Masked()
			return &c
		}
	}
	return a
}

func hidden(viewer model.Leader, card model.CardState) bool {
	return card.Owner != viewer && !card.IsFatigue()
}
