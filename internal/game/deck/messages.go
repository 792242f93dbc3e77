package deck

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys. The English text doubles as the key.
const (
	msgSize          = "A deck must have %d cards, but it has %d."
	msgJob           = "The deck has no playable job."
	msgUnknownCard   = "Card %d does not exist."
	msgToken         = "%s is a token and cannot be put in a deck."
	msgNotPlayable   = "%s cannot be put in a deck."
	msgJobMismatch   = "%s belongs to another job."
	msgTooManyCopies = "%s has %d copies; at most %d are allowed."
	msgLegend        = "%s is a legend card; only %d copy is allowed."
)

// Languages lists the languages deck messages are translated to.
var Languages = []language.Tag{language.English, language.Japanese}

var (
	messages = newCatalog()
	matcher  = language.NewMatcher(Languages)
)

func newCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	set := func(tag language.Tag, entries map[string]string) {
		for key, msg := range entries {
			if err := b.SetString(tag, key, msg); err != nil {
				panic(err)
			}
		}
	}
	set(language.English, map[string]string{
		msgSize:          msgSize,
		msgJob:           msgJob,
		msgUnknownCard:   msgUnknownCard,
		msgToken:         msgToken,
		msgNotPlayable:   msgNotPlayable,
		msgJobMismatch:   msgJobMismatch,
		msgTooManyCopies: msgTooManyCopies,
		msgLegend:        msgLegend,
	})
	set(language.Japanese, map[string]string{
		msgSize:          "デッキは%d枚である必要があります（現在%d枚）。",
		msgJob:           "デッキのジョブが正しくありません。",
		msgUnknownCard:   "カード%dは存在しません。",
		msgToken:         "%sはトークンのためデッキに入れられません。",
		msgNotPlayable:   "%sはデッキに入れられません。",
		msgJobMismatch:   "%sは別のジョブのカードです。",
		msgTooManyCopies: "%sが%d枚あります。同じカードは%d枚までです。",
		msgLegend:        "%sはレジェンドカードのため%d枚までです。",
	})
	return b
}

func printer(tag language.Tag) *message.Printer {
	_, i, _ := matcher.Match(tag)
	return message.NewPrinter(Languages[i], message.Catalog(messages))
}

func render(p *message.Printer, v Violation) string {
	switch v.Code {
	case CodeSize:
		return p.Sprintf(msgSize, Size, v.Count)
	case CodeJob:
		return p.Sprintf(msgJob)
	case CodeUnknownCard:
		return p.Sprintf(msgUnknownCard, v.CardID)
	case CodeToken:
		return p.Sprintf(msgToken, v.CardName)
	case CodeNotPlayable:
		return p.Sprintf(msgNotPlayable, v.CardName)
	case CodeJobMismatch:
		return p.Sprintf(msgJobMismatch, v.CardName)
	case CodeTooManyCopies:
		return p.Sprintf(msgTooManyCopies, v.CardName, v.Count, MaxCopies)
	case CodeLegend:
		return p.Sprintf(msgLegend, v.CardName, MaxLegendCopies)
	default:
		return string(v.Code)
	}
}
