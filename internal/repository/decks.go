package repository

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/nenshoukei/zombals-sub000/internal/game"
)

// deckEntry is one deck of the YAML file. An empty Owner shares the deck with
// every user.
type deckEntry struct {
	Owner string `yaml:"owner"`
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Job   string `yaml:"job"`
	Cards []int  `yaml:"cards"`
}

type deckFile struct {
	Decks []deckEntry `yaml:"decks"`
}

var playableJobs = []game.Job{game.JobWarrior, game.JobMage, game.JobPriest, game.JobThief}

func parseJob(name string) (game.Job, error) {
	job, ok := lo.Find(playableJobs, func(j game.Job) bool { return j.String() == name })
	if !ok {
		return game.JobNeutral, fmt.Errorf("unknown job %q", name)
	}
	return job, nil
}

type deckKey struct {
	owner string
	id    string
}

// DeckFile serves decks read from a YAML file.
type DeckFile struct {
	path  string
	mu    sync.RWMutex
	decks map[deckKey]game.Deck
}

// LoadDeckFile reads decks from path.
func LoadDeckFile(path string) (*DeckFile, error) {
	f := &DeckFile{path: path}
	if err := f.Reload(); err != nil {
		return nil, err
	}
	return f, nil
}

// ParseDecks builds a deck store from YAML data.
func ParseDecks(data []byte) (*DeckFile, error) {
	decks, err := parseDecks(data)
	if err != nil {
		return nil, err
	}
	return &DeckFile{decks: decks}, nil
}

// Reload re-reads the file. The previous decks stay in place on error.
func (f *DeckFile) Reload() error {
	if f.path == "" {
		return nil
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("failed to read deck file: %w", err)
	}
	decks, err := parseDecks(data)
	if err != nil {
		return fmt.Errorf("%s: %w", f.path, err)
	}
	f.mu.Lock()
	f.decks = decks
	f.mu.Unlock()
	return nil
}

func parseDecks(data []byte) (map[deckKey]game.Deck, error) {
	var file deckFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse decks: %w", err)
	}
	decks := make(map[deckKey]game.Deck, len(file.Decks))
	for i, e := range file.Decks {
		if e.ID == "" {
			return nil, fmt.Errorf("deck %d has no id", i)
		}
		job, err := parseJob(e.Job)
		if err != nil {
			return nil, fmt.Errorf("deck %s: %w", e.ID, err)
		}
		key := deckKey{owner: e.Owner, id: e.ID}
		if _, dup := decks[key]; dup {
			return nil, fmt.Errorf("duplicate deck %s", e.ID)
		}
		decks[key] = game.Deck{ID: e.ID, Name: e.Name, Job: job, Cards: e.Cards}
	}
	return decks, nil
}

// FindDeck returns the user's own deck, falling back to a shared deck.
func (f *DeckFile) FindDeck(ctx context.Context, userID, deckID string) (game.Deck, error) {
	if err := ctx.Err(); err != nil {
		return game.Deck{}, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if d, ok := f.decks[deckKey{owner: userID, id: deckID}]; ok {
		return cloneDeck(d), nil
	}
	if d, ok := f.decks[deckKey{id: deckID}]; ok {
		return cloneDeck(d), nil
	}
	return game.Deck{}, fmt.Errorf("deck %s: %w", deckID, ErrNotFound)
}

func cloneDeck(d game.Deck) game.Deck {
	d.Cards = append([]int(nil), d.Cards...)
	return d
}
