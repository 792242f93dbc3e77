package effects

import (
	"strings"

	"github.com/samber/lo"

	"github.com/nenshoukei/zombals-sub000/internal/game/model"
)

// HookGuard remembers which effect ids already ran their added/removed hooks so
// each hook fires at most once per effect.
type HookGuard struct {
	added   map[int]bool
	removed map[int]bool
}

// NewHookGuard creates an empty guard.
func NewHookGuard() *HookGuard {
	return &HookGuard{added: make(map[int]bool), removed: make(map[int]bool)}
}

// FirstAdded records id and reports whether its added hook has not run yet.
func (g *HookGuard) FirstAdded(id int) bool {
	if g.added[id] {
		return false
	}
	g.added[id] = true
	return true
}

// FirstRemoved records id and reports whether its removed hook has not run yet.
func (g *HookGuard) FirstRemoved(id int) bool {
	if g.removed[id] {
		return false
	}
	g.removed[id] = true
	return true
}

// Clone copies the guard for rollback snapshots.
func (g *HookGuard) Clone() *HookGuard {
	return &HookGuard{added: lo.Assign(g.added), removed: lo.Assign(g.removed)}
}

// Describer renders one effect for display.
type Describer interface {
	Describe(e model.EffectState) string
}

// DescriptionMerger renders every stacked copy of a definition as one line.
type DescriptionMerger interface {
	MergeDescriptions(stack []model.EffectState) string
}

// Describe renders effects in insertion order. Definitions implementing
// DescriptionMerger get a single line at the position of their first copy.
func Describe(effects []model.EffectState, lookup func(defID int) (interface{}, bool)) []string {
	groups := lo.GroupBy(effects, func(e model.EffectState) int { return e.DefID })
	seen := make(map[int]bool)
	lines := make([]string, 0, len(effects))

	for _, e := range effects {
		def, ok := lookup(e.DefID)
		if !ok {
			continue
		}
		if merger, ok := def.(DescriptionMerger); ok {
			if seen[e.DefID] {
				continue
			}
			seen[e.DefID] = true
			if line := strings.TrimSpace(merger.MergeDescriptions(groups[e.DefID])); line != "" {
				lines = append(lines, line)
			}
			continue
		}
		if d, ok := def.(Describer); ok {
			if line := strings.TrimSpace(d.Describe(e)); line != "" {
				lines = append(lines, line)
			}
		}
	}
	return lines
}
