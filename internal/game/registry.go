package game

import (
	"fmt"
	"sync"

	"golang.org/x/exp/slices"
)

// Registry holds all registered game types.
type Registry struct {
	mu    sync.RWMutex
	games map[string]Game
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{games: make(map[string]Game)}
}

// Register adds a game type. Panics on duplicate names.
func (r *Registry) Register(g Game) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := g.Info().Name
	if _, exists := r.games[name]; exists {
		panic(fmt.Sprintf("game %q already registered", name))
	}
	r.games[name] = g
}

// Get returns a game by name.
func (r *Registry) Get(name string) (Game, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.games[name]
	return g, ok
}

// List returns info for all registered games, grouped by family and sorted
// by name.
func (r *Registry) List() []GameInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	infos := make([]GameInfo, 0, len(r.games))
	for _, g := range r.games {
		infos = append(infos, g.Info())
	}
	slices.SortFunc(infos, func(a, b GameInfo) int {
		if a.Family != b.Family {
			if a.Family < b.Family {
				return -1
			}
			return 1
		}
		if a.Name < b.Name {
			return -1
		}
		if a.Name > b.Name {
			return 1
		}
		return 0
	})
	return infos
}
