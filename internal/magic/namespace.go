package magic

import (
	"fmt"
	"sync"

	"github.com/kforge/keyforge/internal/keymap"
)

// Namespace tracks generated macro names across combos and magic keys.
type Namespace struct {
	mu     sync.Mutex
	owners map[string]string
}

func NewNamespace() *Namespace {
	return &Namespace{owners: map[string]string{}}
}

// Claim registers name for owner. Claiming a name twice is a collision,
// even by the same owner.
func (n *Namespace) Claim(name, owner string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if prev, ok := n.owners[name]; ok {
		return &keymap.Error{
			Position: -1,
			Token:    name,
			Detail:   fmt.Sprintf("macro used by %s and %s", prev, owner),
			Err:      keymap.ErrNameCollision,
		}
	}
	n.owners[name] = owner
	return nil
}

// Owner returns who claimed name.
func (n *Namespace) Owner(name string) (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	o, ok := n.owners[name]
	return o, ok
}
