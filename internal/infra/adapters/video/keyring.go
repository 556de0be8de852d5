package video

import (
	"sync"

	"ai-reel-studio/internal/domain"
	"ai-reel-studio/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.Keyring = (*Keyring)(nil)

// Keyring holds the ordered set of vendor API keys and the active cursor.
// State is explicit and injected where needed instead of living in a global,
// so two retry controllers never share a cursor by accident.
type Keyring struct {
	mu   sync.Mutex
	keys []string
	idx  int
}

func NewKeyring(keys []string) (*Keyring, error) {
	clean := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			clean = append(clean, k)
		}
	}
	if len(clean) == 0 {
		return nil, domain.ErrNoCredentials
	}
	return &Keyring{keys: clean}, nil
}

func (k *Keyring) Active() string {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.keys[k.idx]
}

// Rotate advances the cursor to the next key, wrapping at the end. With a
// single key there is nothing to switch to; the cursor stays put and false
// tells the caller to fall back to a time-based wait.
func (k *Keyring) Rotate() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	if len(k.keys) <= 1 {
		return false
	}
	k.idx = (k.idx + 1) % len(k.keys)
	return true
}

func (k *Keyring) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.keys)
}
