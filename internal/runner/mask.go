package runner

import (
	"sort"
	"strings"
	"sync"
)

// MaskedValue replaces registered secrets in step output.
const MaskedValue = "***"

// masker redacts registered secrets. Longer secrets are replaced first so a
// secret that contains another is hidden completely.
type masker struct {
	mu      sync.RWMutex
	secrets []string
}

func (m *masker) add(secret string) {
	if strings.TrimSpace(secret) == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.secrets {
		if s == secret {
			return
		}
	}
	m.secrets = append(m.secrets, secret)
	sort.Slice(m.secrets, func(i, j int) bool { return len(m.secrets[i]) > len(m.secrets[j]) })
}

func (m *masker) redact(s string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, secret := range m.secrets {
		s = strings.ReplaceAll(s, secret, MaskedValue)
	}
	return s
}

func (m *masker) list() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.secrets...)
}
