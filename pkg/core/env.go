package core

import (
	"os"
	"sync"
)

// Environment is the process environment as seen by an Action.
type Environment interface {
	LookupEnv(key string) (string, bool)
	Setenv(key, value string) error
}

// OSEnvironment reads and writes the real process environment.
type OSEnvironment struct{}

func (OSEnvironment) LookupEnv(key string) (string, bool) { return os.LookupEnv(key) }
func (OSEnvironment) Setenv(key, value string) error      { return os.Setenv(key, value) }

// MapEnvironment is an in-memory Environment.
type MapEnvironment struct {
	mu   sync.RWMutex
	vars map[string]string
}

// NewMapEnvironment returns a MapEnvironment seeded with a copy of vars.
func NewMapEnvironment(vars map[string]string) *MapEnvironment {
	m := &MapEnvironment{vars: make(map[string]string, len(vars))}
	for k, v := range vars {
		m.vars[k] = v
	}
	return m
}

func (m *MapEnvironment) LookupEnv(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vars[key]
	return v, ok
}

func (m *MapEnvironment) Setenv(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.vars == nil {
		m.vars = make(map[string]string)
	}
	m.vars[key] = value
	return nil
}

// Environ returns the variables as sorted KEY=VALUE pairs, suitable for
// exec.Cmd.Env.
func (m *MapEnvironment) Environ() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.vars))
	for _, k := range sortedKeys(m.vars) {
		out = append(out, k+"="+m.vars[k])
	}
	return out
}

// getenv returns the value of key, or "" when unset.
func getenv(env Environment, key string) string {
	v, _ := env.LookupEnv(key)
	return v
}
