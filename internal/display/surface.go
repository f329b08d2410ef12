// Package display pushes the pet's state to the host's display surface.
package display

import (
	"context"
	"log/slog"
	"maps"
	"sort"
	"sync"
)

// Surface is the host-owned display. Field names are the host's widget keys.
type Surface interface {
	SetField(name, value string)
}

// Memory is a Surface that keeps the last value of every field. The status
// command renders from it; tests assert against it.
type Memory struct {
	mu     sync.Mutex
	fields map[string]string
}

// NewMemory creates an empty Memory surface.
func NewMemory() *Memory {
	return &Memory{fields: make(map[string]string)}
}

func (m *Memory) SetField(name, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fields[name] = value
}

// Field returns the last value set for name.
func (m *Memory) Field(name string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.fields[name]
	return v, ok
}

// Snapshot copies all fields.
func (m *Memory) Snapshot() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.fields)
}

// Names lists the field names set so far, sorted.
func (m *Memory) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.fields))
	for k := range m.fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// LogSurface writes every field update as a debug log record. Used when no
// display is attached.
type LogSurface struct {
	Logger *slog.Logger
}

func (l LogSurface) SetField(name, value string) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.LogAttrs(context.Background(), slog.LevelDebug, "Display field",
		slog.String("field", name), slog.String("value", value))
}

// Multi fans a field update out to several surfaces.
type Multi []Surface

func (m Multi) SetField(name, value string) {
	for _, s := range m {
		s.SetField(name, value)
	}
}
