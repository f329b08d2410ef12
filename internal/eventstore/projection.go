// Package eventstore records the pet's evolution history in SQLite and
// rebuilds per-lifecycle summaries from it.
package eventstore

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"
)

// LifecycleSummary is a read model of one pet lifecycle.
type LifecycleSummary struct {
	LifecycleID string     `json:"lifecycle_id"`
	Starter     string     `json:"starter"`
	StartReason string     `json:"start_reason,omitempty"`
	Path        []string   `json:"path"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	FinalAge    int        `json:"final_age_days,omitempty"`
	FinalXP     float64    `json:"final_experience,omitempty"`
}

// CurrentForm is the last form on the lifecycle's path.
func (s LifecycleSummary) CurrentForm() string {
	if len(s.Path) == 0 {
		return s.Starter
	}
	return s.Path[len(s.Path)-1]
}

// Evolutions is the number of form changes in the lifecycle.
func (s LifecycleSummary) Evolutions() int {
	return max(0, len(s.Path)-1)
}

// LifecycleHistoryProjection maintains an in-memory view of past and
// current lifecycles, reconstructed from the history store.
type LifecycleHistoryProjection struct {
	mu         sync.RWMutex
	store      Store
	lifecycles map[string]*LifecycleSummary
	history    []*LifecycleSummary // newest first
	maxSize    int
}

// NewLifecycleHistoryProjection creates a new projection backed by the given store.
func NewLifecycleHistoryProjection(store Store, maxHistorySize int) *LifecycleHistoryProjection {
	if maxHistorySize <= 0 {
		maxHistorySize = 50
	}
	return &LifecycleHistoryProjection{
		store:      store,
		lifecycles: make(map[string]*LifecycleSummary),
		maxSize:    maxHistorySize,
	}
}

// Rebuild reconstructs the projection from every event up to now.
func (p *LifecycleHistoryProjection) Rebuild(ctx context.Context, now time.Time) error {
	events, err := p.store.GetRange(ctx, time.Time{}, now)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.lifecycles = make(map[string]*LifecycleSummary)
	p.history = nil
	for _, event := range events {
		p.applyEventLocked(event)
	}
	return nil
}

// Apply processes a single event and updates the projection.
func (p *LifecycleHistoryProjection) Apply(event Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyEventLocked(event)
}

func (p *LifecycleHistoryProjection) applyEventLocked(event Event) {
	id := event.LifecycleID()
	if id == "" {
		return
	}

	summary, exists := p.lifecycles[id]
	if !exists {
		summary = &LifecycleSummary{LifecycleID: id, StartedAt: event.Timestamp()}
		p.lifecycles[id] = summary
		p.addToHistoryLocked(summary)
	}

	switch event.Type() {
	case TypeLifecycleStarted:
		var payload struct {
			Starter string `json:"starter"`
			Reason  string `json:"reason"`
		}
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			summary.Starter = payload.Starter
			summary.StartReason = payload.Reason
			summary.StartedAt = event.Timestamp()
			if len(summary.Path) == 0 {
				summary.Path = []string{payload.Starter}
			}
		}

	case TypeEvolved:
		var payload struct {
			From string `json:"from"`
			To   string `json:"to"`
		}
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			if len(summary.Path) == 0 {
				summary.Path = []string{payload.From}
			}
			summary.Path = append(summary.Path, payload.To)
		}

	case TypeLifecycleEnded:
		var payload struct {
			FinalForm string   `json:"final_form"`
			Progress  Progress `json:"progress"`
		}
		if err := json.Unmarshal(event.Payload(), &payload); err == nil {
			at := event.Timestamp()
			summary.EndedAt = &at
			summary.FinalAge = payload.Progress.AgeDays
			summary.FinalXP = payload.Progress.Experience
			if len(summary.Path) == 0 && payload.FinalForm != "" {
				summary.Path = []string{payload.FinalForm}
			}
		}
	}
}

// addToHistoryLocked prepends a new lifecycle and trims the oldest ones.
// Caller must hold p.mu (write lock).
func (p *LifecycleHistoryProjection) addToHistoryLocked(summary *LifecycleSummary) {
	p.history = slices.Insert(p.history, 0, summary)
	if len(p.history) <= p.maxSize {
		return
	}
	for _, dropped := range p.history[p.maxSize:] {
		delete(p.lifecycles, dropped.LifecycleID)
	}
	p.history = p.history[:p.maxSize]
}

// GetHistory returns copies of the known lifecycles, newest first.
func (p *LifecycleHistoryProjection) GetHistory() []LifecycleSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]LifecycleSummary, 0, len(p.history))
	for _, s := range p.history {
		cp := *s
		cp.Path = slices.Clone(s.Path)
		result = append(result, cp)
	}
	return result
}

// GetLifecycle returns the summary for a specific lifecycle.
func (p *LifecycleHistoryProjection) GetLifecycle(id string) (LifecycleSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	summary, exists := p.lifecycles[id]
	if !exists {
		return LifecycleSummary{}, false
	}
	cp := *summary
	cp.Path = slices.Clone(summary.Path)
	return cp, true
}
