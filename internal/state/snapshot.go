package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/digivice/internal/foundation"
	"git.home.luguber.info/inful/digivice/internal/pet"
	"git.home.luguber.info/inful/digivice/internal/stage"
)

// Gateway reads and writes pet snapshots.
type Gateway interface {
	Load(ctx context.Context) foundation.Result[pet.State, error]
	Save(ctx context.Context, s pet.State) foundation.Result[struct{}, error]
}

// Defaults supplies values for fields missing from a snapshot.
type Defaults struct {
	Now     func() time.Time
	Starter func() stage.Stage
}

// FileGateway persists the snapshot as a single JSON file.
type FileGateway struct {
	path     string
	defaults Defaults
}

// record is the on-disk layout. Pointers distinguish missing fields.
type record struct {
	Exp            *float64 `json:"exp"`
	CurrentForm    *string  `json:"current_form"`
	StartTime      *string  `json:"start_time"`
	AssocCount     *int     `json:"assoc_count"`
	DeauthCount    *int     `json:"deauth_count"`
	HandshakeCount *int     `json:"handshake_count"`
	LifecycleID    *string  `json:"lifecycle_id,omitempty"`
}

// startTimeLayouts accepts RFC 3339 as well as the naive ISO-8601 forms
// older snapshots were written with.
var startTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// NewFileGateway creates a gateway for path.
func NewFileGateway(path string, defaults Defaults) *FileGateway {
	if defaults.Now == nil {
		defaults.Now = time.Now
	}
	if defaults.Starter == nil {
		defaults.Starter = func() stage.Stage { return stage.Starters()[0] }
	}
	return &FileGateway{path: path, defaults: defaults}
}

// Path returns the snapshot location.
func (g *FileGateway) Path() string { return g.path }

// Load reads the snapshot. Missing fields take defaults; any read, decode or
// validation failure comes back as a corrupt-state error.
func (g *FileGateway) Load(ctx context.Context) foundation.Result[pet.State, error] {
	if err := ctx.Err(); err != nil {
		return foundation.Err[pet.State, error](err)
	}
	data, err := os.ReadFile(g.path)
	if err != nil {
		if os.IsNotExist(err) {
			return foundation.Err[pet.State, error](ErrSnapshotMissing.WithContext("path", g.path))
		}
		return foundation.Err[pet.State, error](ErrSnapshotUnreadable.WithCause(err).WithContext("path", g.path))
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return foundation.Err[pet.State, error](ErrSnapshotMalformed.WithCause(err).WithContext("path", g.path))
	}
	return g.decode(rec)
}

func (g *FileGateway) decode(rec record) foundation.Result[pet.State, error] {
	fail := func(err error) foundation.Result[pet.State, error] {
		return foundation.Err[pet.State, error](err)
	}

	var s pet.State
	if rec.Exp != nil {
		if *rec.Exp < 0 {
			return fail(ErrInvalidField.WithContext("field", "exp"))
		}
		s.Experience = *rec.Exp
	}

	if rec.CurrentForm != nil {
		form := stage.Stage(*rec.CurrentForm)
		if !form.Valid() {
			return fail(ErrUnknownStage.WithContext("stage", *rec.CurrentForm))
		}
		s.Form = form
	} else {
		s.Form = g.defaults.Starter()
	}

	if rec.StartTime != nil && *rec.StartTime != "" {
		started, err := parseStartTime(*rec.StartTime)
		if err != nil {
			return fail(ErrInvalidField.WithCause(err).WithContext("field", "start_time"))
		}
		s.StartedAt = started
	} else {
		s.StartedAt = g.defaults.Now()
	}

	counters := []struct {
		name string
		src  *int
		dst  *int
	}{
		{"assoc_count", rec.AssocCount, &s.AssociationCount},
		{"deauth_count", rec.DeauthCount, &s.DeauthCount},
		{"handshake_count", rec.HandshakeCount, &s.HandshakeCount},
	}
	for _, c := range counters {
		if c.src == nil {
			continue
		}
		if *c.src < 0 {
			return fail(ErrInvalidField.WithContext("field", c.name))
		}
		*c.dst = *c.src
	}

	if rec.LifecycleID != nil && *rec.LifecycleID != "" {
		s.LifecycleID = *rec.LifecycleID
	} else {
		s.LifecycleID = pet.NewLifecycleID()
		s.MarkDirty()
	}
	return foundation.Ok[pet.State, error](s)
}

func parseStartTime(raw string) (time.Time, error) {
	for _, layout := range startTimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized start_time %q", raw)
}

// Save writes the snapshot atomically (temp file, then rename).
func (g *FileGateway) Save(ctx context.Context, s pet.State) foundation.Result[struct{}, error] {
	fail := func(err error) foundation.Result[struct{}, error] {
		return foundation.Err[struct{}, error](ErrSnapshotWrite.WithCause(err).WithContext("path", g.path))
	}
	if err := ctx.Err(); err != nil {
		return foundation.Err[struct{}, error](err)
	}

	exp := s.Experience
	form := string(s.Form)
	started := s.StartedAt.Format(time.RFC3339Nano)
	rec := record{
		Exp:            &exp,
		CurrentForm:    &form,
		StartTime:      &started,
		AssocCount:     &s.AssociationCount,
		DeauthCount:    &s.DeauthCount,
		HandshakeCount: &s.HandshakeCount,
	}
	if s.LifecycleID != "" {
		rec.LifecycleID = &s.LifecycleID
	}

	data, err := json.MarshalIndent(rec, "", "    ")
	if err != nil {
		return fail(fmt.Errorf("marshal snapshot: %w", err))
	}
	if err := os.MkdirAll(filepath.Dir(g.path), 0o755); err != nil {
		return fail(fmt.Errorf("create snapshot directory: %w", err))
	}

	tempPath := g.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fail(fmt.Errorf("write temporary snapshot: %w", err))
	}
	if err := os.Rename(tempPath, g.path); err != nil {
		_ = os.Remove(tempPath)
		return fail(fmt.Errorf("replace snapshot: %w", err))
	}
	return foundation.Ok[struct{}, error](struct{}{})
}
