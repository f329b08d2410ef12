package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyStage       = "stage"
	KeyFromStage   = "from_stage"
	KeyToStage     = "to_stage"
	KeyEventKind   = "event_kind"
	KeyExperience  = "experience"
	KeyAgeDays     = "age_days"
	KeyPhase       = "phase"
	KeyLifecycleID = "lifecycle_id"
	KeyPath        = "path"
	KeySubject     = "subject"
	KeyJobName     = "job_name"
	KeyURL         = "url"
	KeyCommand     = "command"
	KeyError       = "error"
)

func Stage(name string) slog.Attr       { return slog.String(KeyStage, name) }
func FromStage(name string) slog.Attr   { return slog.String(KeyFromStage, name) }
func ToStage(name string) slog.Attr     { return slog.String(KeyToStage, name) }
func EventKind(kind string) slog.Attr   { return slog.String(KeyEventKind, kind) }
func Experience(xp float64) slog.Attr   { return slog.Float64(KeyExperience, xp) }
func AgeDays(days int) slog.Attr        { return slog.Int(KeyAgeDays, days) }
func Phase(p string) slog.Attr          { return slog.String(KeyPhase, p) }
func LifecycleID(id string) slog.Attr   { return slog.String(KeyLifecycleID, id) }
func Path(p string) slog.Attr           { return slog.String(KeyPath, p) }
func Subject(s string) slog.Attr        { return slog.String(KeySubject, s) }
func JobName(n string) slog.Attr        { return slog.String(KeyJobName, n) }
func URL(u string) slog.Attr            { return slog.String(KeyURL, u) }
func Command(c string) slog.Attr        { return slog.String(KeyCommand, c) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
