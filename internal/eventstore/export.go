package eventstore

import (
	"encoding/json"
	"io"
	"time"

	"github.com/gocarina/gocsv"
)

// Record is the flat CSV row of one history event.
type Record struct {
	ID           int64   `csv:"id"`
	Timestamp    string  `csv:"timestamp"`
	LifecycleID  string  `csv:"lifecycle_id"`
	Type         string  `csv:"type"`
	From         string  `csv:"from"`
	To           string  `csv:"to"`
	Experience   float64 `csv:"experience"`
	AgeDays      int     `csv:"age_days"`
	Handshakes   int     `csv:"handshakes"`
	Associations int     `csv:"associations"`
	Deauths      int     `csv:"deauths"`
}

// ToRecord flattens an event. Unknown payload fields are ignored.
func ToRecord(e Event) Record {
	rec := Record{
		ID:          e.ID(),
		Timestamp:   e.Timestamp().UTC().Format(time.RFC3339),
		LifecycleID: e.LifecycleID(),
		Type:        e.Type(),
	}

	var payload struct {
		Starter   string   `json:"starter"`
		From      string   `json:"from"`
		To        string   `json:"to"`
		FinalForm string   `json:"final_form"`
		Progress  Progress `json:"progress"`
	}
	if err := json.Unmarshal(e.Payload(), &payload); err != nil {
		return rec
	}

	switch e.Type() {
	case TypeLifecycleStarted:
		rec.To = payload.Starter
	case TypeEvolved:
		rec.From, rec.To = payload.From, payload.To
	case TypeLifecycleEnded:
		rec.From = payload.FinalForm
	}
	rec.Experience = payload.Progress.Experience
	rec.AgeDays = payload.Progress.AgeDays
	rec.Handshakes = payload.Progress.Handshakes
	rec.Associations = payload.Progress.Associations
	rec.Deauths = payload.Progress.Deauths
	return rec
}

// WriteCSV writes events as CSV with a header row.
func WriteCSV(w io.Writer, events []Event) error {
	records := make([]*Record, 0, len(events))
	for _, e := range events {
		rec := ToRecord(e)
		records = append(records, &rec)
	}
	if err := gocsv.Marshal(records, w); err != nil {
		return ErrExportFailed.WithCause(err)
	}
	return nil
}
