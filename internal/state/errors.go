package state

import "git.home.luguber.info/inful/digivice/internal/foundation/errors"

var (
	// ErrSnapshotMissing indicates no snapshot file exists yet.
	ErrSnapshotMissing = errors.CorruptStateError("snapshot file not found").Build()

	// ErrSnapshotUnreadable indicates the snapshot file could not be read.
	ErrSnapshotUnreadable = errors.CorruptStateError("snapshot file unreadable").Build()

	// ErrSnapshotMalformed indicates the snapshot is not valid JSON for the record.
	ErrSnapshotMalformed = errors.CorruptStateError("snapshot malformed").Build()

	// ErrUnknownStage indicates current_form names no known stage.
	ErrUnknownStage = errors.CorruptStateError("snapshot names unknown stage").Build()

	// ErrInvalidField indicates a field holds a semantically invalid value.
	ErrInvalidField = errors.CorruptStateError("snapshot field invalid").Build()

	// ErrSnapshotWrite indicates the snapshot could not be written.
	ErrSnapshotWrite = errors.PersistenceError("failed to write snapshot").Build()
)
