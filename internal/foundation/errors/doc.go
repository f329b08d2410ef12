// Package errors provides the classified error primitives used across digivice.
//
// Every failure the pet runtime can hit falls into one category of the
// taxonomy below. None of them is fatal to the core: the lifecycle controller
// logs them and degrades to a safe default (fresh state or unchanged state).
//
//   - CategoryCorruptState: persisted snapshot unreadable or semantically invalid
//   - CategoryPersistence: snapshot write failed
//   - CategoryConfigResolution: no face mapping for the current stage
//   - CategoryRestart: the external restart operation failed
//
// The ambient categories (config, validation, eventstore, transport, internal)
// cover the CLI and daemon surfaces, where the CLI adapter turns them into exit codes.
//
// Example usage:
//
//	err := errors.WrapError(ioErr, errors.CategoryPersistence, "write snapshot").
//		WithContext("path", path).
//		Build()
package errors
