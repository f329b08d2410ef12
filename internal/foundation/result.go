// Package foundation provides small generic building blocks shared by the
// digivice packages: explicit success/failure results for I/O boundaries,
// optional values and string-to-enum normalization.
package foundation

import "fmt"

// Result is the outcome of an operation that either produced a T or failed with E.
// Persistence and history boundaries return it so callers decide explicitly
// whether to log and continue.
type Result[T any, E error] struct {
	value T
	err   E
	isOk  bool
}

// Ok wraps a successful value.
func Ok[T any, E error](value T) Result[T, E] {
	return Result[T, E]{value: value, isOk: true}
}

// Err wraps a failure.
func Err[T any, E error](err E) Result[T, E] {
	return Result[T, E]{err: err}
}

// IsOk reports whether the operation succeeded.
func (r Result[T, E]) IsOk() bool { return r.isOk }

// IsErr reports whether the operation failed.
func (r Result[T, E]) IsErr() bool { return !r.isOk }

// Unwrap returns the value and panics on a failed result.
func (r Result[T, E]) Unwrap() T {
	if !r.isOk {
		panic(fmt.Sprintf("called Unwrap on Err result: %v", r.err))
	}
	return r.value
}

// UnwrapOr returns the value, or fallback when the result failed.
func (r Result[T, E]) UnwrapOr(fallback T) T {
	if r.isOk {
		return r.value
	}
	return fallback
}

// UnwrapErr returns the failure and panics on a successful result.
func (r Result[T, E]) UnwrapErr() E {
	if r.isOk {
		panic("called UnwrapErr on Ok result")
	}
	return r.err
}

// Match runs onOk or onErr depending on the outcome.
func (r Result[T, E]) Match(onOk func(T), onErr func(E)) {
	if r.isOk {
		onOk(r.value)
		return
	}
	onErr(r.err)
}

// ToTuple converts back to the (value, error) convention.
func (r Result[T, E]) ToTuple() (T, E) {
	var zeroVal T
	var zeroErr E
	if r.isOk {
		return r.value, zeroErr
	}
	return zeroVal, r.err
}

// FromTuple builds a Result from the (value, error) convention.
func FromTuple[T any, E error](value T, err E) Result[T, E] {
	if any(err) != nil {
		return Err[T, E](err)
	}
	return Ok[T, E](value)
}

// Map transforms the value of a successful result and passes failures through.
func Map[T, U any, E error](r Result[T, E], fn func(T) U) Result[U, E] {
	if r.isOk {
		return Ok[U, E](fn(r.value))
	}
	return Err[U, E](r.err)
}
