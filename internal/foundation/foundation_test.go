package foundation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult(t *testing.T) {
	t.Run("Ok result", func(t *testing.T) {
		r := Ok[string, error]("agumon")
		require.True(t, r.IsOk())
		require.False(t, r.IsErr())
		assert.Equal(t, "agumon", r.Unwrap())
		assert.Equal(t, "agumon", r.UnwrapOr("fallback"))
	})

	t.Run("Err result", func(t *testing.T) {
		cause := errors.New("disk full")
		r := Err[string, error](cause)
		require.True(t, r.IsErr())
		assert.ErrorIs(t, r.UnwrapErr(), cause)
		assert.Equal(t, "fallback", r.UnwrapOr("fallback"))
		assert.Panics(t, func() { r.Unwrap() })
	})

	t.Run("Match", func(t *testing.T) {
		var got string
		Ok[string, error]("x").Match(func(v string) { got = v }, func(error) { got = "err" })
		assert.Equal(t, "x", got)
		Err[string, error](errors.New("boom")).Match(func(v string) { got = v }, func(error) { got = "err" })
		assert.Equal(t, "err", got)
	})

	t.Run("Tuple conversions", func(t *testing.T) {
		require.True(t, FromTuple[int, error](3, nil).IsOk())
		r := FromTuple[int, error](0, errors.New("bad"))
		require.True(t, r.IsErr())
		v, err := r.ToTuple()
		assert.Zero(t, v)
		assert.Error(t, err)
	})

	t.Run("Map", func(t *testing.T) {
		doubled := Map(Ok[int, error](21), func(i int) int { return i * 2 })
		assert.Equal(t, 42, doubled.Unwrap())
		failed := Map(Err[int, error](errors.New("x")), func(i int) int { return i * 2 })
		assert.True(t, failed.IsErr())
	})
}

func TestOption(t *testing.T) {
	some := Some(40)
	v, ok := some.Get()
	assert.True(t, ok)
	assert.Equal(t, 40, v)
	assert.Equal(t, "Some(40)", some.String())

	none := None[int]()
	assert.True(t, none.IsNone())
	assert.Equal(t, 7, none.UnwrapOr(7))
	assert.Equal(t, "None", none.String())
	assert.Panics(t, func() { none.Unwrap() })
}

func TestNormalizer(t *testing.T) {
	type color string
	n := NewNormalizer(map[string]color{"Red": "red", "blue": "blue"}, "unknown")

	assert.Equal(t, color("red"), n.Normalize("  RED "))
	assert.Equal(t, color("unknown"), n.Normalize("green"))
	assert.True(t, n.Contains("Blue"))

	_, err := n.NormalizeWithError("green")
	assert.Error(t, err)
}

func TestValidationResult(t *testing.T) {
	ok := Valid()
	require.NoError(t, ok.ToError())

	bad := ok.Combine(Invalid(NewValidationError("life_span", "min", "must be at least 1")))
	require.False(t, bad.Valid)
	err := bad.ToError()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "life_span")
}
