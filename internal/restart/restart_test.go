package restart

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/digivice/internal/foundation/errors"
)

type call struct {
	name string
	args []string
}

func recorder(calls *[]call, failOn string) Runner {
	return func(_ context.Context, name string, args ...string) ([]byte, error) {
		*calls = append(*calls, call{name, args})
		if name == failOn {
			return []byte("unit not found\n"), stderrors.New("exit status 5")
		}
		return nil, nil
	}
}

func TestCommandRunsSyncThenRestart(t *testing.T) {
	var calls []call
	c := NewCommand(nil, true).WithRunner(recorder(&calls, ""))

	require.NoError(t, c.Restart(t.Context()))
	require.Len(t, calls, 2)
	assert.Equal(t, "sync", calls[0].name)
	assert.Equal(t, "systemctl", calls[1].name)
	assert.Equal(t, []string{"restart", "pwnagotchi"}, calls[1].args)
}

func TestCommandWithoutSync(t *testing.T) {
	var calls []call
	c := NewCommand([]string{"reboot"}, false).WithRunner(recorder(&calls, ""))
	require.NoError(t, c.Restart(t.Context()))
	require.Len(t, calls, 1)
	assert.Equal(t, "reboot", calls[0].name)
}

func TestCommandFailureIsRestartError(t *testing.T) {
	var calls []call
	c := NewCommand(nil, false).WithRunner(recorder(&calls, "systemctl"))

	err := c.Restart(t.Context())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryRestart))
	classified, _ := errors.AsClassified(err)
	out, _ := classified.Context().GetString("output")
	assert.Equal(t, "unit not found", out)
	assert.True(t, classified.CanRetry())
}

func TestNoopAndFunc(t *testing.T) {
	n := &Noop{}
	require.NoError(t, n.Restart(t.Context()))
	assert.Equal(t, 1, n.Calls)

	boom := stderrors.New("boom")
	assert.ErrorIs(t, Func(func(context.Context) error { return boom }).Restart(t.Context()), boom)
}
