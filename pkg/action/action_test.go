package action_test

import (
	"context"
	"testing"

	"github.com/jihwankim/faultsched/pkg/action"
	"github.com/stretchr/testify/require"
)

func TestRegistry_ResolveCachesSuccessfulLookup(t *testing.T) {
	calls := 0
	fn := func(ctx context.Context, args action.Args) error {
		calls++
		return nil
	}
	mod := action.NewModule("demo", map[string]action.Entry{
		"kill": {Fn: fn},
	})
	reg := action.NewRegistry(mod)

	f1, err := reg.Resolve("demo", "kill")
	require.NoError(t, err)
	f2, err := reg.Resolve("demo", "kill")
	require.NoError(t, err)

	require.NoError(t, f1(context.Background(), action.Args{}))
	require.NoError(t, f2(context.Background(), action.Args{}))
	require.Equal(t, 2, calls)
}

func TestRegistry_ResolveUnknownModule(t *testing.T) {
	reg := action.NewRegistry()
	_, err := reg.Resolve("missing", "kill")
	require.ErrorAs(t, err, &action.ErrModuleNotFound{})
}

func TestRegistry_ResolveUnknownAction(t *testing.T) {
	mod := action.NewModule("demo", map[string]action.Entry{})
	reg := action.NewRegistry(mod)
	_, err := reg.Resolve("demo", "missing")
	require.ErrorAs(t, err, &action.ErrActionNotFound{})
}

func TestRegistry_HasModule(t *testing.T) {
	mod := action.NewModule("demo", map[string]action.Entry{})
	reg := action.NewRegistry(mod)
	require.True(t, reg.HasModule("demo"))
	require.False(t, reg.HasModule("other"))
}

func TestParseAnnotation_ExtractsFirstBlockOnly(t *testing.T) {
	doc := `Kills a process.

[fault]
execute = true
signal = SIGKILL
[/fault]

Some trailing prose.
[fault]
ignored = yes
[/fault]
`
	kv := action.ParseAnnotation(doc)
	require.Equal(t, map[string]string{"execute": "true", "signal": "SIGKILL"}, kv)
}

func TestParseAnnotation_NoBlockReturnsEmpty(t *testing.T) {
	require.Empty(t, action.ParseAnnotation("just a plain docstring"))
}
