package emergency_test

import (
	"context"
	"testing"
	"time"

	"github.com/jihwankim/faultsched/pkg/emergency"
	"github.com/stretchr/testify/require"
)

func TestController_MaxDurationTriggersStop(t *testing.T) {
	c := emergency.New(emergency.Config{
		StopFile:     t.TempDir() + "/stop",
		PollInterval: 50 * time.Millisecond,
		MaxDuration:  100 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)

	select {
	case <-c.StopChannel():
	case <-time.After(2 * time.Second):
		t.Fatal("expected stop to trigger once max duration elapsed")
	}
	require.True(t, c.IsStopped())
}

func TestController_StopIsIdempotent(t *testing.T) {
	c := emergency.New(emergency.Config{StopFile: t.TempDir() + "/stop"})

	var calls int
	c.OnStop(func() { calls++ })

	c.Stop("first")
	c.Stop("second")

	require.Equal(t, 1, calls)
	require.True(t, c.IsStopped())
}

func TestController_StopFileTriggersCallback(t *testing.T) {
	stopFile := t.TempDir() + "/stop"
	c := emergency.New(emergency.Config{
		StopFile:     stopFile,
		PollInterval: 20 * time.Millisecond,
	})

	done := make(chan struct{})
	c.OnStop(func() { close(done) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)

	require.NoError(t, c.CreateStopFile())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected callback to run once stop file appeared")
	}
}
