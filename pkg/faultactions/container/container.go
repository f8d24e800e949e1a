// Package container registers the "container" fault module: kill,
// restart, and pause actions against a target's Docker container ID,
// grounded in pkg/injection/container's Manager.
package container

import (
	"context"
	"time"

	"github.com/jihwankim/faultsched/pkg/action"
	"github.com/jihwankim/faultsched/pkg/faultactions/internal/params"
	injcontainer "github.com/jihwankim/faultsched/pkg/injection/container"
)

// Entries builds the "container" module's registration table against
// mgr. Target is interpreted as a Docker container ID or name.
//
//	kill:    udf1=signal (default SIGKILL), udf2=restart ("true" to
//	         restart after kill), udf3=restart_delay_seconds
//	restart: udf1=grace_period_seconds, udf2=restart_delay_seconds
//	pause:   udf1=duration_seconds, udf2=unpause ("true" unpauses right
//	         away when duration is 0; a positive duration always ends
//	         with an unpause)
func Entries(mgr *injcontainer.Manager) map[string]action.Entry {
	return map[string]action.Entry{
		"kill": {
			Doc: "[fault]\nexecute = true\n[/fault]",
			Fn: func(ctx context.Context, args action.Args) error {
				return mgr.KillContainer(ctx, args.Target, injcontainer.KillParams{
					Signal:       params.StringOr(args.UDF1, "SIGKILL"),
					Restart:      params.BoolOr(args.UDF2, false),
					RestartDelay: params.IntOr(args.UDF3, 0),
				})
			},
		},
		"restart": {
			Fn: func(ctx context.Context, args action.Args) error {
				return mgr.RestartContainer(ctx, args.Target, injcontainer.RestartParams{
					GracePeriod:  params.IntOr(args.UDF1, 10),
					RestartDelay: params.IntOr(args.UDF2, 0),
				})
			},
		},
		"pause": {
			Fn: func(ctx context.Context, args action.Args) error {
				return mgr.PauseContainer(ctx, args.Target, injcontainer.PauseParams{
					Duration: time.Duration(params.IntOr(args.UDF1, 30)) * time.Second,
					Unpause:  params.BoolOr(args.UDF2, true),
				})
			},
		},
	}
}
