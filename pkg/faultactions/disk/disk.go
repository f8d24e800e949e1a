// Package disk registers the "disk" fault module: I/O latency
// injection against processes touching a target path inside a
// container, grounded in pkg/injection/disk's IODelayWrapper.
package disk

import (
	"context"

	"github.com/jihwankim/faultsched/pkg/action"
	"github.com/jihwankim/faultsched/pkg/faultactions/internal/params"
	injdisk "github.com/jihwankim/faultsched/pkg/injection/disk"
)

// Entries builds the "disk" module's registration table against iw.
// Target is the container ID to exec into.
//
//	io_delay: udf1=target_path, udf2=io_latency_ms, udf3=operation
//	          ("read"|"write"|"all", default "all")
//	restore:  udf1=target_path, undoes io_delay's ionice change
func Entries(iw *injdisk.IODelayWrapper) map[string]action.Entry {
	return map[string]action.Entry{
		"io_delay": {
			Fn: func(ctx context.Context, args action.Args) error {
				return iw.InjectIODelay(ctx, args.Target, injdisk.IODelayParams{
					TargetPath:  args.UDF1,
					IOLatencyMs: params.IntOr(args.UDF2, 100),
					Operation:   params.StringOr(args.UDF3, "all"),
				})
			},
		},
		"restore": {
			Fn: func(ctx context.Context, args action.Args) error {
				return iw.RemoveFault(ctx, args.Target, injdisk.IODelayParams{
					TargetPath: args.UDF1,
					Operation:  "all",
				})
			},
		},
	}
}
