// Package process registers the "process" fault module: renice-style
// priority manipulation of a named process inside a target container,
// grounded in pkg/injection/process's PriorityWrapper.
package process

import (
	"context"

	"github.com/jihwankim/faultsched/pkg/action"
	"github.com/jihwankim/faultsched/pkg/faultactions/internal/params"
	injprocess "github.com/jihwankim/faultsched/pkg/injection/process"
)

// Entries builds the "process" module's registration table against pw.
// Target is the container ID to exec into.
//
//	renice: udf1=process_pattern, udf2=priority (nice value, -20..19)
//	restore: udf1=process_pattern, restores the default priority (0)
func Entries(pw *injprocess.PriorityWrapper) map[string]action.Entry {
	return map[string]action.Entry{
		"renice": {
			Fn: func(ctx context.Context, args action.Args) error {
				return pw.InjectPriorityChange(ctx, args.Target, injprocess.PriorityParams{
					ProcessPattern: args.UDF1,
					Priority:       params.IntOr(args.UDF2, 19),
				})
			},
		},
		"restore": {
			Fn: func(ctx context.Context, args action.Args) error {
				return pw.RemoveFault(ctx, args.Target, injprocess.PriorityParams{
					ProcessPattern: args.UDF1,
				})
			},
		},
	}
}
