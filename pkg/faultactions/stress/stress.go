// Package stress registers the "stress" fault module: CPU and memory
// resource-stress injection, grounded in pkg/injection/stress's
// StressWrapper.
package stress

import (
	"context"

	"github.com/jihwankim/faultsched/pkg/action"
	"github.com/jihwankim/faultsched/pkg/faultactions/internal/params"
	injstress "github.com/jihwankim/faultsched/pkg/injection/stress"
)

// Entries builds the "stress" module's registration table against sw.
// Target is the container ID to stress.
//
//	cpu:     udf1=method ("stress"|"limit"), udf2=cpu_percent;
//	         udd may carry duration (e.g. "4m") and cores
//	memory:  udf1=method, udf2=memory_mb; udd may carry duration
//	restore: removes whatever cpu/memory last applied
func Entries(sw *injstress.StressWrapper) map[string]action.Entry {
	return map[string]action.Entry{
		"cpu": {
			Fn: func(ctx context.Context, args action.Args) error {
				return sw.InjectCPUStress(ctx, args.Target, injstress.StressParams{
					Method:     params.StringOr(args.UDF1, "limit"),
					CPUPercent: params.IntOr(args.UDF2, 80),
					Duration:   params.UDDString(args.UDD, "duration", "1m"),
					Cores:      params.UDDInt(args.UDD, "cores", 0),
				})
			},
		},
		"memory": {
			Fn: func(ctx context.Context, args action.Args) error {
				return sw.InjectMemoryStress(ctx, args.Target, injstress.StressParams{
					Method:   params.StringOr(args.UDF1, "limit"),
					MemoryMB: params.IntOr(args.UDF2, 256),
					Duration: params.UDDString(args.UDD, "duration", "1m"),
				})
			},
		},
		"restore": {
			Fn: func(ctx context.Context, args action.Args) error {
				return sw.RemoveFault(ctx, args.Target)
			},
		},
	}
}
