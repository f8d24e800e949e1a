// Package dns registers the "dns" fault module: DNS resolution delay
// injection via a sidecar, grounded in pkg/injection/dns's DNSWrapper.
package dns

import (
	"context"

	"github.com/jihwankim/faultsched/pkg/action"
	"github.com/jihwankim/faultsched/pkg/faultactions/internal/params"
	injdns "github.com/jihwankim/faultsched/pkg/injection/dns"
)

// Entries builds the "dns" module's registration table against dw.
// Target is the container ID whose network namespace the sidecar joins.
//
//	delay:  udf1=delay_ms, udf2=failure_rate (0.0-1.0)
//	remove: undoes delay's tc rules
func Entries(dw *injdns.DNSWrapper) map[string]action.Entry {
	return map[string]action.Entry{
		"delay": {
			Fn: func(ctx context.Context, args action.Args) error {
				return dw.InjectDNSDelay(ctx, args.Target, injdns.DNSParams{
					DelayMs:     params.IntOr(args.UDF1, 500),
					FailureRate: params.FloatOr(args.UDF2, 0),
				})
			},
		},
		"remove": {
			Fn: func(ctx context.Context, args action.Args) error {
				return dw.RemoveFault(ctx, args.Target)
			},
		},
	}
}
