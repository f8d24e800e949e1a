// Package firewall registers the "firewall" fault module:
// iptables-based connection drop/reject injection via a sidecar,
// grounded in pkg/injection/firewall's IptablesWrapper.
package firewall

import (
	"context"

	"github.com/jihwankim/faultsched/pkg/action"
	"github.com/jihwankim/faultsched/pkg/faultactions/internal/params"
	injfirewall "github.com/jihwankim/faultsched/pkg/injection/firewall"
)

// Entries builds the "firewall" module's registration table against iw.
// Target is the container ID whose network namespace the sidecar joins.
//
//	drop: udf1=rule_type ("drop"|"reject"), udf2=target_ports,
//	      udf3=target_proto ("tcp"|"udp"|"tcp,udp"); udd may carry
//	      probability (0.0-1.0) and stateful (bool)
//	remove: undoes drop's iptables rules
func Entries(iw *injfirewall.IptablesWrapper) map[string]action.Entry {
	return map[string]action.Entry{
		"drop": {
			Fn: func(ctx context.Context, args action.Args) error {
				return iw.InjectConnectionDrop(ctx, args.Target, injfirewall.ConnectionDropParams{
					RuleType:    params.StringOr(args.UDF1, "drop"),
					TargetPorts: args.UDF2,
					TargetProto: params.StringOr(args.UDF3, "tcp"),
					Probability: params.UDDFloat(args.UDD, "probability", 1.0),
					Stateful:    params.UDDBool(args.UDD, "stateful", false),
				})
			},
		},
		"remove": {
			Fn: func(ctx context.Context, args action.Args) error {
				return iw.RemoveFault(ctx, args.Target)
			},
		},
	}
}
