// Package network registers the "network" fault module: L3/L4 latency,
// jitter, packet-loss, bandwidth, and packet-reorder injection against a
// target's network namespace via a sidecar running the vendored comcast
// tool and direct tc commands, grounded in pkg/injection/l3l4's
// ComcastWrapper and TCWrapper, pkg/injection/sidecar, and
// pkg/injection/verification.
package network

import (
	"context"
	"fmt"

	"github.com/jihwankim/faultsched/pkg/action"
	"github.com/jihwankim/faultsched/pkg/faultactions/internal/params"
	"github.com/jihwankim/faultsched/pkg/injection/l3l4"
	"github.com/jihwankim/faultsched/pkg/injection/verification"
)

// Entries builds the "network" module's registration table against cw
// and tw. Target is the container ID whose network namespace the
// sidecar joins.
//
// inject and reorder carry their parameters entirely through udd
// (latency_ms, jitter_ms, packet_loss_pct, bandwidth_kbit, target_ports,
// target_proto, target_ips, target_cidr, device, reorder_pct,
// reorder_correlation_pct) since l3l4.FaultParams has more fields than
// the three scalar udf slots can hold.
// remove clears whatever rules inject last applied, then asks verifier
// to confirm the target's network namespace came back clean. verify
// runs that same namespace check standalone, without touching rules,
// so a SUT config can schedule it as an independent audit event.
// unreorder deletes eth0's root qdisc, which clears reorder's rules and
// any comcast rules on eth0 with them; it does not go through remove.
func Entries(cw *l3l4.ComcastWrapper, tw *l3l4.TCWrapper, verifier *verification.Verifier) map[string]action.Entry {
	return map[string]action.Entry{
		"inject": {
			Fn: func(ctx context.Context, args action.Args) error {
				return cw.InjectFault(ctx, args.Target, l3l4.FaultParams{
					Device:      params.UDDString(args.UDD, "device", "eth0"),
					Latency:     params.UDDInt(args.UDD, "latency_ms", 0),
					Jitter:      params.UDDInt(args.UDD, "jitter_ms", 0),
					PacketLoss:  params.UDDFloat(args.UDD, "packet_loss_pct", 0),
					Bandwidth:   params.UDDInt(args.UDD, "bandwidth_kbit", 0),
					TargetPorts: params.UDDString(args.UDD, "target_ports", ""),
					TargetProto: params.UDDString(args.UDD, "target_proto", "tcp,udp"),
					TargetIPs:   params.UDDString(args.UDD, "target_ips", ""),
					TargetCIDR:  params.UDDString(args.UDD, "target_cidr", ""),
				})
			},
		},
		"remove": {
			Fn: func(ctx context.Context, args action.Args) error {
				if err := cw.RemoveFault(ctx, args.Target); err != nil {
					return err
				}
				result, err := verifier.VerifyNamespaceClean(ctx, args.Target)
				if err != nil {
					return fmt.Errorf("rules removed but post-condition check failed: %w", err)
				}
				if !result.Clean {
					return fmt.Errorf("rules removed but namespace not clean: %v", result.Details)
				}
				return nil
			},
		},
		"verify": {
			Fn: func(ctx context.Context, args action.Args) error {
				result, err := verifier.VerifyNamespaceClean(ctx, args.Target)
				if err != nil {
					return err
				}
				if !result.Clean {
					return fmt.Errorf("namespace not clean: %v", result.Details)
				}
				return nil
			},
		},
		"reorder": {
			Fn: func(ctx context.Context, args action.Args) error {
				return tw.InjectPacketReorder(ctx, args.Target, l3l4.FaultParams{
					Device:             params.UDDString(args.UDD, "device", "eth0"),
					Latency:            params.UDDInt(args.UDD, "latency_ms", 0),
					Reorder:            params.UDDInt(args.UDD, "reorder_pct", 0),
					ReorderCorrelation: params.UDDInt(args.UDD, "reorder_correlation_pct", 0),
				})
			},
		},
		"unreorder": {
			Fn: func(ctx context.Context, args action.Args) error {
				return tw.RemoveFault(ctx, args.Target)
			},
		},
	}
}
