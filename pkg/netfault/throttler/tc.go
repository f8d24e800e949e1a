package throttler

import (
	"fmt"
	"strings"
)

// tcThrottler implements the throttler interface using Linux's iproute2 tc
// queuing disciplines plus iptables packet marking: a root prio qdisc with
// a netem (delay/loss) + tbf (rate) leaf class, and either a catch-all u32
// filter or a firewall-mark filter fed by iptables mangle rules when
// specific targets are requested.
type tcThrottler struct {
	c      commander
	device string
}

const (
	tcRootHandle = "1:"
	tcSlowClass  = "1:3"
	tcNetemLeaf  = "30:"
	tcShapedLeaf = "40:"
	tcMark       = "3"
)

func (t *tcThrottler) exists() bool {
	lines, err := t.c.executeGetLines(fmt.Sprintf("tc qdisc show dev %s", t.device))
	if err != nil {
		return false
	}
	for _, line := range lines {
		if strings.Contains(line, "netem") {
			return true
		}
	}
	return false
}

func (t *tcThrottler) check() string {
	return fmt.Sprintf("tc qdisc show dev %s", t.device)
}

func (t *tcThrottler) setup(cfg *Config) error {
	if err := t.c.execute(fmt.Sprintf("tc qdisc add dev %s root handle %s prio", t.device, tcRootHandle)); err != nil {
		return err
	}

	if err := t.c.execute(fmt.Sprintf("tc qdisc add dev %s parent %s handle %s netem %s", t.device, tcSlowClass, tcNetemLeaf, netemArgs(cfg))); err != nil {
		return err
	}

	if cfg.TargetBandwidth > 0 {
		if err := t.c.execute(fmt.Sprintf("tc qdisc add dev %s parent %s:1 handle %s tbf rate %dkbit burst 32kbit latency 400ms", t.device, tcNetemLeaf, tcShapedLeaf, cfg.TargetBandwidth)); err != nil {
			return err
		}
	}

	if hasTargets(cfg) {
		if err := markTargets(t.c, cfg, true); err != nil {
			return err
		}
		return t.c.execute(fmt.Sprintf("tc filter add dev %s parent %s protocol ip prio 1 handle %s fw flowid %s", t.device, tcRootHandle, tcMark, tcSlowClass))
	}

	return t.c.execute(fmt.Sprintf("tc filter add dev %s parent %s protocol ip prio 1 u32 match u32 0 0 flowid %s", t.device, tcRootHandle, tcSlowClass))
}

func (t *tcThrottler) teardown(cfg *Config) error {
	if hasTargets(cfg) {
		// best-effort: unmark even if a rule is already gone
		_ = markTargets(t.c, cfg, false)
	}
	return t.c.execute(fmt.Sprintf("tc qdisc del dev %s root", t.device))
}

// netemArgs builds the netem leaf's delay/loss arguments, falling back to
// an effective no-op delay so the qdisc has at least one parameter.
func netemArgs(cfg *Config) string {
	var parts []string
	if cfg.Latency > 0 {
		parts = append(parts, fmt.Sprintf("delay %dms", cfg.Latency))
	}
	if cfg.PacketLoss > 0 {
		parts = append(parts, fmt.Sprintf("loss %.2f%%", cfg.PacketLoss))
	}
	if len(parts) == 0 {
		parts = append(parts, "delay 0ms")
	}
	return strings.Join(parts, " ")
}

func hasTargets(cfg *Config) bool {
	return len(cfg.TargetIps) > 0 || len(cfg.TargetIps6) > 0 || len(cfg.TargetPorts) > 0
}

// markTargets adds (add=true) or removes (add=false) the iptables mangle
// rules that fwmark traffic matching cfg's target ports/ips/protocols so
// tc's fw filter can route only that traffic into the shaped class.
func markTargets(c commander, cfg *Config, add bool) error {
	action := "-A"
	if !add {
		action = "-D"
	}

	protos := cfg.TargetProtos
	if len(protos) == 0 {
		protos = []string{"tcp", "udp"}
	}

	for _, proto := range protos {
		if proto == "icmp" {
			if err := c.execute(fmt.Sprintf("iptables -t mangle %s OUTPUT -p icmp -j MARK --set-mark %s", action, tcMark)); err != nil && add {
				return err
			}
			continue
		}
		if len(cfg.TargetPorts) == 0 {
			if err := c.execute(fmt.Sprintf("iptables -t mangle %s OUTPUT -p %s -j MARK --set-mark %s", action, proto, tcMark)); err != nil && add {
				return err
			}
			continue
		}
		for _, port := range cfg.TargetPorts {
			if err := c.execute(fmt.Sprintf("iptables -t mangle %s OUTPUT -p %s --dport %s -j MARK --set-mark %s", action, proto, port, tcMark)); err != nil && add {
				return err
			}
		}
	}

	targets := append(append([]string{}, cfg.TargetIps...), cfg.TargetIps6...)
	for _, ip := range targets {
		if err := c.execute(fmt.Sprintf("iptables -t mangle %s OUTPUT -d %s -j MARK --set-mark %s", action, ip, tcMark)); err != nil && add {
			return err
		}
	}

	return nil
}
