package faultactions

import (
	"github.com/jihwankim/faultsched/pkg/action"
	"github.com/jihwankim/faultsched/pkg/discovery/docker"
	"github.com/jihwankim/faultsched/pkg/faultactions/container"
	"github.com/jihwankim/faultsched/pkg/faultactions/disk"
	"github.com/jihwankim/faultsched/pkg/faultactions/dns"
	"github.com/jihwankim/faultsched/pkg/faultactions/firewall"
	"github.com/jihwankim/faultsched/pkg/faultactions/network"
	"github.com/jihwankim/faultsched/pkg/faultactions/process"
	"github.com/jihwankim/faultsched/pkg/faultactions/stress"
	injcontainer "github.com/jihwankim/faultsched/pkg/injection/container"
	injdisk "github.com/jihwankim/faultsched/pkg/injection/disk"
	injdns "github.com/jihwankim/faultsched/pkg/injection/dns"
	injfirewall "github.com/jihwankim/faultsched/pkg/injection/firewall"
	"github.com/jihwankim/faultsched/pkg/injection/l3l4"
	injprocess "github.com/jihwankim/faultsched/pkg/injection/process"
	"github.com/jihwankim/faultsched/pkg/injection/sidecar"
	injstress "github.com/jihwankim/faultsched/pkg/injection/stress"
	"github.com/jihwankim/faultsched/pkg/injection/verification"
)

// DefaultSidecarImage is the image the sidecar manager starts alongside
// a target container to run tc/iptables/comcast tooling the target's
// own image does not carry.
const DefaultSidecarImage = "faultsched/net-sidecar:latest"

// RegisterAll builds one action.Module per demonstration fault domain
// (container, network, process, disk, dns, firewall, stress), all
// sharing a single Docker client and sidecar manager, and returns them
// ready to pass to action.NewRegistry. A SUT's fault_module field
// selects among these module names; any other name is a missing-module
// failure at that SUT's startup (§7).
func RegisterAll(dockerClient *docker.Client) []*action.Module {
	sidecarMgr := sidecar.New(dockerClient, DefaultSidecarImage)

	containerMgr := injcontainer.NewManager(dockerClient.GetClient())
	comcastWrapper := l3l4.New(sidecarMgr)
	tcWrapper := l3l4.NewTCWrapper(sidecarMgr)
	netVerifier := verification.New(dockerClient)
	priorityWrapper := injprocess.New(dockerClient)
	ioDelayWrapper := injdisk.New(dockerClient)
	dnsWrapper := injdns.New(sidecarMgr)
	firewallWrapper := injfirewall.New(sidecarMgr)
	stressWrapper := injstress.New(sidecarMgr, dockerClient)

	return []*action.Module{
		action.NewModule("container", container.Entries(containerMgr)),
		action.NewModule("network", network.Entries(comcastWrapper, tcWrapper, netVerifier)),
		action.NewModule("process", process.Entries(priorityWrapper)),
		action.NewModule("disk", disk.Entries(ioDelayWrapper)),
		action.NewModule("dns", dns.Entries(dnsWrapper)),
		action.NewModule("firewall", firewall.Entries(firewallWrapper)),
		action.NewModule("stress", stress.Entries(stressWrapper)),
	}
}
