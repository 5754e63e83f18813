package pductl

import (
	"fmt"
	"net"
	"strings"

	"github.com/OpenCHAMI/pductl/pkg/pdu"
	"github.com/OpenCHAMI/pductl/pkg/snmp"
	"github.com/rs/zerolog/log"
)

const (
	oidSysDescr    = ".1.3.6.1.2.1.1.1.0"
	oidSysObjectID = ".1.3.6.1.2.1.1.2.0"
	oidSysName     = ".1.3.6.1.2.1.1.5.0"

	// largest CIDR expanded, larger ranges are truncated
	maxScanHosts = 4096
)

// ScanResult describes an SNMP agent that answered a probe.
type ScanResult struct {
	Host        string       `json:"host" yaml:"host"`
	SysName     string       `json:"sys_name,omitempty" yaml:"sys_name,omitempty"`
	SysDescr    string       `json:"sys_descr,omitempty" yaml:"sys_descr,omitempty"`
	SysObjectID string       `json:"sys_object_id" yaml:"sys_object_id"`
	Families    []pdu.Family `json:"families" yaml:"families"`
}

type ScanResults []ScanResult

func (r ScanResults) Lines() []string {
	lines := make([]string, 0, len(r))
	for _, result := range r {
		families := make([]string, 0, len(result.Families))
		for _, f := range result.Families {
			families = append(families, f.String())
		}
		if len(families) == 0 {
			families = append(families, "not a known PDU")
		}
		lines = append(lines, fmt.Sprintf("%s\t%s\t%s\t%s", result.Host, result.SysName, result.SysObjectID, strings.Join(families, ",")))
	}
	return lines
}

// ScanParams configures ScanForPDUs. SNMP carries the community and
// timeouts used for every probe; its Host is ignored.
type ScanParams struct {
	Targets     []string
	Concurrency int
	SNMP        snmp.Config
	// PDUsOnly drops agents whose sysObjectID matches no known family.
	PDUsOnly bool
}

// ScanForPDUs probes every target for an SNMP agent and guesses the PDU
// family from its sysObjectID. Hosts that don't answer are left out.
func ScanForPDUs(params ScanParams) ScanResults {
	hosts := ExpandTargets(params.Targets)
	log.Info().Int("hosts", len(hosts)).Msg("scanning for PDUs")

	probed := forEach(params.Concurrency, hosts, func(host string) *ScanResult {
		cfg := params.SNMP
		cfg.Host = host
		return probe(cfg)
	})

	results := ScanResults{}
	for _, result := range probed {
		if result == nil {
			continue
		}
		if params.PDUsOnly && len(result.Families) == 0 {
			continue
		}
		results = append(results, *result)
	}
	return results
}

func probe(cfg snmp.Config) *ScanResult {
	client, err := snmp.NewClient(cfg)
	if err != nil {
		log.Error().Err(err).Str("host", cfg.Host).Msg("failed to create SNMP client")
		return nil
	}
	defer client.Close()

	objectID, err := client.Get(oidSysObjectID)
	if err != nil {
		log.Debug().Err(err).Str("host", cfg.Host).Msg("no SNMP agent answered")
		return nil
	}
	result := &ScanResult{
		Host:        cfg.Host,
		SysObjectID: objectID.Value,
		Families:    pdu.FamiliesForObjectID(objectID.Value),
	}
	if v, err := client.Get(oidSysName); err == nil {
		result.SysName = v.Value
	}
	if v, err := client.Get(oidSysDescr); err == nil {
		result.SysDescr = v.Value
	}
	log.Debug().Str("host", cfg.Host).Str("sys_object_id", result.SysObjectID).Msg("found SNMP agent")
	return result
}

// ExpandTargets turns hosts, IPs and IPv4 CIDR ranges into a list of
// unique hosts. Network and broadcast addresses of ranges are skipped.
func ExpandTargets(targets []string) []string {
	hosts := []string{}
	seen := map[string]bool{}
	add := func(host string) {
		if !seen[host] {
			seen[host] = true
			hosts = append(hosts, host)
		}
	}

	for _, target := range targets {
		if !strings.Contains(target, "/") {
			if ip := net.ParseIP(target); ip != nil {
				target = ip.String()
			}
			add(target)
			continue
		}

		ip, ipNet, err := net.ParseCIDR(target)
		if err != nil || ip.To4() == nil {
			log.Warn().Str("target", target).Msg("skipping invalid IPv4 CIDR")
			continue
		}
		ones, bits := ipNet.Mask.Size()
		first := ipNet.IP.Mask(ipNet.Mask).To4()
		if bits-ones < 2 {
			// /31 and /32 have no network or broadcast address
			for cur := first; ipNet.Contains(cur); cur = nextIP(cur) {
				add(cur.String())
			}
			continue
		}

		count := 0
		for cur := nextIP(first); ipNet.Contains(nextIP(cur)); cur = nextIP(cur) {
			if count == maxScanHosts {
				log.Warn().Str("target", target).Int("limit", maxScanHosts).Msg("CIDR range too large, truncating scan")
				break
			}
			add(cur.String())
			count++
		}
	}
	return hosts
}

func nextIP(ip net.IP) net.IP {
	next := make(net.IP, len(ip))
	copy(next, ip)
	for j := len(next) - 1; j >= 0; j-- {
		next[j]++
		if next[j] > 0 {
			break
		}
	}
	return next
}
