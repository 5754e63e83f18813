package pductl

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/OpenCHAMI/pductl/pkg/pdu"
	"github.com/stretchr/testify/assert"
)

func TestForEachKeepsOrder(t *testing.T) {
	configs := []PDUConfig{}
	for i := 0; i < 20; i++ {
		configs = append(configs, PDUConfig{Host: fmt.Sprintf("pdu-%d", i)})
	}

	var calls atomic.Int32
	for _, concurrency := range []int{0, 1, 4, 50} {
		calls.Store(0)
		results := forEach(concurrency, configs, func(cfg PDUConfig) string {
			calls.Add(1)
			return cfg.Host
		})
		assert.Equal(t, int32(len(configs)), calls.Load())
		for i, host := range results {
			assert.Equal(t, configs[i].Host, host)
		}
	}
}

func TestCollectStatusUnreachableConfig(t *testing.T) {
	configs := []PDUConfig{{Host: "pdu-1", HWSKU: "Sentry4", Version: "3"}}

	report, err := CollectStatus(configs, nil, 1, pdu.StatusFilter{})
	assert.Error(t, err)
	assert.Empty(t, report)
}

func TestStatusReportLines(t *testing.T) {
	report := StatusReport{{
		PDU:    "pdu-1",
		Family: "Raritan",
		Outlets: []pdu.OutletStatus{
			{OutletID: ".1.1", OutletOn: true, OutputWatts: "118"},
			{OutletID: ".1.2"},
		},
	}}
	assert.Equal(t, []string{"pdu-1\t.1.1\ton\t118W", "pdu-1\t.1.2\toff"}, report.Lines())
}

func TestInventoriesLines(t *testing.T) {
	inv := Inventories{{
		Hostname: "pdu-1",
		Outlets: []pdu.PDUOutlet{
			{ID: ".1.1", Name: "dut-a", PowerState: pdu.PowerStateOn, XName: "x3000m0p1v1"},
			{ID: ".1.2", Name: "dut-b"},
		},
	}}
	assert.Equal(t, []string{"pdu-1\t.1.1\tdut-a\tON\tx3000m0p1v1", "pdu-1\t.1.2\tdut-b"}, inv.Lines())
}
