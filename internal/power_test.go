package pductl

import (
	"context"
	"testing"
	"time"

	"github.com/OpenCHAMI/pductl/pkg/pdu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSentry4(t *testing.T) (*pdu.Controller, *outletTransport, string) {
	t.Helper()
	profile, err := pdu.LookupProfile(pdu.FamilySentry4)
	require.NoError(t, err)

	tr := newOutletTransport(profile)
	tr.add(".1.1", "rack3-dut1-psu1")
	tr.add(".1.2", "rack3-dut1-psu2")
	tr.add(".1.3", "rack3-dut2")

	c, err := pdu.New(pdu.Config{Host: "pdu-1", HWSKU: "Sentry4"}, tr)
	require.NoError(t, err)
	return c, tr, "." + profile.ControlPrefix
}

func TestParsePowerAction(t *testing.T) {
	for _, s := range []string{"on", "OFF", "Cycle"} {
		_, err := ParsePowerAction(s)
		assert.NoError(t, err, s)
	}
	_, err := ParsePowerAction("reboot")
	assert.Error(t, err)
}

func TestSwitchOutletsByHostnameAndLabel(t *testing.T) {
	c, tr, control := newSentry4(t)

	err := SwitchOutlets(context.Background(), c, PowerParams{
		Outlets:  []string{"RACK3-DUT2", ".1.1"},
		Hostname: "rack3-dut1",
		Action:   PowerOff,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		control + ".1.3=2",
		control + ".1.1=2",
		control + ".1.2=2",
	}, tr.sets)
}

func TestSwitchOutletsSharedLabel(t *testing.T) {
	profile, err := pdu.LookupProfile(pdu.FamilySentry4)
	require.NoError(t, err)
	tr := newOutletTransport(profile)
	tr.add(".1.1", "dut-1")
	tr.add(".1.2", "DUT-1")
	tr.add(".1.3", "dut-10")
	c, err := pdu.New(pdu.Config{Host: "pdu-1", HWSKU: "Sentry4"}, tr)
	require.NoError(t, err)
	control := "." + profile.ControlPrefix

	err = SwitchOutlets(context.Background(), c, PowerParams{
		Outlets: []string{"dut-1"},
		Action:  PowerOff,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{control + ".1.1=2", control + ".1.2=2"}, tr.sets)
}

func TestSwitchOutletsCollectsFailures(t *testing.T) {
	c, tr, control := newSentry4(t)
	tr.failSet[control+".1.1"] = true

	err := SwitchOutlets(context.Background(), c, PowerParams{
		Outlets: []string{".1.1", ".9.9", ".1.3"},
		Action:  PowerOn,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".9.9")

	var statusErr *pdu.StatusError
	assert.ErrorAs(t, err, &statusErr)

	// the failing outlet does not stop the rest
	assert.Equal(t, []string{control + ".1.1=1", control + ".1.3=1"}, tr.sets)
}

func TestSwitchOutletsCycleSkipsFailedOff(t *testing.T) {
	c, tr, control := newSentry4(t)
	tr.failSet[control+".1.2"] = true

	err := SwitchOutlets(context.Background(), c, PowerParams{
		Hostname: "dut1",
		Action:   PowerCycle,
		Delay:    time.Millisecond,
	})
	require.Error(t, err)
	assert.Equal(t, []string{
		control + ".1.1=2",
		control + ".1.2=2",
		control + ".1.1=1",
	}, tr.sets)
}

func TestSwitchOutletsNothingSelected(t *testing.T) {
	c, tr, _ := newSentry4(t)

	err := SwitchOutlets(context.Background(), c, PowerParams{Hostname: "rack9", Action: PowerOn})
	assert.ErrorIs(t, err, ErrNoOutlets)
	assert.Empty(t, tr.sets)
}

func TestSwitchOutletsCycleCancelled(t *testing.T) {
	c, tr, control := newSentry4(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := SwitchOutlets(ctx, c, PowerParams{Outlets: []string{".1.3"}, Action: PowerCycle, Delay: time.Hour})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{control + ".1.3=2"}, tr.sets)
}
