package pductl

import (
	"fmt"

	"github.com/OpenCHAMI/pductl/pkg/pdu"
)

// outletTransport serves the directory walk of a Sentry4 PDU and records
// every SET.
type outletTransport struct {
	profile pdu.VendorProfile
	labels  map[string]string
	order   []string
	failSet map[string]bool
	sets    []string
}

func newOutletTransport(profile pdu.VendorProfile) *outletTransport {
	return &outletTransport{profile: profile, labels: map[string]string{}, failSet: map[string]bool{}}
}

func (t *outletTransport) add(address, label string) {
	t.labels[address] = label
	t.order = append(t.order, address)
}

func (t *outletTransport) Walk(root string) ([]pdu.Variable, error) {
	vars := []pdu.Variable{}
	for _, address := range t.order {
		vars = append(vars, pdu.Variable{Name: "." + t.profile.NamePrefix + address, Value: t.labels[address]})
	}
	return vars, nil
}

func (t *outletTransport) Get(address string) (pdu.Variable, error) {
	return pdu.Variable{}, fmt.Errorf("no such instance: %s", address)
}

func (t *outletTransport) Set(address string, value int) (int, error) {
	t.sets = append(t.sets, fmt.Sprintf("%s=%d", address, value))
	if t.failSet[address] {
		return 5, nil
	}
	return 0, nil
}
