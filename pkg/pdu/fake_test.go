package pdu

import (
	"errors"
	"fmt"
)

var errTimeout = errors.New("request timeout")

type setCall struct {
	OID   string
	Value int
}

// fakeTransport answers from in-memory tables and records every request.
type fakeTransport struct {
	walks   map[string][]Variable
	walkErr map[string]error
	values  map[string]string
	names   map[string]string // reply name override per requested OID
	getErr  map[string]error
	setCode int
	setErr  error

	walked []string
	got    []string
	sets   []setCall
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		walks:   map[string][]Variable{},
		walkErr: map[string]error{},
		values:  map[string]string{},
		names:   map[string]string{},
		getErr:  map[string]error{},
	}
}

func (f *fakeTransport) Walk(root string) ([]Variable, error) {
	f.walked = append(f.walked, root)
	if err := f.walkErr[root]; err != nil {
		return nil, err
	}
	return f.walks[root], nil
}

func (f *fakeTransport) Get(address string) (Variable, error) {
	f.got = append(f.got, address)
	if err := f.getErr[address]; err != nil {
		return Variable{}, err
	}
	value, ok := f.values[address]
	if !ok {
		return Variable{}, fmt.Errorf("no such instance: %s", address)
	}
	name := address
	if override, ok := f.names[address]; ok {
		name = override
	}
	return Variable{Name: name, Value: value}, nil
}

func (f *fakeTransport) Set(address string, value int) (int, error) {
	f.sets = append(f.sets, setCall{OID: address, Value: value})
	return f.setCode, f.setErr
}

func (f *fakeTransport) calls() int {
	return len(f.walked) + len(f.got) + len(f.sets)
}

// addOutlet registers a labelled outlet of the profile on lane root.
func (f *fakeTransport) addOutlet(profile VendorProfile, root, address, label string) {
	f.walks[root] = append(f.walks[root], Variable{Name: "." + profile.NamePrefix + address, Value: label})
}
