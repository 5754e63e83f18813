package snmp

import (
	"errors"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/OpenCHAMI/pductl/pkg/pdu"
	"github.com/gosnmp/gosnmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// endOfTable sorts after every enterprise OID so walks leave the subtree.
const endOfTable = ".1.3.6.1.6.1.1.0"

type request struct {
	Type      gosnmp.PDUType
	Community string
	OID       string
}

// agent is a minimal SNMP v1/v2c responder on the loopback interface.
type agent struct {
	conn *net.UDPConn

	mu       sync.Mutex
	values   map[string]gosnmp.SnmpPDU
	rejected map[string]gosnmp.SNMPError
	requests []request
}

func startAgent(t *testing.T) *agent {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)

	a := &agent{
		conn:     conn,
		values:   map[string]gosnmp.SnmpPDU{},
		rejected: map[string]gosnmp.SNMPError{},
	}
	a.setString(endOfTable, "end")
	go a.serve()
	t.Cleanup(func() { conn.Close() })
	return a
}

func (a *agent) port() uint16 {
	return uint16(a.conn.LocalAddr().(*net.UDPAddr).Port)
}

func (a *agent) config(version string) Config {
	return Config{
		Host:           "127.0.0.1",
		Port:           a.port(),
		Version:        version,
		ReadCommunity:  "public",
		WriteCommunity: "private",
		Timeout:        time.Second,
	}
}

func (a *agent) setString(oid, value string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.values[oid] = gosnmp.SnmpPDU{Name: oid, Type: gosnmp.OctetString, Value: value}
}

func (a *agent) setInt(oid string, value int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.values[oid] = gosnmp.SnmpPDU{Name: oid, Type: gosnmp.Integer, Value: value}
}

func (a *agent) reject(oid string, status gosnmp.SNMPError) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rejected[oid] = status
}

func (a *agent) recorded() []request {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]request(nil), a.requests...)
}

func (a *agent) serve() {
	buf := make([]byte, 65535)
	decoder := &gosnmp.GoSNMP{}
	for {
		n, addr, err := a.conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		req, err := decoder.SnmpDecodePacket(buf[:n])
		if err != nil || len(req.Variables) == 0 {
			continue
		}

		reply := &gosnmp.SnmpPacket{
			Version:   req.Version,
			Community: req.Community,
			PDUType:   gosnmp.GetResponse,
			RequestID: req.RequestID,
			Variables: a.answer(req),
		}
		a.mu.Lock()
		if req.PDUType == gosnmp.SetRequest {
			if status, ok := a.rejected[req.Variables[0].Name]; ok {
				reply.Error = status
				reply.ErrorIndex = 1
			}
		}
		a.mu.Unlock()

		out, err := reply.MarshalMsg()
		if err != nil {
			continue
		}
		_, _ = a.conn.WriteToUDP(out, addr)
	}
}

func (a *agent) answer(req *gosnmp.SnmpPacket) []gosnmp.SnmpPDU {
	a.mu.Lock()
	defer a.mu.Unlock()

	oid := req.Variables[0].Name
	a.requests = append(a.requests, request{Type: req.PDUType, Community: req.Community, OID: oid})

	switch req.PDUType {
	case gosnmp.GetRequest:
		if v, ok := a.values[oid]; ok {
			return []gosnmp.SnmpPDU{v}
		}
		return []gosnmp.SnmpPDU{{Name: oid, Type: gosnmp.NoSuchInstance}}
	case gosnmp.GetNextRequest:
		return a.following(oid, 1)
	case gosnmp.GetBulkRequest:
		return a.following(oid, 10)
	case gosnmp.SetRequest:
		return req.Variables
	}
	return []gosnmp.SnmpPDU{{Name: oid, Type: gosnmp.Null}}
}

// following returns up to max variables sorted after oid.
func (a *agent) following(oid string, max int) []gosnmp.SnmpPDU {
	names := make([]string, 0, len(a.values))
	for name := range a.values {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return oidLess(names[i], names[j]) })

	vars := []gosnmp.SnmpPDU{}
	for _, name := range names {
		if oidLess(oid, name) {
			vars = append(vars, a.values[name])
		}
		if len(vars) == max {
			break
		}
	}
	if len(vars) == 0 {
		vars = append(vars, gosnmp.SnmpPDU{Name: oid, Type: gosnmp.EndOfMibView})
	}
	return vars
}

func oidLess(a, b string) bool {
	as := strings.Split(strings.TrimPrefix(a, "."), ".")
	bs := strings.Split(strings.TrimPrefix(b, "."), ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		x, _ := strconv.Atoi(as[i])
		y, _ := strconv.Atoi(bs[i])
		if x != y {
			return x < y
		}
	}
	return len(as) < len(bs)
}

func TestClientGetUsesReadCommunity(t *testing.T) {
	a := startAgent(t)
	a.setInt(".1.3.6.1.4.1.99.2.1", 1)

	c, err := NewClient(a.config("2c"))
	require.NoError(t, err)
	defer c.Close()

	v, err := c.Get(".1.3.6.1.4.1.99.2.1")
	require.NoError(t, err)
	assert.Equal(t, pdu.Variable{Name: ".1.3.6.1.4.1.99.2.1", Value: "1"}, v)

	reqs := a.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, gosnmp.GetRequest, reqs[0].Type)
	assert.Equal(t, "public", reqs[0].Community)
}

func TestClientGetNoSuchInstance(t *testing.T) {
	a := startAgent(t)

	c, err := NewClient(a.config("2c"))
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Get(".1.3.6.1.4.1.99.2.7")
	assert.True(t, errors.Is(err, ErrNoSuchObject), "got %v", err)
}

func TestClientSetUsesWriteCommunity(t *testing.T) {
	a := startAgent(t)
	a.reject(".1.3.6.1.4.1.99.3.2", gosnmp.NotWritable)

	c, err := NewClient(a.config("2c"))
	require.NoError(t, err)
	defer c.Close()

	code, err := c.Set(".1.3.6.1.4.1.99.3.1", 1)
	require.NoError(t, err)
	assert.Zero(t, code)

	code, err = c.Set(".1.3.6.1.4.1.99.3.2", 2)
	require.NoError(t, err)
	assert.Equal(t, int(gosnmp.NotWritable), code)

	for _, req := range a.recorded() {
		assert.Equal(t, gosnmp.SetRequest, req.Type)
		assert.Equal(t, "private", req.Community)
	}
}

func TestClientWalk(t *testing.T) {
	tests := []struct {
		version string
		want    gosnmp.PDUType
	}{
		{"2c", gosnmp.GetBulkRequest},
		{"1", gosnmp.GetNextRequest},
	}
	for _, tt := range tests {
		t.Run("v"+tt.version, func(t *testing.T) {
			a := startAgent(t)
			a.setString(".1.3.6.1.4.1.99.1.1", "dut-a")
			a.setString(".1.3.6.1.4.1.99.1.2", "dut-b")
			a.setInt(".1.3.6.1.4.1.99.2.1", 1)

			c, err := NewClient(a.config(tt.version))
			require.NoError(t, err)
			defer c.Close()

			vars, err := c.Walk(".1.3.6.1.4.1.99.1")
			require.NoError(t, err)
			assert.Equal(t, []pdu.Variable{
				{Name: ".1.3.6.1.4.1.99.1.1", Value: "dut-a"},
				{Name: ".1.3.6.1.4.1.99.1.2", Value: "dut-b"},
			}, vars)

			reqs := a.recorded()
			require.NotEmpty(t, reqs)
			for _, req := range reqs {
				assert.Equal(t, tt.want, req.Type)
				assert.Equal(t, "public", req.Community)
			}
		})
	}
}

func TestControllerOverClient(t *testing.T) {
	p, err := pdu.LookupProfile(pdu.FamilySentry4)
	require.NoError(t, err)

	a := startAgent(t)
	a.setString("."+p.NamePrefix+".1.1", "DUT-A")
	a.setString("."+p.NamePrefix+".1.2", "dut-a")
	a.setInt("."+p.StatusPrefix+".1.1", 1)
	a.reject("."+p.ControlPrefix+".1.2", gosnmp.WrongValue)

	client, err := NewClient(a.config("2c"))
	require.NoError(t, err)
	c, err := pdu.New(pdu.Config{Host: "pdu-1", HWSKU: "Sentry4"}, client)
	require.NoError(t, err)
	defer c.Close()

	require.Equal(t, []string{".1.1", ".1.2"}, c.Directory().Addresses())

	// .1.2 answers noSuchInstance and is left out
	status, err := c.GetOutletStatus(pdu.StatusFilter{Hostname: "dut-a"})
	require.NoError(t, err)
	require.Len(t, status, 1)
	assert.Equal(t, pdu.OutletStatus{OutletID: ".1.1", OutletOn: true}, status[0])

	assert.NoError(t, c.TurnOnOutlet(".1.1"))
	err = c.TurnOnOutlet(".1.2")
	var statusErr *pdu.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, int(gosnmp.WrongValue), statusErr.Code)
}
