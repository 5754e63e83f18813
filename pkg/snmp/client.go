// Package snmp implements pdu.Transport on top of gosnmp. Reads use the
// read-only community and writes the read-write community, each over its
// own UDP session.
package snmp

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/OpenCHAMI/pductl/pkg/pdu"
	"github.com/gosnmp/gosnmp"
	"github.com/rs/zerolog/log"
)

const DefaultPort = 161

var (
	ErrNoSuchObject   = errors.New("no such object")
	ErrUnknownVersion = errors.New("unknown SNMP version")
)

type Config struct {
	Host           string        `json:"host" yaml:"host" mapstructure:"host"`
	Port           uint16        `json:"port" yaml:"port" mapstructure:"port"`
	Version        string        `json:"version" yaml:"version" mapstructure:"version"` // "1" or "2c"
	ReadCommunity  string        `json:"snmp_rocommunity" yaml:"snmp_rocommunity" mapstructure:"snmp_rocommunity"`
	WriteCommunity string        `json:"snmp_rwcommunity" yaml:"snmp_rwcommunity" mapstructure:"snmp_rwcommunity"`
	Timeout        time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	Retries        int           `json:"retries" yaml:"retries" mapstructure:"retries"`
}

// Client is safe for concurrent use; requests are serialised.
type Client struct {
	mu    sync.Mutex
	read  *gosnmp.GoSNMP
	write *gosnmp.GoSNMP
	bulk  bool
}

func NewClient(cfg Config) (*Client, error) {
	version, err := parseVersion(cfg.Version)
	if err != nil {
		return nil, err
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = gosnmp.Default.Timeout
	}

	newSession := func(community string) *gosnmp.GoSNMP {
		return &gosnmp.GoSNMP{
			Target:             cfg.Host,
			Port:               cfg.Port,
			Community:          community,
			Version:            version,
			Timeout:            cfg.Timeout,
			Retries:            cfg.Retries,
			MaxOids:            gosnmp.MaxOids,
			MaxRepetitions:     10,
			ExponentialTimeout: true,
		}
	}
	return &Client{
		read:  newSession(cfg.ReadCommunity),
		write: newSession(cfg.WriteCommunity),
		bulk:  version != gosnmp.Version1,
	}, nil
}

func parseVersion(v string) (gosnmp.SnmpVersion, error) {
	switch strings.ToLower(strings.TrimPrefix(v, "v")) {
	case "", "2", "2c":
		return gosnmp.Version2c, nil
	case "1":
		return gosnmp.Version1, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownVersion, v)
	}
}

func connect(session *gosnmp.GoSNMP) error {
	if session.Conn != nil {
		return nil
	}
	if err := session.Connect(); err != nil {
		session.Conn = nil
		return fmt.Errorf("failed to connect to %s: %w", net.JoinHostPort(session.Target, fmt.Sprint(session.Port)), err)
	}
	return nil
}

// Walk returns every variable below root.
func (c *Client) Walk(root string) ([]pdu.Variable, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := connect(c.read); err != nil {
		return nil, err
	}
	var (
		pdus []gosnmp.SnmpPDU
		err  error
	)
	if c.bulk {
		pdus, err = c.read.BulkWalkAll(root)
	} else {
		pdus, err = c.read.WalkAll(root)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	vars := make([]pdu.Variable, 0, len(pdus))
	for _, p := range pdus {
		if isMissing(p) {
			continue
		}
		vars = append(vars, pdu.Variable{Name: p.Name, Value: convertValue(p)})
	}
	return vars, nil
}

// Get fetches a single variable. Missing objects are reported as
// ErrNoSuchObject.
func (c *Client) Get(address string) (pdu.Variable, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := connect(c.read); err != nil {
		return pdu.Variable{}, err
	}
	packet, err := c.read.Get([]string{address})
	if err != nil {
		return pdu.Variable{}, fmt.Errorf("failed to get %s: %w", address, err)
	}
	if packet.Error != gosnmp.NoError {
		return pdu.Variable{}, fmt.Errorf("failed to get %s: error status %d", address, packet.Error)
	}
	if len(packet.Variables) == 0 {
		return pdu.Variable{}, fmt.Errorf("%w: %s", ErrNoSuchObject, address)
	}
	p := packet.Variables[0]
	if isMissing(p) {
		return pdu.Variable{}, fmt.Errorf("%w: %s", ErrNoSuchObject, address)
	}
	return pdu.Variable{Name: p.Name, Value: convertValue(p)}, nil
}

// Set writes an INTEGER with the read-write community and returns the
// error-status of the response.
func (c *Client) Set(address string, value int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := connect(c.write); err != nil {
		return 0, err
	}
	packet, err := c.write.Set([]gosnmp.SnmpPDU{{
		Name:  address,
		Type:  gosnmp.Integer,
		Value: value,
	}})
	if err != nil {
		return 0, fmt.Errorf("failed to set %s: %w", address, err)
	}
	if packet.Error != gosnmp.NoError {
		log.Debug().Str("oid", address).Uint8("error_status", uint8(packet.Error)).Msg("agent rejected set")
	}
	return int(packet.Error), nil
}

// Close shuts both UDP sessions.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for _, session := range []*gosnmp.GoSNMP{c.read, c.write} {
		if session.Conn == nil {
			continue
		}
		if err := session.Conn.Close(); err != nil {
			errs = append(errs, err)
		}
		session.Conn = nil
	}
	return errors.Join(errs...)
}

func isMissing(p gosnmp.SnmpPDU) bool {
	switch p.Type {
	case gosnmp.NoSuchObject, gosnmp.NoSuchInstance, gosnmp.EndOfMibView, gosnmp.Null:
		return true
	}
	return false
}

// convertValue renders a variable the way it is printed by net-snmp tools
// without type decoration.
func convertValue(p gosnmp.SnmpPDU) string {
	switch p.Type {
	case gosnmp.OctetString, gosnmp.ObjectDescription, gosnmp.BitString, gosnmp.Opaque:
		switch v := p.Value.(type) {
		case []byte:
			return string(v)
		case string:
			return v
		}
		return fmt.Sprint(p.Value)
	case gosnmp.Integer, gosnmp.Counter32, gosnmp.Gauge32, gosnmp.TimeTicks,
		gosnmp.Counter64, gosnmp.Uinteger32:
		return gosnmp.ToBigInt(p.Value).String()
	case gosnmp.ObjectIdentifier, gosnmp.IPAddress:
		if s, ok := p.Value.(string); ok {
			return s
		}
	}
	return fmt.Sprint(p.Value)
}
