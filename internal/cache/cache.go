// Package cache keeps the outlet directories discovered from PDUs so they
// can be listed without walking the PDU again.
package cache

import (
	"fmt"
	"time"

	"github.com/OpenCHAMI/pductl/pkg/pdu"
)

type Cache[T any] interface {
	Insert(data ...T) error
	Delete(data ...T) error
	Get() ([]T, error)
	Close() error
}

// Outlet is one cached directory entry.
type Outlet struct {
	PDU       string    `db:"pdu" json:"pdu" yaml:"pdu"`
	Family    string    `db:"family" json:"family" yaml:"family"`
	OutletID  string    `db:"outlet_id" json:"outlet_id" yaml:"outlet_id"`
	Label     string    `db:"label" json:"label" yaml:"label"`
	Timestamp time.Time `db:"timestamp" json:"timestamp" yaml:"timestamp"`
}

// Outlets is a cache listing.
type Outlets []Outlet

func (o Outlets) Lines() []string {
	lines := make([]string, 0, len(o))
	for _, outlet := range o {
		lines = append(lines, fmt.Sprintf("%s\t%s\t%s\t%s @ %s", outlet.PDU, outlet.Family, outlet.OutletID, outlet.Label, outlet.Timestamp.Format(time.UnixDate)))
	}
	return lines
}

// FromInventory turns a PDU inventory into cache entries stamped with now.
func FromInventory(inventory pdu.PDUInventory, now time.Time) []Outlet {
	outlets := make([]Outlet, 0, len(inventory.Outlets))
	for _, o := range inventory.Outlets {
		outlets = append(outlets, Outlet{
			PDU:       inventory.Hostname,
			Family:    inventory.Family,
			OutletID:  o.ID,
			Label:     o.Name,
			Timestamp: now,
		})
	}
	return outlets
}
