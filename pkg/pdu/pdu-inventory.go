package pdu

import (
	"strconv"
	"strings"

	"github.com/Cray-HPE/hms-xname/xnames"
	"github.com/rs/zerolog/log"
)

const (
	PowerStateOn  = "ON"
	PowerStateOff = "OFF"
)

type PDUOutlet struct {
	ID          string `json:"id" yaml:"id" db:"outlet_id"`                                 // e.g., ".1.5"
	Name        string `json:"name" yaml:"name" db:"label"`                                 // e.g., "rack3-dut12-psu1"
	PowerState  string `json:"power_state,omitempty" yaml:"power_state,omitempty" db:"-"`   // e.g., "ON" or "OFF"
	OutputWatts string `json:"output_watts,omitempty" yaml:"output_watts,omitempty" db:"-"` // metered families only
	XName       string `json:"xname,omitempty" yaml:"xname,omitempty" db:"-"`               // e.g., "x3000m0p1v5"
}

type PDUInventory struct {
	Hostname string      `json:"hostname" yaml:"hostname"`
	Family   string      `json:"family" yaml:"family"`
	Metered  bool        `json:"metered" yaml:"metered"`
	Outlets  []PDUOutlet `json:"outlets" yaml:"outlets"`
}

// Outlets lists the discovered outlets in discovery order.
func (c *Controller) Outlets() []PDUOutlet {
	outlets := make([]PDUOutlet, 0, c.dir.Len())
	for _, address := range c.dir.Addresses() {
		label, _ := c.dir.Label(address)
		outlets = append(outlets, PDUOutlet{ID: address, Name: label})
	}
	return outlets
}

// Inventory snapshots the outlet directory. With withStatus set, every
// outlet is also read; outlets that fail to read keep an empty power state.
func (c *Controller) Inventory(withStatus bool) PDUInventory {
	inventory := PDUInventory{
		Hostname: c.host,
		Family:   c.family.String(),
		Metered:  c.known && c.profile.Metered(),
		Outlets:  c.Outlets(),
	}
	if !withStatus {
		return inventory
	}

	statuses, err := c.GetOutletStatus(StatusFilter{})
	if err != nil {
		return inventory
	}
	byID := make(map[string]OutletStatus, len(statuses))
	for _, s := range statuses {
		byID[s.OutletID] = s
	}
	for i := range inventory.Outlets {
		s, ok := byID[inventory.Outlets[i].ID]
		if !ok {
			continue
		}
		inventory.Outlets[i].PowerState = PowerStateOff
		if s.OutletOn {
			inventory.Outlets[i].PowerState = PowerStateOn
		}
		inventory.Outlets[i].OutputWatts = s.OutputWatts
	}
	return inventory
}

// AssignXNames names every outlet as a power connector of the cabinet PDU
// controller xXmM. The last address component is the connector and the one
// before it, when present, the PDU (lane or unit) number.
func (inv *PDUInventory) AssignXNames(cabinet, controller int) {
	for i := range inv.Outlets {
		unit, connector, err := splitOutletAddress(inv.Outlets[i].ID)
		if err != nil {
			log.Warn().Err(err).Str("outlet", inv.Outlets[i].ID).Msg("cannot derive xname for outlet")
			continue
		}
		inv.Outlets[i].XName = xnames.CabinetPDUPowerConnector{
			Cabinet:                  cabinet,
			CabinetPDUController:     controller,
			CabinetPDU:               unit,
			CabinetPDUPowerConnector: connector,
		}.String()
	}
}

func splitOutletAddress(address string) (int, int, error) {
	parts := strings.Split(strings.Trim(address, "."), ".")
	connector, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return 0, 0, err
	}
	if len(parts) < 2 {
		return 0, connector, nil
	}
	unit, err := strconv.Atoi(parts[len(parts)-2])
	if err != nil {
		return 0, 0, err
	}
	return unit, connector, nil
}
