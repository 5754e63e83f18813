// Package pdu discovers and switches the outlets of SNMP-managed power
// distribution units.
//
// PDU outlets carry a free-text name. Lab convention is to put the
// hostname of the DUT an outlet feeds into that name, so the outlets of a
// DUT are found by substring match on the label. Which outlet feeds which
// PSU of the DUT cannot be told apart.
package pdu

import (
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
)

// Config describes the PDU a Controller manages.
type Config struct {
	Host     string `json:"host" yaml:"host" mapstructure:"host"`
	HWSKU    string `json:"hwsku" yaml:"hwsku" mapstructure:"hwsku"`
	PeerType string `json:"psu_peer_type" yaml:"psu_peer_type" mapstructure:"psu_peer_type"`
}

// StatusFilter narrows GetOutletStatus. Outlet wins when both are set.
type StatusFilter struct {
	Outlet   string
	Hostname string
}

// Controller is the uniform control surface over one PDU.
//
// A Controller built for an unknown family stays usable but every
// operation fails with ErrUnknownFamily without touching the transport.
type Controller struct {
	host      string
	family    Family
	profile   VendorProfile
	known     bool
	transport Transport
	dir       *Directory
}

// New resolves the vendor profile for cfg and discovers the outlets of the
// PDU. On an unknown family the returned Controller is non-nil and the
// error is ErrUnknownFamily.
func New(cfg Config, transport Transport) (*Controller, error) {
	log.Info().Str("pdu", cfg.Host).Msg("initializing PDU controller")
	c := &Controller{
		host:      cfg.Host,
		family:    ResolveFamily(cfg.HWSKU, cfg.PeerType),
		transport: transport,
		dir:       newDirectory(),
	}

	profile, err := LookupProfile(c.family)
	if err != nil {
		log.Error().Err(err).Str("pdu", c.host).Msg("PDU type is unknown")
		return c, err
	}
	c.profile = profile
	c.known = true

	c.dir = BuildDirectory(profile, transport)
	log.Info().Str("pdu", c.host).Str("family", c.family.String()).Int("outlets", c.dir.Len()).Msg("initialized PDU controller")
	return c, nil
}

func (c *Controller) Host() string {
	return c.host
}

func (c *Controller) Family() Family {
	return c.family
}

// Profile returns the active vendor profile and whether one was resolved.
func (c *Controller) Profile() (VendorProfile, bool) {
	return c.profile, c.known
}

func (c *Controller) Directory() *Directory {
	return c.dir
}

// TurnOnOutlet powers on the outlet at address.
func (c *Controller) TurnOnOutlet(outlet string) error {
	return c.switchOutlet(outlet, true)
}

// TurnOffOutlet powers off the outlet at address.
func (c *Controller) TurnOffOutlet(outlet string) error {
	return c.switchOutlet(outlet, false)
}

func (c *Controller) switchOutlet(outlet string, on bool) error {
	action := "off"
	if on {
		action = "on"
	}
	if !c.known {
		log.Error().Str("pdu", c.host).Msgf("unable to turn %s: PDU type is unknown", action)
		return ErrUnknownFamily
	}
	if err := WriteControl(c.profile, c.transport, outlet, on); err != nil {
		log.Debug().Err(err).Str("pdu", c.host).Str("outlet", outlet).Msgf("failed to turn %s outlet", action)
		return fmt.Errorf("turn %s outlet %s: %w", action, outlet, err)
	}
	return nil
}

// GetOutletStatus reads the outlets selected by filter. Outlets the PDU did
// not answer for are left out, so the result may be shorter than the
// selection. A filter that selects nothing is logged and yields an empty
// result.
func (c *Controller) GetOutletStatus(filter StatusFilter) ([]OutletStatus, error) {
	results := []OutletStatus{}
	if !c.known {
		log.Error().Str("pdu", c.host).Msg("unable to retrieve status: PDU type is unknown")
		return results, ErrUnknownFamily
	}

	var outlets []string
	switch {
	case filter.Outlet != "":
		outlets = c.dir.MatchOutlet(filter.Outlet)
		if len(outlets) == 0 {
			log.Error().Str("pdu", c.host).Msgf("outlet ID %s doesn't belong to PDU", filter.Outlet)
		}
	case filter.Hostname != "":
		outlets = c.dir.MatchHostname(filter.Hostname)
		if len(outlets) == 0 {
			log.Error().Str("pdu", c.host).Msgf("%s device is not attached to any outlet of PDU", filter.Hostname)
		}
	default:
		outlets = c.dir.Addresses()
	}

	for _, outlet := range outlets {
		if status, ok := ReadStatus(c.profile, c.transport, outlet); ok {
			results = append(results, status)
		}
	}
	log.Info().Str("pdu", c.host).Interface("status", results).Msg("got outlet status")
	return results, nil
}

// OutletsForHostname returns the outlet addresses whose label names the
// hostname.
func (c *Controller) OutletsForHostname(hostname string) []string {
	return c.dir.MatchHostname(hostname)
}

// Close releases the transport if it holds resources.
func (c *Controller) Close() error {
	if closer, ok := c.transport.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
