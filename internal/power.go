package pductl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/OpenCHAMI/pductl/pkg/pdu"
	"github.com/OpenCHAMI/pductl/pkg/secrets"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"
)

type PowerAction string

const (
	PowerOn    PowerAction = "on"
	PowerOff   PowerAction = "off"
	PowerCycle PowerAction = "cycle"
)

var ErrNoOutlets = errors.New("no outlets selected")

func ParsePowerAction(s string) (PowerAction, error) {
	switch a := PowerAction(strings.ToLower(s)); a {
	case PowerOn, PowerOff, PowerCycle:
		return a, nil
	}
	return "", fmt.Errorf("unknown power action '%s' (must be on, off or cycle)", s)
}

// PowerParams selects outlets by address or label, and by the hostname
// found in outlet labels.
type PowerParams struct {
	Outlets  []string
	Hostname string
	Action   PowerAction
	Delay    time.Duration
}

// PowerOutlets connects to the PDU and applies the action.
func PowerOutlets(ctx context.Context, cfg PDUConfig, store secrets.SecretStore, params PowerParams) error {
	c, err := Connect(cfg, store)
	if c != nil {
		defer c.Close()
	}
	if err != nil {
		return err
	}
	return SwitchOutlets(ctx, c, params)
}

// SwitchOutlets applies the action to every selected outlet. A failing
// outlet does not stop the others; all failures are returned together. A
// cycle turns everything off, waits Delay and turns back on the outlets
// that went off.
func SwitchOutlets(ctx context.Context, c *pdu.Controller, params PowerParams) error {
	targets, errs := resolveOutlets(c, params)
	if len(targets) == 0 {
		return multierror.Append(errs, ErrNoOutlets).ErrorOrNil()
	}

	switch params.Action {
	case PowerOn:
		errs = multierror.Append(errs, switchAll(targets, c.TurnOnOutlet)...)
	case PowerOff:
		errs = multierror.Append(errs, switchAll(targets, c.TurnOffOutlet)...)
	case PowerCycle:
		off := []string{}
		for _, outlet := range targets {
			if err := c.TurnOffOutlet(outlet); err != nil {
				errs = multierror.Append(errs, err)
				continue
			}
			off = append(off, outlet)
		}
		if len(off) == 0 {
			break
		}
		log.Info().Str("pdu", c.Host()).Dur("delay", params.Delay).Msg("waiting before powering outlets back on")
		select {
		case <-ctx.Done():
			return multierror.Append(errs, ctx.Err()).ErrorOrNil()
		case <-time.After(params.Delay):
		}
		errs = multierror.Append(errs, switchAll(off, c.TurnOnOutlet)...)
	default:
		return fmt.Errorf("unknown power action '%s'", params.Action)
	}
	return errs.ErrorOrNil()
}

func switchAll(outlets []string, fn func(string) error) []error {
	errs := []error{}
	for _, outlet := range outlets {
		if err := fn(outlet); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// resolveOutlets maps the requested outlets to addresses, keeping the order
// they were given in and dropping duplicates. A label selects every outlet
// carrying it.
func resolveOutlets(c *pdu.Controller, params PowerParams) ([]string, *multierror.Error) {
	var (
		dir     = c.Directory()
		targets = []string{}
		seen    = map[string]bool{}
		errs    *multierror.Error
	)
	add := func(address string) {
		if !seen[address] {
			seen[address] = true
			targets = append(targets, address)
		}
	}

	for _, outlet := range params.Outlets {
		if _, ok := dir.Label(outlet); ok {
			add(outlet)
			continue
		}
		if addresses := dir.LabelAddresses(strings.ToLower(outlet)); len(addresses) > 0 {
			for _, address := range addresses {
				add(address)
			}
			continue
		}
		errs = multierror.Append(errs, fmt.Errorf("outlet %s doesn't belong to PDU %s", outlet, c.Host()))
	}
	if params.Hostname != "" {
		matches := c.OutletsForHostname(params.Hostname)
		if len(matches) == 0 {
			errs = multierror.Append(errs, fmt.Errorf("%s is not attached to any outlet of PDU %s", params.Hostname, c.Host()))
		}
		for _, address := range matches {
			add(address)
		}
	}
	return targets, errs
}
