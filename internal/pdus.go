package pductl

import (
	"fmt"
	"sync"

	"github.com/OpenCHAMI/pductl/pkg/pdu"
	"github.com/OpenCHAMI/pductl/pkg/secrets"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"
)

// InventoryParams controls CollectInventory. Cabinet and Controller, when
// set, override the per-PDU config for xname export.
type InventoryParams struct {
	Concurrency int
	WithStatus  bool
	Cabinet     *int
	Controller  *int
}

// Inventories is a listing of several PDUs.
type Inventories []pdu.PDUInventory

func (inv Inventories) Lines() []string {
	lines := []string{}
	for _, i := range inv {
		for _, o := range i.Outlets {
			line := fmt.Sprintf("%s\t%s\t%s", i.Hostname, o.ID, o.Name)
			if o.PowerState != "" {
				line += "\t" + o.PowerState
			}
			if o.OutputWatts != "" {
				line += "\t" + o.OutputWatts + "W"
			}
			if o.XName != "" {
				line += "\t" + o.XName
			}
			lines = append(lines, line)
		}
	}
	return lines
}

// PDUStatus is the status read from one PDU.
type PDUStatus struct {
	PDU     string             `json:"pdu" yaml:"pdu"`
	Family  string             `json:"family" yaml:"family"`
	Outlets []pdu.OutletStatus `json:"outlets" yaml:"outlets"`
}

type StatusReport []PDUStatus

func (r StatusReport) Lines() []string {
	lines := []string{}
	for _, s := range r {
		for _, o := range s.Outlets {
			state := "off"
			if o.OutletOn {
				state = "on"
			}
			line := fmt.Sprintf("%s\t%s\t%s", s.PDU, o.OutletID, state)
			if o.OutputWatts != "" {
				line += "\t" + o.OutputWatts + "W"
			}
			lines = append(lines, line)
		}
	}
	return lines
}

// CollectInventory lists the outlets of every PDU. PDUs that cannot be
// reached or are of an unknown family are left out and their errors
// returned together.
func CollectInventory(configs []PDUConfig, store secrets.SecretStore, params InventoryParams) (Inventories, error) {
	type result struct {
		inventory pdu.PDUInventory
		err       error
	}
	results := forEach(params.Concurrency, configs, func(cfg PDUConfig) result {
		c, err := Connect(cfg, store)
		if c != nil {
			defer c.Close()
		}
		if err != nil {
			return result{err: fmt.Errorf("%s: %w", cfg.Host, err)}
		}

		inventory := c.Inventory(params.WithStatus)
		cabinet, controller := cfg.Cabinet, cfg.Controller
		if params.Cabinet != nil {
			cabinet = params.Cabinet
		}
		if params.Controller != nil {
			controller = params.Controller
		}
		if cabinet != nil {
			m := 0
			if controller != nil {
				m = *controller
			}
			inventory.AssignXNames(*cabinet, m)
		}
		return result{inventory: inventory}
	})

	var (
		inventories = Inventories{}
		errs        *multierror.Error
	)
	for _, r := range results {
		if r.err != nil {
			log.Error().Err(r.err).Msg("failed to collect PDU inventory")
			errs = multierror.Append(errs, r.err)
			continue
		}
		inventories = append(inventories, r.inventory)
	}
	return inventories, errs.ErrorOrNil()
}

// CollectStatus reads the outlets selected by filter on every PDU.
func CollectStatus(configs []PDUConfig, store secrets.SecretStore, concurrency int, filter pdu.StatusFilter) (StatusReport, error) {
	type result struct {
		status PDUStatus
		err    error
	}
	results := forEach(concurrency, configs, func(cfg PDUConfig) result {
		c, err := Connect(cfg, store)
		if c != nil {
			defer c.Close()
		}
		if err != nil {
			return result{err: fmt.Errorf("%s: %w", cfg.Host, err)}
		}
		outlets, err := c.GetOutletStatus(filter)
		if err != nil {
			return result{err: fmt.Errorf("%s: %w", cfg.Host, err)}
		}
		return result{status: PDUStatus{PDU: cfg.Host, Family: c.Family().String(), Outlets: outlets}}
	})

	var (
		report = StatusReport{}
		errs   *multierror.Error
	)
	for _, r := range results {
		if r.err != nil {
			log.Error().Err(r.err).Msg("failed to get outlet status")
			errs = multierror.Append(errs, r.err)
			continue
		}
		report = append(report, r.status)
	}
	return report, errs.ErrorOrNil()
}

// forEach runs fn for every item on at most concurrency workers and
// returns the results in item order.
func forEach[S, T any](concurrency int, items []S, fn func(S) T) []T {
	type indexed struct {
		index int
		value T
	}
	if concurrency < 1 {
		concurrency = 1
	}
	dataChannel := make(chan int, 1)
	returnChannel := make(chan indexed, concurrency)
	results := make([]T, len(items))
	done := make(chan struct{})
	var wg sync.WaitGroup

	// workers
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func() {
			defer wg.Done()
			for index := range dataChannel {
				returnChannel <- indexed{index, fn(items[index])}
			}
		}()
	}
	// receiver
	go func() {
		for r := range returnChannel {
			results[r.index] = r.value
		}
		close(done)
	}()

	for i := range items {
		dataChannel <- i
	}
	close(dataChannel)
	wg.Wait()
	close(returnChannel)
	<-done

	return results
}

// ConnectAll builds a controller per PDU for long-running use. Controllers
// of an unknown family are kept, since they still answer every request
// with pdu.ErrUnknownFamily; PDUs whose transport cannot be set up are
// dropped and their errors returned together.
func ConnectAll(configs []PDUConfig, store secrets.SecretStore, concurrency int) ([]*pdu.Controller, error) {
	type result struct {
		controller *pdu.Controller
		err        error
	}
	results := forEach(concurrency, configs, func(cfg PDUConfig) result {
		c, err := Connect(cfg, store)
		return result{controller: c, err: err}
	})

	var (
		controllers = []*pdu.Controller{}
		errs        *multierror.Error
	)
	for i, r := range results {
		if r.err != nil {
			log.Error().Err(r.err).Str("pdu", configs[i].Host).Msg("failed to set up PDU controller")
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", configs[i].Host, r.err))
		}
		if r.controller != nil {
			controllers = append(controllers, r.controller)
		}
	}
	return controllers, errs.ErrorOrNil()
}
