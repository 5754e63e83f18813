package pdu

import (
	"strings"

	"github.com/rs/zerolog/log"
)

// OutletStatus is the state of one outlet as read from the PDU.
type OutletStatus struct {
	OutletID    string `json:"outlet_id" yaml:"outlet_id"`
	OutletOn    bool   `json:"outlet_on" yaml:"outlet_on"`
	OutputWatts string `json:"output_watts,omitempty" yaml:"output_watts,omitempty"`
}

// ReadStatus fetches the on/off state of the outlet at address and, for
// metered families, its power draw. The second return value is false when
// the PDU did not answer for that outlet; callers sweeping many outlets
// should skip it.
func ReadStatus(profile VendorProfile, transport Transport, address string) (OutletStatus, bool) {
	query := "." + profile.StatusPrefix + address
	v, err := transport.Get(query)
	if err != nil {
		log.Debug().Err(err).Str("oid", query).Msg("failed to get outlet status of PDU")
		return OutletStatus{}, false
	}

	outletID, ok := trimOID(v.Name, profile.StatusPrefix)
	if !ok || outletID != address {
		log.Debug().Str("oid", v.Name).Str("outlet", address).Msg("status reply does not belong to requested outlet")
		return OutletStatus{}, false
	}

	status := OutletStatus{
		OutletID: outletID,
		OutletOn: v.Value == profile.StatusOn,
	}
	if profile.Metered() {
		status.OutputWatts = readWatts(profile, transport, address)
	}
	return status, true
}

// readWatts returns the outlet power reading, or "" when it is unavailable.
func readWatts(profile VendorProfile, transport Transport, address string) string {
	query := "." + profile.PowerPrefix + address + profile.PowerSensorSuffix
	v, err := transport.Get(query)
	if err != nil {
		log.Debug().Err(err).Str("oid", query).Msg("failed to get outlet power level of DUT outlet")
		return ""
	}

	outletID, ok := trimOID(v.Name, profile.PowerPrefix)
	if !ok {
		return ""
	}
	if profile.PowerSensorSuffix != "" {
		outletID = strings.TrimSuffix(outletID, profile.PowerSensorSuffix)
	}
	if outletID != address {
		return ""
	}
	return v.Value
}
