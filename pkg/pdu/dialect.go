package pdu

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownFamily = errors.New("PDU type is unknown")

// Family identifies a PDU hardware family. The string form is the
// hardware SKU used in lab inventories.
type Family string

const (
	FamilyApc     Family = "Apc"
	FamilyApcRPDU Family = "ApcRPDU"
	FamilySentry  Family = "Sentry"
	FamilySentry4 Family = "Sentry4"
	FamilyEmerson Family = "Emerson"
	FamilyVertiv  Family = "Vertiv"
	FamilyRaritan Family = "Raritan"
)

// peer type of a PDU that feeds DUT power supplies directly
const PeerTypePdu = "Pdu"

func (f Family) String() string {
	return string(f)
}

// VendorProfile holds the OID layout and encoded constants of one PDU family.
// Prefixes carry no leading dot.
type VendorProfile struct {
	Family        Family
	NamePrefix    string
	StatusPrefix  string
	ControlPrefix string
	// PowerPrefix is empty when the family has no per-outlet metering.
	PowerPrefix string
	// PowerSensorSuffix selects the watts sensor on families that index
	// power readings per sensor type.
	PowerSensorSuffix string
	StatusOn          string
	StatusOff         string
	ControlOn         string
	ControlOff        string
	HasLanes          bool
	MaxLanes          int
}

// Metered reports whether outlet power draw can be read.
func (p VendorProfile) Metered() bool {
	return p.PowerPrefix != ""
}

// Lanes returns the lane numbers the outlet-name subtree is split into.
// Families without lanes always report exactly lane 1.
func (p VendorProfile) Lanes() []int {
	if !p.HasLanes || p.MaxLanes < 1 {
		return []int{1}
	}
	lanes := make([]int, 0, p.MaxLanes)
	for lane := 1; lane <= p.MaxLanes; lane++ {
		lanes = append(lanes, lane)
	}
	return lanes
}

// Enterprise returns the IANA private enterprise number the family's MIB
// lives under, e.g. "318" for APC.
func (p VendorProfile) Enterprise() string {
	return enterpriseOf(p.NamePrefix)
}

// lanedProfile fills in the defaults shared by most families: status 1/0,
// control 1/2, five lanes.
func lanedProfile(family Family, name, status, control string) VendorProfile {
	return VendorProfile{
		Family:        family,
		NamePrefix:    name,
		StatusPrefix:  status,
		ControlPrefix: control,
		StatusOn:      "1",
		StatusOff:     "0",
		ControlOn:     "1",
		ControlOff:    "2",
		HasLanes:      true,
		MaxLanes:      5,
	}
}

func flatProfile(family Family, name, status, control, power string) VendorProfile {
	p := lanedProfile(family, name, status, control)
	p.PowerPrefix = power
	p.HasLanes = false
	p.MaxLanes = 1
	return p
}

var profiles = func() map[Family]VendorProfile {
	emerson := lanedProfile(FamilyEmerson,
		"1.3.6.1.4.1.476.1.42.3.8.50.20.1.10.1",
		"1.3.6.1.4.1.476.1.42.3.8.50.20.1.100.1",
		"1.3.6.1.4.1.476.1.42.3.8.50.20.1.100.1",
	)
	emerson.ControlOff = "0"

	vertiv := flatProfile(FamilyVertiv,
		"1.3.6.1.4.1.21239.5.2.3.5.1.3",
		"1.3.6.1.4.1.21239.5.2.3.5.1.4",
		"1.3.6.1.4.1.21239.5.2.3.5.1.6",
		"1.3.6.1.4.1.21239.5.2.3.6.1.12",
	)
	vertiv.StatusOff = "2"
	vertiv.ControlOn = "2"
	vertiv.ControlOff = "4"

	// measurementsOutletSensorValue is indexed pdu.outlet.sensor, sensor 5 is watts
	raritan := flatProfile(FamilyRaritan,
		"1.3.6.1.4.1.13742.6.3.5.3.1.3",
		"1.3.6.1.4.1.13742.6.4.1.2.1.3",
		"1.3.6.1.4.1.13742.6.4.1.2.1.2",
		"1.3.6.1.4.1.13742.6.5.4.3.1.4",
	)
	raritan.PowerSensorSuffix = ".5"
	raritan.StatusOn = "7"
	raritan.StatusOff = "8"
	raritan.ControlOff = "0"

	return map[Family]VendorProfile{
		FamilyApc: lanedProfile(FamilyApc,
			"1.3.6.1.4.1.318.1.1.4.4.2.1",
			"1.3.6.1.4.1.318.1.1.12.3.5.1.1",
			"1.3.6.1.4.1.318.1.1.12.3.3.1.1",
		),
		FamilySentry: lanedProfile(FamilySentry,
			"1.3.6.1.4.1.1718.3.2.3.1.3",
			"1.3.6.1.4.1.1718.3.2.3.1.5",
			"1.3.6.1.4.1.1718.3.2.3.1.11",
		),
		FamilyEmerson: emerson,
		FamilySentry4: flatProfile(FamilySentry4,
			"1.3.6.1.4.1.1718.4.1.8.2.1.3",
			"1.3.6.1.4.1.1718.4.1.8.3.1.1",
			"1.3.6.1.4.1.1718.4.1.8.5.1.2",
			"1.3.6.1.4.1.1718.4.1.8.3.1.9",
		),
		FamilyVertiv: vertiv,
		FamilyApcRPDU: flatProfile(FamilyApcRPDU,
			"1.3.6.1.4.1.318.1.1.12.3.3.1.1.2",
			"1.3.6.1.4.1.318.1.1.12.3.5.1.1.4",
			"1.3.6.1.4.1.318.1.1.12.3.3.1.1.4",
			"",
		),
		FamilyRaritan: raritan,
	}
}()

// ResolveFamily maps a hardware SKU and PSU peer type onto the family whose
// profile should be used. Sentry units that are themselves the PSU peer
// speak the Sentry4 MIB.
func ResolveFamily(hwsku, peerType string) Family {
	if Family(hwsku) == FamilySentry && peerType == PeerTypePdu {
		return FamilySentry4
	}
	return Family(hwsku)
}

// LookupProfile returns the profile of a family or ErrUnknownFamily.
func LookupProfile(family Family) (VendorProfile, error) {
	profile, ok := profiles[family]
	if !ok {
		return VendorProfile{}, fmt.Errorf("%w: %q", ErrUnknownFamily, string(family))
	}
	return profile, nil
}

// Families lists every supported family.
func Families() []Family {
	return []Family{
		FamilyApc,
		FamilyApcRPDU,
		FamilySentry,
		FamilySentry4,
		FamilyEmerson,
		FamilyVertiv,
		FamilyRaritan,
	}
}

const enterprisesOID = "1.3.6.1.4.1."

func enterpriseOf(oid string) string {
	rest, ok := strings.CutPrefix(strings.TrimPrefix(oid, "."), enterprisesOID)
	if !ok {
		return ""
	}
	enterprise, _, _ := strings.Cut(rest, ".")
	return enterprise
}

// FamiliesForObjectID lists the families whose MIB belongs to the same
// enterprise as sysObjectID.
func FamiliesForObjectID(sysObjectID string) []Family {
	enterprise := enterpriseOf(sysObjectID)
	if enterprise == "" {
		return nil
	}
	families := []Family{}
	for _, family := range Families() {
		if profiles[family].Enterprise() == enterprise {
			families = append(families, family)
		}
	}
	return families
}
