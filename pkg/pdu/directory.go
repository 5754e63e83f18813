package pdu

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/slices"
)

// Directory maps outlet addresses to the labels configured on the PDU and
// back. It is filled once by BuildDirectory and read-only afterwards.
type Directory struct {
	labels    map[string]string   // address -> label
	addresses map[string][]string // label -> addresses
	order     []string
}

func newDirectory() *Directory {
	return &Directory{
		labels:    map[string]string{},
		addresses: map[string][]string{},
	}
}

func (d *Directory) insert(address, label string) {
	if old, seen := d.labels[address]; seen {
		d.addresses[old] = slices.DeleteFunc(d.addresses[old], func(a string) bool { return a == address })
	} else {
		d.order = append(d.order, address)
	}
	d.labels[address] = label
	if others := d.addresses[label]; len(others) > 0 {
		log.Warn().Str("label", label).Strs("outlets", append(slices.Clone(others), address)).Msg("outlets share a label")
	}
	d.addresses[label] = append(d.addresses[label], address)
}

// Label returns the lowercased label of an outlet address.
func (d *Directory) Label(address string) (string, bool) {
	label, ok := d.labels[address]
	return label, ok
}

// LabelAddresses returns every outlet address carrying exactly this label,
// in discovery order. PSUs of one DUT often share a label.
func (d *Directory) LabelAddresses(label string) []string {
	return slices.Clone(d.addresses[label])
}

// Addresses returns every outlet address in discovery order.
func (d *Directory) Addresses() []string {
	return slices.Clone(d.order)
}

func (d *Directory) Len() int {
	return len(d.order)
}

// MatchOutlet returns the addresses that end with outlet.
func (d *Directory) MatchOutlet(outlet string) []string {
	matched := []string{}
	for _, address := range d.order {
		if strings.HasSuffix(address, outlet) {
			matched = append(matched, address)
		}
	}
	return matched
}

// MatchHostname returns the addresses whose label contains the hostname,
// compared case-insensitively. Several outlets commonly feed one DUT, and
// a short hostname may also be contained in other labels; every match is
// returned.
func (d *Directory) MatchHostname(hostname string) []string {
	hn := strings.ToLower(hostname)
	matched := []string{}
	for _, address := range d.order {
		if strings.Contains(d.labels[address], hn) {
			matched = append(matched, address)
		}
	}
	return matched
}

// BuildDirectory walks the outlet-name table of every lane of the profile.
// A lane that fails to walk contributes no outlets; the remaining lanes are
// still queried.
func BuildDirectory(profile VendorProfile, transport Transport) *Directory {
	dir := newDirectory()
	for _, lane := range profile.Lanes() {
		root := "." + profile.NamePrefix
		if profile.HasLanes {
			root += "." + strconv.Itoa(lane)
		}

		vars, err := transport.Walk(root)
		if err != nil {
			log.Debug().Err(err).Int("lane", lane).Str("oid", root).Msg("failed to get ports controlling PSUs of DUT")
			continue
		}
		for _, v := range vars {
			address, ok := trimOID(v.Name, profile.NamePrefix)
			if !ok {
				log.Debug().Str("oid", v.Name).Msg("walk returned variable outside of outlet name table")
				continue
			}
			label := strings.ToLower(v.Value)
			log.Info().Str("outlet", address).Str("label", label).Msg("found outlet")
			dir.insert(address, label)
		}
	}
	return dir
}

// trimOID strips prefix from an OID, tolerating a leading dot on either.
// The remainder keeps its leading dot, e.g. ".1.5".
func trimOID(oid, prefix string) (string, bool) {
	oid = strings.TrimPrefix(oid, ".")
	prefix = strings.TrimPrefix(prefix, ".")
	if !strings.HasPrefix(oid, prefix) {
		return "", false
	}
	rest := oid[len(prefix):]
	if rest != "" && rest[0] != '.' {
		return "", false
	}
	return rest, true
}
