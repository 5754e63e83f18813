package cmd

import (
	"fmt"

	"github.com/OpenCHAMI/pductl/pkg/pdu"
	"github.com/spf13/cobra"
)

type familyInfo struct {
	Family     string `json:"family" yaml:"family"`
	Lanes      int    `json:"lanes" yaml:"lanes"`
	Metered    bool   `json:"metered" yaml:"metered"`
	NameOID    string `json:"name_oid" yaml:"name_oid"`
	StatusOID  string `json:"status_oid" yaml:"status_oid"`
	ControlOID string `json:"control_oid" yaml:"control_oid"`
	PowerOID   string `json:"power_oid,omitempty" yaml:"power_oid,omitempty"`
}

type familyList []familyInfo

func (l familyList) Lines() []string {
	lines := make([]string, 0, len(l))
	for _, f := range l {
		metered := ""
		if f.Metered {
			metered = "metered"
		}
		lines = append(lines, fmt.Sprintf("%s\tlanes=%d\t%s", f.Family, f.Lanes, metered))
	}
	return lines
}

// The `families` command prints the PDU families pductl can drive, i.e.
// the values accepted for --hwsku.
var familiesCmd = &cobra.Command{
	Use:   "families",
	Args:  cobra.NoArgs,
	Short: "List supported PDU families",
	Long:  "List the supported PDU families and the OIDs used for each. A Sentry with PSU peer type 'Pdu' is driven as Sentry4.",
	RunE: func(cmd *cobra.Command, args []string) error {
		families := familyList{}
		for _, family := range pdu.Families() {
			p, err := pdu.LookupProfile(family)
			if err != nil {
				return err
			}
			info := familyInfo{
				Family:     family.String(),
				Lanes:      len(p.Lanes()),
				Metered:    p.Metered(),
				NameOID:    p.NamePrefix,
				StatusOID:  p.StatusPrefix,
				ControlOID: p.ControlPrefix,
			}
			if p.Metered() {
				info.PowerOID = p.PowerPrefix
			}
			families = append(families, info)
		}
		return writeOutput(cmd, families, "")
	},
}

func init() {
	familiesCmd.Flags().VarP(&outputFormat, "format", "F", "Set the output format (list|json|yaml)")
	rootCmd.AddCommand(familiesCmd)
}
