package pdu

import (
	"fmt"
	"strconv"
)

// StatusError is returned when the agent rejects a set request.
type StatusError struct {
	OID  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("set %s rejected with error status %d", e.OID, e.Code)
}

// WriteControl switches the outlet at address on or off. Repeating a
// command is harmless: the PDU ignores a switch to the state it is
// already in.
func WriteControl(profile VendorProfile, transport Transport, address string, on bool) error {
	encoded := profile.ControlOff
	if on {
		encoded = profile.ControlOn
	}
	value, err := strconv.Atoi(encoded)
	if err != nil {
		return fmt.Errorf("invalid control value %q for %s: %w", encoded, profile.Family, err)
	}

	oid := "." + profile.ControlPrefix + address
	code, err := transport.Set(oid, value)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", oid, err)
	}
	if code != 0 {
		return &StatusError{OID: oid, Code: code}
	}
	return nil
}
