package pdu

// Variable is a single (OID, value) binding returned by a PDU. Value is
// already rendered as text by the transport.
type Variable struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Transport is the management-protocol client a Controller talks through.
// Implementations own authentication, timeouts and retries; every method
// blocks until the remote side answers or the transport gives up.
type Transport interface {
	// Walk returns every variable below root. A failure for the subtree
	// is reported as an error with no partial results.
	Walk(root string) ([]Variable, error)
	// Get fetches a single variable.
	Get(address string) (Variable, error)
	// Set writes an integer value and returns the error-status code
	// reported by the agent (0 means no error).
	Set(address string, value int) (int, error)
}
