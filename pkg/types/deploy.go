package types

// DeployLogEntry is the per-target outcome of a deployment fan-out. Entries
// are returned to the caller and never persisted.
type DeployLogEntry struct {
	// Target label, normally "<alias> -> [<worker>]"
	Target string `json:"target"`

	Success bool `json:"success"`

	// Short diagnostic: the remote error message on failure, a success
	// marker otherwise
	Message string `json:"message"`
}
