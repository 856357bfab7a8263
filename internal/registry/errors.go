package registry

import "fmt"

// MissingPrereqError reports a structural prerequisite that should be
// unreachable by construction: a definition or prototype expected to exist
// was not found. Hosts typically surface this as a blocking notice and
// abort the operation; it is not an expected runtime path.
type MissingPrereqError struct {
	What     string // "definition" or "prototype"
	ProcCode string
}

func (e *MissingPrereqError) Error() string {
	return fmt.Sprintf("no %s found for procedure %q", e.What, e.ProcCode)
}
