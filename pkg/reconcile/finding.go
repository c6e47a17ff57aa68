package reconcile

import "fmt"

// Severity classifies a finding.
type Severity int

const (
	// Warning marks an informational condition that does not by itself
	// indicate divergence between the two stores.
	Warning Severity = iota

	// Error marks a divergence between the repository and the mirror.
	Error
)

// String returns the severity's display name.
func (s Severity) String() string {
	switch s {
	case Warning:
		return "WARNING"
	case Error:
		return "ERROR"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Finding is one reportable unit of divergence or condition, scoped to
// a single reconciliation run.
type Finding struct {
	Severity Severity

	// Caption is the one-line summary, typically stating a count.
	Caption string

	// Detail enumerates the affected records, one per line.
	Detail string
}
