package diag

// Severity defines the importance of a diagnostic.
type Severity uint8

const (
	// SevNote is for secondary diagnostics attached to a primary one,
	// e.g. overload candidates under an ambiguity error.
	SevNote Severity = iota
	// SevInfo is for informational diagnostics.
	SevInfo
	// SevWarning is for warning diagnostics.
	SevWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevNote:
		return "NOTE"
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}
