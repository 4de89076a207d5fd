package diag

// Severity ranks a diagnostic. Warnings note things the pack degrades
// gracefully around, such as skipped side effects; errors stop it.
type Severity uint8

const (
	// SevInfo is purely informational.
	SevInfo Severity = iota
	// SevWarning marks input the pack handles but cannot fully honor.
	SevWarning
	// SevError marks input the pack cannot proceed with.
	SevError
)

// String returns the upper-case label used in rendered diagnostics.
func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}
