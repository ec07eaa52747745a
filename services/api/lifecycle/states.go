package lifecycle

// Lifecycle states of an experiment record. State names are fixed wire
// values in the records table, not display strings.
const (
	StateSetup    = "SETUP"      // skeleton created, measurements empty
	StateOpen     = "APERTO"     // measurement in progress (one-shot create)
	StateRunning  = "IN_CORSO"   // measurement in progress (structure + update)
	StateClosed   = "CHIUSO"     // Day-0 data finalized
	StateArchived = "ARCHIVIATO" // excluded from active work
)

// IsTerminal reports whether Day-0 editing is over for a state. Terminal
// rows stay eligible for the dry-weight phase and for export.
func IsTerminal(state string) bool {
	return state == StateClosed || state == StateArchived
}

// nextOnSave is the transition taken by a successful batch save.
func nextOnSave(current string, closeRow bool) string {
	if closeRow {
		return StateClosed
	}
	switch current {
	case StateSetup:
		return StateRunning
	case StateOpen, StateRunning:
		return current
	default:
		return current
	}
}
