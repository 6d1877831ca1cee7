package ir

// UnresolvedKind classifies why an item never reached zero outstanding
// prerequisites.
type UnresolvedKind string

const (
	// UnresolvedCycle marks an item on a dependency cycle (including an item
	// listing itself).
	UnresolvedCycle UnresolvedKind = "cycle"

	// UnresolvedDangling marks an item waiting on an identifier that never
	// appeared as a record.
	UnresolvedDangling UnresolvedKind = "dangling"

	// UnresolvedBlocked marks an item waiting only on other unresolved items.
	UnresolvedBlocked UnresolvedKind = "blocked"
)

// UnresolvedItem is an item left pending at the end of a run.
type UnresolvedItem struct {
	Name      string         `json:"name"`
	Kind      UnresolvedKind `json:"kind"`
	WaitingOn []string       `json:"waiting_on"` // sorted
}

// RunStatus is the terminal (or in-flight) state of a recorded run.
type RunStatus string

const (
	RunRunning    RunStatus = "running"
	RunOK         RunStatus = "ok"
	RunUnresolved RunStatus = "unresolved"
	RunRejected   RunStatus = "rejected"
	RunError      RunStatus = "error"
)

// Run is a resolution run as recorded in the store.
type Run struct {
	ID           string    `json:"id"`
	Seq          int64     `json:"seq"` // ordinal among recorded runs
	InputHash    string    `json:"input_hash"`
	Source       string    `json:"source"`
	Status       RunStatus `json:"status"`
	ErrorCode    string    `json:"error_code,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	RecordCount  int       `json:"record_count"`
	EmittedCount int       `json:"emitted_count"`
}

// Emission is one item of a run's output order.
type Emission struct {
	Seq  int64  `json:"seq"` // 1-based position in the order
	Item string `json:"item"`
}
