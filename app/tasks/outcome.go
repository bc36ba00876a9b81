package tasks

// Outcome is the terminal state of a competition task.
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeDone
	OutcomeCancelledEarly
	OutcomeCancelledMid
	OutcomeFailedFetch
	OutcomeNotYetOpen
	OutcomeFailedCompute
	OutcomeFailedRender
	OutcomeFailedStore
)

var outcomeNames = map[Outcome]string{
	OutcomePending:        "pending",
	OutcomeDone:           "done",
	OutcomeCancelledEarly: "cancelled_early",
	OutcomeCancelledMid:   "cancelled_mid",
	OutcomeFailedFetch:    "failed_fetch",
	OutcomeNotYetOpen:     "not_yet_open",
	OutcomeFailedCompute:  "failed_compute",
	OutcomeFailedRender:   "failed_render",
	OutcomeFailedStore:    "failed_store",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return "unknown"
}

// Cancelled reports whether the task stopped because its context was
// cancelled before it detached.
func (o Outcome) Cancelled() bool {
	return o == OutcomeCancelledEarly || o == OutcomeCancelledMid
}
