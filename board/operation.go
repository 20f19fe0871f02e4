package board

import "sync"

// State is the progress of one mutating operation.
type State int

const (
	Idle State = iota
	Submitting
	Applied
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Applied:
		return "applied"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool { return s == Applied || s == Failed }

// Kind names the mutation an Operation performs.
type Kind string

const (
	KindCreate Kind = "create"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

// Operation tracks a single create, update or delete. It moves
// Idle -> Submitting -> Applied|Failed and never leaves a terminal state.
type Operation struct {
	Kind   Kind
	TaskID string

	mu    sync.Mutex
	state State
	err   error
}

func newOperation(kind Kind, id string) *Operation {
	return &Operation{Kind: kind, TaskID: id}
}

func (o *Operation) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Err is the failure cause of a Failed operation.
func (o *Operation) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.err
}

func (o *Operation) submit() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != Idle {
		return false
	}
	o.state = Submitting
	return true
}

// finish moves the operation into its terminal state. Operations that fail
// validation finish straight from Idle.
func (o *Operation) finish(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.Terminal() {
		return
	}
	if err != nil {
		o.state, o.err = Failed, err
		return
	}
	o.state = Applied
}
