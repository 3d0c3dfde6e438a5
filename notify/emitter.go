package notify

import "time"

// Event types emitted by the guest flow.
const (
	EventOrderCreated       = "order.created"
	EventWaiterCalled       = "waiter.called"
	EventBillRequested      = "bill.requested"
	EventBillCancelled      = "bill.cancelled"
	EventBillPaidConfirmed  = "bill.paid_confirmed"
	EventBillRequestExpired = "bill.expired"
)

// Emitter fans an event out to staff-facing channels. Emit is fire-and-forget;
// delivery failures are logged by the implementation and never reach the caller.
type Emitter interface {
	Emit(branchID uint, eventType string, refID string)
}

type Message struct {
	Event    string    `json:"event"`
	BranchID uint      `json:"branch_id"`
	RefID    string    `json:"ref_id"`
	At       time.Time `json:"at"`
}

func newMessage(branchID uint, eventType, refID string) Message {
	return Message{Event: eventType, BranchID: branchID, RefID: refID, At: time.Now().UTC()}
}

// Multi emits to every emitter in order.
type Multi []Emitter

func (m Multi) Emit(branchID uint, eventType string, refID string) {
	for _, e := range m {
		e.Emit(branchID, eventType, refID)
	}
}

// Nop discards events.
type Nop struct{}

func (Nop) Emit(uint, string, string) {}
