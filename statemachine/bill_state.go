package statemachine

import (
	"fmt"
	"strings"

	"github.com/yeremiapane/tableside/models"
)

const (
	ActorGuest  = "guest"
	ActorStaff  = "staff"
	ActorSystem = "system"
)

// Transition defines a valid bill status change and who can perform it.
type Transition struct {
	From  models.BillStatus
	To    models.BillStatus
	Actor string
}

var validTransitions = []Transition{
	{From: models.BillCreated, To: models.BillPaidConfirmed, Actor: ActorStaff},
	{From: models.BillCreated, To: models.BillCancelled, Actor: ActorGuest},
	{From: models.BillCreated, To: models.BillExpired, Actor: ActorSystem},
	{From: models.BillPaidConfirmed, To: models.BillClosed, Actor: ActorGuest},
}

type transitionKey struct {
	From  models.BillStatus
	To    models.BillStatus
	Actor string
}

var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool)
	for _, t := range validTransitions {
		m[transitionKey{t.From, t.To, t.Actor}] = true
	}
	return m
}()

// ValidTransitionsFrom returns all valid next states from a given state.
func ValidTransitionsFrom(status models.BillStatus) []models.BillStatus {
	var nexts []models.BillStatus
	seen := map[models.BillStatus]bool{}
	for _, t := range validTransitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// CanTransition checks if actor may move a bill request from one state to another.
func CanTransition(from, to models.BillStatus, actor string) error {
	if transitionMap[transitionKey{From: from, To: to, Actor: actor}] {
		return nil
	}
	return fmt.Errorf("invalid transition: %s -> %s is not allowed for %s (valid from %s: %s)",
		from, to, actor, from, describeValidFrom(from))
}

// IsTerminal reports whether no transition leaves status.
func IsTerminal(status models.BillStatus) bool {
	return len(ValidTransitionsFrom(status)) == 0
}

func describeValidFrom(status models.BillStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none, terminal state"
	}
	names := make([]string, len(nexts))
	for i, s := range nexts {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
