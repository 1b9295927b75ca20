package model

import "fmt"

// ReservationStatus is the closed set of states a reservation can be in.
// Every status write in the system goes through Transition below; nothing
// else is allowed to compute a new status value.
type ReservationStatus string

const (
    StatusOpen       ReservationStatus = "OPEN"        // created, accepting bids
    StatusAssigned   ReservationStatus = "ASSIGNED"    // one bid accepted, provider set
    StatusInProgress ReservationStatus = "IN_PROGRESS" // provider has started the work
    StatusCompleted  ReservationStatus = "COMPLETED"   // work finished, evaluation allowed
    StatusCancelled  ReservationStatus = "CANCELLED"   // terminal, provider reference cleared
)

// LifecycleEvent names an action that may move a reservation between states.
type LifecycleEvent string

const (
    EventAccept   LifecycleEvent = "accept"
    EventStart    LifecycleEvent = "start"
    EventComplete LifecycleEvent = "complete"
    EventCancel   LifecycleEvent = "cancel"
)

// transitions is the static table of legal (from, event) -> to mappings.
// Cancellation is only reachable from OPEN or ASSIGNED; COMPLETED and
// CANCELLED are terminal.
var transitions = map[ReservationStatus]map[LifecycleEvent]ReservationStatus{
    StatusOpen: {
        EventAccept: StatusAssigned,
        EventCancel: StatusCancelled,
    },
    StatusAssigned: {
        EventStart:  StatusInProgress,
        EventCancel: StatusCancelled,
    },
    StatusInProgress: {
        EventComplete: StatusCompleted,
    },
}

// Transition returns the status that results from applying event to from.
// Illegal transitions return an error naming both sides so callers can wrap
// it into a conflict response.
func Transition(from ReservationStatus, event LifecycleEvent) (ReservationStatus, error) {
    if next, ok := transitions[from][event]; ok {
        return next, nil
    }
    return "", fmt.Errorf("cannot %s a %s reservation", event, from)
}

// Terminal reports whether no further transitions are possible from s.
func (s ReservationStatus) Terminal() bool {
    return len(transitions[s]) == 0
}

// ValidStatus reports whether s is a member of the closed enum. Used when
// scanning rows so a corrupt value fails loudly instead of flowing on.
func ValidStatus(s string) bool {
    switch ReservationStatus(s) {
    case StatusOpen, StatusAssigned, StatusInProgress, StatusCompleted, StatusCancelled:
        return true
    }
    return false
}
