package model

import (
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestTransitionLegalPaths(t *testing.T) {
    cases := []struct {
        from  ReservationStatus
        event LifecycleEvent
        want  ReservationStatus
    }{
        {StatusOpen, EventAccept, StatusAssigned},
        {StatusOpen, EventCancel, StatusCancelled},
        {StatusAssigned, EventStart, StatusInProgress},
        {StatusAssigned, EventCancel, StatusCancelled},
        {StatusInProgress, EventComplete, StatusCompleted},
    }
    for _, tc := range cases {
        got, err := Transition(tc.from, tc.event)
        require.NoError(t, err, "%s + %s", tc.from, tc.event)
        assert.Equal(t, tc.want, got)
    }
}

func TestTransitionIllegalPaths(t *testing.T) {
    cases := []struct {
        from  ReservationStatus
        event LifecycleEvent
    }{
        {StatusOpen, EventStart},
        {StatusOpen, EventComplete},
        {StatusAssigned, EventAccept},
        {StatusAssigned, EventComplete},
        {StatusInProgress, EventCancel}, // work underway cannot be cancelled
        {StatusInProgress, EventAccept},
        {StatusCompleted, EventCancel},
        {StatusCompleted, EventStart},
        {StatusCancelled, EventAccept},
        {StatusCancelled, EventCancel},
    }
    for _, tc := range cases {
        _, err := Transition(tc.from, tc.event)
        assert.Error(t, err, "%s + %s should be illegal", tc.from, tc.event)
    }
}

func TestTerminalStates(t *testing.T) {
    assert.False(t, StatusOpen.Terminal())
    assert.False(t, StatusAssigned.Terminal())
    assert.False(t, StatusInProgress.Terminal())
    assert.True(t, StatusCompleted.Terminal())
    assert.True(t, StatusCancelled.Terminal())
}

func TestValidStatus(t *testing.T) {
    for _, s := range []string{"OPEN", "ASSIGNED", "IN_PROGRESS", "COMPLETED", "CANCELLED"} {
        assert.True(t, ValidStatus(s), s)
    }
    assert.False(t, ValidStatus("PENDING"))
    assert.False(t, ValidStatus("open"))
    assert.False(t, ValidStatus(""))
}
