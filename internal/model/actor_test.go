package model

import (
    "testing"

    "github.com/stretchr/testify/assert"
)

func TestCanAccessReservation(t *testing.T) {
    provider := uint64(7)
    other := uint64(8)

    owner := Actor{ID: 1, Role: RoleClient}
    assert.True(t, owner.CanAccessReservation(1, nil))
    assert.True(t, owner.CanAccessReservation(1, &provider))
    assert.False(t, owner.CanAccessReservation(2, &provider))

    assigned := Actor{ID: 7, Role: RoleProvider}
    assert.True(t, assigned.CanAccessReservation(1, &provider))
    assert.False(t, assigned.CanAccessReservation(1, nil), "unassigned reservation is invisible to providers")
    assert.False(t, assigned.CanAccessReservation(1, &other))

    // A provider who is also the numeric owner id does not gain client access.
    impostor := Actor{ID: 1, Role: RoleProvider}
    assert.False(t, impostor.CanAccessReservation(1, &provider))
}

func TestCanCancelReservation(t *testing.T) {
    provider := uint64(7)

    assert.True(t, Actor{ID: 1, Role: RoleClient}.CanCancelReservation(1, &provider))
    assert.True(t, Actor{ID: 7, Role: RoleProvider}.CanCancelReservation(1, &provider))
    assert.False(t, Actor{ID: 9, Role: RoleProvider}.CanCancelReservation(1, &provider))
    assert.False(t, Actor{ID: 9, Role: RoleClient}.CanCancelReservation(1, &provider))
}
