package model

// Role distinguishes the two kinds of account the marketplace knows about.
// The values match the role column in the users table and the "role" claim
// carried in access tokens.
type Role string

const (
    RoleClient   Role = "CLIENT"   // requests cleaning services
    RoleProvider Role = "PROVIDER" // bids on and performs services
)

// Actor is the authenticated caller as supplied by the JWT middleware.
// Handlers build one per request and pass it down; every ownership check in
// the repositories is expressed against an Actor rather than ad hoc id/role
// pairs.
type Actor struct {
    ID   uint64
    Role Role
}

// CanAccessReservation reports whether the actor may read a reservation
// owned by clientID and assigned (possibly) to providerID. Only the owning
// client and the currently assigned provider qualify; everyone else is
// denied regardless of role.
func (a Actor) CanAccessReservation(clientID uint64, providerID *uint64) bool {
    switch a.Role {
    case RoleClient:
        return a.ID == clientID
    case RoleProvider:
        return providerID != nil && a.ID == *providerID
    }
    return false
}

// CanCancelReservation mirrors CanAccessReservation: cancellation is open to
// the owning client and the assigned provider only.
func (a Actor) CanCancelReservation(clientID uint64, providerID *uint64) bool {
    return a.CanAccessReservation(clientID, providerID)
}
