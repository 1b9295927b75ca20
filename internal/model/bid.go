package model

import "time"

// BidStatus is the state of a provider's offer on a reservation.
type BidStatus string

const (
    BidPending  BidStatus = "PENDING"  // submitted, awaiting the client's decision
    BidAccepted BidStatus = "ACCEPTED" // chosen by the client; at most one per reservation
    BidRejected BidStatus = "REJECTED" // sibling of an accepted bid
)

// Bid records a provider's offer to fulfil a specific open reservation.
// A provider may hold at most one bid per reservation, enforced by a
// unique key on (reservation_id, provider_id). Bids are never deleted;
// only the acceptance transaction mutates them.
//
// Fields:
//  ID            – primary key identifier.
//  ReservationID – reservation being bid on.
//  ProviderID    – bidding provider.
//  PriceCents    – price proposed by the provider.
//  Negotiable    – whether the provider is open to negotiating the price.
//  Motivation    – free-text pitch shown to the client.
//  Status        – PENDING, ACCEPTED or REJECTED.
type Bid struct {
    ID            uint64    // bids.id
    ReservationID uint64    // bids.reservation_id
    ProviderID    uint64    // bids.provider_id
    PriceCents    uint32    // bids.price_cents
    Negotiable    bool      // bids.negotiable
    Motivation    string    // bids.motivation
    Status        BidStatus // bids.status
    CreatedAt     time.Time // bids.created_at
}
