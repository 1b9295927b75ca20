// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationAssignedEvent is published when a client accepts a bid and the
// reservation is assigned to a provider. It contains enough information for
// downstream consumers to log, notify, or trigger analytics without querying
// the primary database.
type ReservationAssignedEvent struct {
    ReservationID uint64 `json:"reservation_id"`
    ClientID      uint64 `json:"client_id"`
    ProviderID    uint64 `json:"provider_id"`
    ProviderName  string `json:"provider_name"`
    Category      string `json:"category"`
    City          string `json:"city"`
    ServiceDate   string `json:"service_date"`
    StartTime     string `json:"start_time"`
    PriceCents    uint32 `json:"price_cents"`
    AssignedAt    string `json:"assigned_at"`
}
