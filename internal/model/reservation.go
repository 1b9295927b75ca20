package model

import (
    "encoding/json"
    "time"
)

// ServiceCategory identifies the kind of cleaning being requested. Each
// category carries its own detail payload (see Reservation.Details).
type ServiceCategory string

const (
    CategoryHouse    ServiceCategory = "HOUSE"
    CategoryCar      ServiceCategory = "CAR"
    CategoryBuilding ServiceCategory = "BUILDING"
    CategoryOffice   ServiceCategory = "OFFICE"
    CategoryGarden   ServiceCategory = "GARDEN"
)

// ValidCategory reports whether c is one of the known service categories.
func ValidCategory(c string) bool {
    switch ServiceCategory(c) {
    case CategoryHouse, CategoryCar, CategoryBuilding, CategoryOffice, CategoryGarden:
        return true
    }
    return false
}

// Reservation is a client's service request and the unit whose lifecycle the
// core governs. Rows are never deleted; terminal states are kept for history.
//
// Fields:
//  ID              – primary key identifier.
//  ClientID        – owning client.
//  ProviderID      – assigned provider; nil until a bid is accepted and
//                    cleared again on cancellation.
//  Category        – service category (closed enum above).
//  Title           – short free-text label.
//  Description     – free-text description of the work.
//  Address/City/PostalCode – where the service takes place.
//  ServiceDate     – scheduled date of the service (UTC).
//  StartTime       – requested start, "HH:MM".
//  DurationMinutes – estimated duration.
//  PriceCents      – price proposed by the client.
//  Details         – category-specific payload (room count for HOUSE,
//                    vehicle type for CAR, ...), stored as JSON.
//  Status          – lifecycle state (see status.go).
//  CancelReason    – present only when cancelled.
type Reservation struct {
    ID              uint64            // reservations.id
    ClientID        uint64            // reservations.client_id
    ProviderID      *uint64           // reservations.provider_id (nullable)
    Category        ServiceCategory   // reservations.category
    Title           string            // reservations.title
    Description     string            // reservations.description
    Address         string            // reservations.address
    City            string            // reservations.city
    PostalCode      string            // reservations.postal_code
    ServiceDate     time.Time         // reservations.service_date
    StartTime       string            // reservations.start_time
    DurationMinutes uint32            // reservations.duration_minutes
    PriceCents      uint32            // reservations.price_cents
    Details         json.RawMessage   // reservations.details (nullable JSON)
    Status          ReservationStatus // reservations.status
    CancelReason    *string           // reservations.cancel_reason (nullable)
    CreatedAt       time.Time         // reservations.created_at
    UpdatedAt       time.Time         // reservations.updated_at
}
