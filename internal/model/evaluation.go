package model

import "time"

// Evaluation is a client's post-completion rating of the assigned provider.
// At most one exists per reservation (unique key on reservation_id) and it
// is immutable once written. Ratings are bounded 1..5.
type Evaluation struct {
    ID            uint64    // evaluations.id
    ReservationID uint64    // evaluations.reservation_id (unique)
    ClientID      uint64    // evaluations.client_id
    ProviderID    uint64    // evaluations.provider_id
    Rating        uint8     // evaluations.rating (1..5)
    Comment       string    // evaluations.comment
    CreatedAt     time.Time // evaluations.created_at
}

// RatingAggregate is the derived (count, average) pair stored on a
// provider's profile. It always equals the exact count and arithmetic mean
// over all evaluations referencing the provider; the evaluation repository
// recomputes it transactionally on every insert.
type RatingAggregate struct {
    ReviewCount   uint32  `json:"review_count"`
    AverageRating float64 `json:"average_rating"`
}
