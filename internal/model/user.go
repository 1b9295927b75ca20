package model

import "time"

// User represents an account row in the `users` table. Both clients and
// providers live in the same table, distinguished by Role. The provider
// rating aggregate (ReviewCount, AverageRating) is stored directly on the
// row and is only meaningful for PROVIDER accounts.
//
// Fields:
//  ID            – primary key identifier.
//  Email         – unique email address.
//  PasswordHash  – bcrypt hashed password.
//  Role          – CLIENT or PROVIDER.
//  FullName      – display name.
//  Phone         – contact number shown to matched counterparts.
//  City          – home city.
//  Specialties   – comma-separated service categories a provider covers
//                  (nullable, providers only).
//  ReviewCount   – number of evaluations received (providers only).
//  AverageRating – mean rating over all evaluations (providers only).
//  IsActive      – whether the account is active.
type User struct {
    ID            uint64     // users.id
    Email         string     // users.email
    PasswordHash  string     // users.password_hash
    Role          Role       // users.role
    FullName      string     // users.full_name
    Phone         string     // users.phone
    City          string     // users.city
    Specialties   *string    // users.specialties (nullable)
    ReviewCount   uint32     // users.review_count
    AverageRating float64    // users.average_rating
    IsActive      bool       // users.is_active
    CreatedAt     time.Time  // users.created_at
    UpdatedAt     time.Time  // users.updated_at
}

// ProviderSummary is the public profile slice of a provider joined onto
// bid listings and evaluation listings. It intentionally omits email and
// anything not meant for counterpart display.
type ProviderSummary struct {
    ID            uint64  `json:"id"`
    FullName      string  `json:"full_name"`
    Phone         string  `json:"phone"`
    City          string  `json:"city"`
    Specialties   *string `json:"specialties,omitempty"`
    ReviewCount   uint32  `json:"review_count"`
    AverageRating float64 `json:"average_rating"`
}

// RefreshToken models an entry in the `refresh_tokens` table. Only the
// SHA-256 hash of the raw token is stored.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
