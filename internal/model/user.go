package model

import "time"

// Roles stored in users.role.  Musicians join ensembles and browse the gig
// feed; venue users own exactly one venue profile; admins get the oversight
// endpoints.
const (
    RoleMusician = "musician"
    RoleVenue    = "venue"
    RoleAdmin    = "admin"
)

// User represents a row of the `users` table.  These structs are used by the
// repository layer; handlers define separate response types with JSON tags
// where the shape differs.
type User struct {
    ID           uint64     // users.id
    Email        string     // users.email
    PasswordHash string     // users.password_hash
    Name         string     // users.name
    Role         string     // users.role (musician|venue|admin)
    Instrument   string     // users.instrument (musicians only, may be empty)
    City         string     // users.city
    Bio          string     // users.bio
    IsPro        bool       // users.is_pro (admin-toggled subscription flag)
    IsActive     bool       // users.is_active (soft disable)
    CreatedAt    time.Time  // users.created_at
    UpdatedAt    time.Time  // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA‑256 hash of the raw token is stored.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
