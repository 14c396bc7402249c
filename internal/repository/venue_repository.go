package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"
)

// ErrVenueNotFound is returned when a venue ID or owning user does not
// resolve to a row.
var ErrVenueNotFound = errors.New("venue not found")

// VenueRepo provides CRUD for venue profiles and the verified-gig counter.
type VenueRepo struct {
    db *sql.DB
}

// NewVenueRepo returns a VenueRepo bound to the given database.
func NewVenueRepo(db *sql.DB) *VenueRepo { return &VenueRepo{db: db} }

// VenueRecord mirrors the venues table.
type VenueRecord struct {
    ID               uint64
    UserID           uint64
    Name             string
    Location         string
    VibeTags         *string
    TechSpecs        *string
    Description      *string
    VerifiedGigCount int
    CreatedAt        time.Time
}

// Create inserts a venue profile.  One profile per venue user; a duplicate
// is mapped to ErrConflict via the unique key on user_id.
func (r *VenueRepo) Create(ctx context.Context, rec *VenueRecord) error {
    const q = `INSERT INTO venues (user_id, name, location, vibe_tags, tech_specs, description)
               VALUES (?, ?, ?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, rec.UserID, rec.Name, rec.Location, rec.VibeTags, rec.TechSpecs, rec.Description)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    rec.ID = uint64(id)
    const sel = `SELECT verified_gig_count, created_at FROM venues WHERE id = ?`
    return r.db.QueryRowContext(ctx, sel, rec.ID).Scan(&rec.VerifiedGigCount, &rec.CreatedAt)
}

const venueCols = `id, user_id, name, location, vibe_tags, tech_specs, description, verified_gig_count, created_at`

func scanVenue(row rowScanner) (*VenueRecord, error) {
    var rec VenueRecord
    err := row.Scan(&rec.ID, &rec.UserID, &rec.Name, &rec.Location,
        &rec.VibeTags, &rec.TechSpecs, &rec.Description, &rec.VerifiedGigCount, &rec.CreatedAt)
    if err != nil {
        return nil, err
    }
    return &rec, nil
}

// GetByID loads a venue.  Returns ErrVenueNotFound when missing.
func (r *VenueRepo) GetByID(ctx context.Context, id uint64) (*VenueRecord, error) {
    rec, err := scanVenue(r.db.QueryRowContext(ctx, `SELECT `+venueCols+` FROM venues WHERE id = ?`, id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrVenueNotFound
    }
    return rec, err
}

// GetByUserID loads the venue owned by a user.
func (r *VenueRepo) GetByUserID(ctx context.Context, userID uint64) (*VenueRecord, error) {
    rec, err := scanVenue(r.db.QueryRowContext(ctx, `SELECT `+venueCols+` FROM venues WHERE user_id = ?`, userID))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrVenueNotFound
    }
    return rec, err
}

// List returns all venues ordered by name.
func (r *VenueRepo) List(ctx context.Context) ([]VenueRecord, error) {
    rows, err := r.db.QueryContext(ctx, `SELECT `+venueCols+` FROM venues ORDER BY name ASC`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]VenueRecord, 0)
    for rows.Next() {
        rec, err := scanVenue(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *rec)
    }
    return out, rows.Err()
}

// Update overwrites the editable profile fields of a venue owned by userID.
// Returns ErrForbidden when the venue belongs to someone else.
func (r *VenueRepo) Update(ctx context.Context, id, userID uint64, name, location string, vibeTags, techSpecs, description *string) error {
    var ownerID uint64
    err := r.db.QueryRowContext(ctx, `SELECT user_id FROM venues WHERE id = ?`, id).Scan(&ownerID)
    if errors.Is(err, sql.ErrNoRows) {
        return ErrVenueNotFound
    }
    if err != nil {
        return err
    }
    if ownerID != userID {
        return ErrForbidden
    }
    const q = `UPDATE venues SET name = ?, location = ?, vibe_tags = ?, tech_specs = ?, description = ? WHERE id = ?`
    _, err = r.db.ExecContext(ctx, q, name, location, vibeTags, techSpecs, description, id)
    return err
}

// ExistsTx checks venue existence inside a transaction.
func (r *VenueRepo) ExistsTx(ctx context.Context, tx *sql.Tx, id uint64) (bool, error) {
    var n int
    if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM venues WHERE id = ?`, id).Scan(&n); err != nil {
        return false, err
    }
    return n > 0, nil
}

// OwnerTx returns the user ID that owns a venue, inside a transaction.
func (r *VenueRepo) OwnerTx(ctx context.Context, tx *sql.Tx, id uint64) (uint64, error) {
    var uid uint64
    err := tx.QueryRowContext(ctx, `SELECT user_id FROM venues WHERE id = ?`, id).Scan(&uid)
    if errors.Is(err, sql.ErrNoRows) {
        return 0, ErrVenueNotFound
    }
    return uid, err
}

// IncrementVerifiedTx bumps the cached verified-gig counter.  Only the
// confirmation transition calls this, inside the same transaction that
// finalizes confirmed_at, so the counter cannot drift or double count.
func (r *VenueRepo) IncrementVerifiedTx(ctx context.Context, tx *sql.Tx, id uint64) error {
    const q = `UPDATE venues SET verified_gig_count = verified_gig_count + 1 WHERE id = ?`
    _, err := tx.ExecContext(ctx, q, id)
    return err
}
