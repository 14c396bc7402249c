package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"
)

// ErrGigNotFound is returned when a gig ID does not resolve to a row.
var ErrGigNotFound = errors.New("gig not found")

// GigRepo provides access to the gigs table.  Mutations that participate in
// a handshake transition are exposed as *Tx methods and run inside a
// transaction owned by the workflow engine.  All timestamps are UTC.
type GigRepo struct {
    db *sql.DB
}

// NewGigRepo returns a GigRepo bound to the given database.
func NewGigRepo(db *sql.DB) *GigRepo { return &GigRepo{db: db} }

// GigRecord mirrors the gigs table for scanning.
type GigRecord struct {
    ID                 uint64
    VenueID            uint64
    Title              string
    DateTime           time.Time
    PaymentDescription *string
    Description        string
    IsOpen             bool
    Status             string
    CompletedAt        *time.Time
    CreatedAt          time.Time
}

// GigDetail is a gig joined with its venue summary, the shape consumed by
// the feed and detail endpoints.
type GigDetail struct {
    ID                 uint64     `json:"id"`
    VenueID            uint64     `json:"venue_id"`
    VenueName          string     `json:"venue_name"`
    VenueLocation      string     `json:"venue_location"`
    Title              string     `json:"title"`
    DateTime           string     `json:"date_time"`
    PaymentDescription *string    `json:"payment_description"`
    Description        string     `json:"description"`
    IsOpen             bool       `json:"is_open"`
    Status             string     `json:"status"`
    CompletedAt        *string    `json:"completed_at"`
    CreatedAt          string     `json:"created_at"`
}

const gigDetailCols = `g.id, g.venue_id, v.name, v.location, g.title, g.date_time,
       g.payment_description, g.description, g.is_open, g.status, g.completed_at, g.created_at`

// Create inserts a new gig with status=open, is_open=true and populates the
// generated ID and creation timestamp on the record.
func (r *GigRepo) Create(ctx context.Context, rec *GigRecord) error {
    const q = `INSERT INTO gigs (venue_id, title, date_time, payment_description, description, is_open, status)
               VALUES (?, ?, ?, ?, ?, TRUE, 'open')`
    res, err := r.db.ExecContext(ctx, q, rec.VenueID, rec.Title, rec.DateTime, rec.PaymentDescription, rec.Description)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    rec.ID = uint64(id)
    rec.IsOpen = true
    rec.Status = "open"
    const sel = `SELECT created_at FROM gigs WHERE id = ?`
    return r.db.QueryRowContext(ctx, sel, rec.ID).Scan(&rec.CreatedAt)
}

// GetByID loads a single gig row.  Returns ErrGigNotFound when missing.
func (r *GigRepo) GetByID(ctx context.Context, id uint64) (*GigRecord, error) {
    const q = `SELECT id, venue_id, title, date_time, payment_description, description,
                      is_open, status, completed_at, created_at
               FROM gigs WHERE id = ?`
    var rec GigRecord
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &rec.ID, &rec.VenueID, &rec.Title, &rec.DateTime, &rec.PaymentDescription,
        &rec.Description, &rec.IsOpen, &rec.Status, &rec.CompletedAt, &rec.CreatedAt,
    )
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrGigNotFound
    }
    if err != nil {
        return nil, err
    }
    return &rec, nil
}

// GetDetail loads a gig joined with its venue summary.
func (r *GigRepo) GetDetail(ctx context.Context, id uint64) (*GigDetail, error) {
    q := `SELECT ` + gigDetailCols + `
          FROM gigs g JOIN venues v ON v.id = g.venue_id
          WHERE g.id = ?`
    row := r.db.QueryRowContext(ctx, q, id)
    det, err := scanGigDetail(row)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrGigNotFound
    }
    return det, err
}

type rowScanner interface{ Scan(dest ...interface{}) error }

func scanGigDetail(row rowScanner) (*GigDetail, error) {
    var d GigDetail
    var dt, created time.Time
    var completed sql.NullTime
    if err := row.Scan(
        &d.ID, &d.VenueID, &d.VenueName, &d.VenueLocation, &d.Title, &dt,
        &d.PaymentDescription, &d.Description, &d.IsOpen, &d.Status, &completed, &created,
    ); err != nil {
        return nil, err
    }
    d.DateTime = dt.UTC().Format(time.RFC3339)
    d.CreatedAt = created.UTC().Format(time.RFC3339)
    if completed.Valid {
        iso := completed.Time.UTC().Format(time.RFC3339)
        d.CompletedAt = &iso
    }
    return &d, nil
}

// ListOpen returns open gigs ordered by date, optionally filtered by a
// substring match on the venue location.
func (r *GigRepo) ListOpen(ctx context.Context, location string) ([]GigDetail, error) {
    q := `SELECT ` + gigDetailCols + `
          FROM gigs g JOIN venues v ON v.id = g.venue_id
          WHERE g.is_open = TRUE`
    args := []interface{}{}
    if location != "" {
        q += ` AND v.location LIKE ?`
        args = append(args, "%"+location+"%")
    }
    q += ` ORDER BY g.date_time ASC`
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]GigDetail, 0)
    for rows.Next() {
        d, err := scanGigDetail(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *d)
    }
    return out, rows.Err()
}

// FeedForMusician returns the gig feed for one musician: open gigs, plus
// closed gigs where one of the musician's ensembles has an application the
// musician has not acknowledged yet.  A gig whose rejection the musician
// acknowledged stays hidden permanently, even while the gig is still open.
func (r *GigRepo) FeedForMusician(ctx context.Context, userID uint64, location string) ([]GigDetail, error) {
    q := `SELECT DISTINCT ` + gigDetailCols + `
          FROM gigs g
          JOIN venues v ON v.id = g.venue_id
          LEFT JOIN gig_applications ga ON ga.gig_id = g.id
          LEFT JOIN ensembles e ON e.id = ga.ensemble_id
          LEFT JOIN ensemble_members em ON em.ensemble_id = e.id
          WHERE ((g.is_open = TRUE
                  AND NOT EXISTS (
                      SELECT 1 FROM gig_applications gr
                      JOIN ensembles er ON er.id = gr.ensemble_id
                      LEFT JOIN ensemble_members emr ON emr.ensemble_id = er.id AND emr.user_id = ?
                      WHERE gr.gig_id = g.id
                        AND gr.status = 'rejected'
                        AND gr.musician_acknowledged = TRUE
                        AND (er.leader_id = ? OR emr.user_id IS NOT NULL)))
                 OR (ga.musician_acknowledged = FALSE
                     AND (e.leader_id = ? OR em.user_id = ?)))`
    args := []interface{}{userID, userID, userID, userID}
    if location != "" {
        q += ` AND v.location LIKE ?`
        args = append(args, "%"+location+"%")
    }
    q += ` ORDER BY g.date_time ASC`
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]GigDetail, 0)
    for rows.Next() {
        d, err := scanGigDetail(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *d)
    }
    return out, rows.Err()
}

// ListAll returns every gig regardless of status, newest gig date first.
// Admin oversight only.
func (r *GigRepo) ListAll(ctx context.Context, status string) ([]GigDetail, error) {
    q := `SELECT ` + gigDetailCols + `
          FROM gigs g JOIN venues v ON v.id = g.venue_id`
    args := []interface{}{}
    if status != "" {
        q += ` WHERE g.status = ?`
        args = append(args, status)
    }
    q += ` ORDER BY g.date_time DESC`
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]GigDetail, 0)
    for rows.Next() {
        d, err := scanGigDetail(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *d)
    }
    return out, rows.Err()
}

// ListByVenue returns all gigs posted by a venue, newest gig date first.
func (r *GigRepo) ListByVenue(ctx context.Context, venueID uint64) ([]GigDetail, error) {
    q := `SELECT ` + gigDetailCols + `
          FROM gigs g JOIN venues v ON v.id = g.venue_id
          WHERE g.venue_id = ?
          ORDER BY g.date_time DESC`
    rows, err := r.db.QueryContext(ctx, q, venueID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]GigDetail, 0)
    for rows.Next() {
        d, err := scanGigDetail(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *d)
    }
    return out, rows.Err()
}

// ActiveByVenue returns a venue's gigs that are not completed ("my gigs").
func (r *GigRepo) ActiveByVenue(ctx context.Context, venueID uint64) ([]GigDetail, error) {
    q := `SELECT ` + gigDetailCols + `
          FROM gigs g JOIN venues v ON v.id = g.venue_id
          WHERE g.venue_id = ? AND g.status <> 'completed'
          ORDER BY g.date_time ASC`
    rows, err := r.db.QueryContext(ctx, q, venueID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]GigDetail, 0)
    for rows.Next() {
        d, err := scanGigDetail(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *d)
    }
    return out, rows.Err()
}

// GetForUpdateTx loads and row-locks a gig inside a transaction.  The lock
// keeps the status/is_open pair consistent while a handshake transition is
// in flight.
func (r *GigRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*GigRecord, error) {
    const q = `SELECT id, venue_id, title, date_time, is_open, status
               FROM gigs WHERE id = ? FOR UPDATE`
    var rec GigRecord
    err := tx.QueryRowContext(ctx, q, id).Scan(
        &rec.ID, &rec.VenueID, &rec.Title, &rec.DateTime, &rec.IsOpen, &rec.Status,
    )
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrGigNotFound
    }
    if err != nil {
        return nil, err
    }
    return &rec, nil
}

// CloseAcceptedTx moves a gig to status=accepted and stops accepting
// applications.  Part of the acceptance transition.
func (r *GigRepo) CloseAcceptedTx(ctx context.Context, tx *sql.Tx, id uint64) error {
    const q = `UPDATE gigs SET is_open = FALSE, status = 'accepted' WHERE id = ?`
    _, err := tx.ExecContext(ctx, q, id)
    return err
}

// MarkCompletedTx finalizes a gig.  The caller has already validated the
// post-date and prior-status preconditions under the row lock.
func (r *GigRepo) MarkCompletedTx(ctx context.Context, tx *sql.Tx, id uint64, completedAt time.Time) error {
    const q = `UPDATE gigs SET status = 'completed', completed_at = ? WHERE id = ?`
    _, err := tx.ExecContext(ctx, q, completedAt, id)
    return err
}

// ToggleOpen flips is_open on a gig (admin override).  It returns the new
// value, or ErrGigNotFound when the gig does not exist.
func (r *GigRepo) ToggleOpen(ctx context.Context, id uint64) (bool, error) {
    const q = `UPDATE gigs SET is_open = NOT is_open WHERE id = ?`
    res, err := r.db.ExecContext(ctx, q, id)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    if n == 0 {
        return false, ErrGigNotFound
    }
    var open bool
    if err := r.db.QueryRowContext(ctx, `SELECT is_open FROM gigs WHERE id = ?`, id).Scan(&open); err != nil {
        return false, err
    }
    return open, nil
}

// VenueHistoryRow is one entry of the venue gig history view.
type VenueHistoryRow struct {
    GigID        uint64  `json:"gig_id"`
    GigTitle     string  `json:"gig_title"`
    Date         string  `json:"date"`
    EnsembleName *string `json:"ensemble_name"`
    Status       string  `json:"status"`
    Verified     bool    `json:"verified"`
}

// HistoryByVenue returns the venue's completed gigs with the accepted
// ensemble (when any) and a verified flag recomputed from the application
// row.  The recomputation doubles as a drift check on the cached
// verified_gig_count columns.
func (r *GigRepo) HistoryByVenue(ctx context.Context, venueID uint64) ([]VenueHistoryRow, int, error) {
    const q = `SELECT g.id, g.title, g.date_time, e.name,
                      g.status,
                      (ga.confirmed_at IS NOT NULL AND ga.gig_happened_venue = TRUE AND ga.gig_happened_ensemble = TRUE)
               FROM gigs g
               LEFT JOIN gig_applications ga ON ga.gig_id = g.id AND ga.status = 'accepted'
               LEFT JOIN ensembles e ON e.id = ga.ensemble_id
               WHERE g.venue_id = ? AND g.status = 'completed'
               ORDER BY g.date_time DESC`
    rows, err := r.db.QueryContext(ctx, q, venueID)
    if err != nil {
        return nil, 0, err
    }
    defer rows.Close()
    out := make([]VenueHistoryRow, 0)
    verified := 0
    for rows.Next() {
        var row VenueHistoryRow
        var dt time.Time
        var v sql.NullBool
        if err := rows.Scan(&row.GigID, &row.GigTitle, &dt, &row.EnsembleName, &row.Status, &v); err != nil {
            return nil, 0, err
        }
        row.Date = dt.UTC().Format(time.RFC3339)
        row.Verified = v.Valid && v.Bool
        if row.Verified {
            verified++
        }
        out = append(out, row)
    }
    return out, verified, rows.Err()
}
