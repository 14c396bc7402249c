package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"
    "time"
)

// ErrApplicationNotFound is returned when an application ID (or the
// implicit lookup by gig + musician) does not resolve to a row.
var ErrApplicationNotFound = errors.New("application not found")

// ApplicationRepo provides access to the gig_applications table.  The
// confirmation fields are only mutated through *Tx methods while the row is
// locked, so the "both confirmed -> increment once" check-then-act sequence
// in the workflow engine cannot be duplicated by concurrent confirmations.
type ApplicationRepo struct {
    db *sql.DB
}

// NewApplicationRepo returns an ApplicationRepo bound to the given database.
func NewApplicationRepo(db *sql.DB) *ApplicationRepo { return &ApplicationRepo{db: db} }

// ApplicationRecord mirrors the gig_applications table.
type ApplicationRecord struct {
    ID                   uint64
    GigID                uint64
    EnsembleID           uint64
    Status               string
    MusicianAcknowledged bool
    GigHappenedVenue     *bool
    GigHappenedEnsemble  *bool
    ConfirmedAt          *time.Time
    AppliedAt            time.Time
}

// ApplicationDetail joins an application with its ensemble summary for the
// venue review screen, and with the gig for musician-facing views.
type ApplicationDetail struct {
    ID                   uint64  `json:"id"`
    GigID                uint64  `json:"gig_id"`
    GigTitle             string  `json:"gig_title"`
    EnsembleID           uint64  `json:"ensemble_id"`
    EnsembleName         string  `json:"ensemble_name"`
    EnsembleLeaderID     uint64  `json:"ensemble_leader_id"`
    Status               string  `json:"status"`
    MusicianAcknowledged bool    `json:"musician_acknowledged"`
    GigHappenedVenue     *bool   `json:"gig_happened_venue"`
    GigHappenedEnsemble  *bool   `json:"gig_happened_ensemble"`
    ConfirmedAt          *string `json:"confirmed_at"`
    AppliedAt            string  `json:"applied_at"`
}

// CreateTx inserts a pending application inside a transaction.  The unique
// key on (gig_id, ensemble_id) backstops the duplicate check; a duplicate
// key failure is mapped to ErrConflict.
func (r *ApplicationRepo) CreateTx(ctx context.Context, tx *sql.Tx, rec *ApplicationRecord) error {
    const q = `INSERT INTO gig_applications (gig_id, ensemble_id, status, musician_acknowledged)
               VALUES (?, ?, 'pending', FALSE)`
    res, err := tx.ExecContext(ctx, q, rec.GigID, rec.EnsembleID)
    if err != nil {
        if strings.Contains(err.Error(), "Duplicate entry") {
            return ErrConflict
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    rec.ID = uint64(id)
    rec.Status = "pending"
    const sel = `SELECT applied_at FROM gig_applications WHERE id = ?`
    return tx.QueryRowContext(ctx, sel, rec.ID).Scan(&rec.AppliedAt)
}

// GetForUpdateTx loads and row-locks an application together with its gig's
// schedule and venue, which every handshake transition needs.
func (r *ApplicationRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*LockedApplication, error) {
    const q = `SELECT ga.id, ga.gig_id, ga.ensemble_id, ga.status,
                      ga.gig_happened_venue, ga.gig_happened_ensemble, ga.confirmed_at,
                      g.venue_id, g.title, g.date_time
               FROM gig_applications ga
               JOIN gigs g ON g.id = ga.gig_id
               WHERE ga.id = ? FOR UPDATE`
    var la LockedApplication
    err := tx.QueryRowContext(ctx, q, id).Scan(
        &la.ID, &la.GigID, &la.EnsembleID, &la.Status,
        &la.GigHappenedVenue, &la.GigHappenedEnsemble, &la.ConfirmedAt,
        &la.VenueID, &la.GigTitle, &la.GigDateTime,
    )
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrApplicationNotFound
    }
    if err != nil {
        return nil, err
    }
    return &la, nil
}

// LockedApplication is the view of an application (plus gig context) held
// under a row lock during a handshake transition.
type LockedApplication struct {
    ID                  uint64
    GigID               uint64
    EnsembleID          uint64
    Status              string
    GigHappenedVenue    *bool
    GigHappenedEnsemble *bool
    ConfirmedAt         *time.Time
    VenueID             uint64
    GigTitle            string
    GigDateTime         time.Time
}

// AcceptedByGigForUpdateTx locates the accepted application for a gig (at
// most one exists) and locks it.  Returns ErrApplicationNotFound when the
// gig has no accepted application.
func (r *ApplicationRepo) AcceptedByGigForUpdateTx(ctx context.Context, tx *sql.Tx, gigID uint64) (*LockedApplication, error) {
    const q = `SELECT ga.id, ga.gig_id, ga.ensemble_id, ga.status,
                      ga.gig_happened_venue, ga.gig_happened_ensemble, ga.confirmed_at,
                      g.venue_id, g.title, g.date_time
               FROM gig_applications ga
               JOIN gigs g ON g.id = ga.gig_id
               WHERE ga.gig_id = ? AND ga.status = 'accepted'
               LIMIT 1 FOR UPDATE`
    var la LockedApplication
    err := tx.QueryRowContext(ctx, q, gigID).Scan(
        &la.ID, &la.GigID, &la.EnsembleID, &la.Status,
        &la.GigHappenedVenue, &la.GigHappenedEnsemble, &la.ConfirmedAt,
        &la.VenueID, &la.GigTitle, &la.GigDateTime,
    )
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrApplicationNotFound
    }
    if err != nil {
        return nil, err
    }
    return &la, nil
}

// SetStatusTx updates the application status inside a transaction.
func (r *ApplicationRepo) SetStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
    const q = `UPDATE gig_applications SET status = ? WHERE id = ?`
    _, err := tx.ExecContext(ctx, q, status, id)
    return err
}

// SetStatus updates the application status outside any handshake
// transaction (used by reject, which has no side effects).  Returns
// ErrApplicationNotFound when no row matched.
func (r *ApplicationRepo) SetStatus(ctx context.Context, id uint64, status string) error {
    const q = `UPDATE gig_applications SET status = ? WHERE id = ?`
    res, err := r.db.ExecContext(ctx, q, status, id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrApplicationNotFound
    }
    return nil
}

// SetConfirmationTx writes the post-event confirmation fields under the row
// lock.  confirmedAt is nil until both parties have answered.
func (r *ApplicationRepo) SetConfirmationTx(ctx context.Context, tx *sql.Tx, id uint64, venueSide, ensembleSide *bool, confirmedAt *time.Time) error {
    const q = `UPDATE gig_applications
               SET gig_happened_venue = ?, gig_happened_ensemble = ?, confirmed_at = ?
               WHERE id = ?`
    _, err := tx.ExecContext(ctx, q, venueSide, ensembleSide, confirmedAt, id)
    return err
}

// AcknowledgeForMusician flips musician_acknowledged on the application a
// musician's ensembles hold against a gig.  The musician may be the leader
// or a plain member.  Returns ErrApplicationNotFound when no application
// matches.
func (r *ApplicationRepo) AcknowledgeForMusician(ctx context.Context, gigID, userID uint64) error {
    const q = `UPDATE gig_applications ga
               JOIN ensembles e ON e.id = ga.ensemble_id
               LEFT JOIN ensemble_members em ON em.ensemble_id = e.id AND em.user_id = ?
               SET ga.musician_acknowledged = TRUE
               WHERE ga.gig_id = ? AND (e.leader_id = ? OR em.user_id IS NOT NULL)`
    res, err := r.db.ExecContext(ctx, q, userID, gigID, userID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrApplicationNotFound
    }
    return nil
}

const applicationDetailCols = `ga.id, ga.gig_id, g.title, ga.ensemble_id, e.name, e.leader_id,
       ga.status, ga.musician_acknowledged, ga.gig_happened_venue, ga.gig_happened_ensemble,
       ga.confirmed_at, ga.applied_at`

func scanApplicationDetail(row rowScanner) (*ApplicationDetail, error) {
    var d ApplicationDetail
    var confirmed sql.NullTime
    var applied time.Time
    if err := row.Scan(
        &d.ID, &d.GigID, &d.GigTitle, &d.EnsembleID, &d.EnsembleName, &d.EnsembleLeaderID,
        &d.Status, &d.MusicianAcknowledged, &d.GigHappenedVenue, &d.GigHappenedEnsemble,
        &confirmed, &applied,
    ); err != nil {
        return nil, err
    }
    if confirmed.Valid {
        iso := confirmed.Time.UTC().Format(time.RFC3339)
        d.ConfirmedAt = &iso
    }
    d.AppliedAt = applied.UTC().Format(time.RFC3339)
    return &d, nil
}

// GetDetail loads one application with its gig and ensemble summaries.
func (r *ApplicationRepo) GetDetail(ctx context.Context, id uint64) (*ApplicationDetail, error) {
    q := `SELECT ` + applicationDetailCols + `
          FROM gig_applications ga
          JOIN gigs g ON g.id = ga.gig_id
          JOIN ensembles e ON e.id = ga.ensemble_id
          WHERE ga.id = ?`
    det, err := scanApplicationDetail(r.db.QueryRowContext(ctx, q, id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrApplicationNotFound
    }
    return det, err
}

// ListByGig returns every application for a gig, for the venue to review.
func (r *ApplicationRepo) ListByGig(ctx context.Context, gigID uint64) ([]ApplicationDetail, error) {
    q := `SELECT ` + applicationDetailCols + `
          FROM gig_applications ga
          JOIN gigs g ON g.id = ga.gig_id
          JOIN ensembles e ON e.id = ga.ensemble_id
          WHERE ga.gig_id = ?
          ORDER BY ga.applied_at ASC`
    rows, err := r.db.QueryContext(ctx, q, gigID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]ApplicationDetail, 0)
    for rows.Next() {
        d, err := scanApplicationDetail(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *d)
    }
    return out, rows.Err()
}

// MusicianHistoryRow is one entry of the musician gig history view.
type MusicianHistoryRow struct {
    ApplicationID uint64 `json:"id"`
    GigID         uint64 `json:"gig_id"`
    GigTitle      string `json:"gig_title"`
    VenueName     string `json:"venue_name"`
    VenueLocation string `json:"venue_location"`
    Date          string `json:"date"`
    EnsembleName  string `json:"ensemble_name"`
    Status        string `json:"status"`
    GigStatus     string `json:"gig_status"`
    Verified      bool   `json:"verified"`
}

// HistoryForMusician returns settled applications across all of a
// musician's ensembles: rejected ones, and accepted ones whose gig is
// completed or whose confirmation has been finalized.  The second return
// value recomputes the verified count from the rows.
func (r *ApplicationRepo) HistoryForMusician(ctx context.Context, userID uint64) ([]MusicianHistoryRow, int, error) {
    const q = `SELECT DISTINCT ga.id, g.id, g.title, v.name, v.location, g.date_time, e.name,
                      ga.status, g.status,
                      (ga.confirmed_at IS NOT NULL AND ga.gig_happened_venue = TRUE AND ga.gig_happened_ensemble = TRUE)
               FROM gig_applications ga
               JOIN gigs g ON g.id = ga.gig_id
               JOIN venues v ON v.id = g.venue_id
               JOIN ensembles e ON e.id = ga.ensemble_id
               LEFT JOIN ensemble_members em ON em.ensemble_id = e.id
               WHERE (e.leader_id = ? OR em.user_id = ?)
                 AND (ga.status = 'rejected'
                      OR (ga.status = 'accepted' AND (g.status = 'completed' OR ga.confirmed_at IS NOT NULL)))
               ORDER BY g.date_time DESC`
    rows, err := r.db.QueryContext(ctx, q, userID, userID)
    if err != nil {
        return nil, 0, err
    }
    defer rows.Close()
    out := make([]MusicianHistoryRow, 0)
    verified := 0
    for rows.Next() {
        var row MusicianHistoryRow
        var dt time.Time
        var v bool
        if err := rows.Scan(&row.ApplicationID, &row.GigID, &row.GigTitle, &row.VenueName,
            &row.VenueLocation, &dt, &row.EnsembleName, &row.Status, &row.GigStatus, &v); err != nil {
            return nil, 0, err
        }
        row.Date = dt.UTC().Format(time.RFC3339)
        row.Verified = v
        if v {
            verified++
        }
        out = append(out, row)
    }
    return out, verified, rows.Err()
}

// ActiveForMusician returns accepted applications whose gig is still in
// flight (not completed, confirmation not finalized) — the musician's
// "my gigs" view.
func (r *ApplicationRepo) ActiveForMusician(ctx context.Context, userID uint64) ([]ApplicationDetail, error) {
    q := `SELECT DISTINCT ` + applicationDetailCols + `
          FROM gig_applications ga
          JOIN gigs g ON g.id = ga.gig_id
          JOIN ensembles e ON e.id = ga.ensemble_id
          LEFT JOIN ensemble_members em ON em.ensemble_id = e.id
          WHERE (e.leader_id = ? OR em.user_id = ?)
            AND ga.status = 'accepted'
            AND g.status <> 'completed'
            AND ga.confirmed_at IS NULL
          ORDER BY g.date_time ASC`
    rows, err := r.db.QueryContext(ctx, q, userID, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]ApplicationDetail, 0)
    for rows.Next() {
        d, err := scanApplicationDetail(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *d)
    }
    return out, rows.Err()
}
