package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"
    "time"
)

// ErrEnsembleNotFound is returned when an ensemble ID does not resolve.
var ErrEnsembleNotFound = errors.New("ensemble not found")

// EnsembleRepo provides access to ensembles, their member set and pending
// invites, and the ensemble-side verified-gig counter.
type EnsembleRepo struct {
    db *sql.DB
}

// NewEnsembleRepo returns an EnsembleRepo bound to the given database.
func NewEnsembleRepo(db *sql.DB) *EnsembleRepo { return &EnsembleRepo{db: db} }

// EnsembleRecord mirrors the ensembles table.
type EnsembleRecord struct {
    ID               uint64
    Name             string
    LeaderID         uint64
    CombinedBio      *string
    VerifiedGigCount int
    CreatedAt        time.Time
}

// MemberSummary is the member shape embedded in ensemble responses.
type MemberSummary struct {
    ID         uint64 `json:"id"`
    Name       string `json:"name"`
    Instrument string `json:"instrument"`
}

// EnsembleDetail is an ensemble with its members and pending invites.
type EnsembleDetail struct {
    ID               uint64          `json:"id"`
    Name             string          `json:"name"`
    LeaderID         uint64          `json:"leader_id"`
    CombinedBio      *string         `json:"combined_bio"`
    VerifiedGigCount int             `json:"verified_gig_count"`
    Members          []MemberSummary `json:"members"`
    InvitedUsers     []MemberSummary `json:"invited_users"`
    CreatedAt        string          `json:"created_at"`
}

// Create inserts an ensemble and enrolls the leader as its first member.
func (r *EnsembleRepo) Create(ctx context.Context, rec *EnsembleRecord) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    const q = `INSERT INTO ensembles (name, leader_id, combined_bio) VALUES (?, ?, ?)`
    res, err := tx.ExecContext(ctx, q, rec.Name, rec.LeaderID, rec.CombinedBio)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    rec.ID = uint64(id)
    const mem = `INSERT INTO ensemble_members (ensemble_id, user_id) VALUES (?, ?)`
    if _, err := tx.ExecContext(ctx, mem, rec.ID, rec.LeaderID); err != nil {
        return err
    }
    const sel = `SELECT verified_gig_count, created_at FROM ensembles WHERE id = ?`
    if err := tx.QueryRowContext(ctx, sel, rec.ID).Scan(&rec.VerifiedGigCount, &rec.CreatedAt); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// GetDetail loads an ensemble with members and pending invites.
func (r *EnsembleRepo) GetDetail(ctx context.Context, id uint64) (*EnsembleDetail, error) {
    const q = `SELECT id, name, leader_id, combined_bio, verified_gig_count, created_at
               FROM ensembles WHERE id = ?`
    var det EnsembleDetail
    var created time.Time
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &det.ID, &det.Name, &det.LeaderID, &det.CombinedBio, &det.VerifiedGigCount, &created,
    )
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrEnsembleNotFound
    }
    if err != nil {
        return nil, err
    }
    det.CreatedAt = created.UTC().Format(time.RFC3339)
    det.Members, err = r.listUsers(ctx, `SELECT u.id, u.name, u.instrument
        FROM ensemble_members em JOIN users u ON u.id = em.user_id
        WHERE em.ensemble_id = ? ORDER BY em.joined_at ASC`, id)
    if err != nil {
        return nil, err
    }
    det.InvitedUsers, err = r.listUsers(ctx, `SELECT u.id, u.name, u.instrument
        FROM ensemble_invites ei JOIN users u ON u.id = ei.user_id
        WHERE ei.ensemble_id = ? ORDER BY ei.invited_at ASC`, id)
    if err != nil {
        return nil, err
    }
    return &det, nil
}

func (r *EnsembleRepo) listUsers(ctx context.Context, q string, id uint64) ([]MemberSummary, error) {
    rows, err := r.db.QueryContext(ctx, q, id)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]MemberSummary, 0)
    for rows.Next() {
        var m MemberSummary
        var instrument sql.NullString
        if err := rows.Scan(&m.ID, &m.Name, &instrument); err != nil {
            return nil, err
        }
        m.Instrument = instrument.String
        out = append(out, m)
    }
    return out, rows.Err()
}

// ListByUser returns ensembles the user leads or plays in.
func (r *EnsembleRepo) ListByUser(ctx context.Context, userID uint64) ([]EnsembleRecord, error) {
    const q = `SELECT DISTINCT e.id, e.name, e.leader_id, e.combined_bio, e.verified_gig_count, e.created_at
               FROM ensembles e
               LEFT JOIN ensemble_members em ON em.ensemble_id = e.id
               WHERE e.leader_id = ? OR em.user_id = ?
               ORDER BY e.created_at ASC`
    rows, err := r.db.QueryContext(ctx, q, userID, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]EnsembleRecord, 0)
    for rows.Next() {
        var rec EnsembleRecord
        if err := rows.Scan(&rec.ID, &rec.Name, &rec.LeaderID, &rec.CombinedBio,
            &rec.VerifiedGigCount, &rec.CreatedAt); err != nil {
            return nil, err
        }
        out = append(out, rec)
    }
    return out, rows.Err()
}

// IDsForUser returns the IDs of every ensemble a user belongs to.
func (r *EnsembleRepo) IDsForUser(ctx context.Context, userID uint64) ([]uint64, error) {
    const q = `SELECT DISTINCT e.id
               FROM ensembles e
               LEFT JOIN ensemble_members em ON em.ensemble_id = e.id
               WHERE e.leader_id = ? OR em.user_id = ?`
    rows, err := r.db.QueryContext(ctx, q, userID, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var ids []uint64
    for rows.Next() {
        var id uint64
        if err := rows.Scan(&id); err != nil {
            return nil, err
        }
        ids = append(ids, id)
    }
    return ids, rows.Err()
}

// Leader returns the leader user ID of an ensemble.
func (r *EnsembleRepo) Leader(ctx context.Context, id uint64) (uint64, error) {
    var leaderID uint64
    err := r.db.QueryRowContext(ctx, `SELECT leader_id FROM ensembles WHERE id = ?`, id).Scan(&leaderID)
    if errors.Is(err, sql.ErrNoRows) {
        return 0, ErrEnsembleNotFound
    }
    return leaderID, err
}

// Exists reports whether an ensemble exists.
func (r *EnsembleRepo) Exists(ctx context.Context, id uint64) (bool, error) {
    var n int
    if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM ensembles WHERE id = ?`, id).Scan(&n); err != nil {
        return false, err
    }
    return n > 0, nil
}

// Invite records a pending invite.  Duplicate invites and invites to
// existing members map to ErrConflict.
func (r *EnsembleRepo) Invite(ctx context.Context, ensembleID, userID uint64) error {
    var n int
    const memQ = `SELECT COUNT(1) FROM ensemble_members WHERE ensemble_id = ? AND user_id = ?`
    if err := r.db.QueryRowContext(ctx, memQ, ensembleID, userID).Scan(&n); err != nil {
        return err
    }
    if n > 0 {
        return ErrConflict
    }
    const q = `INSERT INTO ensemble_invites (ensemble_id, user_id) VALUES (?, ?)`
    if _, err := r.db.ExecContext(ctx, q, ensembleID, userID); err != nil {
        if strings.Contains(err.Error(), "Duplicate entry") {
            return ErrConflict
        }
        return err
    }
    return nil
}

// AcceptInvite promotes a pending invite to full membership in one
// transaction.  Returns ErrApplicationNotFound-style miss as ErrConflict
// when no invite exists.
func (r *EnsembleRepo) AcceptInvite(ctx context.Context, ensembleID, userID uint64) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    const del = `DELETE FROM ensemble_invites WHERE ensemble_id = ? AND user_id = ?`
    res, err := tx.ExecContext(ctx, del, ensembleID, userID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrConflict
    }
    const ins = `INSERT INTO ensemble_members (ensemble_id, user_id) VALUES (?, ?)`
    if _, err := tx.ExecContext(ctx, ins, ensembleID, userID); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// RemoveMember drops a member.  The leader cannot be removed.
func (r *EnsembleRepo) RemoveMember(ctx context.Context, ensembleID, userID uint64) error {
    leaderID, err := r.Leader(ctx, ensembleID)
    if err != nil {
        return err
    }
    if leaderID == userID {
        return ErrConflict
    }
    const q = `DELETE FROM ensemble_members WHERE ensemble_id = ? AND user_id = ?`
    _, err = r.db.ExecContext(ctx, q, ensembleID, userID)
    return err
}

// List returns every ensemble (admin view).
func (r *EnsembleRepo) List(ctx context.Context) ([]EnsembleRecord, error) {
    const q = `SELECT id, name, leader_id, combined_bio, verified_gig_count, created_at
               FROM ensembles ORDER BY created_at DESC`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]EnsembleRecord, 0)
    for rows.Next() {
        var rec EnsembleRecord
        if err := rows.Scan(&rec.ID, &rec.Name, &rec.LeaderID, &rec.CombinedBio,
            &rec.VerifiedGigCount, &rec.CreatedAt); err != nil {
            return nil, err
        }
        out = append(out, rec)
    }
    return out, rows.Err()
}

// ExistsTx checks ensemble existence inside a transaction.
func (r *EnsembleRepo) ExistsTx(ctx context.Context, tx *sql.Tx, id uint64) (bool, error) {
    var n int
    if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM ensembles WHERE id = ?`, id).Scan(&n); err != nil {
        return false, err
    }
    return n > 0, nil
}

// LeaderTx returns an ensemble's leader inside a transaction.
func (r *EnsembleRepo) LeaderTx(ctx context.Context, tx *sql.Tx, id uint64) (uint64, error) {
    var leaderID uint64
    err := tx.QueryRowContext(ctx, `SELECT leader_id FROM ensembles WHERE id = ?`, id).Scan(&leaderID)
    if errors.Is(err, sql.ErrNoRows) {
        return 0, ErrEnsembleNotFound
    }
    return leaderID, err
}

// IncrementVerifiedTx bumps the cached verified-gig counter; see the venue
// counterpart for the single-writer rule.
func (r *EnsembleRepo) IncrementVerifiedTx(ctx context.Context, tx *sql.Tx, id uint64) error {
    const q = `UPDATE ensembles SET verified_gig_count = verified_gig_count + 1 WHERE id = ?`
    _, err := tx.ExecContext(ctx, q, id)
    return err
}
