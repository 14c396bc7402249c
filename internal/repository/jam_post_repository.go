package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"
)

// ErrJamPostNotFound is returned when a jam post ID does not resolve.
var ErrJamPostNotFound = errors.New("jam post not found")

// JamPostRepo stores "looking for musicians" board entries.
type JamPostRepo struct {
    db *sql.DB
}

// NewJamPostRepo returns a JamPostRepo bound to the given database.
func NewJamPostRepo(db *sql.DB) *JamPostRepo { return &JamPostRepo{db: db} }

// JamPostDetail is a post joined with its author summary.
type JamPostDetail struct {
    ID                uint64 `json:"id"`
    AuthorID          uint64 `json:"author_id"`
    AuthorName        string `json:"author_name"`
    Title             string `json:"title"`
    Description       string `json:"description"`
    Location          string `json:"location"`
    InstrumentsNeeded string `json:"instruments_needed"`
    IsOpen            bool   `json:"is_open"`
    CreatedAt         string `json:"created_at"`
}

// Create inserts an open post and returns its ID.
func (r *JamPostRepo) Create(ctx context.Context, authorID uint64, title, description, location, instruments string) (uint64, error) {
    const q = `INSERT INTO jam_posts (author_id, title, description, location, instruments_needed, is_open)
               VALUES (?, ?, ?, ?, ?, TRUE)`
    res, err := r.db.ExecContext(ctx, q, authorID, title, description, location, instruments)
    if err != nil {
        return 0, err
    }
    id, err := res.LastInsertId()
    return uint64(id), err
}

const jamCols = `j.id, j.author_id, u.name, j.title, j.description, j.location, j.instruments_needed, j.is_open, j.created_at`

func scanJamPost(row rowScanner) (*JamPostDetail, error) {
    var d JamPostDetail
    var created time.Time
    if err := row.Scan(&d.ID, &d.AuthorID, &d.AuthorName, &d.Title, &d.Description,
        &d.Location, &d.InstrumentsNeeded, &d.IsOpen, &created); err != nil {
        return nil, err
    }
    d.CreatedAt = created.UTC().Format(time.RFC3339)
    return &d, nil
}

// ListOpen returns open posts, optionally filtered by location substring.
func (r *JamPostRepo) ListOpen(ctx context.Context, location string) ([]JamPostDetail, error) {
    q := `SELECT ` + jamCols + ` FROM jam_posts j JOIN users u ON u.id = j.author_id WHERE j.is_open = TRUE`
    args := []interface{}{}
    if location != "" {
        q += ` AND j.location LIKE ?`
        args = append(args, "%"+location+"%")
    }
    q += ` ORDER BY j.created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]JamPostDetail, 0)
    for rows.Next() {
        d, err := scanJamPost(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *d)
    }
    return out, rows.Err()
}

// GetByID loads one post.
func (r *JamPostRepo) GetByID(ctx context.Context, id uint64) (*JamPostDetail, error) {
    q := `SELECT ` + jamCols + ` FROM jam_posts j JOIN users u ON u.id = j.author_id WHERE j.id = ?`
    d, err := scanJamPost(r.db.QueryRowContext(ctx, q, id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrJamPostNotFound
    }
    return d, err
}

// Delete removes a post owned by userID; other authors get ErrForbidden.
func (r *JamPostRepo) Delete(ctx context.Context, id, userID uint64) error {
    var authorID uint64
    err := r.db.QueryRowContext(ctx, `SELECT author_id FROM jam_posts WHERE id = ?`, id).Scan(&authorID)
    if errors.Is(err, sql.ErrNoRows) {
        return ErrJamPostNotFound
    }
    if err != nil {
        return err
    }
    if authorID != userID {
        return ErrForbidden
    }
    _, err = r.db.ExecContext(ctx, `DELETE FROM jam_posts WHERE id = ?`, id)
    return err
}
