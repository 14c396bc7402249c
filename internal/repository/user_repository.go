package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"
    "time"

    "github.com/stagelink/stagelink/internal/model"
    "github.com/stagelink/stagelink/internal/utils"
)

// ErrEmailExists is returned by Create when the email is already taken.
var ErrEmailExists = errors.New("email already exists")

// ErrUserNotFound is returned when a user ID or email does not resolve.
var ErrUserNotFound = errors.New("user not found")

// UserRepo provides access to the users table.
type UserRepo struct {
    db *sql.DB
}

// NewUserRepo returns a UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// Create hashes the password and inserts a user.  Role must be one of the
// model.Role* constants; instrument and city may be empty.
func (r *UserRepo) Create(ctx context.Context, email, password, name, role, instrument, city string, bcryptCost int) (uint64, error) {
    hash, err := utils.HashPassword(password, bcryptCost)
    if err != nil {
        return 0, err
    }
    const q = `INSERT INTO users (email, password_hash, name, role, instrument, city, is_pro, is_active)
               VALUES (?, ?, ?, ?, ?, ?, FALSE, TRUE)`
    res, err := r.db.ExecContext(ctx, q, email, hash, name, role, instrument, city)
    if err != nil {
        if strings.Contains(err.Error(), "Duplicate entry") {
            return 0, ErrEmailExists
        }
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

const userCols = `id, email, password_hash, name, role, instrument, city, bio, is_pro, is_active, created_at, updated_at`

func scanUser(row rowScanner) (*model.User, error) {
    var u model.User
    var instrument, city, bio sql.NullString
    if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role,
        &instrument, &city, &bio, &u.IsPro, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
        return nil, err
    }
    u.Instrument = instrument.String
    u.City = city.String
    u.Bio = bio.String
    return &u, nil
}

// GetByEmail loads a user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
    u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE email = ?`, email))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrUserNotFound
    }
    return u, err
}

// GetByID loads a user by primary key.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
    u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE id = ?`, id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrUserNotFound
    }
    return u, err
}

// UpdateProfile overwrites the self-editable profile fields.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, name, instrument, city, bio string) error {
    const q = `UPDATE users SET name = ?, instrument = ?, city = ?, bio = ? WHERE id = ?`
    res, err := r.db.ExecContext(ctx, q, name, instrument, city, bio, id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    _ = n // zero rows is fine: the values may be unchanged
    return nil
}

// Search finds musicians by optional city and instrument filters.
func (r *UserRepo) Search(ctx context.Context, city, instrument string) ([]model.User, error) {
    q := `SELECT ` + userCols + ` FROM users WHERE role = 'musician' AND is_active = TRUE`
    args := []interface{}{}
    if city != "" {
        q += ` AND city LIKE ?`
        args = append(args, "%"+city+"%")
    }
    if instrument != "" {
        q += ` AND instrument LIKE ?`
        args = append(args, "%"+instrument+"%")
    }
    q += ` ORDER BY name ASC`
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.User, 0)
    for rows.Next() {
        u, err := scanUser(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *u)
    }
    return out, rows.Err()
}

// List returns users filtered by optional role and active flag (admin view).
func (r *UserRepo) List(ctx context.Context, role string, active *bool) ([]model.User, error) {
    q := `SELECT ` + userCols + ` FROM users WHERE 1=1`
    args := []interface{}{}
    if role != "" {
        q += ` AND role = ?`
        args = append(args, role)
    }
    if active != nil {
        q += ` AND is_active = ?`
        args = append(args, *active)
    }
    q += ` ORDER BY created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.User, 0)
    for rows.Next() {
        u, err := scanUser(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *u)
    }
    return out, rows.Err()
}

// ToggleActive flips the soft-disable flag and returns the new value.
func (r *UserRepo) ToggleActive(ctx context.Context, id uint64) (bool, error) {
    return r.toggleFlag(ctx, id, "is_active")
}

// TogglePro flips the subscription flag and returns the new value.
func (r *UserRepo) TogglePro(ctx context.Context, id uint64) (bool, error) {
    return r.toggleFlag(ctx, id, "is_pro")
}

func (r *UserRepo) toggleFlag(ctx context.Context, id uint64, col string) (bool, error) {
    // col is a compile-time constant at both call sites, never user input.
    res, err := r.db.ExecContext(ctx, `UPDATE users SET `+col+` = NOT `+col+` WHERE id = ?`, id)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    if n == 0 {
        return false, ErrUserNotFound
    }
    var v bool
    if err := r.db.QueryRowContext(ctx, `SELECT `+col+` FROM users WHERE id = ?`, id).Scan(&v); err != nil {
        return false, err
    }
    return v, nil
}

// Touch updates updated_at; used after profile writes that bypass UpdateProfile.
func (r *UserRepo) Touch(ctx context.Context, id uint64) error {
    _, err := r.db.ExecContext(ctx, `UPDATE users SET updated_at = ? WHERE id = ?`, time.Now().UTC(), id)
    return err
}
