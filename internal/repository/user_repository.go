package repository

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "strings"

    "github.com/iliyamo/cleanhome-marketplace/internal/model"
    "github.com/iliyamo/cleanhome-marketplace/internal/utils"
)

// UserRepo persists client and provider accounts in the 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

// Create inserts a user and returns its ID. Providers start with an empty
// rating aggregate (0, 0.0) via column defaults.
func (r *UserRepo) Create(ctx context.Context, u *model.User, password string, cost int) (uint64, error) {
    u.Email = strings.ToLower(strings.TrimSpace(u.Email))
    hash, err := utils.HashPassword(password, cost)
    if err != nil {
        return 0, err
    }
    res, err := r.DB.ExecContext(ctx,
        "INSERT INTO users (email, password_hash, role, full_name, phone, city, specialties) VALUES (?,?,?,?,?,?,?)",
        u.Email, hash, u.Role, u.FullName, u.Phone, u.City, u.Specialties)
    if err != nil {
        if strings.Contains(strings.ToLower(err.Error()), "1062") {
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

const userColumns = "id,email,password_hash,role,full_name,phone,city,specialties,review_count,average_rating,is_active,created_at,updated_at"

func scanUser(row *sql.Row) (model.User, error) {
    var u model.User
    var specialties sql.NullString
    err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.FullName, &u.Phone,
        &u.City, &specialties, &u.ReviewCount, &u.AverageRating, &u.IsActive,
        &u.CreatedAt, &u.UpdatedAt)
    if err != nil {
        return model.User{}, err
    }
    if specialties.Valid {
        s := specialties.String
        u.Specialties = &s
    }
    return u, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
    email = strings.ToLower(strings.TrimSpace(email))
    return scanUser(r.DB.QueryRowContext(ctx,
        "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
    return scanUser(r.DB.QueryRowContext(ctx,
        "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// GetProviderSummary returns the public profile slice of a provider,
// including the stored rating aggregate. ErrNotFound when no provider
// account has that id.
func (r *UserRepo) GetProviderSummary(ctx context.Context, id uint64) (model.ProviderSummary, error) {
    var s model.ProviderSummary
    var specialties sql.NullString
    err := r.DB.QueryRowContext(ctx,
        "SELECT id,full_name,phone,city,specialties,review_count,average_rating FROM users WHERE id=? AND role=? LIMIT 1",
        id, model.RoleProvider).Scan(
        &s.ID, &s.FullName, &s.Phone, &s.City, &specialties, &s.ReviewCount, &s.AverageRating)
    if err == sql.ErrNoRows {
        return model.ProviderSummary{}, fmt.Errorf("%w: provider not found", ErrNotFound)
    }
    if err != nil {
        return model.ProviderSummary{}, err
    }
    if specialties.Valid {
        sp := specialties.String
        s.Specialties = &sp
    }
    return s, nil
}
