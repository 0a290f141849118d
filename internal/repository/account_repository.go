package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ShaheerAzam/backend/internal/models"
)

// AccountRepository provides access to admin, tutor and student accounts.
// Account provisioning lives outside this service; the core looks accounts
// up and rotates credentials.
type AccountRepository struct {
	db *sqlx.DB
}

// NewAccountRepository constructs an AccountRepository.
func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// FindAdminByID fetches an admin account by ID.
func (r *AccountRepository) FindAdminByID(ctx context.Context, id string) (*models.Admin, error) {
	const query = `SELECT id, full_name, email, password_hash, created_at, updated_at FROM admins WHERE id = $1`
	var admin models.Admin
	if err := r.db.GetContext(ctx, &admin, query, id); err != nil {
		return nil, err
	}
	return &admin, nil
}

// FindAdminByEmail fetches an admin account by email.
func (r *AccountRepository) FindAdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	const query = `SELECT id, full_name, email, password_hash, created_at, updated_at FROM admins WHERE LOWER(email) = LOWER($1)`
	var admin models.Admin
	if err := r.db.GetContext(ctx, &admin, query, email); err != nil {
		return nil, err
	}
	return &admin, nil
}

// FindTutorByID fetches a tutor account by ID.
func (r *AccountRepository) FindTutorByID(ctx context.Context, id string) (*models.Tutor, error) {
	const query = `SELECT id, full_name, email, phone_number, hourly_rate, password_hash, created_at, updated_at FROM tutors WHERE id = $1`
	var tutor models.Tutor
	if err := r.db.GetContext(ctx, &tutor, query, id); err != nil {
		return nil, err
	}
	return &tutor, nil
}

// FindTutorByEmail fetches a tutor account by email.
func (r *AccountRepository) FindTutorByEmail(ctx context.Context, email string) (*models.Tutor, error) {
	const query = `SELECT id, full_name, email, phone_number, hourly_rate, password_hash, created_at, updated_at FROM tutors WHERE LOWER(email) = LOWER($1)`
	var tutor models.Tutor
	if err := r.db.GetContext(ctx, &tutor, query, email); err != nil {
		return nil, err
	}
	return &tutor, nil
}

// ListTutors returns all tutor accounts ordered by name.
func (r *AccountRepository) ListTutors(ctx context.Context) ([]models.Tutor, error) {
	const query = `SELECT id, full_name, email, phone_number, hourly_rate, password_hash, created_at, updated_at FROM tutors ORDER BY full_name ASC`
	var tutors []models.Tutor
	if err := r.db.SelectContext(ctx, &tutors, query); err != nil {
		return nil, err
	}
	return tutors, nil
}

// FindStudentByID fetches a student account by ID.
func (r *AccountRepository) FindStudentByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, full_name, email, phone_number, password_hash, created_at, updated_at FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// UpdatePassword replaces the password hash for the account with the given
// role and ID.
func (r *AccountRepository) UpdatePassword(ctx context.Context, role models.UserRole, id, passwordHash string, updatedAt time.Time) error {
	var table string
	switch role {
	case models.RoleAdmin:
		table = "admins"
	case models.RoleTutor:
		table = "tutors"
	case models.RoleStudent:
		table = "students"
	default:
		return fmt.Errorf("unknown role %q", role)
	}

	query := fmt.Sprintf(`UPDATE %s SET password_hash = $1, updated_at = $2 WHERE id = $3`, table)
	result, err := r.db.ExecContext(ctx, query, passwordHash, updatedAt, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindStudentByEmail fetches a student account by email.
func (r *AccountRepository) FindStudentByEmail(ctx context.Context, email string) (*models.Student, error) {
	const query = `SELECT id, full_name, email, phone_number, password_hash, created_at, updated_at FROM students WHERE LOWER(email) = LOWER($1)`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, email); err != nil {
		return nil, err
	}
	return &student, nil
}
