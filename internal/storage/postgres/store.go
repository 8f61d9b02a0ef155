package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hongminglow/fintrack-be/internal/models"
	"github.com/hongminglow/fintrack-be/internal/storage"
)

// Ensure Store satisfies the storage interfaces at compile time.
var (
	_ storage.Store                 = (*Store)(nil)
	_ storage.AtomicFinanceReplacer = (*Store)(nil)
)

const uniqueViolation = "23505"

// Store provides Postgres-backed persistence for users, finances, expenses,
// credentials and onboarding markers.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store and runs migrations.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			firebase_uid TEXT UNIQUE NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			full_name TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS finances (
			id BIGSERIAL PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			monthly_income NUMERIC NOT NULL DEFAULT 0,
			total_savings NUMERIC NOT NULL DEFAULT 0
		);`,
		`ALTER TABLE finances
			ALTER COLUMN monthly_income TYPE NUMERIC,
			ALTER COLUMN total_savings TYPE NUMERIC;`,
		// Collapse duplicates left by interleaved two-phase replaces before
		// enforcing one row per user.
		`DELETE FROM finances a USING finances b WHERE a.user_id = b.user_id AND a.id < b.id;`,
		`CREATE UNIQUE INDEX IF NOT EXISTS finances_user_id_unique_idx ON finances (user_id);`,
		`CREATE TABLE IF NOT EXISTS expenses (
			id BIGSERIAL PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			category TEXT NOT NULL,
			amount NUMERIC NOT NULL DEFAULT 0
		);`,
		`ALTER TABLE expenses ALTER COLUMN amount TYPE NUMERIC;`,
		`CREATE INDEX IF NOT EXISTS expenses_user_id_idx ON expenses (user_id);`,
		`CREATE TABLE IF NOT EXISTS credentials (
			uid UUID PRIMARY KEY,
			email TEXT NOT NULL,
			display_name TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS credentials_email_unique_idx ON credentials (lower(email));`,
		`CREATE TABLE IF NOT EXISTS onboarding_markers (
			client_id TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

// FindUserByFirebaseUID fetches a user by external identity reference.
func (s *Store) FindUserByFirebaseUID(ctx context.Context, firebaseUID string) (models.User, error) {
	const query = `
	SELECT id, firebase_uid, email, full_name, created_at
	FROM users
	WHERE firebase_uid = $1;
	`
	var user models.User
	err := s.pool.QueryRow(ctx, query, firebaseUID).Scan(&user.ID, &user.FirebaseUID, &user.Email, &user.FullName, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const query = `
	INSERT INTO users (id, firebase_uid, email, full_name)
	VALUES ($1, $2, $3, $4)
	RETURNING id, firebase_uid, email, full_name, created_at;
	`
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	var created models.User
	err := s.pool.QueryRow(ctx, query, user.ID, user.FirebaseUID, user.Email, user.FullName).
		Scan(&created.ID, &created.FirebaseUID, &created.Email, &created.FullName, &created.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, err
	}
	return created, nil
}

// ListFinances returns every finance row owned by the user.
func (s *Store) ListFinances(ctx context.Context, userID uuid.UUID) ([]models.FinanceSnapshot, error) {
	const query = `
	SELECT user_id, monthly_income, total_savings
	FROM finances
	WHERE user_id = $1
	ORDER BY id;
	`
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.FinanceSnapshot
	for rows.Next() {
		var snap models.FinanceSnapshot
		if err := rows.Scan(&snap.UserID, &snap.MonthlyIncome, &snap.TotalSavings); err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// DeleteFinances removes every finance row owned by the user.
func (s *Store) DeleteFinances(ctx context.Context, userID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM finances WHERE user_id = $1;`, userID)
	return err
}

// InsertFinance inserts one finance row.
func (s *Store) InsertFinance(ctx context.Context, snapshot models.FinanceSnapshot) error {
	const query = `
	INSERT INTO finances (user_id, monthly_income, total_savings)
	VALUES ($1, $2, $3);
	`
	_, err := s.pool.Exec(ctx, query, snapshot.UserID, snapshot.MonthlyIncome, snapshot.TotalSavings)
	if isUniqueViolation(err) {
		return storage.ErrAlreadyExists
	}
	return err
}

// ReplaceFinance swaps the user's finance row as a single upsert keyed by owner.
func (s *Store) ReplaceFinance(ctx context.Context, snapshot models.FinanceSnapshot) error {
	const query = `
	INSERT INTO finances (user_id, monthly_income, total_savings)
	VALUES ($1, $2, $3)
	ON CONFLICT (user_id) DO UPDATE
	SET monthly_income = EXCLUDED.monthly_income, total_savings = EXCLUDED.total_savings;
	`
	_, err := s.pool.Exec(ctx, query, snapshot.UserID, snapshot.MonthlyIncome, snapshot.TotalSavings)
	return err
}

// ListExpenses returns the user's expense rows in insertion order.
func (s *Store) ListExpenses(ctx context.Context, userID uuid.UUID) ([]models.ExpenseRecord, error) {
	const query = `
	SELECT user_id, category, amount
	FROM expenses
	WHERE user_id = $1
	ORDER BY id;
	`
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ExpenseRecord
	for rows.Next() {
		var rec models.ExpenseRecord
		if err := rows.Scan(&rec.UserID, &rec.Category, &rec.Amount); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DeleteExpenses removes every expense row owned by the user.
func (s *Store) DeleteExpenses(ctx context.Context, userID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM expenses WHERE user_id = $1;`, userID)
	return err
}

// InsertExpenses bulk-inserts expense rows in one statement.
func (s *Store) InsertExpenses(ctx context.Context, records []models.ExpenseRecord) error {
	if len(records) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString(`INSERT INTO expenses (user_id, category, amount) VALUES `)
	args := make([]any, 0, len(records)*3)
	for i, rec := range records {
		if i > 0 {
			b.WriteString(", ")
		}
		n := i * 3
		fmt.Fprintf(&b, "($%d, $%d, $%d)", n+1, n+2, n+3)
		args = append(args, rec.UserID, rec.Category, rec.Amount)
	}
	_, err := s.pool.Exec(ctx, b.String(), args...)
	return err
}

// CreateCredential inserts a new email/password identity.
func (s *Store) CreateCredential(ctx context.Context, cred models.Credential) (models.Credential, error) {
	const query = `
	INSERT INTO credentials (uid, email, display_name, password_hash)
	VALUES ($1, $2, $3, $4)
	RETURNING uid, email, display_name, password_hash, created_at;
	`
	if cred.UID == uuid.Nil {
		cred.UID = uuid.New()
	}
	row := s.pool.QueryRow(ctx, query, cred.UID, cred.Email, cred.DisplayName, cred.PasswordHash)
	created, err := scanCredential(row)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Credential{}, storage.ErrAlreadyExists
		}
		return models.Credential{}, err
	}
	return created, nil
}

// FindCredentialByEmail fetches a credential by case-insensitive email.
func (s *Store) FindCredentialByEmail(ctx context.Context, email string) (models.Credential, error) {
	const query = `
	SELECT uid, email, display_name, password_hash, created_at
	FROM credentials
	WHERE lower(email) = lower($1);
	`
	return scanCredential(s.pool.QueryRow(ctx, query, email))
}

// FindCredentialByUID fetches a credential by identity UID.
func (s *Store) FindCredentialByUID(ctx context.Context, uid uuid.UUID) (models.Credential, error) {
	const query = `
	SELECT uid, email, display_name, password_hash, created_at
	FROM credentials
	WHERE uid = $1;
	`
	return scanCredential(s.pool.QueryRow(ctx, query, uid))
}

// UpdateCredentialEmail changes the sign-in email of an identity.
func (s *Store) UpdateCredentialEmail(ctx context.Context, uid uuid.UUID, email string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE credentials SET email = $1 WHERE uid = $2;`, email, uid)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// UpdateCredentialPassword stores a new password hash for an identity.
func (s *Store) UpdateCredentialPassword(ctx context.Context, uid uuid.UUID, passwordHash string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE credentials SET password_hash = $1 WHERE uid = $2;`, passwordHash, uid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetMarker reads an onboarding marker value.
func (s *Store) GetMarker(ctx context.Context, clientID string) (string, error) {
	var value string
	err := s.pool.QueryRow(ctx, `SELECT value FROM onboarding_markers WHERE client_id = $1;`, clientID).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", storage.ErrNotFound
		}
		return "", err
	}
	return value, nil
}

// SetMarker writes an onboarding marker value.
func (s *Store) SetMarker(ctx context.Context, clientID, value string) error {
	const query = `
	INSERT INTO onboarding_markers (client_id, value)
	VALUES ($1, $2)
	ON CONFLICT (client_id) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW();
	`
	_, err := s.pool.Exec(ctx, query, clientID, value)
	return err
}

func scanCredential(row pgx.Row) (models.Credential, error) {
	var cred models.Credential
	if err := row.Scan(&cred.UID, &cred.Email, &cred.DisplayName, &cred.PasswordHash, &cred.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Credential{}, storage.ErrNotFound
		}
		return models.Credential{}, err
	}
	return cred, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
