package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"residency/internal/onboarding/models"
	id "residency/pkg/domain"
	"residency/pkg/platform/sentinel"
)

// PostgresStore persists sessions in PostgreSQL. The aggregate is stored as
// jsonb; email, step, version and timestamps are mirrored into columns for
// the uniqueness index, the CAS predicate and the inactivity scan.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed session store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, session *models.ApplicantSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	query := `
		INSERT INTO applicant_sessions (id, email, current_step, version, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(session.ID),
		normalizeEmail(session.Profile.Email),
		string(session.CurrentStep),
		session.Version,
		data,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create session: %w", sentinel.ErrDuplicate)
		}
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, sessionID id.SessionID) (*models.ApplicantSession, error) {
	query := `SELECT version, data FROM applicant_sessions WHERE id = $1`
	session, err := scanSession(s.db.QueryRowContext(ctx, query, uuid.UUID(sessionID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	return session, nil
}

// CompareAndSwap writes session if the stored version is expectedVersion.
func (s *PostgresStore) CompareAndSwap(ctx context.Context, session *models.ApplicantSession, expectedVersion int64) error {
	next := *session
	next.Version = expectedVersion + 1
	data, err := json.Marshal(&next)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	query := `
		UPDATE applicant_sessions
		SET email = $3, current_step = $4, version = $5, data = $6, updated_at = $7
		WHERE id = $1 AND version = $2
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(session.ID),
		expectedVersion,
		normalizeEmail(session.Profile.Email),
		string(session.CurrentStep),
		next.Version,
		data,
		session.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("update session: %w", sentinel.ErrDuplicate)
		}
		return fmt.Errorf("update session: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session rows affected: %w", err)
	}
	if rows == 0 {
		var exists bool
		err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM applicant_sessions WHERE id = $1)`, uuid.UUID(session.ID)).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check session exists: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrConflict
	}
	session.Version = next.Version
	return nil
}

func (s *PostgresStore) FindActiveByEmail(ctx context.Context, email string) (*models.ApplicantSession, error) {
	query := `
		SELECT version, data FROM applicant_sessions
		WHERE email = $1 AND current_step <> ALL($2)
	`
	session, err := scanSession(s.db.QueryRowContext(ctx, query, normalizeEmail(email), models.TerminalSteps()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find session by email: %w", err)
	}
	return session, nil
}

func (s *PostgresStore) ListInactive(ctx context.Context, cutoff time.Time, limit int) ([]*models.ApplicantSession, error) {
	query := `
		SELECT version, data FROM applicant_sessions
		WHERE updated_at < $1 AND current_step <> ALL($2)
		ORDER BY updated_at
		LIMIT $3
	`
	rows, err := s.db.QueryContext(ctx, query, cutoff, models.TerminalSteps(), limitOrDefault(limit))
	if err != nil {
		return nil, fmt.Errorf("list inactive sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.ApplicantSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.ApplicantSession, error) {
	var version int64
	var data []byte
	if err := row.Scan(&version, &data); err != nil {
		return nil, err
	}
	var session models.ApplicantSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	session.Version = version
	return &session, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
