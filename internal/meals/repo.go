package meals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrMobileTaken is returned when another participant already uses the mobile.
	ErrMobileTaken = errors.New("mobile already registered")
	// ErrTokenTaken is returned when a generated token collides with an existing one.
	ErrTokenTaken = errors.New("token already issued")
	// ErrAdminExists is returned when the admin username is taken.
	ErrAdminExists = errors.New("admin already exists")
)

// Constraint names created by store.Migrate.
const (
	constraintMobile   = "participants_mobile_lower_key"
	constraintToken    = "participants_qr_code_key"
	constraintUsername = "admins_username_key"
)

const participantColumns = `id, name, email, mobile, team_name, qr_code, breakfast, lunch, dinner, created_at`

// Repository persists participants and admins in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// InsertParticipant writes a fully populated participant. Uniqueness of the
// lowercase mobile and of the token is enforced by the database.
func (r *Repository) InsertParticipant(ctx context.Context, p Participant) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO participants (id, name, email, mobile, team_name, qr_code, breakfast, lunch, dinner, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, p.ID, p.Name, p.Email, p.Mobile, p.TeamName, p.Token, p.Breakfast, p.Lunch, p.Dinner, p.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			switch pgErr.ConstraintName {
			case constraintToken:
				return ErrTokenTaken
			default:
				return ErrMobileTaken
			}
		}
		return fmt.Errorf("insert participant: %w", err)
	}
	return nil
}

// FindByToken returns nil, nil when no participant holds the token.
func (r *Repository) FindByToken(ctx context.Context, token string) (*Participant, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+participantColumns+` FROM participants WHERE qr_code = $1`, token)
	return scanOne(row, "find by token")
}

// FindByID returns nil, nil when the id is unknown.
func (r *Repository) FindByID(ctx context.Context, id string) (*Participant, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+participantColumns+` FROM participants WHERE id = $1`, id)
	return scanOne(row, "find by id")
}

// FindByNameAndTeam matches both fields case-insensitively. If bad data left
// several matches, the earliest created one is returned.
func (r *Repository) FindByNameAndTeam(ctx context.Context, name, teamName string) (*Participant, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+participantColumns+`
		FROM participants
		WHERE lower(name) = lower($1) AND lower(team_name) = lower($2)
		ORDER BY created_at ASC, id ASC
		LIMIT 1
	`, name, teamName)
	return scanOne(row, "find by name and team")
}

// ListAll returns every participant, newest first.
func (r *Repository) ListAll(ctx context.Context) ([]Participant, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+participantColumns+` FROM participants ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	res := make([]Participant, 0)
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.Mobile, &p.TeamName, &p.Token, &p.Breakfast, &p.Lunch, &p.Dinner, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		res = append(res, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return res, nil
}

// ExistingMobiles returns the lowercase mobile of every participant.
func (r *Repository) ExistingMobiles(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT lower(mobile) FROM participants`)
	if err != nil {
		return nil, fmt.Errorf("list mobiles: %w", err)
	}
	defer rows.Close()

	res := make(map[string]struct{})
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("scan mobile: %w", err)
		}
		res[m] = struct{}{}
	}
	return res, rows.Err()
}

// MarkServed flips the slot in a single conditional update. Exactly one of
// any number of concurrent callers sees the row change.
func (r *Repository) MarkServed(ctx context.Context, participantID string, slot MealSlot) (Outcome, error) {
	column, err := slotColumn(slot)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE participants SET `+column+` = TRUE WHERE id = $1 AND `+column+` = FALSE`,
		participantID)
	if err != nil {
		return 0, fmt.Errorf("mark %s: %w", slot, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark %s: %w", slot, err)
	}
	if n == 1 {
		return OutcomeMarked, nil
	}

	// Nothing changed: either already true or no such row. Rows are never
	// deleted and meals never reset, so this probe cannot race into a wrong answer.
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM participants WHERE id = $1)`, participantID).Scan(&exists); err != nil {
		return 0, fmt.Errorf("probe participant: %w", err)
	}
	if !exists {
		return OutcomeParticipantNotFound, nil
	}
	return OutcomeAlreadyServed, nil
}

// Stats counts the whole table in one pass.
func (r *Repository) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE breakfast),
		       COUNT(*) FILTER (WHERE lunch),
		       COUNT(*) FILTER (WHERE dinner)
		FROM participants
	`).Scan(&s.Total, &s.Breakfast, &s.Lunch, &s.Dinner)
	if err != nil {
		return Stats{}, fmt.Errorf("compute stats: %w", err)
	}
	return s, nil
}

// FindAdmin returns nil, nil for an unknown username.
func (r *Repository) FindAdmin(ctx context.Context, username string) (*Admin, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, username, password_hash, created_at FROM admins WHERE username = $1`, username)
	var a Admin
	if err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find admin: %w", err)
	}
	return &a, nil
}

// CreateAdmin inserts an admin with an already hashed password.
func (r *Repository) CreateAdmin(ctx context.Context, a Admin) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO admins (id, username, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`, a.ID, a.Username, a.PasswordHash, a.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAdminExists
		}
		return fmt.Errorf("insert admin: %w", err)
	}
	return nil
}

// Ping reports whether the database answers.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func scanOne(row *sql.Row, op string) (*Participant, error) {
	var p Participant
	if err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Mobile, &p.TeamName, &p.Token, &p.Breakfast, &p.Lunch, &p.Dinner, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &p, nil
}

// slotColumn maps a slot to its column; the result is interpolated into SQL,
// so only these literals may ever be returned.
func slotColumn(slot MealSlot) (string, error) {
	switch slot {
	case Breakfast:
		return "breakfast", nil
	case Lunch:
		return "lunch", nil
	case Dinner:
		return "dinner", nil
	}
	return "", fmt.Errorf("unknown meal slot %q", slot)
}
