package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/contribhq/contribd/contrib"
)

// Store implements contrib.Store on top of Postgres. Mutations guard the
// pending-only invariant inside the statement itself so concurrent reviews
// and chat edits cannot interleave.
type Store struct {
	DB *sql.DB
}

// NewStore wraps an open database handle.
func NewStore(db *sql.DB) *Store { return &Store{DB: db} }

var _ contrib.Store = (*Store)(nil)

const contributionColumns = `id, username, filename, line_number, code, status, created_at`

func scanContribution(row interface{ Scan(...any) error }) (*contrib.Contribution, error) {
	var c contrib.Contribution
	var line sql.NullInt64
	if err := row.Scan(&c.ID, &c.Username, &c.Filename, &line, &c.Code, &c.Status, &c.CreatedAt); err != nil {
		return nil, err
	}
	if line.Valid {
		n := int(line.Int64)
		c.LineNumber = &n
	}
	return &c, nil
}

func (s *Store) queryContributions(ctx context.Context, q string, args ...any) ([]contrib.Contribution, error) {
	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []contrib.Contribution
	for rows.Next() {
		c, err := scanContribution(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (s *Store) CreateContribution(ctx context.Context, username, filename string, lineNumber *int, code, codeHash string) (int64, error) {
	var id int64
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO contributions (username, filename, line_number, code, code_hash, status)
		 VALUES ($1, $2, $3, $4, $5, 'pending') RETURNING id`,
		username, filename, lineNumber, code, codeHash).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create contribution: %w", err)
	}
	return id, nil
}

func (s *Store) GetContribution(ctx context.Context, id int64) (*contrib.Contribution, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+contributionColumns+` FROM contributions WHERE id = $1`, id)
	c, err := scanContribution(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get contribution: %w", err)
	}
	return c, nil
}

func (s *Store) GetUserContributions(ctx context.Context, username string, limit int) ([]contrib.Contribution, error) {
	return s.queryContributions(ctx,
		`SELECT `+contributionColumns+` FROM contributions
		 WHERE username = $1 ORDER BY created_at DESC, id DESC LIMIT $2`,
		username, limit)
}

func (s *Store) GetFileContributions(ctx context.Context, filename string, limit int) ([]contrib.Contribution, error) {
	return s.queryContributions(ctx,
		`SELECT `+contributionColumns+` FROM contributions
		 WHERE filename = $1 ORDER BY created_at DESC, id DESC LIMIT $2`,
		filename, limit)
}

func (s *Store) ListContributions(ctx context.Context, status contrib.Status, limit, offset int) ([]contrib.Contribution, error) {
	if status == "" {
		return s.queryContributions(ctx,
			`SELECT `+contributionColumns+` FROM contributions
			 ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`,
			limit, offset)
	}
	return s.queryContributions(ctx,
		`SELECT `+contributionColumns+` FROM contributions
		 WHERE status = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
		status, limit, offset)
}

func (s *Store) ContributionsSince(ctx context.Context, sinceID int64, limit int) ([]contrib.Contribution, error) {
	return s.queryContributions(ctx,
		`SELECT `+contributionColumns+` FROM contributions
		 WHERE id > $1 ORDER BY id ASC LIMIT $2`,
		sinceID, limit)
}

func (s *Store) UpdateCode(ctx context.Context, id int64, code, codeHash string) error {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE contributions SET code = $2, code_hash = $3, updated_at = NOW()
		 WHERE id = $1 AND status = 'pending'`,
		id, code, codeHash)
	if err != nil {
		return fmt.Errorf("update code: %w", err)
	}
	return pendingGuard(res)
}

func (s *Store) DeleteContribution(ctx context.Context, id int64) error {
	res, err := s.DB.ExecContext(ctx,
		`DELETE FROM contributions WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return fmt.Errorf("delete contribution: %w", err)
	}
	return pendingGuard(res)
}

func (s *Store) UpdateStatus(ctx context.Context, id int64, status contrib.Status) error {
	if !status.Valid() || status == contrib.StatusPending {
		return fmt.Errorf("invalid target status %q", status)
	}
	res, err := s.DB.ExecContext(ctx,
		`UPDATE contributions SET status = $2, updated_at = NOW()
		 WHERE id = $1 AND status = 'pending'`,
		id, status)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return pendingGuard(res)
}

// pendingGuard maps a zero-row mutation to ErrNotPending.
func pendingGuard(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return contrib.ErrNotPending
	}
	return nil
}

// CheckConflicts classifies a prospective submission in a single round trip.
// The personal-duplicate window is passed in seconds; zero means the lookback
// is unbounded.
func (s *Store) CheckConflicts(ctx context.Context, q contrib.ConflictQuery) (contrib.ConflictReport, error) {
	var report contrib.ConflictReport
	windowSeconds := int64(q.DupWindow.Seconds())
	err := s.DB.QueryRowContext(ctx, `
		SELECT
			EXISTS (
				SELECT 1 FROM contributions
				WHERE username = $1 AND filename = $2 AND code_hash = $3
				  AND ($4::bigint = 0 OR created_at > NOW() - ($4::bigint * INTERVAL '1 second'))
			),
			EXISTS (
				SELECT 1 FROM contributions
				WHERE filename = $2 AND code_hash = $3 AND status = 'accepted'
			),
			EXISTS (
				SELECT 1 FROM contributions
				WHERE filename = $2 AND line_number = $5 AND username <> $1 AND status = 'pending'
			)`,
		q.Username, q.Filename, q.CodeHash, windowSeconds, q.LineNumber,
	).Scan(&report.PersonalDuplicate, &report.AcceptedDuplicate, &report.LineConflict)
	if err != nil {
		return contrib.ConflictReport{}, fmt.Errorf("check conflicts: %w", err)
	}
	return report, nil
}

// GetSettings reads the singleton settings row, inserting the defaults on
// first access.
func (s *Store) GetSettings(ctx context.Context) (contrib.Settings, error) {
	var st contrib.Settings
	err := s.DB.QueryRowContext(ctx,
		`SELECT welcome_message, show_rejected, use_huh_mode FROM settings WHERE id = 1`,
	).Scan(&st.WelcomeMessage, &st.ShowRejected, &st.UseHuhMode)
	if err == sql.ErrNoRows {
		st = contrib.DefaultSettings()
		_, insErr := s.DB.ExecContext(ctx,
			`INSERT INTO settings (id, welcome_message, show_rejected, use_huh_mode)
			 VALUES (1, $1, $2, $3) ON CONFLICT (id) DO NOTHING`,
			st.WelcomeMessage, st.ShowRejected, st.UseHuhMode)
		if insErr != nil {
			return contrib.Settings{}, fmt.Errorf("seed settings: %w", insErr)
		}
		return st, nil
	}
	if err != nil {
		return contrib.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	return st, nil
}

func (s *Store) UpdateSettings(ctx context.Context, st contrib.Settings) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO settings (id, welcome_message, show_rejected, use_huh_mode, updated_at)
		 VALUES (1, $1, $2, $3, NOW())
		 ON CONFLICT (id) DO UPDATE SET
		   welcome_message = EXCLUDED.welcome_message,
		   show_rejected = EXCLUDED.show_rejected,
		   use_huh_mode = EXCLUDED.use_huh_mode,
		   updated_at = NOW()`,
		st.WelcomeMessage, st.ShowRejected, st.UseHuhMode)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return nil
}

// CountPending returns the number of pending contributions, feeding the
// pending gauge and the dashboard status payload.
func (s *Store) CountPending(ctx context.Context) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM contributions WHERE status = 'pending'`).Scan(&n)
	return n, err
}
