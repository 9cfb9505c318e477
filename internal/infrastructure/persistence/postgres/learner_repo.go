package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/lingo-hub/lingo-learning-backend/internal/domain/learner"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/level"
	"github.com/lingo-hub/lingo-learning-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEARNER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// LearnerRepository implements learner.Repository for PostgreSQL.
type LearnerRepository struct {
	conn *Connection
}

// NewLearnerRepository creates a new LearnerRepository.
func NewLearnerRepository(conn *Connection) *LearnerRepository {
	return &LearnerRepository{conn: conn}
}

const learnerColumns = `
	id, display_name, current_level, coins,
	subscription_status, subscription_plan,
	subscription_expires_at, subscription_activated_at,
	created_at, updated_at
`

// ─────────────────────────────────────────────────────────────────────────────
// CRUD Operations
// ─────────────────────────────────────────────────────────────────────────────

// Create creates a new learner.
func (r *LearnerRepository) Create(ctx context.Context, l *learner.Learner) error {
	query := `
		INSERT INTO learners (
			id, display_name, current_level, coins,
			subscription_status, subscription_plan,
			subscription_expires_at, subscription_activated_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.conn.Exec(ctx, query, learnerArgs(l)...)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrLearnerAlreadyExists
		}
		return fmt.Errorf("failed to create learner: %w", err)
	}

	return nil
}

// GetByID returns a learner by internal ID.
func (r *LearnerRepository) GetByID(ctx context.Context, id string) (*learner.Learner, error) {
	return getLearner(ctx, r.conn, id, false)
}

// Update updates a learner.
func (r *LearnerRepository) Update(ctx context.Context, l *learner.Learner) error {
	return updateLearner(ctx, r.conn, l)
}

// ─────────────────────────────────────────────────────────────────────────────
// Bulk Operations
// ─────────────────────────────────────────────────────────────────────────────

// GetAll returns all learners with pagination.
func (r *LearnerRepository) GetAll(ctx context.Context, opts learner.ListOptions) ([]*learner.Learner, error) {
	sortBy := "coins"
	switch opts.SortBy {
	case "coins", "created_at", "display_name":
		sortBy = opts.SortBy
	}
	direction := "ASC"
	if opts.SortDesc {
		direction = "DESC"
	}

	query := fmt.Sprintf(`
		SELECT %s FROM learners
		ORDER BY %s %s
		LIMIT $1 OFFSET $2
	`, learnerColumns, sortBy, direction)

	rows, err := r.conn.Query(ctx, query, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list learners: %w", err)
	}
	defer rows.Close()

	return scanLearners(rows)
}

// GetByIDs returns learners by a list of IDs.
func (r *LearnerRepository) GetByIDs(ctx context.Context, ids []string) ([]*learner.Learner, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM learners WHERE id = ANY($1)`, learnerColumns)

	rows, err := r.conn.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get learners by ids: %w", err)
	}
	defer rows.Close()

	return scanLearners(rows)
}

// Count returns the total number of learners.
func (r *LearnerRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM learners`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count learners: %w", err)
	}
	return count, nil
}

// TopByCoins returns the learners with the highest coin balances.
func (r *LearnerRepository) TopByCoins(ctx context.Context, limit int) ([]learner.CoinEntry, error) {
	query := `
		SELECT id, display_name, coins
		FROM learners
		ORDER BY coins DESC, created_at ASC
		LIMIT $1
	`

	rows, err := r.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query coin leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []learner.CoinEntry
	for rows.Next() {
		var e learner.CoinEntry
		var coins int
		if err := rows.Scan(&e.LearnerID, &e.DisplayName, &coins); err != nil {
			return nil, fmt.Errorf("failed to scan coin entry: %w", err)
		}
		e.Coins = learner.Coins(coins)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Existence Checks
// ─────────────────────────────────────────────────────────────────────────────

// Exists checks whether a learner exists.
func (r *LearnerRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM learners WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check learner existence: %w", err)
	}
	return exists, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Shared scan helpers
// These operate on a Querier so the transactional store reuses them
// against pgx.Tx with row locking.
// ─────────────────────────────────────────────────────────────────────────────

func getLearner(ctx context.Context, q Querier, id string, forUpdate bool) (*learner.Learner, error) {
	query := fmt.Sprintf(`SELECT %s FROM learners WHERE id = $1`, learnerColumns)
	if forUpdate {
		query += " FOR UPDATE"
	}

	l, err := scanLearner(q.QueryRow(ctx, query, id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrLearnerNotFound
		}
		return nil, fmt.Errorf("failed to get learner: %w", err)
	}
	return l, nil
}

func updateLearner(ctx context.Context, q Querier, l *learner.Learner) error {
	query := `
		UPDATE learners SET
			display_name = $1,
			current_level = $2,
			coins = $3,
			subscription_status = $4,
			subscription_plan = $5,
			subscription_expires_at = $6,
			subscription_activated_at = $7,
			updated_at = $8
		WHERE id = $9
	`

	var currentLevel *string
	if l.CurrentLevel != nil {
		s := l.CurrentLevel.String()
		currentLevel = &s
	}
	var activatedAt *time.Time
	if !l.Subscription.ActivatedAt.IsZero() {
		t := l.Subscription.ActivatedAt
		activatedAt = &t
	}

	result, err := q.Exec(ctx, query,
		l.DisplayName,
		currentLevel,
		int(l.Coins),
		string(l.Subscription.Status),
		string(l.Subscription.Plan),
		l.Subscription.ExpiresAt,
		activatedAt,
		time.Now().UTC(),
		l.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update learner: %w", err)
	}

	if result.RowsAffected() == 0 {
		return shared.ErrLearnerNotFound
	}

	return nil
}

func learnerArgs(l *learner.Learner) []interface{} {
	var currentLevel *string
	if l.CurrentLevel != nil {
		s := l.CurrentLevel.String()
		currentLevel = &s
	}
	var activatedAt *time.Time
	if !l.Subscription.ActivatedAt.IsZero() {
		t := l.Subscription.ActivatedAt
		activatedAt = &t
	}

	return []interface{}{
		l.ID,
		l.DisplayName,
		currentLevel,
		int(l.Coins),
		string(l.Subscription.Status),
		string(l.Subscription.Plan),
		l.Subscription.ExpiresAt,
		activatedAt,
		l.CreatedAt,
		l.UpdatedAt,
	}
}

func scanLearner(row pgx.Row) (*learner.Learner, error) {
	var (
		l            learner.Learner
		currentLevel *string
		coins        int
		status       string
		plan         string
		expiresAt    *time.Time
		activatedAt  *time.Time
	)

	err := row.Scan(
		&l.ID,
		&l.DisplayName,
		&currentLevel,
		&coins,
		&status,
		&plan,
		&expiresAt,
		&activatedAt,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if currentLevel != nil {
		lv := level.Level(*currentLevel)
		l.CurrentLevel = &lv
	}
	l.Coins = learner.Coins(coins)
	l.Subscription = learner.Subscription{
		Status:    learner.SubscriptionStatus(status),
		Plan:      learner.PlanName(plan),
		ExpiresAt: expiresAt,
	}
	if activatedAt != nil {
		l.Subscription.ActivatedAt = *activatedAt
	}

	return &l, nil
}

func scanLearners(rows pgx.Rows) ([]*learner.Learner, error) {
	var learners []*learner.Learner
	for rows.Next() {
		l, err := scanLearner(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan learner: %w", err)
		}
		learners = append(learners, l)
	}
	return learners, rows.Err()
}
