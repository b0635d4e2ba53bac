package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/dims-api/internal/models"
	appErrors "github.com/noah-isme/dims-api/pkg/errors"
)

// CircularSchema creates the communications table used by CircularRepository.
const CircularSchema = `CREATE TABLE IF NOT EXISTS circulars (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	category TEXT NOT NULL,
	priority TEXT NOT NULL,
	published_by_id TEXT NOT NULL,
	published_by TEXT NOT NULL,
	published_at TIMESTAMPTZ NOT NULL,
	acknowledged_by TEXT[] NOT NULL DEFAULT '{}',
	total_recipients INTEGER NOT NULL DEFAULT 0,
	attachments TEXT[] NOT NULL DEFAULT '{}',
	history JSONB NOT NULL DEFAULT '[]',
	target_roles TEXT[] NOT NULL DEFAULT '{}',
	target_user_ids TEXT[] NOT NULL DEFAULT '{}'
)`

const circularColumns = `id, title, content, category, priority, published_by_id, published_by, published_at,
acknowledged_by, total_recipients, attachments, history, target_roles, target_user_ids`

type circularRow struct {
	ID              string         `db:"id"`
	Title           string         `db:"title"`
	Content         string         `db:"content"`
	Category        string         `db:"category"`
	Priority        string         `db:"priority"`
	PublishedByID   string         `db:"published_by_id"`
	PublishedBy     string         `db:"published_by"`
	PublishedAt     time.Time      `db:"published_at"`
	AcknowledgedBy  pq.StringArray `db:"acknowledged_by"`
	TotalRecipients int            `db:"total_recipients"`
	Attachments     pq.StringArray `db:"attachments"`
	History         []byte         `db:"history"`
	TargetRoles     pq.StringArray `db:"target_roles"`
	TargetUserIDs   pq.StringArray `db:"target_user_ids"`
}

func (row circularRow) toModel() (models.Communication, error) {
	history := []models.HistoryEntry{}
	if len(row.History) > 0 {
		if err := json.Unmarshal(row.History, &history); err != nil {
			return models.Communication{}, fmt.Errorf("decode history of %s: %w", row.ID, err)
		}
	}
	roles := make([]models.UserRole, 0, len(row.TargetRoles))
	for _, r := range row.TargetRoles {
		roles = append(roles, models.UserRole(r))
	}
	return models.Communication{
		ID:              row.ID,
		Title:           row.Title,
		Content:         row.Content,
		Category:        models.CommunicationCategory(row.Category),
		Priority:        models.CommunicationPriority(row.Priority),
		PublishedByID:   row.PublishedByID,
		PublishedBy:     row.PublishedBy,
		PublishedAt:     row.PublishedAt.UTC(),
		AcknowledgedBy:  append([]string{}, row.AcknowledgedBy...),
		TotalRecipients: row.TotalRecipients,
		Attachments:     append([]string{}, row.Attachments...),
		History:         history,
		TargetRoles:     roles,
		TargetUserIDs:   append([]string{}, row.TargetUserIDs...),
	}, nil
}

// CircularRepository persists communications in PostgreSQL.
type CircularRepository struct {
	db *sqlx.DB
}

// NewCircularRepository creates the repository.
func NewCircularRepository(db *sqlx.DB) *CircularRepository {
	return &CircularRepository{db: db}
}

// List returns every communication.
func (r *CircularRepository) List(ctx context.Context) ([]models.Communication, error) {
	query := fmt.Sprintf("SELECT %s FROM circulars ORDER BY published_at DESC, id ASC", circularColumns)
	var rows []circularRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list circulars: %w", err)
	}
	out := make([]models.Communication, 0, len(rows))
	for _, row := range rows {
		item, err := row.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// Get returns a communication by id.
func (r *CircularRepository) Get(ctx context.Context, id string) (*models.Communication, error) {
	query := fmt.Sprintf("SELECT %s FROM circulars WHERE id = $1", circularColumns)
	var row circularRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, fmt.Errorf("get circular %s: %w", id, err)
	}
	item, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Create inserts a communication.
func (r *CircularRepository) Create(ctx context.Context, item models.Communication) (models.Communication, error) {
	args, err := circularArgs(item)
	if err != nil {
		return models.Communication{}, err
	}
	query := fmt.Sprintf(`INSERT INTO circulars (%s)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`, circularColumns)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return models.Communication{}, appErrors.Clone(appErrors.ErrConflict, "communication already exists")
		}
		return models.Communication{}, fmt.Errorf("create circular: %w", err)
	}
	return item.Clone(), nil
}

// Update replaces the communication matching item.ID.
func (r *CircularRepository) Update(ctx context.Context, item models.Communication) (models.Communication, error) {
	args, err := circularArgs(item)
	if err != nil {
		return models.Communication{}, err
	}
	const query = `UPDATE circulars SET title = $2, content = $3, category = $4, priority = $5, published_by_id = $6,
published_by = $7, published_at = $8, acknowledged_by = $9, total_recipients = $10, attachments = $11, history = $12,
target_roles = $13, target_user_ids = $14
WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return models.Communication{}, fmt.Errorf("update circular: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Communication{}, fmt.Errorf("update circular rows: %w", err)
	}
	if affected == 0 {
		return models.Communication{}, appErrors.ErrNotFound
	}
	return item.Clone(), nil
}

// AddAcknowledgement appends viewerID in a single conditional statement so
// concurrent calls for the same pair converge to one entry.
func (r *CircularRepository) AddAcknowledgement(ctx context.Context, id, viewerID string) (bool, error) {
	const query = `UPDATE circulars SET acknowledged_by = array_append(acknowledged_by, $2)
WHERE id = $1 AND NOT ($2 = ANY(acknowledged_by))`
	res, err := r.db.ExecContext(ctx, query, id, viewerID)
	if err != nil {
		return false, fmt.Errorf("acknowledge circular: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("acknowledge circular rows: %w", err)
	}
	if affected > 0 {
		return true, nil
	}

	var exists bool
	if err := r.db.GetContext(ctx, &exists, "SELECT EXISTS(SELECT 1 FROM circulars WHERE id = $1)", id); err != nil {
		return false, fmt.Errorf("check circular %s: %w", id, err)
	}
	if !exists {
		return false, appErrors.ErrNotFound
	}
	return false, nil
}

func circularArgs(item models.Communication) ([]interface{}, error) {
	history := item.History
	if history == nil {
		history = []models.HistoryEntry{}
	}
	encoded, err := json.Marshal(history)
	if err != nil {
		return nil, fmt.Errorf("encode history of %s: %w", item.ID, err)
	}
	roles := make([]string, 0, len(item.TargetRoles))
	for _, role := range item.TargetRoles {
		roles = append(roles, string(role))
	}
	return []interface{}{
		item.ID,
		item.Title,
		item.Content,
		string(item.Category),
		string(item.Priority),
		item.PublishedByID,
		item.PublishedBy,
		item.PublishedAt,
		pqStringArray(item.AcknowledgedBy),
		item.TotalRecipients,
		pqStringArray(item.Attachments),
		encoded,
		pqStringArray(roles),
		pqStringArray(item.TargetUserIDs),
	}, nil
}

// pqStringArray keeps nil slices out of NOT NULL array columns.
func pqStringArray(values []string) interface{} {
	if values == nil {
		values = []string{}
	}
	return pq.Array(values)
}
