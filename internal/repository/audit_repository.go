package repository

import (
	"context"
	"time"

	"github.com/lib/pq"
	"github.com/vaidashi/catering-api/internal/database"
	"github.com/vaidashi/catering-api/internal/models"
	"github.com/vaidashi/catering-api/pkg/logger"
)

// AuditFilter narrows an audit log listing. Zero values match everything.
type AuditFilter struct {
	Kinds      []models.EntityKind
	EntityID   string
	ActingRole string
	From       time.Time
	To         time.Time
	ListOptions
}

// AuditRepository persists transition events received from the lifecycle stream
type AuditRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewAuditRepository creates a new AuditRepository
func NewAuditRepository(db *database.Database, logger logger.Logger) *AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores an entry. Replays of an already recorded event are ignored and reported as false.
func (r *AuditRepository) Create(ctx context.Context, entry *models.AuditEntry) (bool, error) {
	query := `
		INSERT INTO audit_log (
			event_id, entity_kind, entity_id, from_status, to_status, acting_role, occurred_at, recorded_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
		ON CONFLICT (event_id) DO NOTHING
		RETURNING id
	`

	rows, err := r.db.DB.QueryxContext(
		ctx,
		query,
		entry.EventID,
		entry.EntityKind,
		entry.EntityID,
		entry.FromStatus,
		entry.ToStatus,
		entry.ActingRole,
		entry.OccurredAt,
		entry.RecordedAt,
	)

	if err != nil {
		r.logger.Error("Failed to record audit entry", "error", err, "eventID", entry.EventID)
		return false, wrapDBError(err)
	}
	defer rows.Close()

	if !rows.Next() {
		return false, wrapRowsErr(rows.Err())
	}

	if err := rows.Scan(&entry.ID); err != nil {
		return false, wrapDBError(err)
	}

	return true, nil
}

// List returns entries newest first
func (r *AuditRepository) List(ctx context.Context, filter AuditFilter) ([]*models.AuditEntry, error) {
	page := filter.ListOptions.normalized()

	kinds := make([]string, len(filter.Kinds))
	for i, k := range filter.Kinds {
		kinds[i] = string(k)
	}

	query := `
		SELECT id, event_id, entity_kind, entity_id, from_status, to_status, acting_role, occurred_at, recorded_at
		FROM audit_log
		WHERE (cardinality($1::text[]) = 0 OR entity_kind = ANY($1::text[]))
			AND ($2 = '' OR entity_id = $2)
			AND ($3 = '' OR acting_role = $3)
			AND ($4::timestamptz IS NULL OR occurred_at >= $4::timestamptz)
			AND ($5::timestamptz IS NULL OR occurred_at <= $5::timestamptz)
		ORDER BY occurred_at DESC, id DESC
		LIMIT $6 OFFSET $7
	`

	entries := []*models.AuditEntry{}

	err := r.db.DB.SelectContext(
		ctx,
		&entries,
		query,
		pq.Array(kinds),
		filter.EntityID,
		filter.ActingRole,
		nullableTime(filter.From),
		nullableTime(filter.To),
		page.Limit,
		page.Offset,
	)

	if err != nil {
		r.logger.Error("Failed to list audit entries", "error", err)
		return nil, wrapDBError(err)
	}

	return entries, nil
}

func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

func wrapRowsErr(err error) error {
	if err == nil {
		return nil
	}
	return wrapDBError(err)
}
