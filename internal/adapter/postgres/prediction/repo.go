// Package prediction implements the result store for prediction summaries
// using PostgreSQL. Records are append-only.
package prediction

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	postgres "github.com/heartmarshall/objectdetect/internal/adapter/postgres"
	"github.com/heartmarshall/objectdetect/internal/domain"
)

const (
	tableName = "predictions"

	// DefaultListLimit is used when Filter.Limit is not positive.
	DefaultListLimit = 20
	// MaxListLimit caps Filter.Limit.
	MaxListLimit = 100
)

var columns = []string{
	"id", "chat_id", "original_img_path", "predicted_img_path", "labels", "predicted_at", "created_at",
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Filter narrows List results. A nil ChatID lists every chat.
type Filter struct {
	ChatID *int64
	Limit  int
}

// Repo provides prediction summary persistence backed by PostgreSQL.
type Repo struct {
	q postgres.Querier
}

// New creates a new prediction repository. q is usually a *pgxpool.Pool.
func New(q postgres.Querier) *Repo {
	return &Repo{q: q}
}

// row mirrors the predictions table.
type row struct {
	ID               uuid.UUID `db:"id"`
	ChatID           int64     `db:"chat_id"`
	OriginalImgPath  string    `db:"original_img_path"`
	PredictedImgPath string    `db:"predicted_img_path"`
	Labels           []byte    `db:"labels"`
	PredictedAt      time.Time `db:"predicted_at"`
	CreatedAt        time.Time `db:"created_at"`
}

// InsertOne stores s and returns its id.
func (r *Repo) InsertOne(ctx context.Context, s domain.PredictionSummary) (uuid.UUID, error) {
	if s.PredictionID == uuid.Nil {
		return uuid.Nil, domain.NewValidationError("prediction_id", "required")
	}

	labels := s.Labels
	if labels == nil {
		labels = []domain.DetectionLabel{}
	}
	labelsJSON, err := json.Marshal(labels)
	if err != nil {
		return uuid.Nil, fmt.Errorf("prediction %s marshal labels: %w", s.PredictionID, err)
	}

	query, args, err := psql.
		Insert(tableName).
		Columns("id", "chat_id", "original_img_path", "predicted_img_path", "labels", "predicted_at").
		Values(s.PredictionID, s.ChatID, s.OriginalImagePath, s.PredictedImagePath, string(labelsJSON), s.PredictedAt()).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return uuid.Nil, fmt.Errorf("build insert prediction: %w", err)
	}

	var id uuid.UUID
	if err := r.q.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return uuid.Nil, postgres.MapError(err, "prediction", s.PredictionID)
	}

	return id, nil
}

// GetByID returns the prediction with id or domain.ErrNotFound.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (domain.PredictionSummary, error) {
	query, args, err := psql.
		Select(columns...).
		From(tableName).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.PredictionSummary{}, fmt.Errorf("build get prediction: %w", err)
	}

	var rec row
	if err := pgxscan.Get(ctx, r.q, &rec, query, args...); err != nil {
		return domain.PredictionSummary{}, postgres.MapError(err, "prediction", id)
	}

	return toDomain(rec)
}

// List returns predictions newest first.
func (r *Repo) List(ctx context.Context, f Filter) ([]domain.PredictionSummary, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	b := psql.
		Select(columns...).
		From(tableName).
		OrderBy("predicted_at DESC", "id").
		Limit(uint64(limit))
	if f.ChatID != nil {
		b = b.Where(sq.Eq{"chat_id": *f.ChatID})
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list predictions: %w", err)
	}

	var rows []row
	if err := pgxscan.Select(ctx, r.q, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}

	out := make([]domain.PredictionSummary, 0, len(rows))
	for _, rec := range rows {
		s, err := toDomain(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func toDomain(rec row) (domain.PredictionSummary, error) {
	s := domain.PredictionSummary{
		PredictionID:       rec.ID,
		ChatID:             rec.ChatID,
		OriginalImagePath:  rec.OriginalImgPath,
		PredictedImagePath: rec.PredictedImgPath,
		Labels:             []domain.DetectionLabel{},
		Timestamp:          domain.EpochSeconds(rec.PredictedAt),
	}

	if len(rec.Labels) > 0 {
		if err := json.Unmarshal(rec.Labels, &s.Labels); err != nil {
			return domain.PredictionSummary{}, fmt.Errorf("prediction %s unmarshal labels: %w", rec.ID, err)
		}
	}

	return s, nil
}
