package testhelper

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/objectdetect/internal/domain"
)

// UniqueChatID returns a random positive chat id so parallel tests
// sharing one database do not see each other's rows.
func UniqueChatID() int64 {
	return rand.Int64N(1<<40) + 1
}

// SeedPrediction inserts a prediction with one label for chatID.
func SeedPrediction(t *testing.T, pool *pgxpool.Pool, chatID int64) domain.PredictionSummary {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	s := domain.PredictionSummary{
		PredictionID:       uuid.New(),
		ChatID:             chatID,
		OriginalImagePath:  "file_" + uuid.New().String()[:8] + ".jpg",
		PredictedImagePath: "",
		Labels:             []domain.DetectionLabel{{Class: "person", CenterX: 0.5, CenterY: 0.5, Width: 0.1, Height: 0.1}},
		Timestamp:          domain.EpochSeconds(now),
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO predictions (id, chat_id, original_img_path, predicted_img_path, labels, predicted_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		s.PredictionID, s.ChatID, s.OriginalImagePath, s.PredictedImagePath,
		`[{"class":"person","cx":0.5,"cy":0.5,"width":0.1,"height":0.1}]`, now,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedPrediction insert: %v", err)
	}

	return s
}
