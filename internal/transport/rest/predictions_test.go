package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/objectdetect/internal/adapter/postgres/prediction"
	"github.com/heartmarshall/objectdetect/internal/domain"
)

func newPredictionServer(repo predictionReader) http.Handler {
	h := NewPredictionHandler(repo, discardLogger())
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/predictions", h.List)
	mux.HandleFunc("GET /api/predictions/{id}", h.Get)
	return mux
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func sampleSummary() domain.PredictionSummary {
	return domain.PredictionSummary{
		PredictionID:       uuid.MustParse("6f1c2a0e-4a5b-4c1d-9e8f-0a1b2c3d4e5f"),
		ChatID:             42,
		OriginalImagePath:  "file_12.jpg",
		PredictedImagePath: "file_12_predicted.jpg",
		Labels: []domain.DetectionLabel{
			{Class: "person", CenterX: 0.5, CenterY: 0.5, Width: 0.2, Height: 0.4},
		},
		Timestamp: 1700000000.5,
	}
}

func TestPredictions_Get(t *testing.T) {
	t.Parallel()

	want := sampleSummary()
	repo := &predictionReaderMock{
		GetByIDFunc: func(_ context.Context, id uuid.UUID) (domain.PredictionSummary, error) {
			if id != want.PredictionID {
				return domain.PredictionSummary{}, domain.ErrNotFound
			}
			return want, nil
		},
	}

	rec := get(newPredictionServer(repo), "/api/predictions/"+want.PredictionID.String())
	require.Equal(t, http.StatusOK, rec.Code)

	var got predictionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, want.PredictionID.String(), got.ID)
	assert.Equal(t, int64(42), got.ChatID)
	assert.Equal(t, "file_12_predicted.jpg", got.PredictedImagePath)
	assert.Equal(t, want.Labels, got.Labels)
	assert.InDelta(t, want.Timestamp, got.Time, 1e-6)
	assert.True(t, want.PredictedAt().Equal(got.PredictedAt))
}

func TestPredictions_GetErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		path   string
		err    error
		status int
	}{
		{name: "bad id", path: "/api/predictions/not-a-uuid", status: http.StatusBadRequest},
		{name: "not found", path: "/api/predictions/" + uuid.NewString(), err: domain.ErrNotFound, status: http.StatusNotFound},
		{name: "db error", path: "/api/predictions/" + uuid.NewString(), err: errors.New("conn reset"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := &predictionReaderMock{
				GetByIDFunc: func(context.Context, uuid.UUID) (domain.PredictionSummary, error) {
					return domain.PredictionSummary{}, tt.err
				},
			}
			rec := get(newPredictionServer(repo), tt.path)
			assert.Equal(t, tt.status, rec.Code)

			var body map[string]string
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.NotEmpty(t, body["error"])
			assert.NotContains(t, body["error"], "conn reset")
		})
	}
}

func TestPredictions_List(t *testing.T) {
	t.Parallel()

	repo := &predictionReaderMock{
		ListFunc: func(context.Context, prediction.Filter) ([]domain.PredictionSummary, error) {
			s := sampleSummary()
			s.Labels = nil
			return []domain.PredictionSummary{s}, nil
		},
	}

	rec := get(newPredictionServer(repo), "/api/predictions?chat_id=42&limit=5")
	require.Equal(t, http.StatusOK, rec.Code)

	calls := repo.ListCalls()
	require.Len(t, calls, 1)
	require.NotNil(t, calls[0].F.ChatID)
	assert.Equal(t, int64(42), *calls[0].F.ChatID)
	assert.Equal(t, 5, calls[0].F.Limit)

	var got []predictionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.NotNil(t, got[0].Labels)
	assert.Empty(t, got[0].Labels)
}

func TestPredictions_ListAllChats(t *testing.T) {
	t.Parallel()

	repo := &predictionReaderMock{
		ListFunc: func(context.Context, prediction.Filter) ([]domain.PredictionSummary, error) {
			return nil, nil
		},
	}

	rec := get(newPredictionServer(repo), "/api/predictions")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	calls := repo.ListCalls()
	require.Len(t, calls, 1)
	assert.Nil(t, calls[0].F.ChatID)
	assert.Zero(t, calls[0].F.Limit)
}

func TestPredictions_ListBadQuery(t *testing.T) {
	t.Parallel()

	for _, q := range []string{"?chat_id=abc", "?limit=-1", "?limit=ten"} {
		repo := &predictionReaderMock{}
		rec := get(newPredictionServer(repo), "/api/predictions"+q)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
		assert.Empty(t, repo.ListCalls(), q)
	}
}
