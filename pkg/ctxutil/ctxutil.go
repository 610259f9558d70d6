package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey string

const (
	predictionIDKey ctxKey = "prediction_id"
	chatIDKey       ctxKey = "chat_id"
	requestIDKey    ctxKey = "request_id"
)

// WithPredictionID stores the prediction ID in the context.
func WithPredictionID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, predictionIDKey, id)
}

// PredictionIDFromCtx extracts the prediction ID from the context.
// Returns uuid.Nil and false if the value is missing, nil UUID, or wrong type.
func PredictionIDFromCtx(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(predictionIDKey).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// WithChatID stores the chat ID in the context.
func WithChatID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, chatIDKey, id)
}

// ChatIDFromCtx extracts the chat ID from the context.
func ChatIDFromCtx(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(chatIDKey).(int64)
	return id, ok
}

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromCtx extracts the request ID from the context.
// Returns an empty string if absent.
func RequestIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
