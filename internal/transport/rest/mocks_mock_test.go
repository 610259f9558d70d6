package rest

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/heartmarshall/objectdetect/internal/adapter/postgres/prediction"
	"github.com/heartmarshall/objectdetect/internal/domain"
)

var (
	_ eventDispatcher  = &eventDispatcherMock{}
	_ predictionReader = &predictionReaderMock{}
	_ inferenceService = &inferenceServiceMock{}
)

type eventDispatcherMock struct {
	DispatchFunc func(ctx context.Context, ev domain.InboundEvent) error

	calls struct {
		Dispatch []struct{ Ev domain.InboundEvent }
	}
	lock sync.RWMutex
}

func (m *eventDispatcherMock) Dispatch(ctx context.Context, ev domain.InboundEvent) error {
	m.lock.Lock()
	m.calls.Dispatch = append(m.calls.Dispatch, struct{ Ev domain.InboundEvent }{ev})
	m.lock.Unlock()
	if m.DispatchFunc == nil {
		return nil
	}
	return m.DispatchFunc(ctx, ev)
}

func (m *eventDispatcherMock) DispatchCalls() []struct{ Ev domain.InboundEvent } {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.calls.Dispatch
}

type predictionReaderMock struct {
	GetByIDFunc func(ctx context.Context, id uuid.UUID) (domain.PredictionSummary, error)
	ListFunc    func(ctx context.Context, f prediction.Filter) ([]domain.PredictionSummary, error)

	calls struct {
		List []struct{ F prediction.Filter }
	}
	lock sync.RWMutex
}

func (m *predictionReaderMock) GetByID(ctx context.Context, id uuid.UUID) (domain.PredictionSummary, error) {
	if m.GetByIDFunc == nil {
		panic("predictionReaderMock.GetByIDFunc: method is nil but GetByID was just called")
	}
	return m.GetByIDFunc(ctx, id)
}

func (m *predictionReaderMock) List(ctx context.Context, f prediction.Filter) ([]domain.PredictionSummary, error) {
	m.lock.Lock()
	m.calls.List = append(m.calls.List, struct{ F prediction.Filter }{f})
	m.lock.Unlock()
	if m.ListFunc == nil {
		panic("predictionReaderMock.ListFunc: method is nil but List was just called")
	}
	return m.ListFunc(ctx, f)
}

func (m *predictionReaderMock) ListCalls() []struct{ F prediction.Filter } {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.calls.List
}

type inferenceServiceMock struct {
	PredictFunc func(ctx context.Context, imgName string) (*domain.DetectionResult, error)
}

func (m *inferenceServiceMock) Predict(ctx context.Context, imgName string) (*domain.DetectionResult, error) {
	if m.PredictFunc == nil {
		panic("inferenceServiceMock.PredictFunc: method is nil but Predict was just called")
	}
	return m.PredictFunc(ctx, imgName)
}
