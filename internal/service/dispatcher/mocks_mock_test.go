package dispatcher

import (
	"context"
	"sync"

	"github.com/heartmarshall/objectdetect/internal/domain"
	"github.com/heartmarshall/objectdetect/internal/service/prediction"
)

var (
	_ gateway   = &gatewayMock{}
	_ predictor = &predictorMock{}
)

type gatewayMock struct {
	SendTextFunc func(ctx context.Context, chatID int64, text string) error

	calls struct {
		SendText []struct {
			ChatID int64
			Text   string
		}
	}
	lock sync.RWMutex
}

func (m *gatewayMock) SendText(ctx context.Context, chatID int64, text string) error {
	m.lock.Lock()
	m.calls.SendText = append(m.calls.SendText, struct {
		ChatID int64
		Text   string
	}{chatID, text})
	m.lock.Unlock()
	if m.SendTextFunc == nil {
		return nil
	}
	return m.SendTextFunc(ctx, chatID, text)
}

func (m *gatewayMock) SendTextCalls() []struct {
	ChatID int64
	Text   string
} {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.calls.SendText
}

type predictorMock struct {
	PredictFunc func(ctx context.Context, ev domain.InboundEvent) prediction.Outcome

	calls struct {
		Predict []struct{ Ev domain.InboundEvent }
	}
	lock sync.RWMutex
}

func (m *predictorMock) Predict(ctx context.Context, ev domain.InboundEvent) prediction.Outcome {
	if m.PredictFunc == nil {
		panic("predictorMock.PredictFunc: method is nil but predictor.Predict was just called")
	}
	m.lock.Lock()
	m.calls.Predict = append(m.calls.Predict, struct{ Ev domain.InboundEvent }{ev})
	m.lock.Unlock()
	return m.PredictFunc(ctx, ev)
}

func (m *predictorMock) PredictCalls() []struct{ Ev domain.InboundEvent } {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.calls.Predict
}
