package prediction

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/heartmarshall/objectdetect/internal/domain"
)

var (
	_ gateway     = &gatewayMock{}
	_ objectStore = &objectStoreMock{}
	_ detector    = &detectorMock{}
	_ resultStore = &resultStoreMock{}
)

// ---------------------------------------------------------------------------
// gatewayMock
// ---------------------------------------------------------------------------

type gatewayMock struct {
	DownloadPhotoFunc     func(ctx context.Context, fileID, dir string) (domain.ImageAsset, error)
	SendTextFunc          func(ctx context.Context, chatID int64, text string) error
	SendTextWithQuoteFunc func(ctx context.Context, chatID int64, text string, replyTo int) error
	SendPhotoFunc         func(ctx context.Context, chatID int64, localPath string) error

	calls struct {
		DownloadPhoto []struct {
			FileID string
			Dir    string
		}
		SendText []struct {
			ChatID int64
			Text   string
		}
		SendTextWithQuote []struct {
			ChatID  int64
			Text    string
			ReplyTo int
		}
		SendPhoto []struct {
			ChatID    int64
			LocalPath string
		}
	}
	lock sync.RWMutex
}

func (m *gatewayMock) DownloadPhoto(ctx context.Context, fileID, dir string) (domain.ImageAsset, error) {
	if m.DownloadPhotoFunc == nil {
		panic("gatewayMock.DownloadPhotoFunc: method is nil but gateway.DownloadPhoto was just called")
	}
	m.lock.Lock()
	m.calls.DownloadPhoto = append(m.calls.DownloadPhoto, struct {
		FileID string
		Dir    string
	}{fileID, dir})
	m.lock.Unlock()
	return m.DownloadPhotoFunc(ctx, fileID, dir)
}

func (m *gatewayMock) DownloadPhotoCalls() []struct {
	FileID string
	Dir    string
} {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.calls.DownloadPhoto
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

func (m *gatewayMock) SendTextWithQuote(ctx context.Context, chatID int64, text string, replyTo int) error {
	m.lock.Lock()
	m.calls.SendTextWithQuote = append(m.calls.SendTextWithQuote, struct {
		ChatID  int64
		Text    string
		ReplyTo int
	}{chatID, text, replyTo})
	m.lock.Unlock()
	if m.SendTextWithQuoteFunc == nil {
		return nil
	}
	return m.SendTextWithQuoteFunc(ctx, chatID, text, replyTo)
}

func (m *gatewayMock) SendTextWithQuoteCalls() []struct {
	ChatID  int64
	Text    string
	ReplyTo int
} {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.calls.SendTextWithQuote
}

func (m *gatewayMock) SendPhoto(ctx context.Context, chatID int64, localPath string) error {
	m.lock.Lock()
	m.calls.SendPhoto = append(m.calls.SendPhoto, struct {
		ChatID    int64
		LocalPath string
	}{chatID, localPath})
	m.lock.Unlock()
	if m.SendPhotoFunc == nil {
		return nil
	}
	return m.SendPhotoFunc(ctx, chatID, localPath)
}

func (m *gatewayMock) SendPhotoCalls() []struct {
	ChatID    int64
	LocalPath string
} {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.calls.SendPhoto
}

// ---------------------------------------------------------------------------
// objectStoreMock
// ---------------------------------------------------------------------------

type objectStoreMock struct {
	UploadFunc   func(ctx context.Context, localPath, bucket, key string) error
	DownloadFunc func(ctx context.Context, bucket, key, localPath string) error
	ExistsFunc   func(ctx context.Context, bucket, key string) (bool, error)

	calls struct {
		Upload []struct {
			LocalPath, Bucket, Key string
		}
		Download []struct {
			Bucket, Key, LocalPath string
		}
		Exists []struct {
			Bucket, Key string
		}
	}
	lock sync.RWMutex
}

func (m *objectStoreMock) Upload(ctx context.Context, localPath, bucket, key string) error {
	if m.UploadFunc == nil {
		panic("objectStoreMock.UploadFunc: method is nil but objectStore.Upload was just called")
	}
	m.lock.Lock()
	m.calls.Upload = append(m.calls.Upload, struct{ LocalPath, Bucket, Key string }{localPath, bucket, key})
	m.lock.Unlock()
	return m.UploadFunc(ctx, localPath, bucket, key)
}

func (m *objectStoreMock) UploadCalls() []struct{ LocalPath, Bucket, Key string } {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.calls.Upload
}

func (m *objectStoreMock) Download(ctx context.Context, bucket, key, localPath string) error {
	if m.DownloadFunc == nil {
		panic("objectStoreMock.DownloadFunc: method is nil but objectStore.Download was just called")
	}
	m.lock.Lock()
	m.calls.Download = append(m.calls.Download, struct{ Bucket, Key, LocalPath string }{bucket, key, localPath})
	m.lock.Unlock()
	return m.DownloadFunc(ctx, bucket, key, localPath)
}

func (m *objectStoreMock) DownloadCalls() []struct{ Bucket, Key, LocalPath string } {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.calls.Download
}

func (m *objectStoreMock) Exists(ctx context.Context, bucket, key string) (bool, error) {
	if m.ExistsFunc == nil {
		panic("objectStoreMock.ExistsFunc: method is nil but objectStore.Exists was just called")
	}
	m.lock.Lock()
	m.calls.Exists = append(m.calls.Exists, struct{ Bucket, Key string }{bucket, key})
	m.lock.Unlock()
	return m.ExistsFunc(ctx, bucket, key)
}

func (m *objectStoreMock) ExistsCalls() []struct{ Bucket, Key string } {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.calls.Exists
}

// ---------------------------------------------------------------------------
// detectorMock
// ---------------------------------------------------------------------------

type detectorMock struct {
	DetectFunc func(ctx context.Context, imageKey string) (*domain.DetectionResult, error)

	calls struct {
		Detect []struct{ ImageKey string }
	}
	lock sync.RWMutex
}

func (m *detectorMock) Detect(ctx context.Context, imageKey string) (*domain.DetectionResult, error) {
	if m.DetectFunc == nil {
		panic("detectorMock.DetectFunc: method is nil but detector.Detect was just called")
	}
	m.lock.Lock()
	m.calls.Detect = append(m.calls.Detect, struct{ ImageKey string }{imageKey})
	m.lock.Unlock()
	return m.DetectFunc(ctx, imageKey)
}

func (m *detectorMock) DetectCalls() []struct{ ImageKey string } {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.calls.Detect
}

// ---------------------------------------------------------------------------
// resultStoreMock
// ---------------------------------------------------------------------------

type resultStoreMock struct {
	InsertOneFunc func(ctx context.Context, s domain.PredictionSummary) (uuid.UUID, error)

	calls struct {
		InsertOne []struct{ Summary domain.PredictionSummary }
	}
	lock sync.RWMutex
}

func (m *resultStoreMock) InsertOne(ctx context.Context, s domain.PredictionSummary) (uuid.UUID, error) {
	if m.InsertOneFunc == nil {
		panic("resultStoreMock.InsertOneFunc: method is nil but resultStore.InsertOne was just called")
	}
	m.lock.Lock()
	m.calls.InsertOne = append(m.calls.InsertOne, struct{ Summary domain.PredictionSummary }{s})
	m.lock.Unlock()
	return m.InsertOneFunc(ctx, s)
}

func (m *resultStoreMock) InsertOneCalls() []struct{ Summary domain.PredictionSummary } {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.calls.InsertOne
}
