package telegram

import (
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// botAPIMock is a mock implementation of botAPI.
type botAPIMock struct {
	SendFunc    func(c tgbotapi.Chattable) (tgbotapi.Message, error)
	RequestFunc func(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileFunc func(config tgbotapi.FileConfig) (tgbotapi.File, error)

	calls struct {
		Send    []struct{ C tgbotapi.Chattable }
		Request []struct{ C tgbotapi.Chattable }
		GetFile []struct{ Config tgbotapi.FileConfig }
	}
	lockSend    sync.RWMutex
	lockRequest sync.RWMutex
	lockGetFile sync.RWMutex
}

func (m *botAPIMock) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if m.SendFunc == nil {
		panic("botAPIMock.SendFunc: method is nil but botAPI.Send was just called")
	}
	m.lockSend.Lock()
	m.calls.Send = append(m.calls.Send, struct{ C tgbotapi.Chattable }{c})
	m.lockSend.Unlock()
	return m.SendFunc(c)
}

func (m *botAPIMock) SendCalls() []struct{ C tgbotapi.Chattable } {
	m.lockSend.RLock()
	defer m.lockSend.RUnlock()
	return m.calls.Send
}

func (m *botAPIMock) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if m.RequestFunc == nil {
		panic("botAPIMock.RequestFunc: method is nil but botAPI.Request was just called")
	}
	m.lockRequest.Lock()
	m.calls.Request = append(m.calls.Request, struct{ C tgbotapi.Chattable }{c})
	m.lockRequest.Unlock()
	return m.RequestFunc(c)
}

func (m *botAPIMock) RequestCalls() []struct{ C tgbotapi.Chattable } {
	m.lockRequest.RLock()
	defer m.lockRequest.RUnlock()
	return m.calls.Request
}

func (m *botAPIMock) GetFile(config tgbotapi.FileConfig) (tgbotapi.File, error) {
	if m.GetFileFunc == nil {
		panic("botAPIMock.GetFileFunc: method is nil but botAPI.GetFile was just called")
	}
	m.lockGetFile.Lock()
	m.calls.GetFile = append(m.calls.GetFile, struct{ Config tgbotapi.FileConfig }{config})
	m.lockGetFile.Unlock()
	return m.GetFileFunc(config)
}

func (m *botAPIMock) GetFileCalls() []struct{ Config tgbotapi.FileConfig } {
	m.lockGetFile.RLock()
	defer m.lockGetFile.RUnlock()
	return m.calls.GetFile
}
