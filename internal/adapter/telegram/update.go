package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/heartmarshall/objectdetect/internal/domain"
)

// EventFromUpdate converts a Bot API update into an InboundEvent.
// ok is false for updates that carry no new message (edits, callbacks, etc).
func EventFromUpdate(u tgbotapi.Update) (ev domain.InboundEvent, ok bool, err error) {
	msg := u.Message
	if msg == nil {
		return domain.InboundEvent{}, false, nil
	}
	if msg.Chat == nil {
		return domain.InboundEvent{}, false, domain.NewValidationError("chat", "required")
	}

	ev = domain.InboundEvent{
		UpdateID:  u.UpdateID,
		ChatID:    msg.Chat.ID,
		MessageID: msg.MessageID,
	}

	if msg.Text != "" {
		text := msg.Text
		ev.Text = &text
	}

	if len(msg.Photo) > 0 {
		ev.Photos = make([]domain.PhotoVariant, 0, len(msg.Photo))
		for _, p := range msg.Photo {
			ev.Photos = append(ev.Photos, domain.PhotoVariant{
				FileID: p.FileID,
				Width:  p.Width,
				Height: p.Height,
			})
		}
	}

	return ev, true, nil
}
