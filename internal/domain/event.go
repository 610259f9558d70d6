package domain

// PhotoVariant is one resolution of a photo attached to a chat message.
type PhotoVariant struct {
	FileID string
	Width  int
	Height int
}

// InboundEvent is a chat message delivered by the messaging gateway.
// Text and Photos are optional; a message may carry either, both, or neither.
type InboundEvent struct {
	UpdateID  int
	ChatID    int64
	MessageID int
	Text      *string
	Photos    []PhotoVariant
}

// HasPhoto reports whether the event carries at least one photo variant.
func (e InboundEvent) HasPhoto() bool {
	return len(e.Photos) > 0
}

// LargestPhoto returns the highest-resolution variant. The gateway lists
// variants in ascending size, so this is the last entry.
func (e InboundEvent) LargestPhoto() (PhotoVariant, bool) {
	if len(e.Photos) == 0 {
		return PhotoVariant{}, false
	}
	return e.Photos[len(e.Photos)-1], true
}

// TextValue returns the message text or "" when absent.
func (e InboundEvent) TextValue() string {
	if e.Text == nil {
		return ""
	}
	return *e.Text
}
