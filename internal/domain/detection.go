package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DetectionResult is the detector's answer for one image.
type DetectionResult struct {
	PredictionID       string     `json:"prediction_id"`
	OriginalImagePath  string     `json:"original_img_path"`
	PredictedImagePath string     `json:"predicted_img_path"`
	Labels             []RawLabel `json:"labels"`
	Time               float64    `json:"time"`
}

// RawLabel is one entry of the detector's "labels" array. The detector may
// send either a raw "classIndex cx cy w h" line or an already resolved record;
// exactly one of Line and Record is set.
type RawLabel struct {
	Line   string
	Record *DetectionLabel
}

// UnmarshalJSON accepts a JSON string (raw line) or a JSON object (record).
func (l *RawLabel) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("raw label: empty value")
	}

	switch data[0] {
	case '"':
		var line string
		if err := json.Unmarshal(data, &line); err != nil {
			return fmt.Errorf("raw label: %w", err)
		}
		*l = RawLabel{Line: line}
		return nil
	case '{':
		var rec DetectionLabel
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("raw label: %w", err)
		}
		*l = RawLabel{Record: &rec}
		return nil
	default:
		return fmt.Errorf("raw label: expected string or object, got %s", string(data[:1]))
	}
}

// MarshalJSON writes the label in the form it was received.
func (l RawLabel) MarshalJSON() ([]byte, error) {
	if l.Record != nil {
		return json.Marshal(l.Record)
	}
	return json.Marshal(l.Line)
}
