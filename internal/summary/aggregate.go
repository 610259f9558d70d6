// Package summary counts detected objects by class and renders the reply text.
package summary

import (
	"fmt"
	"strings"

	"github.com/heartmarshall/objectdetect/internal/domain"
)

// Aggregate returns the number of labels and per-class counts in the order
// each class first appears.
func Aggregate(labels []domain.DetectionLabel) (int, []domain.ClassCount) {
	counts := make([]domain.ClassCount, 0)
	index := make(map[string]int)

	for _, l := range labels {
		if i, ok := index[l.Class]; ok {
			counts[i].Count++
			continue
		}
		index[l.Class] = len(counts)
		counts = append(counts, domain.ClassCount{Class: l.Class, Count: 1})
	}

	return len(labels), counts
}

// Render formats the summary message. Every line ends with a newline.
func Render(total int, counts []domain.ClassCount) string {
	var b strings.Builder
	fmt.Fprintf(&b, "We detect %d objects.\n", total)
	for _, c := range counts {
		fmt.Fprintf(&b, "object %s found %d times.\n", c.Class, c.Count)
	}
	return b.String()
}

// Summarize aggregates labels and renders the result.
func Summarize(labels []domain.DetectionLabel) string {
	return Render(Aggregate(labels))
}
