// Package labels turns the detector's label output into typed detection records.
// Pure functions over strings and a read-only class table; no I/O besides
// LoadClassTable.
package labels

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/heartmarshall/objectdetect/internal/domain"
)

// fieldsPerLine is the number of whitespace-separated fields in a label line:
// classIndex cx cy w h.
const fieldsPerLine = 5

// Parser converts raw label lines into DetectionLabel records.
// It is safe for concurrent use.
type Parser struct {
	table ClassTable
}

// NewParser creates a Parser resolving class indices through table.
func NewParser(table ClassTable) *Parser {
	return &Parser{table: table}
}

// Table returns the class table the parser resolves indices against.
func (p *Parser) Table() ClassTable {
	return p.table
}

// ParseLines parses every line. Blank lines are skipped. The first malformed
// line fails the whole parse with a *domain.MalformedLabelLineError.
// Zero objects yields an empty, non-nil slice.
func (p *Parser) ParseLines(lines []string) ([]domain.DetectionLabel, error) {
	out := make([]domain.DetectionLabel, 0, len(lines))

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		label, err := p.parseLine(i+1, line)
		if err != nil {
			return nil, err
		}
		out = append(out, label)
	}

	return out, nil
}

// ParseText splits text on newlines and parses the result.
func (p *Parser) ParseText(text string) ([]domain.DetectionLabel, error) {
	return p.ParseLines(strings.Split(text, "\n"))
}

// Normalize accepts the detector's label entries in either form. Raw lines go
// through the line parser; structured records get the same validation.
func (p *Parser) Normalize(raw []domain.RawLabel) ([]domain.DetectionLabel, error) {
	out := make([]domain.DetectionLabel, 0, len(raw))

	for i, r := range raw {
		n := i + 1

		if r.Record == nil {
			if strings.TrimSpace(r.Line) == "" {
				continue
			}
			label, err := p.parseLine(n, r.Line)
			if err != nil {
				return nil, err
			}
			out = append(out, label)
			continue
		}

		label, err := normalizeRecord(n, *r.Record)
		if err != nil {
			return nil, err
		}
		out = append(out, label)
	}

	return out, nil
}

func (p *Parser) parseLine(n int, line string) (domain.DetectionLabel, error) {
	fields := strings.Fields(line)
	if len(fields) != fieldsPerLine {
		return domain.DetectionLabel{}, malformed(n, line, fmt.Sprintf("expected %d fields, got %d", fieldsPerLine, len(fields)))
	}

	idx, err := strconv.Atoi(fields[0])
	if err != nil {
		return domain.DetectionLabel{}, malformed(n, line, fmt.Sprintf("class index %q is not an integer", fields[0]))
	}
	if idx < 0 {
		return domain.DetectionLabel{}, malformed(n, line, fmt.Sprintf("class index %d is negative", idx))
	}
	class, ok := p.table.Name(idx)
	if !ok {
		return domain.DetectionLabel{}, malformed(n, line, fmt.Sprintf("class index %d is not in the class table", idx))
	}

	var coords [4]float64
	for j, f := range fields[1:] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return domain.DetectionLabel{}, malformed(n, line, fmt.Sprintf("coordinate %q is not a number", f))
		}
		c, err := clampUnit(v)
		if err != nil {
			return domain.DetectionLabel{}, malformed(n, line, err.Error())
		}
		coords[j] = c
	}

	return domain.DetectionLabel{
		Class:   class,
		CenterX: coords[0],
		CenterY: coords[1],
		Width:   coords[2],
		Height:  coords[3],
	}, nil
}

func normalizeRecord(n int, rec domain.DetectionLabel) (domain.DetectionLabel, error) {
	text := fmt.Sprintf("%s %g %g %g %g", rec.Class, rec.CenterX, rec.CenterY, rec.Width, rec.Height)

	if strings.TrimSpace(rec.Class) == "" {
		return domain.DetectionLabel{}, malformed(n, text, "class is empty")
	}

	vals := []*float64{&rec.CenterX, &rec.CenterY, &rec.Width, &rec.Height}
	for _, v := range vals {
		c, err := clampUnit(*v)
		if err != nil {
			return domain.DetectionLabel{}, malformed(n, text, err.Error())
		}
		*v = c
	}

	return rec, nil
}

// clampUnit clamps finite values to [0,1] and rejects NaN and infinities.
func clampUnit(v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("coordinate %v is not finite", v)
	}
	return math.Min(1, math.Max(0, v)), nil
}

func malformed(n int, text, reason string) error {
	return &domain.MalformedLabelLineError{Line: n, Text: text, Reason: reason}
}
