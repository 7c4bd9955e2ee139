package utils

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/blacklisthub/blacklisthub-backend/internal/apperrors"
	"github.com/blacklisthub/blacklisthub-backend/internal/models"
)

// Submitter accepts one candidate claim; implemented by services.BlacklistService
type Submitter interface {
	Submit(ctx context.Context, sub models.Submission, actor *models.Actor) (*models.SubmitResult, error)
}

// ImportResult summarizes a CSV import
type ImportResult struct {
	TotalRows int      `json:"total_rows"`
	Created   int      `json:"created"`
	Merged    int      `json:"merged"`
	Errors    []string `json:"errors"`
}

// CSVImporter submits blacklist rows from a CSV file, one Submit per row,
// so imported rows merge exactly like API submissions.
type CSVImporter struct {
	submitter Submitter
	actor     *models.Actor
	defaults  ImportDefaults
}

// ImportDefaults fill columns a CSV file does not carry
type ImportDefaults struct {
	Type       models.EntityType
	ReasonCode string
	RiskLevel  models.RiskLevel
	Source     string
}

// NewCSVImporter creates a new CSVImporter acting as actor
func NewCSVImporter(submitter Submitter, actor *models.Actor, defaults ImportDefaults) *CSVImporter {
	return &CSVImporter{submitter: submitter, actor: actor, defaults: defaults}
}

type columns struct {
	typ, value, company, reason, reasonCode, risk, source, region, visibility, sensitive, expires int
}

// Import reads r to the end. Row-level failures are collected, not fatal.
// A store outage aborts the import.
func (i *CSVImporter) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	cols := columns{
		typ:        findColumnIndex(header, []string{"type", "entity_type"}),
		value:      findColumnIndex(header, []string{"value", "entity", "identifier"}),
		company:    findColumnIndex(header, []string{"company_name", "company"}),
		reason:     findColumnIndex(header, []string{"reason", "description"}),
		reasonCode: findColumnIndex(header, []string{"reason_code", "code"}),
		risk:       findColumnIndex(header, []string{"risk_level", "risk"}),
		source:     findColumnIndex(header, []string{"source"}),
		region:     findColumnIndex(header, []string{"region", "country"}),
		visibility: findColumnIndex(header, []string{"visibility"}),
		sensitive:  findColumnIndex(header, []string{"sensitive"}),
		expires:    findColumnIndex(header, []string{"expires_at", "expiry", "expires"}),
	}
	if cols.value == -1 {
		return nil, errors.New("value column not found in CSV")
	}
	if cols.reason == -1 {
		return nil, errors.New("reason column not found in CSV")
	}

	result := &ImportResult{Errors: []string{}}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		result.TotalRows++
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", result.TotalRows, err))
			continue
		}

		sub, err := i.submission(row, cols)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", result.TotalRows, err))
			continue
		}
		res, err := i.submitter.Submit(ctx, sub, i.actor)
		if err != nil {
			if errors.Is(err, apperrors.ErrStoreUnavailable) || ctx.Err() != nil {
				return result, fmt.Errorf("row %d: %w", result.TotalRows, err)
			}
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %s", result.TotalRows, apperrors.Message(err)))
			continue
		}
		if res.Merged {
			result.Merged++
		} else {
			result.Created++
		}
	}
	return result, nil
}

func (i *CSVImporter) submission(row []string, cols columns) (models.Submission, error) {
	sub := models.Submission{
		Type:        models.EntityType(cell(row, cols.typ, string(i.defaults.Type))),
		Value:       cell(row, cols.value, ""),
		CompanyName: cell(row, cols.company, ""),
		Reason:      cell(row, cols.reason, ""),
		ReasonCode:  cell(row, cols.reasonCode, i.defaults.ReasonCode),
		RiskLevel:   models.RiskLevel(strings.ToLower(cell(row, cols.risk, string(i.defaults.RiskLevel)))),
		Source:      cell(row, cols.source, i.defaults.Source),
		Region:      cell(row, cols.region, ""),
		Visibility:  models.Visibility(strings.ToLower(cell(row, cols.visibility, ""))),
	}
	if raw := cell(row, cols.sensitive, ""); raw != "" {
		sensitive, err := strconv.ParseBool(strings.ToLower(raw))
		if err != nil {
			return sub, fmt.Errorf("invalid sensitive flag: %s", raw)
		}
		sub.Sensitive = sensitive
	}
	if raw := cell(row, cols.expires, ""); raw != "" {
		expires, err := parseDate(raw)
		if err != nil {
			return sub, err
		}
		sub.ExpiresAt = &expires
	}
	return sub, nil
}

// cell returns the trimmed value at idx, or def when the column is missing or blank
func cell(row []string, idx int, def string) string {
	if idx < 0 || idx >= len(row) {
		return def
	}
	if v := strings.TrimSpace(row[idx]); v != "" {
		return v
	}
	return def
}

// findColumnIndex finds the index of a column by possible names
func findColumnIndex(header []string, possibleNames []string) int {
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		for _, name := range possibleNames {
			if strings.ToLower(name) == h {
				return i
			}
		}
	}
	return -1
}

// parseDate parses a date string in various formats
func parseDate(dateStr string) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	formats := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02 15:04:05",
		"2006/01/02",
		"01/02/2006",
	}
	for _, format := range formats {
		date, err := time.Parse(format, dateStr)
		if err == nil {
			return date.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}
