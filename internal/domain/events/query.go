package events

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// SortField is a whitelisted event attribute the listing may order by.
type SortField string

const (
	SortTitle     SortField = "title"
	SortStartTime SortField = "startTime"
	SortEndTime   SortField = "endTime"
	SortLocation  SortField = "location"
	SortQuota     SortField = "quota"
)

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// ListQuery is a normalized, executable listing specification. Sort
// field and direction are always valid after ParseListQuery; free-text
// and time-range predicates are optional and AND-combined.
type ListQuery struct {
	Page      int
	PerPage   int
	SortField SortField
	SortDir   SortDirection
	Query     string
	From      *time.Time
	To        *time.Time
}

// ParseListQuery normalizes raw listing parameters. Unrecognized sort
// fields fall back to startTime and anything but "asc" sorts
// descending, so sorting never errors; malformed paging or time bounds
// do.
func ParseListQuery(values url.Values) (ListQuery, error) {
	query := ListQuery{
		PerPage:   DefaultPerPage,
		SortField: NormalizeSortField(values.Get("sortField")),
		SortDir:   NormalizeSortDirection(values.Get("sortDirection")),
		Query:     strings.TrimSpace(values.Get("q")),
	}

	page, err := parsePage(values.Get("page"))
	if err != nil {
		return query, err
	}
	query.Page = page

	perPage, err := parsePerPage(values)
	if err != nil {
		return query, err
	}
	query.PerPage = perPage

	from, err := parseDateTime("from", values.Get("from"))
	if err != nil {
		return query, err
	}
	to, err := parseDateTime("to", values.Get("to"))
	if err != nil {
		return query, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return query, FilterError{Field: "to", Message: "must be on or after from"}
	}
	query.From = from
	query.To = to

	return query, nil
}

// NormalizeSortField maps a raw sort field onto the whitelist,
// defaulting to startTime for anything unrecognized.
func NormalizeSortField(value string) SortField {
	switch SortField(strings.TrimSpace(value)) {
	case SortTitle, SortStartTime, SortEndTime, SortLocation, SortQuota:
		return SortField(strings.TrimSpace(value))
	default:
		return SortStartTime
	}
}

// NormalizeSortDirection treats a case-insensitive "asc" as ascending
// and everything else, including absent, as descending.
func NormalizeSortDirection(value string) SortDirection {
	if strings.EqualFold(strings.TrimSpace(value), "asc") {
		return SortAsc
	}
	return SortDesc
}

func parsePage(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, FilterError{Field: "page", Message: "must be a number"}
	}
	if parsed < 0 {
		return 0, FilterError{Field: "page", Message: "must be zero or greater"}
	}
	return parsed, nil
}

func parsePerPage(values url.Values) (int, error) {
	raw := strings.TrimSpace(values.Get("perPage"))
	if raw == "" {
		// Legacy clients send the all-lowercase form.
		raw = strings.TrimSpace(values.Get("perpage"))
	}
	if raw == "" {
		return DefaultPerPage, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0, FilterError{Field: "perPage", Message: "must be a number"}
	}
	if parsed < 1 || parsed > MaxPerPage {
		return 0, FilterError{Field: "perPage", Message: "must be between 1 and 100"}
	}
	return parsed, nil
}

var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

func parseDateTime(field string, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	for _, layout := range dateTimeLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return &parsed, nil
		}
	}
	return nil, FilterError{Field: field, Message: "must be an ISO8601 datetime"}
}
