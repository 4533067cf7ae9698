package decode

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var dateLayouts = []string{
	"Monday, January 2, 2006",
	"January 2, 2006",
	"2006-01-02",
}

var datetimeLayouts = []string{
	"January 2, 2006, 3:04 PM",
	"January 2, 2006 3:04 PM",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
}

var dateRangeRe = regexp.MustCompile(`From\s+([A-Za-z]+\s+\d{1,2},\s+\d{4})\s+to\s+([A-Za-z]+\s+\d{1,2},\s+\d{4})`)

var datetimeCleaner = strings.NewReplacer(
	"a.m.", "AM",
	"p.m.", "PM",
	" at ", " ",
	"(EDT)", "",
	"(EST)", "",
	"(PDT)", "",
	"(PST)", "",
)

// ParseDate accepts the upstream date renderings and returns a UTC midnight
// timestamp, or nil when the value matches no known layout.
func ParseDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return &parsed
		}
	}
	return nil
}

// ParseDateTime accepts the upstream datetime renderings; naive values are
// coerced to UTC.
func ParseDateTime(value string) *time.Time {
	cleaned := strings.TrimSpace(datetimeCleaner.Replace(strings.TrimSpace(value)))
	if cleaned == "" {
		return nil
	}
	for _, layout := range datetimeLayouts {
		if parsed, err := time.ParseInLocation(layout, cleaned, time.UTC); err == nil {
			utc := parsed.UTC()
			return &utc
		}
	}
	return ParseDate(cleaned)
}

// ParseDateRange reads a "From <date> to <date>" disclosure period.
func ParseDateRange(text string) (*time.Time, *time.Time) {
	match := dateRangeRe.FindStringSubmatch(text)
	if match == nil {
		return nil, nil
	}
	return ParseDate(match[1]), ParseDate(match[2])
}

// FiscalYear renders the April-to-March fiscal year containing start.
func FiscalYear(start *time.Time) *string {
	if start == nil {
		return nil
	}
	var label string
	if start.Month() >= time.April {
		label = fmt.Sprintf("%d-%d", start.Year(), start.Year()+1)
	} else {
		label = fmt.Sprintf("%d-%d", start.Year()-1, start.Year())
	}
	return &label
}

// ParseAmount reads a dollar figure, stripping "$" and ",". Empty and "-"
// cells read as zero.
func ParseAmount(value string) float64 {
	cleaned := strings.TrimSpace(strings.NewReplacer(",", "", "$", "").Replace(value))
	if cleaned == "" || cleaned == "-" {
		return 0
	}
	var amount float64
	if _, err := fmt.Sscanf(cleaned, "%g", &amount); err != nil {
		return 0
	}
	return amount
}

// earliest returns the minimum of the parsed datetimes, as a date.
func earliest(values ...string) *time.Time {
	var min *time.Time
	for _, value := range values {
		parsed := ParseDateTime(value)
		if parsed == nil {
			continue
		}
		if min == nil || parsed.Before(*min) {
			min = parsed
		}
	}
	if min == nil {
		return nil
	}
	day := time.Date(min.Year(), min.Month(), min.Day(), 0, 0, 0, 0, time.UTC)
	return &day
}
