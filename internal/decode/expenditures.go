package decode

import (
	"encoding/csv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Member expenditure categories in the order the disclosure CSV lists them.
var memberExpenditureCategories = []string{"Salaries", "Travel", "Hospitality", "Contracts"}

// House officer categories map display name to CSV column header.
var officerExpenditureColumns = []struct {
	Category string
	Column   string
}{
	{"Employees' Salaries", "Employees' Salaries($)"},
	{"Service Contracts", "Service Contracts($)"},
	{"Travel", "Travel($)"},
	{"Hospitality", "Hospitality($)"},
	{"Office", "Office($)"},
}

// MemberExpenditureRow is one (member, category) amount.
type MemberExpenditureRow struct {
	MemberName string
	Category   string
	Amount     float64
}

// OfficerExpenditureRow is one (officer, category) amount.
type OfficerExpenditureRow struct {
	OfficerName string
	RoleTitle   *string
	Category    string
	Amount      float64
}

// MemberDisclosure locates the latest CSV link and period text on the
// member proactive-disclosure page.
func MemberDisclosure(htmlText string) (csvHref string, periodText string, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlText))
	if err != nil {
		return "", "", &DecodeError{Source: "member disclosure html", Cause: err}
	}
	link := doc.Find("a.csv-btn")
	href, ok := link.Attr("href")
	if !ok || href == "" {
		return "", "", &DecodeError{Source: "member disclosure html", Cause: errMissingCSVLink}
	}
	period := stripText(doc.Find("#quarters-dropdown-text").Text())
	return href, period, nil
}

// OfficerCSVLinks lists HouseOfficers CSV hrefs from the reports index.
func OfficerCSVLinks(htmlText string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlText))
	if err != nil {
		return nil, &DecodeError{Source: "officer disclosure html", Cause: err}
	}
	var links []string
	doc.Find("a").Each(func(_ int, link *goquery.Selection) {
		href, ok := link.Attr("href")
		if ok && strings.HasSuffix(href, ".csv") && strings.Contains(href, "HouseOfficers") {
			links = append(links, href)
		}
	})
	return links, nil
}

// MemberExpenditures decodes the quarterly member CSV: one row per member,
// expanded to one record per spending category.
func MemberExpenditures(csvText string) ([]MemberExpenditureRow, error) {
	reader := csv.NewReader(strings.NewReader(csvText))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, &DecodeError{Source: "member expenditures csv", Cause: err}
	}
	if len(records) < 2 {
		return nil, nil
	}

	headers := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		headers[strings.TrimPrefix(strings.TrimSpace(name), "\ufeff")] = i
	}

	var rows []MemberExpenditureRow
	for _, record := range records[1:] {
		name := ""
		if idx, ok := headers["Name"]; ok && idx < len(record) {
			name = strings.TrimPrefix(stripText(record[idx]), "\ufeff")
		}
		if name == "" {
			continue
		}
		for _, category := range memberExpenditureCategories {
			amount := 0.0
			if idx, ok := headers[category]; ok && idx < len(record) {
				amount = ParseAmount(record[idx])
			}
			rows = append(rows, MemberExpenditureRow{
				MemberName: name,
				Category:   category,
				Amount:     amount,
			})
		}
	}
	return rows, nil
}

// OfficerExpenditures decodes a house-officer CSV. Row 2 holds the period
// range, row 3 the header, data starts at row 4.
func OfficerExpenditures(csvText string) ([]OfficerExpenditureRow, *time.Time, *time.Time, error) {
	reader := csv.NewReader(strings.NewReader(csvText))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, nil, &DecodeError{Source: "officer expenditures csv", Cause: err}
	}
	if len(records) < 3 {
		return nil, nil, nil, nil
	}

	periodLine := ""
	if len(records[1]) > 0 {
		periodLine = strings.Join(records[1], ",")
	}
	periodStart, periodEnd := ParseDateRange(periodLine)

	headers := make(map[string]int, len(records[2]))
	for i, name := range records[2] {
		headers[strings.TrimSpace(name)] = i
	}

	cell := func(record []string, column string) string {
		if idx, ok := headers[column]; ok && idx < len(record) {
			return record[idx]
		}
		return ""
	}

	var rows []OfficerExpenditureRow
	for _, record := range records[3:] {
		if len(record) == 0 || stripText(record[0]) == "" {
			continue
		}
		officerName := stripText(cell(record, "Name"))
		roleTitle := strPtr(stripText(cell(record, "Role")))
		for _, column := range officerExpenditureColumns {
			rows = append(rows, OfficerExpenditureRow{
				OfficerName: officerName,
				RoleTitle:   roleTitle,
				Category:    column.Category,
				Amount:      ParseAmount(cell(record, column.Column)),
			})
		}
	}
	return rows, periodStart, periodEnd, nil
}
