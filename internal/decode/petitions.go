package decode

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// PetitionRow is one entry from a petition search results page.
type PetitionRow struct {
	PetitionNumber string
	TitleEn        *string
	Status         *string
	SponsorName    *string
	Signatures     *int
	DetailURL      *string
}

// PetitionDetail carries the extras found on a petition's detail page.
type PetitionDetail struct {
	SponsorHocID     *int
	SponsorName      *string
	PresentationDate *time.Time
	ClosingDate      *time.Time
	SourceHash       string
}

var sponsorIDRe = regexp.MustCompile(`\((\d+)\)`)

// PetitionSearchHTML unwraps the JSON envelope returned by the search
// endpoint and returns the embedded HTML fragment.
func PetitionSearchHTML(jsonText string) (string, error) {
	var payload struct {
		HTML string `json:"html"`
	}
	if err := json.Unmarshal([]byte(jsonText), &payload); err != nil {
		return "", &DecodeError{Source: "petition search json", Cause: err}
	}
	return payload.HTML, nil
}

// PetitionRows decodes the tr.Pub rows of a search results fragment.
func PetitionRows(htmlText string) ([]PetitionRow, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlText))
	if err != nil {
		return nil, &DecodeError{Source: "petitions html", Cause: err}
	}

	var rows []PetitionRow
	doc.Find("tr.Pub").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 6 {
			return
		}
		link := row.Find("a.publicationTitleSearch")
		if link.Length() == 0 {
			return
		}
		spans := link.Find("span")
		number := ""
		if spans.Length() > 0 {
			number = stripText(spans.Eq(0).Text())
		}
		if number == "" {
			return
		}
		title := stripText(link.Text())
		if spans.Length() > 1 {
			title = stripText(spans.Eq(1).Text())
		}

		var detailURL *string
		if href, ok := link.Attr("href"); ok && href != "" {
			full := "https://www.ourcommons.ca/petitions/en/Petition/" + href
			detailURL = &full
		}

		rows = append(rows, PetitionRow{
			PetitionNumber: number,
			TitleEn:        strPtr(title),
			Status:         strPtr(stripText(strings.Join(strings.Fields(cells.Eq(3).Text()), " "))),
			SponsorName:    strPtr(stripText(cells.Eq(4).Text())),
			Signatures:     parseIntLoose(stripText(cells.Eq(5).Text())),
			DetailURL:      detailURL,
		})
	})
	return rows, nil
}

// ParsePetitionDetail decodes a petition detail page.
func ParsePetitionDetail(htmlText string) (PetitionDetail, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlText))
	if err != nil {
		return PetitionDetail{}, &DecodeError{Source: "petition detail html", Cause: err}
	}

	detail := PetitionDetail{SourceHash: SourceHash(htmlText)}

	member := doc.Find("#DetailsMember a")
	if member.Length() > 0 {
		if href, ok := member.Attr("href"); ok {
			if match := sponsorIDRe.FindStringSubmatch(href); match != nil {
				detail.SponsorHocID = parseIntLoose(match[1])
			}
		}
		detail.SponsorName = strPtr(stripText(member.Text()))
	}

	doc.Find(".history-section dt").Each(func(_ int, dt *goquery.Selection) {
		label := strings.ToLower(stripText(dt.Text()))
		dd := dt.NextFiltered("dd")
		if dd.Length() == 0 {
			return
		}
		value := ParseDateTime(stripText(dd.Text()))
		if value == nil {
			return
		}
		if strings.Contains(label, "presented") {
			day := time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, time.UTC)
			detail.PresentationDate = &day
		}
		if strings.Contains(label, "closed") {
			detail.ClosingDate = value
		}
	})

	return detail, nil
}
