package decode

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// VoteRow is one entry from the votes list table.
type VoteRow struct {
	VoteNumber int
	SubjectEn  *string
	Decision   *string
	Yeas       *int
	Nays       *int
	Paired     *int
	VoteDate   *time.Time
	BillNumber *string
	DetailURL  *string
}

// VoteDetail carries the overrides found on a vote's detail page.
type VoteDetail struct {
	SubjectEn  *string
	MotionText *string
	BillNumber *string
	Sitting    *int
}

// VoteBallot is one member's recorded position on a vote.
type VoteBallot struct {
	HocID      *int
	MemberName string
	Position   string
	PartyName  *string
	RidingName *string
}

var (
	sittingRe = regexp.MustCompile(`Sitting\s+No\.\s*(\d+)`)
	ridingRe  = regexp.MustCompile(`\((.*?)\)`)
)

// VotesList decodes the global votes table. Rows without a parseable vote
// number are skipped.
func VotesList(htmlText string) ([]VoteRow, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlText))
	if err != nil {
		return nil, &DecodeError{Source: "votes html", Cause: err}
	}
	table := doc.Find("table#global-votes")
	if table.Length() == 0 {
		return nil, &DecodeError{Source: "votes html", Cause: fmt.Errorf("votes table not found")}
	}

	var rows []VoteRow
	table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 6 {
			return
		}
		link := cells.Eq(0).Find("a")
		voteNumber := parseIntLoose(stripText(link.Text()))
		if voteNumber == nil || *voteNumber == 0 {
			return
		}

		subject := stripText(cells.Eq(2).Text())
		var yeas, nays, paired *int
		counts := strings.Split(stripText(cells.Eq(3).Text()), "/")
		parts := make([]string, 0, len(counts))
		for _, count := range counts {
			if trimmed := strings.TrimSpace(count); trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		if len(parts) > 0 {
			yeas = parseIntLoose(parts[0])
		}
		if len(parts) > 1 {
			nays = parseIntLoose(parts[1])
		}
		if len(parts) > 2 {
			paired = parseIntLoose(parts[2])
		}

		var detailURL *string
		if href, ok := link.Attr("href"); ok && href != "" {
			full := "https://www.ourcommons.ca" + href
			detailURL = &full
		}

		rows = append(rows, VoteRow{
			VoteNumber: *voteNumber,
			SubjectEn:  strPtr(subject),
			Decision:   strPtr(stripText(cells.Eq(4).Text())),
			Yeas:       yeas,
			Nays:       nays,
			Paired:     paired,
			VoteDate:   ParseDate(stripText(cells.Eq(5).Text())),
			BillNumber: ExtractBillNumber(subject),
			DetailURL:  detailURL,
		})
	})
	return rows, nil
}

// ParseVoteDetail decodes a vote detail page into field overrides and the
// per-member ballots.
func ParseVoteDetail(htmlText string) (VoteDetail, []VoteBallot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlText))
	if err != nil {
		return VoteDetail{}, nil, &DecodeError{Source: "vote detail html", Cause: err}
	}

	var detail VoteDetail
	if subject := doc.Find("#mip-vote-desc"); subject.Length() > 0 {
		detail.SubjectEn = strPtr(stripText(subject.Text()))
	}
	if motion := doc.Find("#mip-vote-text-collapsible-text"); motion.Length() > 0 {
		detail.MotionText = strPtr(stripText(strings.Join(strings.Fields(motion.Text()), " ")))
	}
	if heading := doc.Find(".mip-vote-bill-section h2"); heading.Length() > 0 {
		billText := stripText(heading.Text())
		if extracted := ExtractBillNumber(billText); extracted != nil {
			detail.BillNumber = extracted
		} else {
			detail.BillNumber = strPtr(billText)
		}
	}
	if title := doc.Find(".mip-vote-title-section p"); title.Length() > 0 {
		if match := sittingRe.FindStringSubmatch(title.Text()); match != nil {
			detail.Sitting = parseIntLoose(match[1])
		}
	}

	var ballots []VoteBallot
	doc.Find(".ce-mip-mp-vote-panel-body table tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 3 {
			return
		}
		nameCell := cells.Eq(0)
		link := nameCell.Find("a")
		var hocID *int
		memberName := stripText(nameCell.Text())
		if link.Length() > 0 {
			memberName = stripText(link.Text())
			if href, ok := link.Attr("href"); ok {
				segments := strings.Split(strings.Trim(href, "/"), "/")
				hocID = parseIntLoose(segments[len(segments)-1])
			}
		}
		var ridingName *string
		if match := ridingRe.FindStringSubmatch(nameCell.Text()); match != nil {
			ridingName = strPtr(stripText(match[1]))
		}

		position := stripText(cells.Eq(2).Text())
		if position == "" {
			pairedText := ""
			if cells.Length() > 3 {
				pairedText = stripText(cells.Eq(3).Text())
			}
			if pairedText != "" {
				position = "Paired"
			} else {
				position = "Absent"
			}
		}

		ballots = append(ballots, VoteBallot{
			HocID:      hocID,
			MemberName: memberName,
			Position:   position,
			PartyName:  strPtr(stripText(cells.Eq(1).Text())),
			RidingName: ridingName,
		})
	})

	return detail, ballots, nil
}
