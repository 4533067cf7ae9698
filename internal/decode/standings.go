package decode

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

type partyStandingXML struct {
	CaucusShortName string `xml:"CaucusShortName"`
	SeatCount       string `xml:"SeatCount"`
}

// PartyStandings groups seat counts by caucus short name, summing
// duplicates. "Vacant" is retained as a standing without a party link.
func PartyStandings(xmlText string) (map[string]int, error) {
	decoder := xml.NewDecoder(strings.NewReader(xmlText))
	totals := make(map[string]int)
	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &DecodeError{Source: "party standings xml", Cause: err}
		}
		start, ok := token.(xml.StartElement)
		if !ok || start.Name.Local != "PartyStanding" {
			continue
		}
		var raw partyStandingXML
		if err := decoder.DecodeElement(&raw, &start); err != nil {
			return nil, &DecodeError{Source: "party standings xml", Cause: err}
		}
		name := stripText(raw.CaucusShortName)
		if name == "" {
			continue
		}
		seats := 0
		if parsed := toInt(raw.SeatCount); parsed != nil {
			seats = *parsed
		}
		totals[name] += seats
	}
	return totals, nil
}
