package decode

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// Member is one MP from the all-members registry.
type Member struct {
	HocID      int
	FirstName  string
	LastName   string
	Name       string
	Honorific  *string
	Email      *string
	Phone      *string
	Riding     string
	Province   string
	Party      string
	PhotoURL   string
	ProfileURL string
}

type memberXML struct {
	PersonID            string `xml:"PersonId"`
	FirstName           string `xml:"PersonOfficialFirstName"`
	LastName            string `xml:"PersonOfficialLastName"`
	Honorific           string `xml:"PersonShortHonorific"`
	Email               string `xml:"PersonEmail"`
	EmailAlt            string `xml:"Email"`
	Phone               string `xml:"PersonTelephone"`
	PhoneAlt            string `xml:"Telephone"`
	ConstituencyName    string `xml:"ConstituencyName"`
	ProvinceTerritory   string `xml:"ConstituencyProvinceTerritoryName"`
	CaucusShortName     string `xml:"CaucusShortName"`
}

type membersDoc struct {
	Members []memberXML `xml:"MemberOfParliament"`
}

// Members decodes the all-MPs registry XML. Entries without a person id
// are skipped.
func Members(xmlText string) ([]Member, error) {
	var doc membersDoc
	if err := xml.Unmarshal([]byte(xmlText), &doc); err != nil {
		return nil, &DecodeError{Source: "members xml", Cause: err}
	}

	members := make([]Member, 0, len(doc.Members))
	for _, raw := range doc.Members {
		id := toInt(raw.PersonID)
		if id == nil || *id == 0 {
			continue
		}
		first := stripText(raw.FirstName)
		last := stripText(raw.LastName)
		email := stripText(raw.Email)
		if email == "" {
			email = stripText(raw.EmailAlt)
		}
		phone := stripText(raw.Phone)
		if phone == "" {
			phone = stripText(raw.PhoneAlt)
		}
		members = append(members, Member{
			HocID:      *id,
			FirstName:  first,
			LastName:   last,
			Name:       strings.TrimSpace(first + " " + last),
			Honorific:  strPtr(stripText(raw.Honorific)),
			Email:      strPtr(email),
			Phone:      strPtr(phone),
			Riding:     stripText(raw.ConstituencyName),
			Province:   stripText(raw.ProvinceTerritory),
			Party:      stripText(raw.CaucusShortName),
			PhotoURL:   fmt.Sprintf("https://www.ourcommons.ca/Members/en/%d/photo", *id),
			ProfileURL: fmt.Sprintf("https://www.ourcommons.ca/Members/en/%d", *id),
		})
	}
	return members, nil
}
