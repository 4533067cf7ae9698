package decode

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"time"
)

// Role is one entry in an MP's role history.
type Role struct {
	RoleName     string
	RoleType     string
	Organization *string
	Parliament   *int
	Session      *int
	StartDate    *time.Time
	EndDate      *time.Time
	IsCurrent    bool
	SourceURL    string
	SourceHash   string
}

type roleXML struct {
	CaucusShortName    string `xml:"CaucusShortName"`
	Title              string `xml:"Title"`
	AffiliationRole    string `xml:"AffiliationRoleName"`
	CommitteeName      string `xml:"CommitteeName"`
	AssociationRole    string `xml:"AssociationMemberRoleType"`
	Organization       string `xml:"Organization"`
	ParliamentNumber   string `xml:"ParliamentNumber"`
	SessionNumber      string `xml:"SessionNumber"`
	FromDateTime       string `xml:"FromDateTime"`
	ToDateTime         string `xml:"ToDateTime"`
}

func parseRoleTimestamp(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05Z07:00", "2006-01-02T15:04:05", "2006-01-02"} {
		if parsed, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			utc := parsed.UTC()
			return &utc
		}
	}
	return nil
}

func (r roleXML) build(name, roleType string, organization string, sourceURL, sourceHash string) Role {
	return Role{
		RoleName:     name,
		RoleType:     roleType,
		Organization: strPtr(stripText(organization)),
		Parliament:   toInt(r.ParliamentNumber),
		Session:      toInt(r.SessionNumber),
		StartDate:    parseRoleTimestamp(r.FromDateTime),
		EndDate:      parseRoleTimestamp(r.ToDateTime),
		IsCurrent:    strings.TrimSpace(r.ToDateTime) == "",
		SourceURL:    sourceURL,
		SourceHash:   sourceHash,
	}
}

func fallback(values ...string) string {
	for _, value := range values {
		if trimmed := stripText(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// Roles decodes a per-MP profile XML into role records across the four
// role families.
func Roles(xmlText, sourceURL string) ([]Role, error) {
	sourceHash := SourceHash(xmlText)
	decoder := xml.NewDecoder(strings.NewReader(xmlText))

	var roles []Role
	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &DecodeError{Source: "roles xml", Cause: err}
		}
		start, ok := token.(xml.StartElement)
		if !ok {
			continue
		}

		var raw roleXML
		switch start.Name.Local {
		case "CaucusMemberRole":
			if err := decoder.DecodeElement(&raw, &start); err != nil {
				return nil, &DecodeError{Source: "roles xml", Cause: err}
			}
			roles = append(roles, raw.build(fallback(raw.CaucusShortName, "Caucus Member"), "caucus", "", sourceURL, sourceHash))
		case "ParliamentaryPositionRole":
			if err := decoder.DecodeElement(&raw, &start); err != nil {
				return nil, &DecodeError{Source: "roles xml", Cause: err}
			}
			roles = append(roles, raw.build(fallback(raw.Title, "Parliamentary Position"), "parliamentary_position", "", sourceURL, sourceHash))
		case "CommitteeMemberRole":
			if err := decoder.DecodeElement(&raw, &start); err != nil {
				return nil, &DecodeError{Source: "roles xml", Cause: err}
			}
			roles = append(roles, raw.build(
				fallback(raw.AffiliationRole, raw.CommitteeName, "Committee Member"),
				"committee", raw.CommitteeName, sourceURL, sourceHash))
		case "ParliamentaryAssociationsandInterparliamentaryGroupRole":
			if err := decoder.DecodeElement(&raw, &start); err != nil {
				return nil, &DecodeError{Source: "roles xml", Cause: err}
			}
			roles = append(roles, raw.build(
				fallback(raw.Title, raw.AssociationRole, "Association Member"),
				"association", raw.Organization, sourceURL, sourceHash))
		}
	}
	return roles, nil
}
