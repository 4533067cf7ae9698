package decode

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// DebateMeta is the document-level Hansard metadata.
type DebateMeta struct {
	Parliament  *int
	Session     *int
	DebateDate  *time.Time
	Volume      *string
	Number      *string
	SpeakerName *string
	Language    string
	SourceHash  string
}

// Intervention is one speech, in document order.
type Intervention struct {
	SpeakerName        *string
	SpeakerAffiliation *string
	FloorLanguage      *string
	Timestamp          *string
	OrderOfBusiness    *string
	SubjectTitle       *string
	InterventionType   *string
	Text               *string
}

// elementText consumes an element's subtree and returns its concatenated
// character data.
func elementText(decoder *xml.Decoder) (string, error) {
	var builder strings.Builder
	depth := 1
	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			return "", err
		}
		switch t := token.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			builder.Write(t)
		}
	}
	return builder.String(), nil
}

func attrValue(start xml.StartElement, name string) string {
	for _, attr := range start.Attr {
		if attr.Name.Local == name {
			return attr.Value
		}
	}
	return ""
}

// Hansard decodes a per-sitting debate document. Interventions are emitted
// in document order with the running order-of-business, subject, floor
// language, and timestamp context attached.
func Hansard(xmlText, language string) (DebateMeta, []Intervention, error) {
	decoder := xml.NewDecoder(strings.NewReader(xmlText))

	meta := DebateMeta{
		Language:   strings.ToLower(language),
		SourceHash: SourceHash(xmlText),
	}
	extracted := make(map[string]string)
	var interventions []Intervention

	var currentOrder, currentSubject, currentLanguage, currentTimestamp *string

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return DebateMeta{}, nil, &DecodeError{Source: "hansard xml", Cause: err}
		}
		start, ok := token.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "ExtractedItem":
			name := attrValue(start, "Name")
			text, err := elementText(decoder)
			if err != nil {
				return DebateMeta{}, nil, &DecodeError{Source: "hansard xml", Cause: err}
			}
			extracted[name] = stripText(text)
		case "OrderOfBusinessTitle":
			text, err := elementText(decoder)
			if err != nil {
				return DebateMeta{}, nil, &DecodeError{Source: "hansard xml", Cause: err}
			}
			currentOrder = strPtr(stripText(text))
		case "SubjectOfBusinessTitle":
			text, err := elementText(decoder)
			if err != nil {
				return DebateMeta{}, nil, &DecodeError{Source: "hansard xml", Cause: err}
			}
			currentSubject = strPtr(stripText(text))
		case "FloorLanguage":
			if lang := attrValue(start, "language"); lang != "" {
				lowered := strings.ToLower(lang)
				currentLanguage = &lowered
			}
		case "Timestamp":
			hr := toInt(attrValue(start, "Hr"))
			mn := toInt(attrValue(start, "Mn"))
			if hr != nil && mn != nil {
				stamp := fmt.Sprintf("%02d:%02d", *hr, *mn)
				currentTimestamp = &stamp
			}
		case "Intervention":
			item, floorLanguage, err := parseIntervention(decoder, start)
			if err != nil {
				return DebateMeta{}, nil, &DecodeError{Source: "hansard xml", Cause: err}
			}
			if floorLanguage != nil {
				currentLanguage = floorLanguage
			}
			item.OrderOfBusiness = currentOrder
			item.SubjectTitle = currentSubject
			item.FloorLanguage = currentLanguage
			item.Timestamp = currentTimestamp
			interventions = append(interventions, item)
		}
	}

	meta.Parliament = toInt(extracted["ParliamentNumber"])
	meta.Session = toInt(extracted["SessionNumber"])
	meta.Volume = strPtr(extracted["Volume"])
	meta.Number = strPtr(extracted["Number"])
	meta.SpeakerName = strPtr(extracted["SpeakerName"])
	meta.DebateDate = ParseDate(extracted["Date"])
	if meta.DebateDate == nil {
		composed := fmt.Sprintf("%s-%s-%s",
			extracted["MetaDateNumYear"], extracted["MetaDateNumMonth"], extracted["MetaDateNumDay"])
		meta.DebateDate = ParseDate(composed)
	}

	return meta, interventions, nil
}

// parseIntervention consumes one Intervention subtree. Paragraph texts are
// joined with blank lines; the speaker name is the affiliation text before
// any parenthesised qualifier. The trailing FloorLanguage marker, if any,
// is returned so the caller can advance the running context.
func parseIntervention(decoder *xml.Decoder, start xml.StartElement) (Intervention, *string, error) {
	item := Intervention{InterventionType: strPtr(attrValue(start, "Type"))}

	var paras []string
	var affiliation string
	var floorLanguage *string
	inPersonSpeaking := false
	depth := 1
	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			return Intervention{}, nil, err
		}
		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "PersonSpeaking":
				inPersonSpeaking = true
				depth++
			case "FloorLanguage":
				if lang := attrValue(t, "language"); lang != "" {
					lowered := strings.ToLower(lang)
					floorLanguage = &lowered
				}
				depth++
			case "Affiliation":
				text, err := elementText(decoder)
				if err != nil {
					return Intervention{}, nil, err
				}
				if inPersonSpeaking && affiliation == "" {
					affiliation = stripText(text)
				}
			case "ParaText":
				text, err := elementText(decoder)
				if err != nil {
					return Intervention{}, nil, err
				}
				if trimmed := stripText(text); trimmed != "" {
					paras = append(paras, trimmed)
				}
			default:
				depth++
			}
		case xml.EndElement:
			if t.Name.Local == "PersonSpeaking" {
				inPersonSpeaking = false
			}
			depth--
		}
	}

	if affiliation != "" {
		item.SpeakerAffiliation = &affiliation
		name := stripText(strings.SplitN(affiliation, "(", 2)[0])
		item.SpeakerName = strPtr(name)
	}
	if len(paras) > 0 {
		joined := strings.Join(paras, "\n\n")
		item.Text = &joined
	}
	return item, floorLanguage, nil
}
