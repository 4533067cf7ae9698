package decode

import (
	"encoding/json"
	"time"
)

// BillRecord is one bill from the LEGISinfo JSON feed.
type BillRecord struct {
	BillNumber         string
	Parliament         *int
	Session            *int
	LegisinfoID        *int
	TitleEn            *string
	TitleFr            *string
	Status             *string
	IntroducedDate     *time.Time
	LatestActivityDate *time.Time
	SponsorName        *string
	SourceHash         string
}

// Bills decodes the LEGISinfo list feed. Entries without a formatted bill
// number are skipped. The per-item hash is computed over the key-sorted
// JSON rendering so reordered upstream payloads hash identically.
func Bills(jsonText string) ([]BillRecord, error) {
	var items []map[string]any
	if err := json.Unmarshal([]byte(jsonText), &items); err != nil {
		return nil, &DecodeError{Source: "bills json", Cause: err}
	}

	records := make([]BillRecord, 0, len(items))
	for _, item := range items {
		billNumber := jsonString(item, "BillNumberFormatted")
		if billNumber == "" {
			continue
		}
		canonical, err := json.Marshal(item)
		if err != nil {
			return nil, &DecodeError{Source: "bills json", Cause: err}
		}

		titleEn := jsonString(item, "LongTitleEn")
		if titleEn == "" {
			titleEn = jsonString(item, "ShortTitleEn")
		}
		titleFr := jsonString(item, "LongTitleFr")
		if titleFr == "" {
			titleFr = jsonString(item, "ShortTitleFr")
		}

		records = append(records, BillRecord{
			BillNumber:  billNumber,
			Parliament:  jsonInt(item, "ParliamentNumber"),
			Session:     jsonInt(item, "SessionNumber"),
			LegisinfoID: jsonInt(item, "BillId"),
			TitleEn:     strPtr(titleEn),
			TitleFr:     strPtr(titleFr),
			Status:      strPtr(jsonString(item, "CurrentStatusEn")),
			IntroducedDate: earliest(
				jsonString(item, "PassedHouseFirstReadingDateTime"),
				jsonString(item, "PassedSenateFirstReadingDateTime"),
			),
			LatestActivityDate: ParseDateTime(jsonString(item, "LatestActivityDateTime")),
			SponsorName:        strPtr(jsonString(item, "SponsorEn")),
			SourceHash:         SourceHash(string(canonical)),
		})
	}
	return records, nil
}

func jsonString(item map[string]any, key string) string {
	if value, ok := item[key].(string); ok {
		return stripText(value)
	}
	return ""
}

func jsonInt(item map[string]any, key string) *int {
	if value, ok := item[key].(float64); ok {
		n := int(value)
		return &n
	}
	return nil
}
