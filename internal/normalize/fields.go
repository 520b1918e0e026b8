// Package normalize turns raw scraped listing text into canonical tokens.
package normalize

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// SalaryNegotiable is stored when a listing carries no salary text.
	SalaryNegotiable = "추후 협의"

	// EmploymentTypeUnspecified is backfilled onto postings that end a
	// batch without any employment type.
	EmploymentTypeUnspecified = "명시안됨"
)

// Record is one normalized posting, ready for fingerprinting and upsert.
type Record struct {
	Company        string   `json:"company"`
	Title          string   `json:"title"`
	Link           string   `json:"link"`
	Locations      []string `json:"locations"`
	Experiences    []string `json:"experiences"`
	Education      string   `json:"education,omitempty"`
	EmploymentType string   `json:"employment_type,omitempty"`
	Salary         string   `json:"salary"`
	Deadline       string   `json:"deadline,omitempty"`
	Sectors        []string `json:"sectors"`
	ModifiedDate   string   `json:"modified_date,omitempty"`
}

// modifiedDatePattern matches the "(modified|registered) YY/MM/DD" suffix
// the listings site embeds in the sector text.
var modifiedDatePattern = regexp.MustCompile(`(수정일|등록일)\s*(\d{2})/(\d{2})/(\d{2})`)

// SplitMulti splits a multi-value field on comma and middle-dot separators.
// Tokens are trimmed, empty tokens dropped, order preserved. Values are not
// deduplicated; sectors get their own pass in DedupeSectors.
func SplitMulti(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '·'
	})
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		token := strings.TrimSpace(part)
		if token == "" {
			continue
		}
		values = append(values, token)
	}
	return values
}

// ParseSector extracts the embedded modified date from a raw sector string
// and splits the remainder into sector tokens. The returned date is
// "YYYY-MM-DD" (two-digit years resolve to 2000+YY), or empty when no date
// marker is present. The literal token "외" ("and others") is dropped.
func ParseSector(raw string) (sectors []string, modifiedDate string) {
	text := raw
	if match := modifiedDatePattern.FindStringSubmatch(text); match != nil {
		modifiedDate = fmt.Sprintf("20%s-%s-%s", match[2], match[3], match[4])
		text = strings.Replace(text, match[0], "", 1)
	}

	for _, part := range strings.Split(text, ",") {
		token := strings.TrimSpace(part)
		if token == "" || token == "외" {
			continue
		}
		sectors = append(sectors, token)
	}
	return sectors, modifiedDate
}

// DedupeSectors strips a trailing "외" suffix from each sector token and
// de-duplicates the result while preserving first-seen order.
func DedupeSectors(sectors []string) []string {
	if len(sectors) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(sectors))
	result := make([]string, 0, len(sectors))
	for _, sector := range sectors {
		token := strings.TrimSpace(strings.TrimSuffix(sector, "외"))
		if token == "" {
			continue
		}
		if _, exists := seen[token]; exists {
			continue
		}
		seen[token] = struct{}{}
		result = append(result, token)
	}
	return result
}

// Salary returns the salary text as-is, or the negotiable sentinel when the
// field is blank.
func Salary(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return SalaryNegotiable
	}
	return trimmed
}
