package schedule

import (
	"strings"
)

// phoneSentinel is the placeholder the upstream portal stores when no real
// number was captured
const phoneSentinel = "99999999999"

// FormatPhone strips a raw phone field down to digits and formats it as
// +55 followed by the 11-digit national number. Returns false for empty
// input, wrong length or the sentinel value.
func FormatPhone(raw string) (string, bool) {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	d := digits.String()
	if len(d) != 11 || d == phoneSentinel {
		return "", false
	}

	return "+55" + d, true
}

// SelectPhone picks the first usable number among the three raw candidates,
// in priority order: cellphone, contact phone, landline.
func SelectPhone(cellPhone, contactPhone, phone string) (string, bool) {
	for _, candidate := range []string{cellPhone, contactPhone, phone} {
		if formatted, ok := FormatPhone(candidate); ok {
			return formatted, true
		}
	}
	return "", false
}
