package pipeline

import (
	"regexp"
	"strings"

	"leadprep/internal/util"
)

const nationalPhoneDigits = 10

var (
	// Optional plus, then digits joined by the separators US exports use.
	phonePattern  = regexp.MustCompile(`\+?\d[\d\s().\-]*\d`)
	nonDigits     = regexp.MustCompile(`\D`)
	floatArtifact = regexp.MustCompile(`^(\+?\d+)\.0+$`)
)

// NormalizePhone reduces a raw phone cell to a bare 10-digit national number.
// ok is false when no run of at least ten digits can be found.
func NormalizePhone(raw string) (phone string, ok bool) {
	if util.IsAbsent(raw) {
		return "", false
	}
	s := strings.TrimSpace(raw)
	if m := floatArtifact.FindStringSubmatch(s); m != nil {
		s = m[1]
	}

	match := phonePattern.FindString(s)
	if match == "" {
		return "", false
	}
	digits := nonDigits.ReplaceAllString(match, "")
	if len(digits) < nationalPhoneDigits {
		return "", false
	}
	if len(digits) == nationalPhoneDigits+1 && digits[0] == '1' {
		digits = digits[1:]
	}
	return digits[:nationalPhoneDigits], true
}

// FormatDisplayPhone renders a phone cell for presentation: 10 digits get a
// +1 prefix, anything else with digits is prefixed with a bare +.
func FormatDisplayPhone(raw string) string {
	if util.IsAbsent(raw) {
		return ""
	}
	s := strings.TrimSpace(raw)
	if m := floatArtifact.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	digits := nonDigits.ReplaceAllString(s, "")
	switch {
	case digits == "":
		return ""
	case len(digits) == nationalPhoneDigits:
		return "+1" + digits
	default:
		return "+" + digits
	}
}
