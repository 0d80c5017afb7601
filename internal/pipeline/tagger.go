package pipeline

import (
	"strings"

	"leadprep/internal"
	"leadprep/internal/util"
)

// ProvenanceTag derives the audience tag from the upload's file name.
func ProvenanceTag(fileName string) (internal.Tag, bool) {
	upper := strings.ToUpper(fileName)
	switch {
	case strings.Contains(upper, "B2B"):
		return internal.TagAdvertiser, true
	case strings.Contains(upper, "B2C"):
		return internal.TagReader, true
	default:
		return "", false
	}
}

// TagRecord applies the tagging rules to row in place and returns the tags in
// rule order. Address, state and zip are redacted as a unit; the phone cell is
// left either empty or holding exactly ten digits.
func TagRecord(row internal.Row, fileName string) []internal.Tag {
	tags := make([]internal.Tag, 0, 5)

	if tag, ok := ProvenanceTag(fileName); ok {
		tags = append(tags, tag)
	}

	switch ClassifyAddress(row[internal.ColPersonalAddress]) {
	case AddressProgrammatic:
		tags = append(tags, internal.TagProgrammatic)
	case AddressNonDeliverable:
		row[internal.ColPersonalAddress] = ""
		row[internal.ColPersonalState] = ""
		row[internal.ColPersonalZip] = ""
	}

	if !util.IsAbsent(row[internal.ColBusinessEmail]) {
		tags = append(tags, internal.TagEmail)
	}
	if !util.IsAbsent(row[internal.ColPersonalEmail]) {
		tags = append(tags, internal.TagSocial)
	}

	if IsDoNotContact(row[internal.ColDNC]) {
		row[internal.ColMobilePhone] = ""
		return tags
	}
	if phone, ok := NormalizePhone(row[internal.ColMobilePhone]); ok {
		row[internal.ColMobilePhone] = phone
		tags = append(tags, internal.TagSMS)
	} else {
		row[internal.ColMobilePhone] = ""
	}
	return tags
}

func IsDoNotContact(flag string) bool {
	return strings.EqualFold(strings.TrimSpace(flag), "Y")
}

func JoinTags(tags []internal.Tag) string {
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = string(t)
	}
	return strings.Join(parts, internal.TagSeparator)
}
