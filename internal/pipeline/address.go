package pipeline

import (
	"regexp"
	"strings"

	"leadprep/internal/util"
)

type AddressClass int

const (
	// AddressAbsent means there is nothing to classify; no tag, no redaction.
	AddressAbsent AddressClass = iota
	// AddressProgrammatic addresses are kept and earn the programmatic tag.
	AddressProgrammatic
	// AddressNonDeliverable addresses are P.O. boxes or contain a hyphen,
	// the bare "-" placeholder included; address, state and zip are redacted
	// together.
	AddressNonDeliverable
)

func (c AddressClass) String() string {
	switch c {
	case AddressProgrammatic:
		return "programmatic"
	case AddressNonDeliverable:
		return "non_deliverable"
	default:
		return "absent"
	}
}

var poBoxPattern = regexp.MustCompile(`(?i)\bp\.?\s*o\.?\s*box\b`)

// IsPOBox matches "PO Box 9", "p.o box 5", "P. O. Box" and similar.
func IsPOBox(address string) bool {
	return poBoxPattern.MatchString(address)
}

func ClassifyAddress(address string) AddressClass {
	if util.IsMissing(address) {
		return AddressAbsent
	}
	if IsPOBox(address) || strings.Contains(address, "-") {
		return AddressNonDeliverable
	}
	return AddressProgrammatic
}
