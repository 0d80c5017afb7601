package crm

import "leadprep/internal"

// Contact is the CRM's contact-creation payload.
type Contact struct {
	FirstName  string   `json:"firstName"`
	LastName   string   `json:"lastName"`
	Email      string   `json:"email"`
	Phone      string   `json:"phone"`
	Address1   string   `json:"address1"`
	City       string   `json:"city"`
	State      string   `json:"state"`
	PostalCode string   `json:"postalCode"`
	Tags       []string `json:"tags"`
}

func ContactFromRecord(rec internal.CleanedRecord) Contact {
	tags := rec.Tags
	if tags == nil {
		tags = []string{}
	}
	return Contact{
		FirstName:  rec.FirstName,
		LastName:   rec.LastName,
		Email:      rec.BusinessEmail,
		Phone:      rec.MobilePhone,
		Address1:   rec.PersonalAddress,
		City:       rec.PersonalCity,
		State:      rec.PersonalState,
		PostalCode: rec.PersonalZip,
		Tags:       tags,
	}
}
