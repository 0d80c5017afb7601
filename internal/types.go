package internal

// Raw upload columns. Names are case-sensitive.
const (
	ColMobilePhone     = "MOBILE_PHONE"
	ColPersonalAddress = "PERSONAL_ADDRESS"
	ColBusinessEmail   = "BUSINESS_EMAIL"
	ColPersonalEmail   = "PERSONAL_EMAIL"
	ColDNC             = "DNC"
	ColFirstName       = "FIRST_NAME"
	ColLastName        = "LAST_NAME"
	ColPersonalCity    = "PERSONAL_CITY"
	ColPersonalState   = "PERSONAL_STATE"
	ColPersonalZip     = "PERSONAL_ZIP"
)

// Cleaned output columns.
const (
	ColContactID = "Contact ID"
	ColTag       = "Tag"

	OutFirstName       = "First Name"
	OutLastName        = "Last Name"
	OutBusinessEmail   = "Business Email"
	OutMobilePhone     = "Mobile Phone"
	OutPersonalAddress = "Personal Address"
	OutPersonalCity    = "Personal City"
	OutPersonalState   = "Personal State"
	OutPersonalZip     = "Personal Zip"
	OutPersonalEmail   = "Personal Email"
)

type Tag string

const (
	TagAdvertiser   Tag = "advertiser"
	TagReader       Tag = "reader"
	TagProgrammatic Tag = "programmatic"
	TagEmail        Tag = "email"
	TagSocial       Tag = "social"
	TagSMS          Tag = "sms"
)

// TagSeparator joins a record's tags into the single Tag cell.
const TagSeparator = ", "

type Row map[string]string

// Table is one parsed upload. Column order is preserved on output.
type Table struct {
	Name    string
	Columns []string
	Rows    []Row
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

func (t *Table) Empty() bool {
	return t == nil || len(t.Rows) == 0 || len(t.Columns) == 0
}

func (t *Table) HasColumn(name string) bool {
	if t == nil {
		return false
	}
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can mutate rows without aliasing.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	out := &Table{
		Name:    t.Name,
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([]Row, len(t.Rows)),
	}
	for i, row := range t.Rows {
		cp := make(Row, len(row))
		for k, v := range row {
			cp[k] = v
		}
		out.Rows[i] = cp
	}
	return out
}

// CleanedRecord is the typed view of one cleaned row, used for CRM delivery.
type CleanedRecord struct {
	ContactID       int
	FirstName       string
	LastName        string
	BusinessEmail   string
	MobilePhone     string
	PersonalAddress string
	PersonalCity    string
	PersonalState   string
	PersonalZip     string
	PersonalEmail   string
	Tags            []string
}

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
	SeverityDanger  Severity = "danger"
)

// Feedback is the operator-facing outcome of an operation.
type Feedback struct {
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}
