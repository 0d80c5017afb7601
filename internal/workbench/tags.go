package workbench

import (
	"errors"
	"strings"

	"leadprep/internal"
	"leadprep/internal/util"
)

var (
	ErrNoTable    = errors.New("no data loaded")
	ErrNoTagField = errors.New("table has no Tag column")
	ErrNoTags     = errors.New("no tags given")
)

// AddTags appends every tag that no row carries yet to all rows. Tags already
// present on any row are reported back and left alone. The input table is
// not modified.
func AddTags(t *internal.Table, input string) (*internal.Table, internal.Feedback, error) {
	tags, fb, err := tagInput(t, input)
	if err != nil {
		return nil, fb, err
	}

	fresh, existing := []string{}, []string{}
	for _, tag := range tags {
		if anyRowHasTag(t, tag) {
			existing = append(existing, tag)
		} else {
			fresh = append(fresh, tag)
		}
	}

	if len(fresh) == 0 {
		return t.Clone(), warning("No new tags added. All tags already exist: " + strings.Join(existing, ", ")), nil
	}

	out := t.Clone()
	for _, row := range out.Rows {
		current := util.SplitTags(row[internal.ColTag])
		row[internal.ColTag] = strings.Join(util.Dedupe(append(current, fresh...)), internal.TagSeparator)
	}

	msg := "New tag(s) added successfully: " + strings.Join(fresh, ", ")
	if len(existing) > 0 {
		msg += "\nExisting tag(s) not added: " + strings.Join(existing, ", ")
	}
	return out, success(msg), nil
}

// DeleteTags removes every tag that at least one row carries from all rows.
func DeleteTags(t *internal.Table, input string) (*internal.Table, internal.Feedback, error) {
	tags, fb, err := tagInput(t, input)
	if err != nil {
		return nil, fb, err
	}

	deleted, unknown := []string{}, []string{}
	for _, tag := range tags {
		if anyRowHasTag(t, tag) {
			deleted = append(deleted, tag)
		} else {
			unknown = append(unknown, tag)
		}
	}

	if len(deleted) == 0 {
		return t.Clone(), warning("No tags deleted. All specified tags do not exist: " + strings.Join(unknown, ", ")), nil
	}

	out := t.Clone()
	for _, row := range out.Rows {
		kept := []string{}
		for _, tag := range util.SplitTags(row[internal.ColTag]) {
			if !util.Contains(deleted, tag) {
				kept = append(kept, tag)
			}
		}
		row[internal.ColTag] = strings.Join(kept, internal.TagSeparator)
	}

	msg := "Tag(s) deleted successfully: " + strings.Join(deleted, ", ")
	if len(unknown) > 0 {
		msg += "\nNon-existent tag(s) not deleted: " + strings.Join(unknown, ", ")
	}
	return out, success(msg), nil
}

func tagInput(t *internal.Table, input string) ([]string, internal.Feedback, error) {
	if t == nil {
		return nil, warning("Please upload and process a file before editing tags."), ErrNoTable
	}
	if !t.HasColumn(internal.ColTag) {
		return nil, warning("Tags can only be edited on a cleaned table."), ErrNoTagField
	}
	tags := util.Dedupe(util.SplitList(input))
	if len(tags) == 0 {
		return nil, warning("Please enter at least one tag."), ErrNoTags
	}
	return tags, internal.Feedback{}, nil
}

func anyRowHasTag(t *internal.Table, tag string) bool {
	for _, row := range t.Rows {
		if util.Contains(util.SplitTags(row[internal.ColTag]), tag) {
			return true
		}
	}
	return false
}

func success(msg string) internal.Feedback {
	return internal.Feedback{Message: msg, Severity: internal.SeveritySuccess}
}

func warning(msg string) internal.Feedback {
	return internal.Feedback{Message: msg, Severity: internal.SeverityWarning}
}
