package workbench

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadprep/internal"
)

func taggedTable() *internal.Table {
	return &internal.Table{
		Name:    "cleaned.csv",
		Columns: []string{internal.ColContactID, internal.OutPersonalState, internal.ColTag},
		Rows: []internal.Row{
			{internal.ColContactID: "1", internal.OutPersonalState: "CA", internal.ColTag: "reader, sms"},
			{internal.ColContactID: "2", internal.OutPersonalState: "IL", internal.ColTag: "reader, email"},
			{internal.ColContactID: "3", internal.OutPersonalState: "CA", internal.ColTag: ""},
		},
	}
}

func tagsOf(t *internal.Table) []string {
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[internal.ColTag]
	}
	return out
}

func TestAddTags(t *testing.T) {
	in := taggedTable()
	out, fb, err := AddTags(in, "vip, sms ,promo,vip")
	require.NoError(t, err)

	assert.Equal(t, internal.SeveritySuccess, fb.Severity)
	assert.Equal(t, "New tag(s) added successfully: vip, promo\nExisting tag(s) not added: sms", fb.Message)
	assert.Equal(t, []string{"reader, sms, vip, promo", "reader, email, vip, promo", "vip, promo"}, tagsOf(out))
	assert.Equal(t, []string{"reader, sms", "reader, email", ""}, tagsOf(in))
}

func TestAddTagsAllExisting(t *testing.T) {
	out, fb, err := AddTags(taggedTable(), "reader, email")
	require.NoError(t, err)
	assert.Equal(t, internal.SeverityWarning, fb.Severity)
	assert.Equal(t, "No new tags added. All tags already exist: reader, email", fb.Message)
	assert.Equal(t, tagsOf(taggedTable()), tagsOf(out))
}

func TestDeleteTags(t *testing.T) {
	out, fb, err := DeleteTags(taggedTable(), "reader, ghost")
	require.NoError(t, err)
	assert.Equal(t, internal.SeveritySuccess, fb.Severity)
	assert.Equal(t, "Tag(s) deleted successfully: reader\nNon-existent tag(s) not deleted: ghost", fb.Message)
	assert.Equal(t, []string{"sms", "email", ""}, tagsOf(out))

	_, fb, err = DeleteTags(taggedTable(), "ghost")
	require.NoError(t, err)
	assert.Equal(t, internal.SeverityWarning, fb.Severity)
	assert.Equal(t, "No tags deleted. All specified tags do not exist: ghost", fb.Message)
}

func TestTagEditsRefused(t *testing.T) {
	_, _, err := AddTags(nil, "vip")
	assert.ErrorIs(t, err, ErrNoTable)

	raw := &internal.Table{Columns: []string{"A"}, Rows: []internal.Row{{"A": "1"}}}
	_, fb, err := AddTags(raw, "vip")
	assert.ErrorIs(t, err, ErrNoTagField)
	assert.Equal(t, internal.SeverityWarning, fb.Severity)

	_, _, err = DeleteTags(taggedTable(), " , ")
	assert.ErrorIs(t, err, ErrNoTags)
}

func TestFilter(t *testing.T) {
	in := taggedTable()
	out, fb, err := Filter(in, internal.OutPersonalState, "CA, TX")
	require.NoError(t, err)
	require.Len(t, out.Rows, 2)
	assert.Equal(t, "1", out.Rows[0][internal.ColContactID])
	assert.Equal(t, "3", out.Rows[1][internal.ColContactID])
	assert.Equal(t, "Data filtered successfully. 2 rows match the filter criteria.\nNote: The following values were not found in the 'Personal State' column: TX", fb.Message)

	// filtered rows are copies
	out.Rows[0][internal.ColTag] = "changed"
	assert.Equal(t, "reader, sms", in.Rows[0][internal.ColTag])
}

func TestFilterRefused(t *testing.T) {
	_, fb, err := Filter(taggedTable(), "Country", "US")
	assert.ErrorIs(t, err, ErrUnknownColumn)
	assert.Equal(t, "Selected column 'Country' does not exist in the data.", fb.Message)

	_, fb, err = Filter(taggedTable(), internal.OutPersonalState, "NY")
	assert.ErrorIs(t, err, ErrNoMatches)
	assert.Equal(t, "None of the provided values exist in the 'Personal State' column.", fb.Message)

	_, _, err = Filter(taggedTable(), "", "CA")
	assert.ErrorIs(t, err, ErrEmptyFilter)

	_, _, err = Filter(nil, internal.OutPersonalState, "CA")
	assert.ErrorIs(t, err, ErrNoTable)
}

func TestStoreLifecycle(t *testing.T) {
	store := NewStore()
	sess := store.Create("clean", []string{"a.csv"}, taggedTable(), internal.Feedback{Message: "ok", Severity: internal.SeveritySuccess})
	require.NotEmpty(t, sess.ID)
	assert.Equal(t, 1, store.Len())

	updated, err := store.Apply(sess.ID, func(t *internal.Table) (*internal.Table, internal.Feedback, error) {
		return AddTags(t, "vip")
	})
	require.NoError(t, err)
	assert.Equal(t, "reader, sms, vip", updated.Table.Rows[0][internal.ColTag])

	// a refused edit keeps the table and records the message
	refused, err := store.Apply(sess.ID, func(t *internal.Table) (*internal.Table, internal.Feedback, error) {
		return Filter(t, "Nope", "x")
	})
	require.ErrorIs(t, err, ErrUnknownColumn)
	assert.Equal(t, 3, refused.Table.Len())
	assert.Equal(t, internal.SeverityWarning, refused.Feedback.Severity)

	got, err := store.Get(sess.ID)
	require.NoError(t, err)
	got.Table.Rows[0][internal.ColTag] = "mutated"
	again, _ := store.Get(sess.ID)
	assert.Equal(t, "reader, sms, vip", again.Table.Rows[0][internal.ColTag])

	assert.True(t, store.Delete(sess.ID))
	assert.False(t, store.Delete(sess.ID))
	_, err = store.Get(sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStoreConcurrentApply(t *testing.T) {
	store := NewStore()
	sess := store.Create("clean", nil, taggedTable(), internal.Feedback{})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.Apply(sess.ID, func(t *internal.Table) (*internal.Table, internal.Feedback, error) {
				return AddTags(t, "vip")
			})
			_, _ = store.Get(sess.ID)
		}()
	}
	wg.Wait()

	got, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "reader, sms, vip", got.Table.Rows[0][internal.ColTag])
}
