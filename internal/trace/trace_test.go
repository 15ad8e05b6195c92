package trace

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/editgrid/internal/column"
	"github.com/roach88/editgrid/internal/grid"
)

func TestMarshal(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"null", nil, `null`},
		{"bool", true, `true`},
		{"int", 42, `42`},
		{"float shortest form", 0.1, `0.1`},
		{"float integral", 100.0, `100`},
		{"decimal", decimal.RequireFromString("12.50"), `12.5`},
		{"no html escaping", "<a&b>", `"<a&b>"`},
		{"nfc normalization", "e\u0301", "\"\u00e9\""},
		{"sorted keys", map[string]any{"b": 1, "a": 2, "A": 3}, `{"A":3,"a":2,"b":1}`},
		{"nested", map[string]any{"x": []any{1, "y", nil}}, `{"x":[1,"y",null]}`},
		{"time", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), `"2024-01-02T03:04:05Z"`},
		{"struct via json", column.Option{Key: "A", Value: "Alpha"}, `{"key":"A","value":"Alpha"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Marshal(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarshal_UTF16KeyOrder(t *testing.T) {
	// U+1F600 encodes as a surrogate pair (0xD83D...), which sorts before
	// U+FF61 in UTF-16 but after it in UTF-8.
	got, err := Marshal(map[string]any{"｡": 1, "\U0001F600": 2})
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":2,\"｡\":1}", string(got))
}

func TestMarshal_Deterministic(t *testing.T) {
	v := map[string]any{"z": 1, "m": map[string]any{"q": true, "c": "x"}, "a": []any{3, 2}}
	first, err := Marshal(v)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := Marshal(v)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestFromEvent(t *testing.T) {
	row := grid.Record{"id": "1", "comType": "B"}
	ev := grid.Event[grid.Record]{
		Type:     grid.EventFieldValueChange,
		Seq:      3,
		Key:      "1",
		Row:      row,
		Field:    "comType",
		OldValue: "A",
		NewValue: "B",
	}

	rec, err := FromEvent("s1", ev)
	require.NoError(t, err)
	assert.Len(t, rec.ID, 64)

	data, err := rec.Canonical()
	require.NoError(t, err)
	assert.Equal(t,
		`{"field":"comType","id":"`+rec.ID+`","index":0,"key":"1","new":"B","old":"A","row":{"comType":"B","id":"1"},"seq":3,"session":"s1","type":"fieldValueChange"}`,
		string(data))

	row["comType"] = "C"
	assert.Equal(t, "B", rec.Row.(map[string]any)["comType"], "record does not alias the row")
}

func TestFromEvent_ValidationErrors(t *testing.T) {
	ev := grid.Event[grid.Record]{
		Type: grid.EventValidationError,
		Key:  "1",
		Row:  grid.Record{"id": "1"},
		Errors: []column.FieldError{
			{Field: "percentage", Rule: column.RuleMin, Message: "too small"},
		},
	}

	rec, err := FromEvent("s1", ev)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"percentage": "too small"}, rec.Errors)
	assert.Equal(t, map[string]any{"percentage": "too small"}, rec.Object()["errors"])
}

func TestEventID(t *testing.T) {
	base := Record{Session: "s", Seq: 1, Type: grid.EventRowEditInit, Key: "1", Row: map[string]any{"id": "1"}}

	id1, err := EventID(base)
	require.NoError(t, err)
	withID := base
	withID.ID = "ignored"
	id2, err := EventID(withID)
	require.NoError(t, err)
	assert.Equal(t, id1, id2, "ID field does not feed the hash")

	other := base
	other.Seq = 2
	id3, err := EventID(other)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id3)

	otherSession := base
	otherSession.Session = "t"
	id4, err := EventID(otherSession)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id4)
}

func TestHashWithDomain(t *testing.T) {
	data := []byte("x")
	assert.NotEqual(t, hashWithDomain("a", data), hashWithDomain("b", data))
	assert.NotEqual(t, hashWithDomain("ab", []byte("c")), hashWithDomain("a", []byte("bc")),
		"separator prevents boundary ambiguity")
}

func TestParseObject(t *testing.T) {
	rec := Record{
		Session: "s",
		Seq:     7,
		Type:    grid.EventRowEditSave,
		Key:     "k",
		Index:   2,
		IsNew:   true,
		Row:     map[string]any{"id": "k"},
	}
	id, err := EventID(rec)
	require.NoError(t, err)
	rec.ID = id

	parsed, err := ParseObject(rec.Object())
	require.NoError(t, err)
	assert.Equal(t, rec, parsed)
}
