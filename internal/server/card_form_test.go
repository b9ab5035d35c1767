package server

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kutbudev/cardboard/internal/errors"
	"github.com/kutbudev/cardboard/internal/models"
)

func TestDecodePK(t *testing.T) {
	tests := []struct {
		raw string
		id  uint
		msg string
	}{
		{`3`, 3, ""},
		{`"3"`, 3, ""},
		{`" 12 "`, 12, ""},
		{`"x"`, 0, `Invalid pk "x" - object does not exist.`},
		{`-1`, 0, `Invalid pk "-1" - object does not exist.`},
		{`true`, 0, "Incorrect type. Expected pk value, received bool."},
		{`[1]`, 0, "Incorrect type. Expected pk value, received list."},
		{`{"id":1}`, 0, "Incorrect type. Expected pk value, received dict."},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			id, msg := decodePK(json.RawMessage(tt.raw))
			assert.Equal(t, tt.id, id)
			assert.Equal(t, tt.msg, msg)
		})
	}
}

func TestDecodeDatetime(t *testing.T) {
	want := time.Date(2021, 3, 14, 9, 26, 0, 0, time.UTC)

	for _, raw := range []string{`"2021-03-14T09:26:00Z"`, `"2021-03-14T09:26"`, `"2021-03-14T10:26:00+01:00"`} {
		got, ok := decodeDatetime(json.RawMessage(raw))
		require.True(t, ok, raw)
		assert.True(t, want.Equal(got), raw)
	}

	_, ok := decodeDatetime(json.RawMessage(`"14/03/2021"`))
	assert.False(t, ok)
	_, ok = decodeDatetime(json.RawMessage(`1615713960`))
	assert.False(t, ok)
}

func TestDecodeCardFormPartial(t *testing.T) {
	lookups := 0
	exists := func(_ context.Context, field string, id uint) (bool, error) {
		lookups++
		return field == "status" && id == 2, nil
	}

	fields := map[string]json.RawMessage{"status": json.RawMessage(`2`), "title": json.RawMessage(`"new"`)}
	form, err := decodeCardForm(context.Background(), fields, true, exists)
	require.NoError(t, err)
	assert.Equal(t, 1, lookups)

	card := models.Card{Title: "old", Text: "kept", StatusID: 1, ColorID: 5}
	form.apply(&card)
	assert.Equal(t, "new", card.Title)
	assert.Equal(t, "kept", card.Text)
	assert.Equal(t, uint(2), card.StatusID)
	assert.Equal(t, uint(5), card.ColorID)

	_, err = decodeCardForm(context.Background(), fields, false, exists)
	var verr errors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.ElementsMatch(t, []string{"text", "category", "color"}, keys(verr))
}

func TestDecodeCardFormLookupFailure(t *testing.T) {
	boom := errors.New("database is gone")
	exists := func(context.Context, string, uint) (bool, error) { return false, boom }

	_, err := decodeCardForm(context.Background(), map[string]json.RawMessage{"color": json.RawMessage(`1`)}, true, exists)
	assert.ErrorIs(t, err, boom)
}

func keys(m map[string][]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
