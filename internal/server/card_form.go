package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kutbudev/cardboard/internal/errors"
	"github.com/kutbudev/cardboard/internal/models"
)

const (
	titleMaxLength = 255

	nullMessage     = "This field may not be null."
	stringMessage   = "Not a valid string."
	datetimeMessage = "Datetime has wrong format. Use one of these formats instead: YYYY-MM-DDThh:mm[:ss[.uuuuuu]][+HH:MM|-HH:MM|Z]."
)

var datetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// cardForm is a decoded card payload. Nil fields were absent.
type cardForm struct {
	Title        *string
	Text         *string
	CreationDate *time.Time
	Category     *uint
	Status       *uint
	Color        *uint
}

// termExists reports whether the term referenced by a card field exists.
type termExists func(ctx context.Context, field string, id uint) (bool, error)

// decodeCardForm validates a card payload field by field. Unless partial,
// every writable field except creation_date is required. Referenced terms
// must exist.
func decodeCardForm(ctx context.Context, fields map[string]json.RawMessage, partial bool, exists termExists) (cardForm, error) {
	var (
		form cardForm
		verr = errors.ValidationError{}
	)

	present := func(name string) (json.RawMessage, bool) {
		raw, ok := fields[name]
		if !ok {
			if !partial {
				verr.Add(name, errors.RequiredMessage)
			}
			return nil, false
		}
		if isNull(raw) {
			verr.Add(name, nullMessage)
			return nil, false
		}
		return raw, true
	}

	if raw, ok := present("title"); ok {
		if s, msg := decodeText(raw); msg != "" {
			verr.Add("title", msg)
		} else if utf8.RuneCountInString(s) > titleMaxLength {
			verr.Add("title", fmt.Sprintf("Ensure this field has no more than %d characters.", titleMaxLength))
		} else {
			form.Title = &s
		}
	}

	if raw, ok := present("text"); ok {
		if s, msg := decodeText(raw); msg != "" {
			verr.Add("text", msg)
		} else {
			form.Text = &s
		}
	}

	// creation_date is optional even on create.
	if raw, ok := fields["creation_date"]; ok {
		if isNull(raw) {
			verr.Add("creation_date", nullMessage)
		} else if t, ok := decodeDatetime(raw); !ok {
			verr.Add("creation_date", datetimeMessage)
		} else {
			form.CreationDate = &t
		}
	}

	for _, ref := range []struct {
		name string
		dst  **uint
	}{
		{"category", &form.Category},
		{"status", &form.Status},
		{"color", &form.Color},
	} {
		raw, ok := present(ref.name)
		if !ok {
			continue
		}

		id, msg := decodePK(raw)
		if msg != "" {
			verr.Add(ref.name, msg)
			continue
		}

		found, err := exists(ctx, ref.name, id)
		if err != nil {
			return cardForm{}, err
		}
		if !found {
			verr.Add(ref.name, fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id))
			continue
		}
		*ref.dst = &id
	}

	if err := verr.Err(); err != nil {
		return cardForm{}, err
	}
	return form, nil
}

// apply copies the present fields of f onto c.
func (f cardForm) apply(c *models.Card) {
	if f.Title != nil {
		c.Title = *f.Title
	}
	if f.Text != nil {
		c.Text = *f.Text
	}
	if f.CreationDate != nil {
		c.CreationDate = *f.CreationDate
	}
	if f.Category != nil {
		c.CategoryID = *f.Category
	}
	if f.Status != nil {
		c.StatusID = *f.Status
	}
	if f.Color != nil {
		c.ColorID = *f.Color
	}
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// decodeText accepts a non-blank string, or a number in its text form.
func decodeText(raw json.RawMessage) (string, string) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", stringMessage
		}
		s = n.String()
	}
	if strings.TrimSpace(s) == "" {
		return "", errors.BlankMessage
	}
	return s, ""
}

// decodePK accepts an integer or a string holding one.
func decodePK(raw json.RawMessage) (uint, string) {
	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return 0, "Incorrect type. Expected pk value, received str."
	}

	var text string
	switch t := v.(type) {
	case json.Number:
		text = t.String()
	case string:
		text = strings.TrimSpace(t)
	default:
		return 0, fmt.Sprintf("Incorrect type. Expected pk value, received %s.", typeName(v))
	}

	id, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return 0, fmt.Sprintf("Invalid pk \"%s\" - object does not exist.", text)
	}
	return uint(id), ""
}

func decodeDatetime(raw json.RawMessage) (time.Time, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// typeName names the JSON type of v in error messages.
func typeName(v interface{}) string {
	switch v.(type) {
	case bool:
		return "bool"
	case []interface{}:
		return "list"
	case map[string]interface{}:
		return "dict"
	default:
		return "str"
	}
}
