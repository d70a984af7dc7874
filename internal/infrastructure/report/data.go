// Package report exports user reports to files and the external ranking.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alem-hub/achievement-hub/internal/domain/achievement"
	"github.com/alem-hub/achievement-hub/internal/domain/user"
	"github.com/alem-hub/achievement-hub/internal/infrastructure/ranking"
)

// Field is one key/value pair of a report.
type Field struct {
	Key   string
	Value any
}

// Data is an ordered set of report fields. Setting an existing key replaces
// its value in place.
type Data struct {
	fields []Field
}

// NewData creates report data from key/value pairs.
func NewData(fields ...Field) *Data {
	d := &Data{}
	for _, f := range fields {
		d.Set(f.Key, f.Value)
	}
	return d
}

// Set adds or replaces a field.
func (d *Data) Set(key string, value any) *Data {
	for i := range d.fields {
		if d.fields[i].Key == key {
			d.fields[i].Value = value
			return d
		}
	}
	d.fields = append(d.fields, Field{Key: key, Value: value})
	return d
}

// Get returns the value for key.
func (d *Data) Get(key string) (any, bool) {
	for _, f := range d.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Fields returns a copy of the fields in insertion order.
func (d *Data) Fields() []Field {
	return append([]Field(nil), d.fields...)
}

// Keys returns field keys in insertion order.
func (d *Data) Keys() []string {
	keys := make([]string, 0, len(d.fields))
	for _, f := range d.fields {
		keys = append(keys, f.Key)
	}
	return keys
}

// Strings returns field values rendered as text, in key order.
func (d *Data) Strings() []string {
	out := make([]string, 0, len(d.fields))
	for _, f := range d.fields {
		out = append(out, formatValue(f.Value))
	}
	return out
}

// MarshalJSON writes an object whose keys keep insertion order.
func (d *Data) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range d.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("report field %q: %w", f.Key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []string:
		return strings.Join(t, "; ")
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// Report pairs exportable data with the ranking entry of the same user.
type Report struct {
	Data  *Data
	Entry ranking.Entry
}

// BuildUserReport collects a user's standing against the registered catalog.
// It only reads: the user and registry are left untouched.
func BuildUserReport(u *user.User, reg *achievement.Registry) Report {
	state := u.State()
	unlocked := state.UnlockedNames()

	locked := make([]string, 0)
	for _, s := range reg.Summaries() {
		if !state.HasUnlocked(s.Name) {
			locked = append(locked, s.Name)
		}
	}

	data := NewData(
		Field{"user", u.Name},
		Field{"role", string(u.Role)},
		Field{"points", state.Points()},
		Field{"achievements", unlocked},
		Field{"achievements_unlocked", len(unlocked)},
		Field{"achievements_locked", locked},
		Field{"catalog_size", reg.Len()},
	)

	return Report{Data: data, Entry: ranking.EntryFromState(state)}
}
