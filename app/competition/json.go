package competition

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp accepts RFC 3339 strings as well as zone-less local times.
// A JSON null or empty string decodes to the zero time.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		t.Time = time.Time{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		t.Time = time.Time{}
		return nil
	}

	for _, layout := range timestampLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339))
}

// StringList decodes null, a comma separated string, a number or an array of
// strings and numbers into a list of trimmed, non-empty values.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	values, err := decodeScalarList(data, nil)
	if err != nil {
		return err
	}
	*l = values
	return nil
}

// Strings returns nil for an empty list so it reads as "no constraint".
func (l StringList) Strings() []string {
	if len(l) == 0 {
		return nil
	}
	return []string(l)
}

var inviteeKeys = []string{"licenseKey", "key", "id", "personId"}

// InviteeList is a StringList that also accepts invitee objects, taking the
// first of licenseKey, key, id or personId from each.
type InviteeList []string

func (l *InviteeList) UnmarshalJSON(data []byte) error {
	values, err := decodeScalarList(data, inviteeKeys)
	if err != nil {
		return err
	}
	*l = values
	return nil
}

func (l InviteeList) Strings() []string {
	if len(l) == 0 {
		return nil
	}
	return []string(l)
}

// Money is an amount that the API sends either as a bare number or as an
// object holding an amount, price or value field.
type Money struct {
	Amount float64
	Valid  bool
}

var moneyKeys = []string{"amount", "price", "value"}

func (m *Money) UnmarshalJSON(data []byte) error {
	*m = Money{}
	if isNull(data) {
		return nil
	}

	trimmed := bytes.TrimSpace(data)
	switch trimmed[0] {
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return fmt.Errorf("invalid money object: %w", err)
		}
		for _, key := range moneyKeys {
			raw, ok := obj[key]
			if !ok || isNull(raw) {
				continue
			}
			return m.UnmarshalJSON(raw)
		}
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
		if s == "" {
			return nil
		}
		amount, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid money amount %q: %w", s, err)
		}
		m.Amount, m.Valid = amount, true
		return nil
	default:
		var amount float64
		if err := json.Unmarshal(trimmed, &amount); err != nil {
			return fmt.Errorf("invalid money amount: %w", err)
		}
		m.Amount, m.Valid = amount, true
		return nil
	}
}

func (m Money) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(m.Amount)
}

func (m Money) String() string {
	if !m.Valid {
		return ""
	}
	return strconv.FormatFloat(m.Amount, 'f', 2, 64)
}

func decodeScalarList(data []byte, objectKeys []string) ([]string, error) {
	if isNull(data) {
		return nil, nil
	}

	trimmed := bytes.TrimSpace(data)
	switch trimmed[0] {
	case '[':
		var elements []json.RawMessage
		if err := json.Unmarshal(trimmed, &elements); err != nil {
			return nil, fmt.Errorf("invalid list: %w", err)
		}
		var out []string
		for _, element := range elements {
			values, err := decodeScalarList(element, objectKeys)
			if err != nil {
				return nil, err
			}
			out = append(out, values...)
		}
		return out, nil
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, err
		}
		return splitList(s), nil
	case '{':
		if objectKeys == nil {
			return nil, fmt.Errorf("unexpected object in list")
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return nil, fmt.Errorf("invalid list object: %w", err)
		}
		for _, key := range objectKeys {
			if raw, ok := obj[key]; ok && !isNull(raw) {
				return decodeScalarList(raw, nil)
			}
		}
		return nil, nil
	case 't', 'f':
		return nil, fmt.Errorf("unexpected boolean in list")
	default:
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return nil, fmt.Errorf("invalid list value: %w", err)
		}
		return []string{n.String()}, nil
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func isNull(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
