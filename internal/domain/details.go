package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
)

type DetailField struct {
	Key   string
	Value json.RawMessage
}

// Details is an opaque payload. Object keys keep their original order;
// anything that is not an object is kept verbatim in Raw.
type Details struct {
	Fields []DetailField
	Raw    json.RawMessage
}

func NewDetails(fields ...DetailField) Details {
	return Details{Fields: fields}
}

func StringField(key, value string) DetailField {
	raw, _ := json.Marshal(value)
	return DetailField{Key: key, Value: raw}
}

func IntField(key string, value int) DetailField {
	return DetailField{Key: key, Value: json.RawMessage(strconv.Itoa(value))}
}

func (d Details) IsZero() bool {
	return d.Fields == nil && len(d.Raw) == 0
}

func (d Details) Get(key string) (json.RawMessage, bool) {
	for _, f := range d.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

func (d Details) MarshalJSON() ([]byte, error) {
	if len(d.Raw) > 0 {
		return d.Raw, nil
	}
	if d.Fields == nil {
		return []byte("null"), nil
	}

	buf := &bytes.Buffer{}
	buf.WriteByte('{')
	for i, f := range d.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if len(f.Value) == 0 {
			buf.WriteString("null")
			continue
		}
		buf.Write(f.Value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (d *Details) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	*d = Details{}
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] != '{' {
		if !json.Valid(trimmed) {
			return errors.New("details: invalid json")
		}
		d.Raw = append(json.RawMessage(nil), trimmed...)
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	if _, err := dec.Token(); err != nil {
		return err
	}
	fields := []DetailField{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return errors.New("details: object key is not a string")
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return err
		}
		fields = append(fields, DetailField{Key: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	d.Fields = fields
	return nil
}

// Pretty renders the payload indented by two spaces, keys in stored order.
func (d Details) Pretty() string {
	raw, err := d.MarshalJSON()
	if err != nil {
		return ""
	}
	buf := &bytes.Buffer{}
	if err := json.Indent(buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
