package normalize

import (
	"encoding/json"
	"strconv"
	"strings"
)

// AttributeType is the declared type of a tenant-defined attribute.
type AttributeType string

const (
	AttributeNumber AttributeType = "Number"
	AttributeDate   AttributeType = "Date"
	AttributeYesNo  AttributeType = "Yes/No"
	AttributeText   AttributeType = "Text"
)

// Valid reports whether t is one of the declared attribute types.
func (t AttributeType) Valid() bool {
	switch t {
	case AttributeNumber, AttributeDate, AttributeYesNo, AttributeText:
		return true
	}
	return false
}

// AttributeDef is a tenant-defined attribute as read from configuration.
type AttributeDef struct {
	Name         string
	Type         AttributeType
	Required     bool
	DefaultValue string
	ForType      string
}

// AttributeValue is a coerced attribute value. Only the member selected by
// Type is meaningful.
type AttributeValue struct {
	Type   AttributeType
	Number float64
	Bool   bool
	Text   string
}

// CoerceAttribute converts a raw cell according to t.
func CoerceAttribute(t AttributeType, raw string) AttributeValue {
	v := strings.TrimSpace(raw)
	switch t {
	case AttributeNumber:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			f = 0
		}
		return AttributeValue{Type: t, Number: f}
	case AttributeYesNo:
		l := strings.ToLower(v)
		return AttributeValue{Type: t, Bool: l == "yes" || l == "true" || l == "1"}
	case AttributeDate:
		return AttributeValue{Type: t, Text: raw}
	default:
		return AttributeValue{Type: AttributeText, Text: v}
	}
}

// Missing reports whether the value is falsy without being a boolean. A
// Yes/No attribute answered "no" is present.
func (v AttributeValue) Missing() bool {
	switch v.Type {
	case AttributeYesNo:
		return false
	case AttributeNumber:
		return v.Number == 0
	default:
		return strings.TrimSpace(v.Text) == ""
	}
}

// Interface returns the plain Go value for serialization.
func (v AttributeValue) Interface() interface{} {
	switch v.Type {
	case AttributeNumber:
		return v.Number
	case AttributeYesNo:
		return v.Bool
	default:
		return v.Text
	}
}

func (v AttributeValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// Attributes is a record's set of custom attribute values.
type Attributes map[string]AttributeValue

// Plain converts the set into a JSON-ready map.
func (a Attributes) Plain() map[string]interface{} {
	out := make(map[string]interface{}, len(a))
	for k, v := range a {
		out[k] = v.Interface()
	}
	return out
}

// FilterDefs returns the definitions that apply to forType.
func FilterDefs(defs []AttributeDef, forType string) []AttributeDef {
	var out []AttributeDef
	for _, d := range defs {
		if d.ForType == forType {
			out = append(out, d)
		}
	}
	return out
}
