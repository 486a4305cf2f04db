package capture

import "encoding/json"

// Packet is one record of tshark's `-T json` output. Only the layers
// pcaplens reads are decoded; everything else in the record is dropped.
//
// The output shape is owned by tshark, not by this repository. Field values
// inside a layer may be strings, arrays of strings, or nested objects
// depending on the protocol, so layers decode into Layer maps and access
// goes through the tolerant Field helper.
type Packet struct {
	Source struct {
		Layers Layers `json:"layers"`
	} `json:"_source"`
}

// Layers holds the protocol layers pcaplens extracts indicators from.
type Layers struct {
	Frame Layer `json:"frame"`
	IP    Layer `json:"ip"`
	IPv6  Layer `json:"ipv6"`
	DNS   Layer `json:"dns"`
	HTTP  Layer `json:"http"`
}

// Layer is a single protocol layer with dynamic field keys.
type Layer map[string]json.RawMessage

// Field returns the named field as a string. Arrays collapse to their
// first element; missing keys and non-string shapes yield "".
func (l Layer) Field(key string) string {
	raw, ok := l[key]
	if !ok {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return list[0]
	}

	return ""
}

// FieldAll returns every string value the named field carries, whether
// the field is a scalar or an array. Missing keys yield nil.
func (l Layer) FieldAll(key string) []string {
	raw, ok := l[key]
	if !ok {
		return nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return []string{s}
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}

	return nil
}
