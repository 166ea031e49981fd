package task

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Params is an immutable, ordered mapping of named parameter values.
// Values must be JSON-serializable: scalars, string-keyed maps and slices.
// Insertion order is kept for display; identity ignores it.
type Params struct {
	names  []string
	values map[string]interface{}
}

// NewParams builds Params from alternating name/value pairs.
//
//	task.NewParams("result", 7, "branch_again", true)
func NewParams(pairs ...interface{}) Params {
	if len(pairs)%2 != 0 {
		panic("task.NewParams: odd number of arguments")
	}
	p := Params{}
	for i := 0; i < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("task.NewParams: parameter name %v is not a string", pairs[i]))
		}
		p = p.With(name, pairs[i+1])
	}
	return p
}

// ParamsFromMap builds Params from a map, ordering names alphabetically.
func ParamsFromMap(m map[string]interface{}) Params {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)

	p := Params{}
	for _, name := range names {
		p = p.With(name, m[name])
	}
	return p
}

// With returns a copy of p with name set to value. Setting an existing
// name replaces its value and keeps its position.
func (p Params) With(name string, value interface{}) Params {
	out := Params{
		names:  make([]string, len(p.names), len(p.names)+1),
		values: make(map[string]interface{}, len(p.values)+1),
	}
	copy(out.names, p.names)
	for k, v := range p.values {
		out.values[k] = v
	}
	if _, exists := out.values[name]; !exists {
		out.names = append(out.names, name)
	}
	out.values[name] = value
	return out
}

// Len returns the number of parameters.
func (p Params) Len() int {
	return len(p.names)
}

// Names returns parameter names in insertion order.
func (p Params) Names() []string {
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

// Get returns the value for name.
func (p Params) Get(name string) (interface{}, bool) {
	v, ok := p.values[name]
	return v, ok
}

// Map returns a shallow copy of the parameters as a map.
func (p Params) Map() map[string]interface{} {
	out := make(map[string]interface{}, len(p.values))
	for k, v := range p.values {
		out[k] = v
	}
	return out
}

// String returns the named parameter as a string, or def.
func (p Params) String(name, def string) string {
	if v, ok := p.values[name]; ok {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprint(v)
	}
	return def
}

// Bool returns the named parameter as a bool, or def.
func (p Params) Bool(name string, def bool) bool {
	switch v := p.values[name].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// Int returns the named parameter as an int, or def when it is missing or
// not a whole number in range. Use IntValue to tell those cases apart.
func (p Params) Int(name string, def int) int {
	i, err := p.IntValue(name, def)
	if err != nil {
		return def
	}
	return i
}

// IntValue returns the named parameter as an int. A missing value yields
// def. Fractional floats and integers outside the int range are errors
// rather than being truncated.
func (p Params) IntValue(name string, def int) (int, error) {
	raw, ok := p.values[name]
	if !ok || raw == nil {
		return def, nil
	}
	switch v := raw.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int64ToInt(name, v)
	case uint64:
		if v > math.MaxInt {
			return 0, fmt.Errorf("parameter %s: %d overflows int", name, v)
		}
		return int(v), nil
	case float64:
		return floatToInt(name, v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int64ToInt(name, i)
		}
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("parameter %s: %s is not a number", name, v)
		}
		return floatToInt(name, f)
	case string:
		i, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("parameter %s: %q is not an integer", name, v)
		}
		return i, nil
	}
	return 0, fmt.Errorf("parameter %s: %v (%T) is not an integer", name, raw, raw)
}

func int64ToInt(name string, v int64) (int, error) {
	if int64(int(v)) != v {
		return 0, fmt.Errorf("parameter %s: %d overflows int", name, v)
	}
	return int(v), nil
}

func floatToInt(name string, f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("parameter %s: %v is not a whole number", name, f)
	}
	if f < math.MinInt || f >= math.MaxInt {
		return 0, fmt.Errorf("parameter %s: %v overflows int", name, f)
	}
	return int(f), nil
}

// Canonical returns the deterministic encoding used for identity: JSON
// with object keys sorted at every level and insertion order discarded.
func (p Params) Canonical() ([]byte, error) {
	if p.values == nil {
		return []byte("{}"), nil
	}
	raw, err := json.Marshal(p.values)
	if err != nil {
		return nil, err
	}
	// Re-decode and re-encode so that values with custom marshalers or typed
	// maps collapse to the same generic form as their plain equivalents.
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic interface{}
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}
	return json.Marshal(generic)
}

// MarshalJSON encodes parameters as a JSON object.
func (p Params) MarshalJSON() ([]byte, error) {
	return p.Canonical()
}

// UnmarshalJSON decodes a JSON object, keeping numbers exact.
func (p *Params) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]interface{}
	if err := dec.Decode(&m); err != nil {
		return err
	}
	*p = ParamsFromMap(m)
	return nil
}
