package contracts

import (
	"encoding/json"
	"math"
)

// Optional is a float that may be Unavailable.
// It replaces NaN sentinels so "no data" is never confused with a computed value.
type Optional struct {
	V  float64
	OK bool
}

// Some wraps a computed value. NaN and Inf become Unavailable.
func Some(v float64) Optional {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Optional{}
	}
	return Optional{V: v, OK: true}
}

// Unavailable returns the empty Optional
func Unavailable() Optional {
	return Optional{}
}

// Get returns the value and whether it is available
func (o Optional) Get() (float64, bool) {
	return o.V, o.OK
}

// Or returns the value or def when unavailable
func (o Optional) Or(def float64) float64 {
	if !o.OK {
		return def
	}
	return o.V
}

// Round returns the value rounded to the given number of decimals
func (o Optional) Round(decimals int) Optional {
	if !o.OK {
		return o
	}
	p := math.Pow(10, float64(decimals))
	return Optional{V: math.Round(o.V*p) / p, OK: true}
}

// MarshalJSON encodes Unavailable as null
func (o Optional) MarshalJSON() ([]byte, error) {
	if !o.OK {
		return []byte("null"), nil
	}
	return json.Marshal(o.V)
}

// UnmarshalJSON decodes null as Unavailable
func (o *Optional) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = Optional{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}
