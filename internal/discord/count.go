package discord

import (
	"encoding/json"
	"math"
)

// Count is an approximate count reported by Discord. Upstream payloads sometimes
// omit the field, send null, or send a non-number; all of those decode to an
// unset Count rather than failing the whole response. Values outside
// [0, MaxInt32] are treated the same way.
type Count struct {
	value int
	set   bool
}

// NewCount returns a set Count
func NewCount(n int) Count {
	return Count{value: n, set: true}
}

// Get returns the count and whether it was present and numeric
func (c Count) Get() (int, bool) {
	return c.value, c.set
}

// UnmarshalJSON implements json.Unmarshaler
func (c *Count) UnmarshalJSON(b []byte) error {
	*c = Count{}
	if string(b) == "null" {
		return nil
	}

	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return nil
	}
	if math.IsNaN(f) || f < 0 || f > math.MaxInt32 {
		return nil
	}
	*c = NewCount(int(f))
	return nil
}

// MarshalJSON implements json.Marshaler
func (c Count) MarshalJSON() ([]byte, error) {
	if !c.set {
		return []byte("null"), nil
	}
	return json.Marshal(c.value)
}

// FirstCount returns the first set count, in order
func FirstCount(counts ...Count) (int, bool) {
	for _, c := range counts {
		if n, ok := c.Get(); ok {
			return n, true
		}
	}
	return 0, false
}
