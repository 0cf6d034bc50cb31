package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// GuestCount is the party size as sent by a client. Browsers post it either as
// a number or as the raw select value ("2"), so both are accepted. Strings are
// read by their leading integer prefix.
type GuestCount struct {
	Value     int
	Present   bool
	Malformed bool
}

func Guests(n int) GuestCount {
	return GuestCount{Value: n, Present: true}
}

// Ptr returns nil when no count was sent, so validators can tell a missing
// count apart from a zero one.
func (g GuestCount) Ptr() *int {
	if !g.Present || g.Malformed {
		return nil
	}
	v := g.Value
	return &v
}

func (g GuestCount) MarshalJSON() ([]byte, error) {
	if !g.Present {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(g.Value)), nil
}

func (g *GuestCount) UnmarshalJSON(data []byte) error {
	*g = GuestCount{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		g.Present = true
		n, ok := leadingInt(s)
		if !ok {
			g.Malformed = true
			return nil
		}
		g.Value = n
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		g.Present = true
		g.Malformed = true
		return nil
	}
	g.Present = true
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		g.Malformed = true
		return nil
	}
	g.Value = int(math.Trunc(f))
	return nil
}

func leadingInt(s string) (int, bool) {
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
