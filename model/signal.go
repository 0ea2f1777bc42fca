package model

import (
	"encoding/json"
	"fmt"
	"sort"
)

// SignalColor is the aspect shown by a line-side signal.
type SignalColor int

const (
	SignalGreen SignalColor = iota
	SignalYellow
	SignalRed
)

func (c SignalColor) String() string {
	switch c {
	case SignalGreen:
		return "green"
	case SignalYellow:
		return "yellow"
	case SignalRed:
		return "red"
	default:
		return fmt.Sprintf("SignalColor(%d)", int(c))
	}
}

// MarshalJSON encodes the color as its lowercase name.
func (c SignalColor) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// SignalState maps signal ids (s1, s2, ...) to their current aspect.
type SignalState map[string]SignalColor

// AllGreen returns a state with every id set to green.
func AllGreen(ids ...string) SignalState {
	out := make(SignalState, len(ids))
	for _, id := range ids {
		out[id] = SignalGreen
	}
	return out
}

// Clone returns an independent copy.
func (s SignalState) Clone() SignalState {
	out := make(SignalState, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// IsAllGreen reports whether every signal shows green.
func (s SignalState) IsAllGreen() bool {
	for _, c := range s {
		if c != SignalGreen {
			return false
		}
	}
	return true
}

// IDs returns the signal ids in lexical order.
func (s SignalState) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
