package redis

import (
	"github.com/distlimit/engine/pkg/ratelimit"
)

// tuple is the four-element {a, b, c, d} shape every algorithm script
// returns, whether from an attempt or a status call. Field meaning
// depends on which: for attempt it is {allowed, retry_after,
// retries_left, limit}; for status it is {count, remaining, retry_after,
// limit}.
type tuple struct {
	a, b, c, d int64
}

func parseTuple(scriptID string, raw []interface{}) (tuple, error) {
	if len(raw) != 4 {
		return tuple{}, ratelimit.ErrUnexpectedResult(scriptID)
	}
	vals := make([]int64, 4)
	for i, v := range raw {
		n, ok := toInt64(v)
		if !ok {
			return tuple{}, ratelimit.ErrUnexpectedResult(scriptID)
		}
		vals[i] = n
	}
	return tuple{a: vals[0], b: vals[1], c: vals[2], d: vals[3]}, nil
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}

func parseSingle(scriptID string, raw []interface{}) (int64, error) {
	if len(raw) != 1 {
		return 0, ratelimit.ErrUnexpectedResult(scriptID)
	}
	n, ok := toInt64(raw[0])
	if !ok {
		return 0, ratelimit.ErrUnexpectedResult(scriptID)
	}
	return n, nil
}

func attemptDecision(t tuple) ratelimit.Decision {
	return ratelimit.NewDecision(t.b, t.c, t.d)
}
