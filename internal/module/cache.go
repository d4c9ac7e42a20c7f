package module

import "time"

// cacheEntry is a parameter's last-known value. ok is false until
// init_params (or a later change/read) has populated it at least once;
// activate_updates only ever reports entries with ok == true.
type cacheEntry struct {
	value interface{}
	ts    float64
	ok    bool
}

func nowTimestamp() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

// store records value as param's current value, returning whether it
// differs from what was cached before — spec §4.5's update elision: the
// cache timestamp always advances, but a broadcast Update is only worth
// sending when the value actually changed.
func (w *Worker) store(param string, value interface{}) (changed bool) {
	prev, existed := w.cache[param]
	changed = !existed || !valuesEqual(prev.value, value)
	w.cache[param] = &cacheEntry{value: value, ts: nowTimestamp(), ok: true}
	return changed
}

// valuesEqual compares two decoded datainfo values. Slices (arrays, tuples,
// the status pair) need element-wise comparison since interface{} equality
// panics or falls through to false on non-comparable types.
func valuesEqual(a, b interface{}) bool {
	as, aok := a.([]interface{})
	bs, bok := b.([]interface{})
	if aok != bok {
		return false
	}
	if aok {
		if len(as) != len(bs) {
			return false
		}
		for i := range as {
			if !valuesEqual(as[i], bs[i]) {
				return false
			}
		}
		return true
	}
	return a == b
}
