package service

import "sync"

const issuedWindow = 4096

// issuedLog remembers recently issued numbers per counter key so a counter
// that hands out a value twice, or falls behind, is caught before the number
// reaches an invoice.
type issuedLog struct {
	mu   sync.Mutex
	keys map[string]*issuedSet
}

type issuedSet struct {
	max    int64
	recent map[int64]struct{}
}

func newIssuedLog() *issuedLog {
	return &issuedLog{keys: make(map[string]*issuedSet)}
}

// record returns false when value cannot be a fresh allocation for key.
func (l *issuedLog) record(key string, value int64) bool {
	if value <= 0 {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	set, ok := l.keys[key]
	if !ok {
		set = &issuedSet{recent: make(map[int64]struct{})}
		l.keys[key] = set
	}
	if _, dup := set.recent[value]; dup {
		return false
	}
	if set.max > issuedWindow && value <= set.max-issuedWindow {
		return false
	}
	set.recent[value] = struct{}{}
	if value > set.max {
		set.max = value
	}
	if len(set.recent) > 2*issuedWindow {
		floor := set.max - issuedWindow
		for v := range set.recent {
			if v <= floor {
				delete(set.recent, v)
			}
		}
	}
	return true
}
