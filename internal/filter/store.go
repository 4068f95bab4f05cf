package filter

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"oui-spy.klederson.com/internal/config"
	"oui-spy.klederson.com/internal/guard"
	"oui-spy.klederson.com/internal/radio"
)

// Persistence is the indexed key-value layout the store is saved to: a count
// plus that many entries. Failures are logged and never fatal.
type Persistence interface {
	LoadCount() (int, error)
	LoadEntry(i int) (string, error)
	SaveCount(n int) error
	SaveEntry(i int, v string) error
	RemoveEntry(i int) error
}

// Rejection records why a line of bulk input was not stored.
type Rejection struct {
	Line int // 1-based
	Text string
	Err  error
}

// ReplaceResult summarizes a bulk Replace.
type ReplaceResult struct {
	Stored   []Entry
	Rejected []Rejection
}

type entries struct {
	list []Entry
	gen  uint64
}

// Store is the capacity-bounded, duplicate-free, ordered watch-list.
type Store struct {
	state    *guard.Guard[entries]
	persist  Persistence
	log      *slog.Logger
	capacity int

	persistMu sync.Mutex
	savedGen  uint64
	savedLen  int
}

// NewStore creates an empty store backed by p. p may be nil.
func NewStore(p Persistence, log *slog.Logger) *Store {
	return &Store{
		state:    guard.New(entries{}),
		persist:  p,
		log:      log,
		capacity: config.FilterCapacity,
	}
}

// Load replaces the in-memory list with the persisted one. Unreadable or
// invalid entries are skipped; the number of entries kept is returned.
func (s *Store) Load() (int, error) {
	if s.persist == nil {
		return 0, nil
	}
	n, err := s.persist.LoadCount()
	if err != nil {
		s.log.Warn("filter count unreadable", "error", err)
		return 0, nil
	}
	// Saves never persist more than capacity entries; a larger count is corrupt.
	if n < 0 || n > s.capacity {
		s.log.Warn("filter count out of range, clamping", "count", n, "capacity", s.capacity)
		n = min(max(n, 0), s.capacity)
	}

	var loaded []Entry
	seen := make(map[Entry]bool, n)
	for i := 0; i < n && len(loaded) < s.capacity; i++ {
		v, err := s.persist.LoadEntry(i)
		if err != nil {
			s.log.Warn("filter entry unreadable", "index", i, "error", err)
			continue
		}
		e, err := Normalize(v)
		if err != nil || seen[e] {
			continue
		}
		seen[e] = true
		loaded = append(loaded, e)
	}

	ok := s.state.With(config.ForegroundLockTimeout, func(st *entries) {
		st.list = loaded
		st.gen++
	})
	if !ok {
		return 0, ErrStoreBusy
	}
	s.persistMu.Lock()
	s.savedLen = n
	s.persistMu.Unlock()
	return len(loaded), nil
}

// Add normalizes raw and appends it, then persists the list.
func (s *Store) Add(raw string) (Entry, error) {
	e, err := Normalize(raw)
	if err != nil {
		return "", err
	}
	var (
		addErr error
		snap   entries
	)
	ok := s.state.With(config.ForegroundLockTimeout, func(st *entries) {
		for _, cur := range st.list {
			if cur == e {
				addErr = fmt.Errorf("%w: %s", ErrDuplicateEntry, e.Pretty())
				return
			}
		}
		if len(st.list) >= s.capacity {
			addErr = ErrCapacityExceeded
			return
		}
		st.list = append(st.list, e)
		st.gen++
		snap = st.snapshot()
	})
	if !ok {
		return "", ErrStoreBusy
	}
	if addErr != nil {
		return "", addErr
	}
	s.save(snap)
	return e, nil
}

// PromoteOUI adds the manufacturer prefix of a.
func (s *Store) PromoteOUI(a radio.Address) (Entry, error) {
	return s.Add(a.OUI())
}

// PromoteAddress adds the full address a.
func (s *Store) PromoteAddress(a radio.Address) (Entry, error) {
	return s.Add(a.String())
}

// Clear empties the store and its persisted copy.
func (s *Store) Clear() error {
	var snap entries
	ok := s.state.With(config.ForegroundLockTimeout, func(st *entries) {
		st.list = nil
		st.gen++
		snap = st.snapshot()
	})
	if !ok {
		return ErrStoreBusy
	}
	s.save(snap)
	return nil
}

// Replace parses newline-separated text and makes its valid entries the new
// list. Blank lines are skipped; malformed, duplicate and over-capacity
// lines are reported and dropped.
func (s *Store) Replace(text string) (ReplaceResult, error) {
	var res ReplaceResult
	seen := make(map[Entry]bool)
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		e, err := Normalize(line)
		switch {
		case err != nil:
		case seen[e]:
			err = ErrDuplicateEntry
		case len(res.Stored) >= s.capacity:
			err = ErrCapacityExceeded
		}
		if err != nil {
			res.Rejected = append(res.Rejected, Rejection{Line: i + 1, Text: line, Err: err})
			continue
		}
		seen[e] = true
		res.Stored = append(res.Stored, e)
	}

	var snap entries
	ok := s.state.With(config.ForegroundLockTimeout, func(st *entries) {
		st.list = append([]Entry(nil), res.Stored...)
		st.gen++
		snap = st.snapshot()
	})
	if !ok {
		return ReplaceResult{}, ErrStoreBusy
	}
	s.save(snap)
	return res, nil
}

// Entries returns a copy of the list.
func (s *Store) Entries() ([]Entry, error) {
	var out []Entry
	ok := s.state.With(config.ForegroundLockTimeout, func(st *entries) {
		out = append([]Entry(nil), st.list...)
	})
	if !ok {
		return nil, ErrStoreBusy
	}
	return out, nil
}

// Len returns the number of entries, or -1 if the store could not be read.
func (s *Store) Len() int {
	n := -1
	s.state.With(config.ForegroundLockTimeout, func(st *entries) { n = len(st.list) })
	return n
}

// Match runs MatchAddress against the list under the short callback lock
// timeout. ok is false when the lock was not acquired and the observation
// should be skipped.
func (s *Store) Match(a radio.Address) (matched, ok bool) {
	ok = s.state.With(config.CallbackLockTimeout, func(st *entries) {
		matched = MatchAddress(a, st.list)
	})
	return matched, ok
}

func (st *entries) snapshot() entries {
	return entries{list: append([]Entry(nil), st.list...), gen: st.gen}
}

// save writes snap outside the state lock. Older generations that lose the
// race to a newer save are skipped.
func (s *Store) save(snap entries) {
	if s.persist == nil {
		return
	}
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if snap.gen <= s.savedGen {
		return
	}

	for i, e := range snap.list {
		if err := s.persist.SaveEntry(i, string(e)); err != nil {
			s.log.Warn("filter entry not saved", "index", i, "error", err)
		}
	}
	for i := len(snap.list); i < s.savedLen; i++ {
		if err := s.persist.RemoveEntry(i); err != nil {
			s.log.Warn("stale filter entry not removed", "index", i, "error", err)
		}
	}
	if err := s.persist.SaveCount(len(snap.list)); err != nil {
		s.log.Warn("filter count not saved", "error", err)
	}
	s.savedGen = snap.gen
	s.savedLen = len(snap.list)
}
