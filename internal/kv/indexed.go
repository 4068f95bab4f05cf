package kv

import (
	"errors"
	"fmt"
	"strconv"
)

const countKey = "count"

// Indexed lays a list out under one namespace as a "count" key plus one
// "f<i>" key per element.
type Indexed struct {
	store     Store
	namespace string
}

// NewIndexed returns the indexed layout over store.
func NewIndexed(store Store, namespace string) *Indexed {
	return &Indexed{store: store, namespace: namespace}
}

// LoadCount returns the stored count, 0 when none has been saved.
func (x *Indexed) LoadCount() (int, error) {
	v, err := x.store.Get(x.namespace, countKey)
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("kv: bad count %q", v)
	}
	return n, nil
}

func (x *Indexed) LoadEntry(i int) (string, error) {
	return x.store.Get(x.namespace, entryKey(i))
}

func (x *Indexed) SaveCount(n int) error {
	return x.store.Put(x.namespace, countKey, strconv.Itoa(n))
}

func (x *Indexed) SaveEntry(i int, v string) error {
	return x.store.Put(x.namespace, entryKey(i), v)
}

func (x *Indexed) RemoveEntry(i int) error {
	return x.store.Delete(x.namespace, entryKey(i))
}

func entryKey(i int) string { return "f" + strconv.Itoa(i) }
