// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package highlevel

import (
	"errors"
	"fmt"

	"github.com/ava-labs/ckbstd/syscalls"
)

// Loader is any indexed getter in this package.
type Loader[T any] func(sys syscalls.Impls, index uint64, src syscalls.Source) (T, error)

// QueryIter walks every item of a source in index order. IndexOutOfBound
// ends the walk. Any other error is a broken assumption about the
// transaction and panics.
type QueryIter[T any] struct {
	sys    syscalls.Impls
	load   Loader[T]
	source syscalls.Source
	index  uint64
	done   bool
}

func NewQueryIter[T any](sys syscalls.Impls, load Loader[T], src syscalls.Source) *QueryIter[T] {
	return &QueryIter[T]{
		sys:    sys,
		load:   load,
		source: src,
	}
}

// Next returns the next item, or false once the source is exhausted.
func (it *QueryIter[T]) Next() (T, bool) {
	var zero T
	if it.done {
		return zero, false
	}
	v, err := it.load(it.sys, it.index, it.source)
	switch {
	case err == nil:
		it.index++
		return v, true
	case errors.Is(err, syscalls.ErrIndexOutOfBound):
		it.done = true
		return zero, false
	default:
		panic(fmt.Errorf("query %s item %d: %w", it.source, it.index, err))
	}
}

// Collect drains the iterator.
func (it *QueryIter[T]) Collect() []T {
	var out []T
	for v, ok := it.Next(); ok; v, ok = it.Next() {
		out = append(out, v)
	}
	return out
}

// Position returns the index of the first item matching [pred].
func (it *QueryIter[T]) Position(pred func(T) bool) (uint64, bool) {
	for {
		index := it.index
		v, ok := it.Next()
		if !ok {
			return 0, false
		}
		if pred(v) {
			return index, true
		}
	}
}

// Count drains the iterator and returns the number of items.
func (it *QueryIter[T]) Count() uint64 {
	var n uint64
	for _, ok := it.Next(); ok; _, ok = it.Next() {
		n++
	}
	return n
}
