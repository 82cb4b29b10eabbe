// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package freelist implements a coalescing free-list suballocator that
// partitions a fixed-size backing range (e.g., a uniform or staging buffer)
// into non-overlapping byte ranges.  Allocation is first-fit over a
// singly-linked list of free (offset, size) nodes kept sorted by offset;
// freed ranges merge with numerically adjacent free neighbors.
package freelist

import (
	"errors"
	"fmt"
)

// ErrOutOfSpace is returned by [List.Allocate] when no single free run
// is large enough to satisfy the request.  Callers must treat this as a
// hard allocation failure, not a condition to ignore.
var ErrOutOfSpace = errors.New("freelist: out of space")

// node is one free range.  The list is sorted by Offset and no two
// nodes are ever adjacent (adjacent ranges are merged on Free).
type node struct {
	offset int
	size   int
	next   *node
}

// List manages free ranges within a backing span of Total bytes.
// The zero value is not usable; call [New].
type List struct {
	// Total is the size of the backing span in bytes.
	Total int

	head *node
}

// New returns a new List managing total bytes, all initially free.
func New(total int) *List {
	fl := &List{}
	fl.Init(total)
	return fl
}

// Init (re)initializes the list to manage total bytes, all free.
func (fl *List) Init(total int) {
	fl.Total = total
	fl.head = &node{offset: 0, size: total}
}

// Reset returns the list to its initial fully-free state,
// discarding any outstanding allocations.  Used for transient
// per-frame staging memory where nothing survives the frame.
func (fl *List) Reset() {
	fl.head = &node{offset: 0, size: fl.Total}
}

// Allocate returns the offset of a free range of the given size,
// removing it from the free list.  The first free node large enough
// is used: an exact-size match consumes the whole node, a larger node
// is shrunk in place.  Returns [ErrOutOfSpace] if no node fits.
func (fl *List) Allocate(size int) (int, error) {
	if size <= 0 {
		return 0, fmt.Errorf("freelist: invalid allocation size %d", size)
	}
	var prev *node
	for n := fl.head; n != nil; n = n.next {
		if n.size == size {
			if prev != nil {
				prev.next = n.next
			} else {
				fl.head = n.next
			}
			return n.offset, nil
		}
		if n.size > size {
			off := n.offset
			n.offset += size
			n.size -= size
			return off, nil
		}
		prev = n
	}
	return 0, ErrOutOfSpace
}

// Free returns the range (offset, size) to the list.  The range is
// merged with a numerically-following adjacent free node, and then
// checked against the immediately preceding node for a three-way merge.
// Returns an error if the range falls outside the backing span.
func (fl *List) Free(offset, size int) error {
	if size <= 0 || offset < 0 || offset+size > fl.Total {
		return fmt.Errorf("freelist: invalid free of (%d, %d) with total %d", offset, size, fl.Total)
	}
	var prev *node
	n := fl.head
	for n != nil && n.offset < offset {
		prev = n
		n = n.next
	}
	nn := &node{offset: offset, size: size, next: n}
	if prev != nil {
		prev.next = nn
	} else {
		fl.head = nn
	}
	// merge with the following node if adjacent
	if n != nil && nn.offset+nn.size == n.offset {
		nn.size += n.size
		nn.next = n.next
	}
	// then check the preceding node for a (possibly three-way) merge
	if prev != nil && prev.offset+prev.size == nn.offset {
		prev.size += nn.size
		prev.next = nn.next
	}
	return nil
}

// FreeSpace returns the total number of free bytes across all nodes.
func (fl *List) FreeSpace() int {
	tot := 0
	for n := fl.head; n != nil; n = n.next {
		tot += n.size
	}
	return tot
}

// NodeCount returns the number of free nodes.  A fully-merged list
// with no allocations has exactly one node spanning the whole range.
func (fl *List) NodeCount() int {
	ct := 0
	for n := fl.head; n != nil; n = n.next {
		ct++
	}
	return ct
}
