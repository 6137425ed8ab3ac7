/*
 *  Copyright (c) 2024 Mikhail Knyazhev <markus621@yandex.ru>. All rights reserved.
 *  Use of this source code is governed by a BSD 3-Clause license that can be found in the LICENSE file.
 */

package poll

import (
	"golang.org/x/sys/unix"

	netfd "go.osspkg.com/pollecho/fd"
)

// Table is a fixed-capacity set of watched descriptors. Removed entries keep
// their slot as a tombstone until Compact, so indexes stay stable while a
// poll round is being dispatched.
type Table struct {
	entries []unix.PollFd
	n       int
	removed int
}

func NewTable(capacity int) *Table {
	return &Table{
		entries: make([]unix.PollFd, capacity),
	}
}

// Insert appends fd with read interest. Returns false when no slot is left.
func (t *Table) Insert(fd int) bool {
	if t.IsFull() {
		return false
	}
	t.entries[t.n] = unix.PollFd{Fd: int32(fd), Events: eventRead}
	t.n++
	return true
}

// MarkRemoved turns the entry into a tombstone without shifting others.
func (t *Table) MarkRemoved(i int) {
	if i < 0 || i >= t.n || t.entries[i].Fd == netfd.Invalid {
		return
	}
	t.entries[i].Fd = netfd.Invalid
	t.removed++
}

// Compact drops tombstones in one pass keeping the relative order of live
// entries. Must not run while readiness results are still consulted by index.
func (t *Table) Compact() int {
	if t.removed == 0 {
		return 0
	}
	j := 0
	for i := 0; i < t.n; i++ {
		if t.entries[i].Fd == netfd.Invalid {
			continue
		}
		if i != j {
			t.entries[j] = t.entries[i]
		}
		t.entries[j].Revents = 0
		j++
	}
	for i := j; i < t.n; i++ {
		t.entries[i] = unix.PollFd{}
	}
	dropped := t.n - j
	t.n = j
	t.removed = 0
	return dropped
}

// Len is the number of occupied slots, tombstones included.
func (t *Table) Len() int {
	return t.n
}

func (t *Table) Live() int {
	return t.n - t.removed
}

func (t *Table) Removed() int {
	return t.removed
}

func (t *Table) Cap() int {
	return len(t.entries)
}

func (t *Table) IsFull() bool {
	return t.n >= len(t.entries)
}

func (t *Table) Entry(i int) *unix.PollFd {
	return &t.entries[i]
}

func (t *Table) FD(i int) int {
	return int(t.entries[i].Fd)
}

// Pause clears the interest mask of the entry, Resume restores read interest.
func (t *Table) Pause(i int) {
	t.entries[i].Events = 0
}

func (t *Table) Resume(i int) {
	t.entries[i].Events = eventRead
}

func (t *Table) IsPaused(i int) bool {
	return t.entries[i].Events == 0
}

// Descriptors lists live descriptors in table order.
func (t *Table) Descriptors() []int {
	result := make([]int, 0, t.Live())
	for i := 0; i < t.n; i++ {
		if fd := t.entries[i].Fd; fd != netfd.Invalid {
			result = append(result, int(fd))
		}
	}
	return result
}

func (t *Table) active() []unix.PollFd {
	return t.entries[:t.n]
}
