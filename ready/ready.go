/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package ready implements the per-daemon intrusive doubly-linked lists
// (design notes §9): rather than embedding raw prev/next pointers in
// each connection, every list is a (head, tail) pair of handles into an
// arena whose entries carry their own (prev, next) handle fields. This
// is the shape the daemon uses for "all" and "process_ready" (ProcessReady
// embeds a List) - one List value per list, sharing the same handle
// space. Idle-timeout tracking is not such a list: TimeoutList is a map.
package ready

import "github.com/nabbar/gomhd/types"

type node struct {
	inUse bool
	prev  types.Handle
	next  types.Handle
}

// List is one intrusive doubly-linked list over a shared handle arena.
// It does not own the handles' lifetime - the daemon's connection
// table does - it only tracks
// membership and order for this particular list.
type List struct {
	nodes      map[types.Handle]*node
	head, tail types.Handle
}

// NewList returns an empty List.
func NewList() *List {
	return &List{nodes: make(map[types.Handle]*node)}
}

// Contains reports whether h is currently linked into this list.
func (l *List) Contains(h types.Handle) bool {
	n, ok := l.nodes[h]
	return ok && n.inUse
}

// PushBack inserts h at the tail iff it is not already present. Returns
// false if h was already linked.
func (l *List) PushBack(h types.Handle) bool {
	if l.Contains(h) {
		return false
	}

	n := &node{inUse: true, prev: l.tail, next: types.NoHandle}
	l.nodes[h] = n

	if l.tail != types.NoHandle {
		l.nodes[l.tail].next = h
	} else {
		l.head = h
	}
	l.tail = h
	return true
}

// Remove unlinks h; a no-op if h was not linked.
func (l *List) Remove(h types.Handle) {
	n, ok := l.nodes[h]
	if !ok || !n.inUse {
		return
	}

	if n.prev != types.NoHandle {
		l.nodes[n.prev].next = n.next
	} else {
		l.head = n.next
	}
	if n.next != types.NoHandle {
		l.nodes[n.next].prev = n.prev
	} else {
		l.tail = n.prev
	}

	delete(l.nodes, h)
}

// Head returns the first handle in the list, or NoHandle if empty.
func (l *List) Head() types.Handle {
	return l.head
}

// Next returns the handle following h, or NoHandle at the tail or if h
// is not linked.
func (l *List) Next(h types.Handle) types.Handle {
	n, ok := l.nodes[h]
	if !ok {
		return types.NoHandle
	}
	return n.next
}

// Len reports the number of linked entries.
func (l *List) Len() int {
	return len(l.nodes)
}

// Walk calls f for every handle currently in the list, from head to
// tail, saving the next handle before calling f so f may safely Remove
// the handle it was just given (self-closing connections mid-pass).
func (l *List) Walk(f func(types.Handle)) {
	h := l.head
	for h != types.NoHandle {
		next := l.Next(h)
		f(h)
		h = next
	}
}
