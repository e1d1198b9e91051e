package store

import "github.com/vectorstream/patternengine/engine"

// accessList is a doubly linked list of pattern ids ordered by recency of
// access, most-recent at the front. It backs Store's LRU eviction the same
// way engine/embed's lruCache backs the embedding cache, but keyed on
// engine.PatternId and without a value payload — the Store's own map holds
// the entries.
type accessList struct {
	nodes map[engine.PatternId]*accessNode
	head  *accessNode
	tail  *accessNode
}

type accessNode struct {
	id         engine.PatternId
	prev, next *accessNode
}

func newAccessList() *accessList {
	return &accessList{nodes: make(map[engine.PatternId]*accessNode)}
}

func (l *accessList) pushFront(id engine.PatternId) {
	if n, ok := l.nodes[id]; ok {
		l.moveToFront(id)
		_ = n
		return
	}
	n := &accessNode{id: id}
	l.nodes[id] = n
	l.linkFront(n)
}

func (l *accessList) linkFront(n *accessNode) {
	n.prev = nil
	n.next = l.head
	if l.head != nil {
		l.head.prev = n
	}
	l.head = n
	if l.tail == nil {
		l.tail = n
	}
}

func (l *accessList) unlink(n *accessNode) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev, n.next = nil, nil
}

func (l *accessList) moveToFront(id engine.PatternId) {
	n, ok := l.nodes[id]
	if !ok || l.head == n {
		return
	}
	l.unlink(n)
	l.linkFront(n)
}

func (l *accessList) remove(id engine.PatternId) {
	n, ok := l.nodes[id]
	if !ok {
		return
	}
	l.unlink(n)
	delete(l.nodes, id)
}

// popBack removes and returns the least-recently-used id.
func (l *accessList) popBack() (engine.PatternId, bool) {
	if l.tail == nil {
		return "", false
	}
	id := l.tail.id
	l.unlink(l.tail)
	delete(l.nodes, id)
	return id, true
}
