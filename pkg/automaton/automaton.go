// Package automaton implements multi-pattern exact substring search with an
// Aho-Corasick automaton over Unicode code points.
//
// An Automaton is built once from a word list and never mutated afterwards,
// so a single instance may be scanned from any number of goroutines.
package automaton

import (
	"iter"
	"unicode"
)

const root = 0

// Match is a single occurrence of a listed word in scanned text.
// Start and End are code point offsets into the text, End exclusive.
type Match struct {
	Word  string
	Start int
	End   int
}

type node struct {
	next map[rune]int32
	fail int32
	// out holds word indexes ending at this node, already unioned with
	// the outputs reachable through the failure chain.
	out []int32
}

// Automaton is a finalized Aho-Corasick matcher.
type Automaton struct {
	nodes    []node
	words    []string
	lens     []int
	maxLen   int
	caseFold bool
}

// Option configures Build.
type Option func(*Automaton)

// WithCaseFold lower-cases both the stored words and the scanned text, rune by
// rune, before matching. Offsets still refer to the original text.
func WithCaseFold() Option {
	return func(a *Automaton) { a.caseFold = true }
}

// Build inserts every word into a trie and finalizes the failure links.
// Duplicate words (after folding, if enabled) and empty strings are dropped.
func Build(words []string, opts ...Option) *Automaton {
	a := &Automaton{nodes: []node{{fail: root}}}
	for _, opt := range opts {
		opt(a)
	}

	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		key := a.fold(w)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		a.insert(w, key)
	}
	a.link()
	return a
}

func (a *Automaton) fold(s string) string {
	if !a.caseFold {
		return s
	}
	rs := []rune(s)
	for i, r := range rs {
		rs[i] = unicode.ToLower(r)
	}
	return string(rs)
}

func (a *Automaton) foldRune(r rune) rune {
	if a.caseFold {
		return unicode.ToLower(r)
	}
	return r
}

func (a *Automaton) insert(word, key string) {
	cur := int32(root)
	n := 0
	for _, r := range key {
		n++
		nx, ok := a.nodes[cur].next[r]
		if !ok {
			if a.nodes[cur].next == nil {
				a.nodes[cur].next = make(map[rune]int32)
			}
			nx = int32(len(a.nodes))
			a.nodes = append(a.nodes, node{fail: root})
			a.nodes[cur].next[r] = nx
		}
		cur = nx
	}
	idx := int32(len(a.words))
	a.words = append(a.words, word)
	a.lens = append(a.lens, n)
	if n > a.maxLen {
		a.maxLen = n
	}
	a.nodes[cur].out = append(a.nodes[cur].out, idx)
}

// link computes failure links breadth-first and merges output sets.
func (a *Automaton) link() {
	queue := make([]int32, 0, len(a.nodes))
	for _, child := range a.nodes[root].next {
		a.nodes[child].fail = root
		queue = append(queue, child)
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for r, child := range a.nodes[cur].next {
			f := a.nodes[cur].fail
			for {
				if nx, ok := a.nodes[f].next[r]; ok && nx != child {
					a.nodes[child].fail = nx
					break
				}
				if f == root {
					a.nodes[child].fail = root
					break
				}
				f = a.nodes[f].fail
			}
			// The fail target is shallower, so it was finalized earlier in BFS order.
			if fo := a.nodes[a.nodes[child].fail].out; len(fo) > 0 {
				merged := make([]int32, 0, len(a.nodes[child].out)+len(fo))
				merged = append(merged, a.nodes[child].out...)
				merged = append(merged, fo...)
				a.nodes[child].out = merged
			}
			queue = append(queue, child)
		}
	}
}

// step advances from cur on r, following failure links as needed.
func (a *Automaton) step(cur int32, r rune) int32 {
	for {
		if nx, ok := a.nodes[cur].next[r]; ok {
			return nx
		}
		if cur == root {
			return root
		}
		cur = a.nodes[cur].fail
	}
}

// Len returns the number of distinct words in the automaton.
func (a *Automaton) Len() int { return len(a.words) }

// Words returns a copy of the distinct words, in insertion order.
func (a *Automaton) Words() []string {
	out := make([]string, len(a.words))
	copy(out, a.words)
	return out
}

// SearchAll yields every occurrence of every word in text, ordered by
// ascending start offset and, for equal starts, by ascending length.
// The sequence is lazy and may be ranged over any number of times.
func (a *Automaton) SearchAll(text string) iter.Seq[Match] {
	return func(yield func(Match) bool) {
		if len(a.words) == 0 {
			return
		}
		var pending []Match
		cur := int32(root)
		pos := 0
		for _, r := range text {
			cur = a.step(cur, a.foldRune(r))
			for _, idx := range a.nodes[cur].out {
				pending = insertMatch(pending, Match{
					Word:  a.words[idx],
					Start: pos - a.lens[idx] + 1,
					End:   pos + 1,
				})
			}
			// Any later match ends at pos+1 or beyond, so it starts at
			// pos+2-maxLen or later. Everything before that is final.
			safe := pos + 2 - a.maxLen
			n := 0
			for n < len(pending) && pending[n].Start < safe {
				if !yield(pending[n]) {
					return
				}
				n++
			}
			pending = pending[n:]
			pos++
		}
		for _, m := range pending {
			if !yield(m) {
				return
			}
		}
	}
}

// insertMatch keeps pending sorted by (Start, length).
func insertMatch(pending []Match, m Match) []Match {
	i := len(pending)
	for i > 0 && less(m, pending[i-1]) {
		i--
	}
	pending = append(pending, Match{})
	copy(pending[i+1:], pending[i:])
	pending[i] = m
	return pending
}

func less(x, y Match) bool {
	if x.Start != y.Start {
		return x.Start < y.Start
	}
	return x.End < y.End
}
