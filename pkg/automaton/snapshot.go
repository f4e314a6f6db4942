package automaton

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
)

// snapshotVersion is bumped whenever the encoded layout changes.
const snapshotVersion = 1

// ErrBadSnapshot is returned when an encoded automaton fails validation.
var ErrBadSnapshot = errors.New("automaton: invalid snapshot")

type snapshotNode struct {
	Keys []rune
	Next []int32
	Fail int32
	Out  []int32
}

type snapshot struct {
	Version  int
	CaseFold bool
	Words    []string
	Nodes    []snapshotNode
}

// MarshalBinary encodes the finalized node table so it can be restored
// without rebuilding the trie.
func (a *Automaton) MarshalBinary() ([]byte, error) {
	s := snapshot{
		Version:  snapshotVersion,
		CaseFold: a.caseFold,
		Words:    a.words,
		Nodes:    make([]snapshotNode, len(a.nodes)),
	}
	for i, n := range a.nodes {
		sn := snapshotNode{Fail: n.fail, Out: n.out}
		for r, nx := range n.next {
			sn.Keys = append(sn.Keys, r)
			sn.Next = append(sn.Next, nx)
		}
		s.Nodes[i] = sn
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, fmt.Errorf("encode automaton: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary restores an automaton written by MarshalBinary.
// Indexes are bounds-checked and the node table must form a trie whose
// failure links always point to a shallower node, so a corrupt snapshot can
// neither panic nor loop forever during a scan.
func (a *Automaton) UnmarshalBinary(data []byte) error {
	var s snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}
	if s.Version != snapshotVersion {
		return fmt.Errorf("%w: version %d", ErrBadSnapshot, s.Version)
	}
	if len(s.Nodes) == 0 {
		return fmt.Errorf("%w: no root node", ErrBadSnapshot)
	}

	nodes := make([]node, len(s.Nodes))
	lens := make([]int, len(s.Words))
	maxLen := 0
	for i, w := range s.Words {
		lens[i] = len([]rune(w))
		if lens[i] > maxLen {
			maxLen = lens[i]
		}
	}
	inRange := func(v int32, n int) bool { return v >= 0 && int(v) < n }

	for i, sn := range s.Nodes {
		if len(sn.Keys) != len(sn.Next) {
			return fmt.Errorf("%w: node %d edge mismatch", ErrBadSnapshot, i)
		}
		if !inRange(sn.Fail, len(s.Nodes)) {
			return fmt.Errorf("%w: node %d fail link %d", ErrBadSnapshot, i, sn.Fail)
		}
		n := node{fail: sn.Fail, out: sn.Out}
		if len(sn.Keys) > 0 {
			n.next = make(map[rune]int32, len(sn.Keys))
			for j, r := range sn.Keys {
				if !inRange(sn.Next[j], len(s.Nodes)) {
					return fmt.Errorf("%w: node %d edge target %d", ErrBadSnapshot, i, sn.Next[j])
				}
				n.next[r] = sn.Next[j]
			}
		}
		for _, o := range sn.Out {
			if !inRange(o, len(s.Words)) {
				return fmt.Errorf("%w: node %d output %d", ErrBadSnapshot, i, o)
			}
		}
		nodes[i] = n
	}
	if err := checkTrie(nodes, lens); err != nil {
		return err
	}

	a.nodes = nodes
	a.words = s.Words
	a.lens = lens
	a.maxLen = maxLen
	a.caseFold = s.CaseFold
	return nil
}

// checkTrie walks the goto edges breadth-first from the root. Every node must
// be reached exactly once, every non-root fail link must point strictly
// shallower, and every output word must fit within its node's depth.
func checkTrie(nodes []node, lens []int) error {
	if nodes[root].fail != root {
		return fmt.Errorf("%w: root fail link %d", ErrBadSnapshot, nodes[root].fail)
	}
	depth := make([]int, len(nodes))
	for i := range depth {
		depth[i] = -1
	}
	depth[root] = 0
	queue := []int32{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, child := range nodes[cur].next {
			if depth[child] >= 0 {
				return fmt.Errorf("%w: node %d has more than one parent", ErrBadSnapshot, child)
			}
			depth[child] = depth[cur] + 1
			queue = append(queue, child)
		}
	}

	for i, n := range nodes {
		if depth[i] < 0 {
			return fmt.Errorf("%w: node %d unreachable", ErrBadSnapshot, i)
		}
		if i != root && depth[n.fail] >= depth[i] {
			return fmt.Errorf("%w: node %d fail link %d is not shallower", ErrBadSnapshot, i, n.fail)
		}
		for _, o := range n.out {
			if lens[o] > depth[i] {
				return fmt.Errorf("%w: node %d output %d longer than its depth", ErrBadSnapshot, i, o)
			}
		}
	}
	return nil
}
