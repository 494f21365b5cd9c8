// Package fgrep implements a multi-pattern literal matcher in the
// Aho-Corasick family. The trie keeps per-node fan-out as a linked chain of
// siblings in a bounded arena, so capacity exhaustion is a checked error.
package fgrep

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	gxerrors "github.com/standardbeagle/gxref/internal/errors"
)

// DefaultMaxNodes is the node budget used when Options.MaxNodes is zero.
const DefaultMaxNodes = 6000

// MaxNodesLimit is the largest budget node indices can address.
const MaxNodesLimit = math.MaxInt32

// initialNodes bounds the arena reserved up front; it grows on demand.
const initialNodes = 1024

// root is the arena index of the start state. Because the root is never a
// child or a sibling, index 0 doubles as "no link" for next and sibling.
const root int32 = 0

// node is one trie state. ch is the byte on the edge from its parent.
type node struct {
	ch      byte
	accept  bool
	next    int32 // first child
	sibling int32 // next child of the same parent
	fail    int32 // failure state; root when no proper suffix is a prefix
}

// Options controls automaton construction.
type Options struct {
	// CaseInsensitive folds ASCII letters in the words and in scanned input.
	CaseInsensitive bool
	// MaxNodes bounds the arena, root included. Zero means DefaultMaxNodes.
	MaxNodes int
}

// Automaton is an immutable literal matcher. It is safe for concurrent use
// once Build returns.
type Automaton struct {
	nodes    []node
	maxNodes int
	foldCase bool
	words    int
	source   [][]byte

	foldOnce sync.Once
	folded   *Automaton
}

// ErrNoPatterns is wrapped in a ConfigError when Build gets nothing to match.
var ErrNoPatterns = errors.New("no non-empty pattern")

// Build constructs the automaton from an ordered list of words. Empty words
// are ignored. It fails with a *errors.CapacityError when the words need more
// than opts.MaxNodes states, and with a *errors.ConfigError when no usable
// word remains.
func Build(words [][]byte, opts Options) (*Automaton, error) {
	maxNodes := opts.MaxNodes
	if maxNodes <= 0 {
		maxNodes = DefaultMaxNodes
	}
	if maxNodes > MaxNodesLimit {
		return nil, gxerrors.NewConfigError("max_nodes", fmt.Sprint(maxNodes),
			fmt.Errorf("must not exceed %d", MaxNodesLimit))
	}

	a := &Automaton{
		nodes:    make([]node, 1, min(maxNodes, initialNodes)),
		maxNodes: maxNodes,
		foldCase: opts.CaseInsensitive,
	}

	for _, w := range words {
		if len(w) == 0 {
			continue
		}
		if err := a.insert(w); err != nil {
			return nil, err
		}
		a.words++
		a.source = append(a.source, bytes.Clone(w))
	}
	if a.words == 0 {
		return nil, gxerrors.NewConfigError("patterns", "", ErrNoPatterns)
	}

	a.buildFailureLinks()
	return a, nil
}

// ParseWords splits the newline-separated pattern list format into words.
// Blank lines are dropped and a trailing carriage return is stripped.
func ParseWords(list string) [][]byte {
	var words [][]byte
	for _, line := range strings.Split(list, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		words = append(words, []byte(line))
	}
	return words
}

// Len returns the number of states, root included.
func (a *Automaton) Len() int {
	return len(a.nodes)
}

// Words returns the number of non-empty words the automaton was built from.
func (a *Automaton) Words() int {
	return a.words
}

// CaseInsensitive reports whether the automaton was built with ASCII folding.
func (a *Automaton) CaseInsensitive() bool {
	return a.foldCase
}

// foldedView returns the automaton to scan with when the input is folded.
// A case-sensitive automaton lazily builds an ASCII-folded twin from its
// words; folding merges states, so the twin fits the same budget.
func (a *Automaton) foldedView() *Automaton {
	if a.foldCase {
		return a
	}
	a.foldOnce.Do(func() {
		f, err := Build(a.source, Options{CaseInsensitive: true, MaxNodes: a.maxNodes})
		if err != nil {
			panic(fmt.Sprintf("fgrep: folding %d words: %v", a.words, err))
		}
		a.folded = f
	})
	return a.folded
}

// insert adds one word to the goto trie.
func (a *Automaton) insert(word []byte) error {
	s := root
	for _, c := range word {
		if a.foldCase {
			c = toLower(c)
		}
		t := a.child(s, c)
		if t == root {
			var err error
			if t, err = a.alloc(c); err != nil {
				return gxerrors.NewCapacityError(a.maxNodes, string(word))
			}
			a.link(s, t)
		}
		s = t
	}
	a.nodes[s].accept = true
	return nil
}

// alloc appends a fresh state for byte c.
func (a *Automaton) alloc(c byte) (int32, error) {
	if len(a.nodes) >= a.maxNodes {
		return root, errCapacity
	}
	a.nodes = append(a.nodes, node{ch: c})
	return int32(len(a.nodes) - 1), nil
}

var errCapacity = errors.New("node budget exhausted")

// link appends t to the end of s's child chain, keeping insertion order.
func (a *Automaton) link(s, t int32) {
	last := a.nodes[s].next
	if last == root {
		a.nodes[s].next = t
		return
	}
	for a.nodes[last].sibling != root {
		last = a.nodes[last].sibling
	}
	a.nodes[last].sibling = t
}

// child returns the state reached from s on c, or root when there is none.
func (a *Automaton) child(s int32, c byte) int32 {
	for t := a.nodes[s].next; t != root; t = a.nodes[t].sibling {
		if a.nodes[t].ch == c {
			return t
		}
	}
	return root
}

// buildFailureLinks computes fail for every state breadth-first, so a
// state's parent and every shorter suffix are resolved before it.
func (a *Automaton) buildFailureLinks() {
	queue := make([]int32, 0, len(a.nodes))
	for t := a.nodes[root].next; t != root; t = a.nodes[t].sibling {
		a.nodes[t].fail = root
		queue = append(queue, t)
	}

	for head := 0; head < len(queue); head++ {
		p := queue[head]
		for t := a.nodes[p].next; t != root; t = a.nodes[t].sibling {
			queue = append(queue, t)

			c := a.nodes[t].ch
			f := a.nodes[p].fail
			for {
				if x := a.child(f, c); x != root {
					a.nodes[t].fail = x
					// A shorter word ending here must still be reported.
					if a.nodes[x].accept {
						a.nodes[t].accept = true
					}
					break
				}
				if f == root {
					a.nodes[t].fail = root
					break
				}
				f = a.nodes[f].fail
			}
		}
	}
}

// Step is the transition function: from state on byte c it returns the next
// state and whether that state accepts. c must already be case folded when
// the automaton is case-insensitive. On a mismatch the failure chain is
// followed; every hop moves to a strictly shallower state and the chain ends
// at the root, so Step always terminates.
func (a *Automaton) Step(state int32, c byte) (int32, bool) {
	s := state
	for {
		if t := a.child(s, c); t != root {
			return t, a.nodes[t].accept
		}
		if s == root {
			return root, false
		}
		s = a.nodes[s].fail
	}
}

// Start returns the initial state.
func (a *Automaton) Start() int32 {
	return root
}

func toLower(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
