package fgrep

import (
	"bytes"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gxerrors "github.com/standardbeagle/gxref/internal/errors"
)

type line struct {
	n    int
	text string
}

func mustBuild(t *testing.T, opts Options, words ...string) *Automaton {
	t.Helper()
	bs := make([][]byte, len(words))
	for i, w := range words {
		bs[i] = []byte(w)
	}
	a, err := Build(bs, opts)
	require.NoError(t, err)
	return a
}

func collect(a *Automaton, data string, opts ScanOptions) []line {
	var out []line
	for ev := range a.Scan([]byte(data), opts) {
		out = append(out, line{ev.Line, string(ev.Text)})
	}
	return out
}

func TestScan_SingleWord(t *testing.T) {
	a := mustBuild(t, Options{}, "foo")

	got := collect(a, "foo\nbar foo\n", ScanOptions{})
	assert.Equal(t, []line{{1, "foo"}, {2, "bar foo"}}, got)

	assert.Empty(t, collect(a, "baz\n", ScanOptions{}))
}

func TestScan_ExactlyOnceOnLineN(t *testing.T) {
	a := mustBuild(t, Options{}, "needle")

	data := "alpha\nbeta\ngamma needle needle\ndelta\n"
	got := collect(a, data, ScanOptions{})
	require.Len(t, got, 1, "a line with two occurrences is reported once")
	assert.Equal(t, 3, got[0].n)
	assert.Equal(t, "gamma needle needle", got[0].text)
}

func TestScan_CaseFolding(t *testing.T) {
	tests := []struct {
		name  string
		build Options
		scan  ScanOptions
		want  int
	}{
		{"case sensitive", Options{}, ScanOptions{}, 0},
		{"built insensitive", Options{CaseInsensitive: true}, ScanOptions{}, 1},
		{"both insensitive", Options{CaseInsensitive: true}, ScanOptions{CaseInsensitive: true}, 1},
		{"scan-only insensitive", Options{}, ScanOptions{CaseInsensitive: true}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := mustBuild(t, tt.build, "hello")
			assert.Len(t, collect(a, "Hello", tt.scan), tt.want)
		})
	}

	t.Run("uppercase word folded at build", func(t *testing.T) {
		a := mustBuild(t, Options{CaseInsensitive: true}, "HeLLo")
		assert.Len(t, collect(a, "say hello\nSAY HELLO\n", ScanOptions{}), 2)
	})

	t.Run("uppercase word folded at scan", func(t *testing.T) {
		a := mustBuild(t, Options{}, "Hello")
		assert.Equal(t, 2, a.Count([]byte("Hello\nhello\nhelp\n"), ScanOptions{CaseInsensitive: true}))
		assert.Equal(t, 1, a.Count([]byte("Hello\nhello\nhelp\n"), ScanOptions{}))
		assert.False(t, a.CaseInsensitive())
	})

	t.Run("only ascii is folded", func(t *testing.T) {
		a := mustBuild(t, Options{CaseInsensitive: true}, "\xc3\xa9")
		assert.Empty(t, collect(a, "\xc3\x89", ScanOptions{}))
	})
}

func TestScan_InvertMatch(t *testing.T) {
	a := mustBuild(t, Options{}, "zzz")

	data := "one\ntwo\nthree\nfour\nfive\n"
	got := collect(a, data, ScanOptions{InvertMatch: true})
	require.Len(t, got, 5)
	for i, l := range got {
		assert.Equal(t, i+1, l.n)
	}

	mixed := "keep\nzzz here\n\nkeep too"
	assert.Equal(t,
		[]line{{1, "keep"}, {3, ""}, {4, "keep too"}},
		collect(a, mixed, ScanOptions{InvertMatch: true}))
}

func TestScan_PathOnly(t *testing.T) {
	a := mustBuild(t, Options{}, "foo")

	var events []MatchEvent
	for ev := range a.Scan([]byte("x\nfoo\nfoo\n"), ScanOptions{PathOnly: true}) {
		events = append(events, ev)
	}
	require.Len(t, events, 1)
	assert.True(t, events[0].PathMatched)
	assert.Equal(t, 2, events[0].Line)

	assert.True(t, a.Contains([]byte("a foo"), ScanOptions{}))
	assert.False(t, a.Contains([]byte("a fo\no"), ScanOptions{}))
	assert.False(t, a.Contains([]byte("foo\n"), ScanOptions{InvertMatch: true}))
}

func TestScan_UnterminatedLastLine(t *testing.T) {
	a := mustBuild(t, Options{}, "end")

	assert.Equal(t, []line{{2, "the end"}}, collect(a, "start\nthe end", ScanOptions{}))
	assert.Equal(t, []line{{1, "start"}}, collect(a, "start\nthe end", ScanOptions{InvertMatch: true}))
	assert.Equal(t, []line{{1, "end"}}, collect(a, "end", ScanOptions{}))
}

func TestScan_EmptyInput(t *testing.T) {
	a := mustBuild(t, Options{}, "x")

	assert.Empty(t, collect(a, "", ScanOptions{}))
	assert.Empty(t, collect(a, "", ScanOptions{InvertMatch: true}))
	assert.Equal(t, 0, a.Count(nil, ScanOptions{}))
}

func TestScan_WordDoesNotSpanLines(t *testing.T) {
	a := mustBuild(t, Options{}, "ab")
	assert.Empty(t, collect(a, "a\nb\n", ScanOptions{}))
}

func TestScan_EarlyStop(t *testing.T) {
	a := mustBuild(t, Options{}, "x")
	n := 0
	for range a.Scan([]byte("x\nx\nx\nx\n"), ScanOptions{}) {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestScan_MultiplePatterns(t *testing.T) {
	a := mustBuild(t, Options{}, "he", "she", "his", "hers")

	got := collect(a, "ushers\nnothing\nthis\n", ScanOptions{})
	assert.Equal(t, []line{{1, "ushers"}, {3, "this"}}, got)
	assert.Equal(t, 4, a.Words())
}

func TestScan_SuffixWordInsideNearMiss(t *testing.T) {
	// "bc" is a suffix of the "abc" prefix of "abcd"; failing into it
	// must still report the line.
	a := mustBuild(t, Options{}, "abcd", "bc")
	assert.Equal(t, []line{{1, "xabce"}}, collect(a, "xabce\n", ScanOptions{}))
}

func TestScan_FailureChainDeeperThanOneHop(t *testing.T) {
	// From state "abc" the failure chain is abc -> bc -> c; only the last
	// one has a transition on 'z'.
	a := mustBuild(t, Options{}, "abcx", "bcy", "cz")
	assert.Equal(t, []line{{1, "abcz"}}, collect(a, "abcz\n", ScanOptions{}))
}

func TestStep_Terminates(t *testing.T) {
	a := mustBuild(t, Options{}, "aaab", "aab", "abab", "b")

	// Every (state, byte) pair must resolve without looping.
	for s := 0; s < a.Len(); s++ {
		for c := 0; c < 256; c++ {
			next, _ := a.Step(int32(s), byte(c))
			assert.GreaterOrEqual(t, int(next), 0)
			assert.Less(t, int(next), a.Len())
		}
	}

	// Long runs of a repeated prefix byte, the classic retry trap.
	data := bytes.Repeat([]byte("a"), 100000)
	assert.Empty(t, collect(mustBuild(t, Options{}, "aaab"), string(data), ScanOptions{}))
}

func TestStep_RootMismatchStaysAtRoot(t *testing.T) {
	a := mustBuild(t, Options{}, "abc")
	next, accept := a.Step(a.Start(), 'z')
	assert.Equal(t, a.Start(), next)
	assert.False(t, accept)
}

func TestBuild_Capacity(t *testing.T) {
	_, err := Build([][]byte{[]byte("abcdef")}, Options{MaxNodes: 5})
	require.Error(t, err)

	var capErr *gxerrors.CapacityError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, 5, capErr.Limit)
	assert.Equal(t, "abcdef", capErr.Word)

	// Exactly fitting: root + 5 states
	a, err := Build([][]byte{[]byte("abcde")}, Options{MaxNodes: 6})
	require.NoError(t, err)
	assert.Equal(t, 6, a.Len())
}

func TestBuild_DefaultCapacity(t *testing.T) {
	long := strings.Repeat("x", DefaultMaxNodes)
	_, err := Build([][]byte{[]byte(long)}, Options{})
	var capErr *gxerrors.CapacityError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, DefaultMaxNodes, capErr.Limit)
}

func TestBuild_NodeBudgetLimit(t *testing.T) {
	_, err := Build([][]byte{[]byte("x")}, Options{MaxNodes: 1 << 40})
	var cfgErr *gxerrors.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "max_nodes", cfgErr.Field)

	// The budget is an upper bound, not a reservation.
	a, err := Build([][]byte{[]byte("x")}, Options{MaxNodes: MaxNodesLimit})
	require.NoError(t, err)
	assert.Equal(t, 2, a.Len())
}

func TestBuild_SharedPrefixes(t *testing.T) {
	a := mustBuild(t, Options{}, "abc", "abd", "ab")
	// root + a + b + c + d
	assert.Equal(t, 5, a.Len())
}

func TestBuild_NoPatterns(t *testing.T) {
	for _, words := range [][][]byte{nil, {}, {[]byte("")}} {
		_, err := Build(words, Options{})
		var cfgErr *gxerrors.ConfigError
		require.True(t, errors.As(err, &cfgErr))
		assert.ErrorIs(t, err, ErrNoPatterns)
	}
}

func TestParseWords(t *testing.T) {
	words := ParseWords("foo\n\nbar\r\nbaz")
	require.Len(t, words, 3)
	assert.Equal(t, "foo", string(words[0]))
	assert.Equal(t, "bar", string(words[1]))
	assert.Equal(t, "baz", string(words[2]))
}

// TestScan_AgainstContainsOracle checks every line against a naive
// substring search on random inputs over a tiny alphabet, which exercises
// long failure chains.
func TestScan_AgainstContainsOracle(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	alphabet := "abAB c"

	randWord := func(max int) string {
		n := 1 + rng.Intn(max)
		b := make([]byte, n)
		for i := range b {
			b[i] = alphabet[rng.Intn(len(alphabet))]
		}
		return string(b)
	}

	for round := 0; round < 300; round++ {
		var words []string
		for i := 0; i < 1+rng.Intn(4); i++ {
			words = append(words, randWord(5))
		}
		var lines []string
		for i := 0; i < 1+rng.Intn(6); i++ {
			lines = append(lines, randWord(20))
		}
		data := strings.Join(lines, "\n")
		fold := round%2 == 1

		a := mustBuild(t, Options{CaseInsensitive: fold}, words...)
		got := map[int]bool{}
		for ev := range a.Scan([]byte(data), ScanOptions{}) {
			got[ev.Line] = true
		}

		for i, l := range lines {
			want := false
			for _, w := range words {
				hay, needle := l, w
				if fold {
					hay, needle = strings.ToLower(hay), strings.ToLower(needle)
				}
				if strings.Contains(hay, needle) {
					want = true
					break
				}
			}
			require.Equal(t, want, got[i+1], "words=%q line=%q fold=%v", words, l, fold)
		}
	}
}
