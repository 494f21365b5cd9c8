package skip

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gxerrors "github.com/standardbeagle/gxref/internal/errors"
)

func TestDotfiles(t *testing.T) {
	strict := MustCompile("", Options{})
	assert.True(t, strict.Test("./sub/.git/config"))
	assert.True(t, strict.Test("./.git/"))
	assert.True(t, strict.Test("./src/.hidden"))
	assert.Equal(t, ReasonDotfile, strict.Explain("./sub/.git/config"))
	assert.False(t, strict.Test("./src/main.c"))
	assert.False(t, strict.Test("./"), "the root itself is never a dot file")

	relaxed := MustCompile("", Options{AcceptDotfiles: true})
	assert.False(t, relaxed.Test("./sub/.git/config"))
	assert.Equal(t, ReasonNone, relaxed.Explain("./sub/.git/config"))
}

func TestReservedNames(t *testing.T) {
	m := MustCompile("", Options{AcceptDotfiles: true})
	for _, name := range ReservedNames {
		assert.True(t, m.Test("./"+name), name)
		assert.True(t, m.Test("./lib/"+name), name)
		assert.Equal(t, ReasonReserved, m.Explain("./"+name))
	}
	assert.False(t, m.Test("./GTAGS.c"))
	assert.False(t, m.Test("./xGPATH"))
}

func TestGlobTranslation(t *testing.T) {
	tests := []struct {
		name string
		entries string
		path string
		skip bool
	}{
		{"star matches suffix", "*.o", "./lib/foo.o", true},
		{"star does not cross separator", "a*c", "./a/b/c", false},
		{"star in one segment", "a*c", "./dir/abbbc", true},
		{"question mark one byte", "?.h", "./x.h", true},
		{"question mark not two", "?.h", "./xy.h", false},
		{"question mark not separator", "a?b", "./a/b", false},
		{"class", "*.[oa]", "./libx.a", true},
		{"class miss", "*.[oa]", "./libx.c", false},
		{"negated class", "[!a]bc", "./xbc", true},
		{"negated class miss", "[!a]bc", "./abc", false},
		{"file entry ignores directories", "tags", "./tags/", false},
		{"file entry anywhere", "tags", "./deep/er/tags", true},
		{"file entry whole name", "tags", "./mytags", false},
		{"directory entry", "CVS/", "./src/CVS/", true},
		{"directory entry covers contents", "CVS/", "./src/CVS/Entries", true},
		{"directory entry ignores files", "CVS/", "./src/CVS", false},
		{"anchored", "/build/", "./build/", true},
		{"anchored not nested", "/build/", "./src/build/", false},
		{"anchored file", "/README", "./README", true},
		{"anchored file not nested", "/README", "./doc/README", false},
		{"escaped comma", `a\,b`, "./a,b", true},
		{"escaped star", `a\*`, "./a*", true},
		{"escaped star literal", `a\*`, "./ab", false},
		{"regex metachar literal", "{arch}/", "./{arch}/", true},
		{"dot is literal", "a.c", "./abc", false},
		{"second entry", "x,y.c", "./y.c", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Compile(tt.entries, Options{AcceptDotfiles: true})
			require.NoError(t, err)
			assert.Equal(t, tt.skip, m.Test(tt.path), "entries %q regexp %s", tt.entries, m.String())
			if tt.skip {
				assert.Equal(t, ReasonSkipList, m.Explain(tt.path))
			}
		})
	}
}

func TestDefaultSkip(t *testing.T) {
	m := MustCompile(DefaultSkip, Options{})
	for _, p := range []string{"./obj/x.o", "./HTML/", "./tags", "./a/node_modules/", "./x.c~", "./GTAGS"} {
		assert.True(t, m.Test(p), p)
	}
	for _, p := range []string{"./src/main.c", "./include/", "./Makefile"} {
		assert.False(t, m.Test(p), p)
	}
}

func TestMalformed(t *testing.T) {
	for _, entries := range []string{"[abc", "*.c,[", `foo\`, "/", "[a/b]", "[z-a]"} {
		_, err := Compile(entries, Options{})
		require.Error(t, err, entries)
		var cfgErr *gxerrors.ConfigError
		assert.True(t, errors.As(err, &cfgErr), entries)
	}
}

func TestEmptyEntriesIgnored(t *testing.T) {
	m, err := Compile(" , *.o ,, ", Options{})
	require.NoError(t, err)
	assert.True(t, m.Test("./a.o"))
	assert.False(t, m.Test("./a.c"))
}

func TestExclude(t *testing.T) {
	m, err := Compile("", Options{
		AcceptDotfiles: true,
		Exclude:        []string{"**/target/**", "*.min.js"},
	})
	require.NoError(t, err)

	assert.True(t, m.Test("./target/"))
	assert.True(t, m.Test("./crates/a/target/debug/x.rs"))
	assert.True(t, m.Test("./app.min.js"))
	assert.False(t, m.Test("./js/app.min.js"))
	assert.False(t, m.Test("./src/lib.rs"))
	assert.False(t, m.Test("./"))
	assert.Equal(t, ReasonExclude, m.Explain("./app.min.js"))
	assert.Equal(t, []string{"**/target/**", "*.min.js"}, m.Exclude())

	_, err = Compile("", Options{Exclude: []string{"[unclosed"}})
	var cfgErr *gxerrors.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "exclude", cfgErr.Field)
}

func TestString(t *testing.T) {
	m := MustCompile("*.o", Options{})
	assert.Contains(t, m.String(), `GPATH`)
	assert.Contains(t, m.String(), `/[^/]*\.o$`)
	assert.Contains(t, m.String(), dotfileFragment)
}

func TestMustCompilePanics(t *testing.T) {
	assert.Panics(t, func() { MustCompile("[", Options{}) })
}
