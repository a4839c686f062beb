package pyparse

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLineIndexMonotoneAndOffsetZero(t *testing.T) {
	src := []byte("a = 1\nb = 2\nc = 3\n")
	li := NewLineIndex(src)

	require.Equal(t, 1, li.Line(0))

	prev := li.Line(0)
	for off := 0; off < len(src); off++ {
		line := li.Line(off)
		require.GreaterOrEqual(t, line, prev)
		prev = line
	}
	require.Equal(t, 1, li.Line(0))
	require.Equal(t, 2, li.Line(6))
	require.Equal(t, 3, li.Line(12))
}

func TestParseFileRecoversFromSyntaxError(t *testing.T) {
	pool := NewParserPool()
	pf, parseErr := ParseSource(pool, "broken.py", []byte("def f(:\n    pass\n"))
	require.NotNil(t, pf)
	require.NotNil(t, parseErr)
	require.Contains(t, parseErr.Error, "syntax error")
	defer pf.Close()
}

func TestParseFileValidPython(t *testing.T) {
	pool := NewParserPool()
	pf, parseErr := ParseSource(pool, "ok.py", []byte("def used():\n    pass\n\nused()\n"))
	require.Nil(t, parseErr)
	require.NotNil(t, pf)
	defer pf.Close()
	require.NotNil(t, pf.Root)
}

func TestParseSourceRejectsInvalidUTF8(t *testing.T) {
	pool := NewParserPool()
	pf, parseErr := ParseSource(pool, "bad.py", []byte{0xff, 0xfe, 0x00})
	require.Nil(t, pf)
	require.NotNil(t, parseErr)
	require.Contains(t, parseErr.Error, "UTF-8")
}

func TestModulePathInitFile(t *testing.T) {
	require.Equal(t, "pkg.sub", ModulePath("/root", "/root/pkg/sub/__init__.py"))
	require.Equal(t, "pkg.mod", ModulePath("/root", "/root/pkg/mod.py"))
}

func TestParserPoolReuse(t *testing.T) {
	pool := NewParserPool()
	p1, err := pool.Get()
	require.NoError(t, err)
	pool.Put(p1)
	p2, err := pool.Get()
	require.NoError(t, err)
	require.Same(t, p1, p2)
}
