package egraph

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelica-tools/eqsat/pkgs/lang"
)

func decompress(t *testing.T, data []byte) []byte {
	t.Helper()
	zr, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	out, err := io.ReadAll(zr)
	require.NoError(t, err)
	return out
}

func compress(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestSaveLoadRoundTrip(t *testing.T) {
	g := New(ConstantFold{})
	x := g.Add(lang.SymbolNode(lang.Intern("x")))
	root := g.AddExpr(mustParse(t, "(+ x (* 2 x))"))
	folded := g.AddExpr(mustParse(t, "(* 6 7)"))
	g.Union(x, g.AddExpr(mustParse(t, "(sin y)")))
	g.Rebuild()
	g.CheckInvariants()

	var buf bytes.Buffer
	require.NoError(t, g.Save(&buf))

	loaded, err := Load(&buf, ConstantFold{})
	require.NoError(t, err)
	loaded.CheckInvariants()

	assert.Equal(t, g.ClassCount(), loaded.ClassCount())
	assert.Equal(t, g.NodeCount(), loaded.NodeCount())

	// ids survive the round trip, so the old roots remain meaningful
	assert.Equal(t, g.Find(root), loaded.Find(root))
	v, ok := Fold(loaded.Class(folded).Data)
	require.True(t, ok)
	assert.Equal(t, 42.0, v)

	// the loaded graph keeps working
	id := loaded.AddExpr(mustParse(t, "(+ x (* 2 x))"))
	loaded.Rebuild()
	assert.Equal(t, loaded.Find(root), loaded.Find(id))
	loaded.CheckInvariants()
}

func TestLoadRejectsGarbage(t *testing.T) {
	_, err := Load(strings.NewReader("not gzip"), ConstantFold{})
	assert.Error(t, err)
}

func TestLoadRejectsDanglingIds(t *testing.T) {
	g := New(nil)
	g.Add(lang.SymbolNode(lang.Intern("x")))
	g.Rebuild()

	var buf bytes.Buffer
	require.NoError(t, g.Save(&buf))

	// Corrupt the snapshot: truncate the union-find so stored ids dangle.
	mangled := bytes.Replace(decompress(t, buf.Bytes()), []byte(`"unionfind":[0]`), []byte(`"unionfind":[]`), 1)
	_, err := Load(bytes.NewReader(compress(t, mangled)), nil)
	assert.Error(t, err)
}
