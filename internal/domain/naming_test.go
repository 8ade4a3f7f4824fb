package domain

import (
	"path/filepath"
	"testing"

	m "github.com/mouse-blink/qidicom/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestUniqueNamer(t *testing.T) {
	dir := m.Path("out")
	out := func(name string) m.Path { return m.Path(filepath.Join("out", name)) }

	t.Run("clashing basenames get dup suffixes", func(t *testing.T) {
		u := NewUniqueNamer(dir)

		assert.Equal(t, out("IM-0006.dcm"), u.Resolve("a/IM-0006.dcm"))
		assert.Equal(t, out("IM-0006 - dup1.dcm"), u.Resolve("b/IM-0006.dcm"))
		assert.Equal(t, out("IM-0006 - dup2.dcm"), u.Resolve("c/IM-0006.dcm"))
		assert.Equal(t, out("IM-0007.dcm"), u.Resolve("a/IM-0007.dcm"))
	})

	t.Run("same source resolves to the same path", func(t *testing.T) {
		u := NewUniqueNamer(dir)

		first := u.Resolve("a/IM-0006.dcm")
		u.Resolve("b/IM-0006.dcm")

		assert.Equal(t, first, u.Resolve("a/IM-0006.dcm"))
	})

	t.Run("files without extension", func(t *testing.T) {
		u := NewUniqueNamer(dir)

		u.Resolve("a/IM1")
		assert.Equal(t, out("IM1 - dup1"), u.Resolve("b/IM1"))
	})

	t.Run("claims from an earlier run are respected", func(t *testing.T) {
		u := NewUniqueNamer(dir)
		u.Claim("old/IM-0006.dcm", out("IM-0006.dcm"))
		u.Claim("older/IM-0006.dcm", out("IM-0006 - dup1.dcm"))

		assert.Equal(t, out("IM-0006.dcm"), u.Resolve("old/IM-0006.dcm"))
		assert.Equal(t, out("IM-0006 - dup2.dcm"), u.Resolve("new/IM-0006.dcm"))
	})

	t.Run("mapper", func(t *testing.T) {
		mapper := NewUniqueNamer(dir).Mapper()

		assert.Equal(t, out("a.dcm"), mapper("x/a.dcm"))
		assert.Equal(t, out("a - dup1.dcm"), mapper("y/a.dcm"))
	})
}
