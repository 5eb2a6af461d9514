package document

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembler(t *testing.T) {
	t.Parallel()

	t.Run("master holds every tile in append order", func(t *testing.T) {
		t.Parallel()

		a := NewAssembler(WithTitle("x.com"))

		// 100px wide scales by 5.9528: 300px -> 3 pages, 100px -> 1 page.
		captures := []struct {
			height int
			pages  int
		}{
			{height: 300, pages: 3},
			{height: 100, pages: 1},
		}

		total := 0
		for _, c := range captures {
			plan, err := NewPlan(100, c.height, DefaultPageWidth, DefaultTileHeight)
			require.NoError(t, err)
			require.Equal(t, c.pages, plan.PageCount)

			page := a.BeginPage()
			require.NoError(t, a.AppendTiledImage(page, testPNG(t, 100, c.height), plan))
			assert.Equal(t, c.pages, page.Pages())

			var out bytes.Buffer
			require.NoError(t, a.FinalizePage(page, &out))
			assert.Equal(t, c.pages, countPages(t, out.Bytes()))

			total += c.pages
			assert.Equal(t, total, a.MasterPages())
		}

		var master bytes.Buffer
		require.NoError(t, a.FinalizeMaster(&master))
		assert.True(t, a.Finalized())
		assert.Equal(t, total, countPages(t, master.Bytes()))
	})

	t.Run("invalid image leaves master untouched", func(t *testing.T) {
		t.Parallel()

		a := NewAssembler()
		plan, err := NewPlan(100, 100, DefaultPageWidth, DefaultTileHeight)
		require.NoError(t, err)

		page := a.BeginPage()
		err = a.AppendTiledImage(page, []byte("not a png"), plan)

		var imgErr *InvalidImageError
		require.ErrorAs(t, err, &imgErr)
		assert.Equal(t, 0, a.MasterPages())

		// The master is still usable afterwards.
		next := a.BeginPage()
		require.NoError(t, a.AppendTiledImage(next, testPNG(t, 100, 100), plan))
		assert.Equal(t, 1, a.MasterPages())
	})

	t.Run("empty master is rejected", func(t *testing.T) {
		t.Parallel()

		a := NewAssembler()
		var buf bytes.Buffer
		assert.ErrorIs(t, a.FinalizeMaster(&buf), ErrEmptyDocument)
		assert.Zero(t, buf.Len())
	})

	t.Run("empty page is rejected", func(t *testing.T) {
		t.Parallel()

		a := NewAssembler()
		var buf bytes.Buffer
		assert.ErrorIs(t, a.FinalizePage(a.BeginPage(), &buf), ErrEmptyDocument)
	})

	t.Run("master finalizes once", func(t *testing.T) {
		t.Parallel()

		a := NewAssembler(WithCompression(false))
		plan, err := NewPlan(100, 100, DefaultPageWidth, DefaultTileHeight)
		require.NoError(t, err)
		require.NoError(t, a.AppendTiledImage(a.BeginPage(), testPNG(t, 100, 100), plan))

		var buf bytes.Buffer
		require.NoError(t, a.FinalizeMaster(&buf))
		assert.ErrorIs(t, a.FinalizeMaster(&buf), ErrAlreadyFinalized)
		assert.ErrorIs(t, a.AppendTiledImage(a.BeginPage(), testPNG(t, 100, 100), plan), ErrAlreadyFinalized)
	})

	t.Run("custom paper size", func(t *testing.T) {
		t.Parallel()

		a := NewAssembler(WithPaperSize(300, 400))
		plan, err := NewPlan(100, 250, 300, 350)
		require.NoError(t, err)
		require.Equal(t, 3, plan.PageCount)
		require.NoError(t, a.AppendTiledImage(a.BeginPage(), testPNG(t, 100, 250), plan))

		var buf bytes.Buffer
		require.NoError(t, a.FinalizeMaster(&buf))
		assert.Equal(t, 3, countPages(t, buf.Bytes()))
	})
}
