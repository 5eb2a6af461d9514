package model

import "testing"

func TestRasterHash(t *testing.T) {
	t.Parallel()

	t.Run("hashes the png bytes", func(t *testing.T) {
		t.Parallel()

		r := Raster{Data: []byte("Hello, World!"), Width: 1, Height: 1}
		want := "dffd6021bb2bd5b0af676290809ec3a53191dd81c7f70a4b28688a362182986f"
		if got := r.Hash(); got != want {
			t.Errorf("Hash() = %q, want %q", got, want)
		}
	})

	t.Run("dimensions do not affect the hash", func(t *testing.T) {
		t.Parallel()

		a := Raster{Data: []byte("x"), Width: 10, Height: 10}
		b := Raster{Data: []byte("x"), Width: 20, Height: 5}
		if a.Hash() != b.Hash() {
			t.Error("expected equal hashes for equal data")
		}
	})
}

func TestPageRecordLastPage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		first int
		tiles int
		want  int
	}{
		{name: "single tile", first: 1, tiles: 1, want: 1},
		{name: "three tiles", first: 4, tiles: 3, want: 6},
		{name: "no tiles", first: 7, tiles: 0, want: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := PageRecord{FirstPage: tt.first, Tiles: tt.tiles}
			if got := p.LastPage(); got != tt.want {
				t.Errorf("LastPage() = %d, want %d", got, tt.want)
			}
		})
	}
}
