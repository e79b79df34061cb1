// plot/fonts.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package plot

import (
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	parseFontsOnce sync.Once
	regularFont    *truetype.Font
	boldFont       *truetype.Font
)

func parseFonts() {
	parseFontsOnce.Do(func() {
		var err error
		if regularFont, err = truetype.Parse(goregular.TTF); err != nil {
			panic(err)
		}
		if boldFont, err = truetype.Parse(gobold.TTF); err != nil {
			panic(err)
		}
	})
}

type faceKey struct {
	size float64
	bold bool
}

// fontCache holds the faces used by a single figure. font.Face
// implementations keep glyph caches and are not safe for concurrent use,
// so faces are not shared between figures.
type fontCache struct {
	dpi   float64
	faces map[faceKey]font.Face
}

func newFontCache(dpi float64) *fontCache {
	parseFonts()
	return &fontCache{dpi: dpi, faces: make(map[faceKey]font.Face)}
}

// Face returns a face of the given size in points.
func (fc *fontCache) Face(size float64, bold bool) font.Face {
	k := faceKey{size: size, bold: bold}
	if f, ok := fc.faces[k]; ok {
		return f
	}

	ttf := regularFont
	if bold {
		ttf = boldFont
	}
	f := truetype.NewFace(ttf, &truetype.Options{
		Size:    size,
		DPI:     fc.dpi,
		Hinting: font.HintingFull,
	})
	fc.faces[k] = f
	return f
}
