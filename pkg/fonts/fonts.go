// Package fonts provides the font faces used for raster output and text
// measurement.
//
// The Go fonts ship inside golang.org/x/image, so no font files are looked
// up on the host. Faces are cached per size and weight.
package fonts

import (
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// Family is the CSS font-family written into SVG output. Go Regular is
// listed first so browsers with the font installed match raster output.
const Family = `'Go', 'Helvetica Neue', Arial, sans-serif`

var (
	parseOnce sync.Once
	regular   *truetype.Font
	bold      *truetype.Font
	parseErr  error

	facesMu sync.Mutex
	faces   = map[faceKey]font.Face{}
)

type faceKey struct {
	size float64
	bold bool
}

func load() error {
	parseOnce.Do(func() {
		if regular, parseErr = truetype.Parse(goregular.TTF); parseErr != nil {
			return
		}
		bold, parseErr = truetype.Parse(gobold.TTF)
	})
	return parseErr
}

// Face returns a new font face of the given point size at 72 DPI. Faces
// keep glyph caches and are not safe for concurrent use, so every caller
// gets its own.
func Face(size float64, isBold bool) (font.Face, error) {
	if err := load(); err != nil {
		return nil, err
	}
	ttf := regular
	if isBold {
		ttf = bold
	}
	return truetype.NewFace(ttf, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	}), nil
}

// Measure returns the advance width of s in pixels. When the fonts cannot be
// parsed it falls back to an average glyph width of 0.55em.
func Measure(s string, size float64, isBold bool) float64 {
	key := faceKey{size, isBold}

	facesMu.Lock()
	defer facesMu.Unlock()
	f, ok := faces[key]
	if !ok {
		var err error
		if f, err = Face(size, isBold); err != nil {
			return float64(len([]rune(s))) * size * 0.55
		}
		faces[key] = f
	}
	return float64(font.MeasureString(f, s)) / 64
}
