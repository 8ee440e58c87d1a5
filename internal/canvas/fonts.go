package canvas

import (
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

// BuiltinFont names the fallback face in LoadFace results.
const BuiltinFont = "builtin"

// LoadFace returns a face of the given pixel size from the first file in
// paths that can be read and parsed. When none can, it falls back to the
// fixed 7x13 bitmap face; font problems never fail a render.
func LoadFace(paths []string, size float64) (font.Face, string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		face, err := ParseFace(data, size)
		if err != nil {
			continue
		}
		return face, path
	}
	return basicfont.Face7x13, BuiltinFont
}

// ParseFace builds a face from TrueType or OpenType bytes. DPI 72 makes
// size a pixel height.
func ParseFace(data []byte, size float64) (font.Face, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}
