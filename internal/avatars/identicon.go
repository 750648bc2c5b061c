package avatars

import (
	"bytes"
	"crypto/sha256"
	"image"
	"image/color"
	"image/png"

	"github.com/google/uuid"
)

const (
	identiconGrid = 5
	identiconCell = 32
	identiconSize = identiconGrid * identiconCell
)

// GenerateIdenticon renders a deterministic 5x5 mirrored-grid PNG for the
// user id. The same id always produces the same image.
func GenerateIdenticon(userID uuid.UUID) ([]byte, error) {
	digest := sha256.Sum256(userID[:])

	fg := color.NRGBA{
		R: 64 + digest[0]%128,
		G: 64 + digest[1]%128,
		B: 64 + digest[2]%128,
		A: 255,
	}
	bg := color.NRGBA{R: 240, G: 240, B: 240, A: 255}

	img := image.NewNRGBA(image.Rect(0, 0, identiconSize, identiconSize))
	for y := 0; y < identiconGrid; y++ {
		// mirror the left half onto the right for symmetry
		for x := 0; x <= identiconGrid/2; x++ {
			bit := digest[3+y*(identiconGrid/2+1)+x]%2 == 0
			fill := bg
			if bit {
				fill = fg
			}
			paintCell(img, x, y, fill)
			paintCell(img, identiconGrid-1-x, y, fill)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func paintCell(img *image.NRGBA, cellX, cellY int, fill color.NRGBA) {
	x0 := cellX * identiconCell
	y0 := cellY * identiconCell
	for y := y0; y < y0+identiconCell; y++ {
		for x := x0; x < x0+identiconCell; x++ {
			img.SetNRGBA(x, y, fill)
		}
	}
}
