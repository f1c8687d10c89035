package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/disintegration/imaging"

	_ "image/png"

	_ "golang.org/x/image/webp"
)

var (
	ErrDecode = errors.New("image cannot be decoded")
	ErrEncode = errors.New("image cannot be encoded")
)

// NormalizedImage is an encoded image payload carried as a self-describing
// data URI. The empty string marks an empty slot. Immutable once produced.
type NormalizedImage string

func (n NormalizedImage) Empty() bool {
	return n == ""
}

type Normalizer struct {
	maxDim  int
	quality int
}

func NewNormalizer(maxDim, quality int) *Normalizer {
	return &Normalizer{
		maxDim:  maxDim,
		quality: quality,
	}
}

// Normalize decodes an uploaded JPEG/PNG/WebP image, caps its larger
// dimension at the configured maximum preserving aspect ratio, and
// re-encodes it as JPEG.
func (n *Normalizer) Normalize(data []byte) (NormalizedImage, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width > n.maxDim || height > n.maxDim {
		var newWidth, newHeight int
		if width > height {
			newWidth = n.maxDim
			newHeight = int(float64(height) * float64(n.maxDim) / float64(width))
		} else {
			newHeight = n.maxDim
			newWidth = int(float64(width) * float64(n.maxDim) / float64(height))
		}
		img = imaging.Resize(img, newWidth, newHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: n.quality}); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncode, err)
	}

	return NormalizedImage(BuildDataURI("image/jpeg", buf.Bytes())), nil
}
