package media

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func encodeTestImage(t *testing.T, width, height int, asPNG bool) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 120, A: 255})
		}
	}

	var buf bytes.Buffer
	var err error
	if asPNG {
		err = png.Encode(&buf, img)
	} else {
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	}
	if err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

func decodeResult(t *testing.T, result NormalizedImage) image.Image {
	t.Helper()

	mime, data, err := ParseDataURI(string(result))
	if err != nil {
		t.Fatalf("result is not a valid data uri: %v", err)
	}
	if mime != "image/jpeg" {
		t.Fatalf("mime = %q, want image/jpeg", mime)
	}

	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode result jpeg: %v", err)
	}
	return img
}

func TestNormalizeCapsLargerDimension(t *testing.T) {
	n := NewNormalizer(800, 85)

	tests := []struct {
		name       string
		width      int
		height     int
		asPNG      bool
		wantWidth  int
		wantHeight int
	}{
		{"wide landscape", 1600, 900, false, 800, 450},
		{"tall portrait png", 600, 1200, true, 400, 800},
		{"exactly at cap", 800, 800, false, 800, 800},
		{"small stays untouched", 300, 200, false, 300, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := n.Normalize(encodeTestImage(t, tt.width, tt.height, tt.asPNG))
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}

			bounds := decodeResult(t, result).Bounds()
			if bounds.Dx() != tt.wantWidth || bounds.Dy() != tt.wantHeight {
				t.Errorf("dimensions = %dx%d, want %dx%d", bounds.Dx(), bounds.Dy(), tt.wantWidth, tt.wantHeight)
			}
		})
	}
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	n := NewNormalizer(800, 85)

	_, err := n.Normalize([]byte("definitely not an image"))
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("err = %v, want ErrDecode", err)
	}
}

func TestParseDataURIRejectsForeignPayloads(t *testing.T) {
	for _, uri := range []string{
		"",
		"data:text/html;base64,PGI+",
		"data:image/jpeg;base64,",
		"not a uri at all",
	} {
		if _, _, err := ParseDataURI(uri); err == nil {
			t.Errorf("ParseDataURI(%q) succeeded, want error", uri)
		}
	}
}

func TestBuildAndParseDataURI(t *testing.T) {
	payload := []byte{0xff, 0xd8, 0xff, 0xe0}

	uri := BuildDataURI("image/jpeg", payload)
	mime, data, err := ParseDataURI(uri)
	if err != nil {
		t.Fatalf("ParseDataURI: %v", err)
	}
	if mime != "image/jpeg" {
		t.Errorf("mime = %q", mime)
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("payload round trip mismatch")
	}
}
