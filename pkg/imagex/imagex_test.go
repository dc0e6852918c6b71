package imagex

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func pngOf(w, h int) *bytes.Buffer {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 128, 255})
		}
	}
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return &buf
}

func TestFitOnlyShrinks(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 400, 200))
	out := Fit(img, 100)
	if b := out.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Fatalf("got %dx%d, want 100x50", b.Dx(), b.Dy())
	}
	if Fit(img, 1000) != image.Image(img) {
		t.Fatalf("small image should be returned unchanged")
	}
}

func TestToWebP(t *testing.T) {
	data, err := ToWebP(pngOf(64, 32), Options{MaxSize: 16})
	if err != nil {
		t.Fatalf("ToWebP: %v", err)
	}
	img, err := Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 8 {
		t.Fatalf("got %dx%d, want 16x8", b.Dx(), b.Dy())
	}
}

func TestDecodeEmpty(t *testing.T) {
	if _, err := Decode(bytes.NewReader(nil)); err != ErrEmptyImage {
		t.Fatalf("expected ErrEmptyImage, got %v", err)
	}
}
