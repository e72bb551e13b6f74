package overlay

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/goregular"
)

func countOpaque(img *image.RGBA, r image.Rectangle) int {
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if img.RGBAAt(x, y).A != 0 {
				n++
			}
		}
	}
	return n
}

func TestEmptyOverlayDrawsNothing(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 320, 240))
	var o *Overlay
	o.Compose(img)
	(&Overlay{}).Compose(img)

	if n := countOpaque(img, img.Bounds()); n != 0 {
		t.Errorf("Expected untouched frame, got %d painted pixels", n)
	}
}

func TestCaptionDrawsInBottomBand(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 640, 360))
	o := &Overlay{Caption: "beamfield"}
	o.Compose(img)

	top := image.Rect(0, 0, 640, 180)
	bottom := image.Rect(0, 180, 640, 360)
	if n := countOpaque(img, top); n != 0 {
		t.Errorf("Expected nothing in the top half, got %d painted pixels", n)
	}
	if n := countOpaque(img, bottom); n == 0 {
		t.Error("Expected caption pixels in the bottom half")
	}
}

func TestQRCodeInBottomRightCorner(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 800, 600))
	o := &Overlay{QRPayload: "http://127.0.0.1:8080/"}
	o.Compose(img)

	corner := image.Rect(800-marginPx-minQRPx, 600-marginPx-minQRPx, 800-marginPx, 600-marginPx)
	if n := countOpaque(img, corner); n != corner.Dx()*corner.Dy() {
		t.Errorf("Expected an opaque QR block in the corner, got %d of %d pixels", n, corner.Dx()*corner.Dy())
	}
	if n := countOpaque(img, image.Rect(0, 0, 400, 300)); n != 0 {
		t.Errorf("Expected nothing in the top-left quadrant, got %d painted pixels", n)
	}
}

func TestGenerateQRCode(t *testing.T) {
	img, err := GenerateQRCodeImage("", 0)
	if img != nil || err != nil {
		t.Errorf("Expected (nil, nil) for empty payload, got (%v, %v)", img, err)
	}

	img, err = GenerateQRCodeImage("hello", 0)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if img.Bounds().Dx() != defaultQRCodeSizePx {
		t.Errorf("Expected default size %d, got %d", defaultQRCodeSizePx, img.Bounds().Dx())
	}

	data, err := GenerateQRCodePNG("hello", 128)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Expected valid PNG, got %v", err)
	}
	if decoded.Bounds().Dx() != 128 {
		t.Errorf("Expected 128px PNG, got %d", decoded.Bounds().Dx())
	}
}

type countingLogger struct{ errs int }

func (l *countingLogger) Infof(string, string, ...interface{})  {}
func (l *countingLogger) Errorf(string, string, ...interface{}) { l.errs++ }

func TestLoadFaceSources(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want faceSource
		errs int
	}{
		{"bundled font through freetype", goregular.TTF, fromTrueType, 0},
		{"garbage falls back to bitmap", []byte("not a font"), fromBasic, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &countingLogger{}
			face, from := loadFace(tt.data, 24, func(f string, a ...interface{}) { l.Errorf("overlay", f, a...) })
			if face == nil {
				t.Fatal("Expected a face")
			}
			if from != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, from)
			}
			if l.errs != tt.errs {
				t.Errorf("Expected %d logged errors, got %d", tt.errs, l.errs)
			}
		})
	}
}

func TestCaptionFaceFromFontFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "caption.ttf")
	if err := os.WriteFile(path, goregular.TTF, 0o644); err != nil {
		t.Fatalf("Expected font file written, got %v", err)
	}

	o := &Overlay{Caption: "beamfield", FontFile: path}
	img := image.NewRGBA(image.Rect(0, 0, 640, 360))
	o.Compose(img)

	if o.faceFrom != fromTrueType {
		t.Errorf("Expected caption face from truetype, got %v", o.faceFrom)
	}
	if n := countOpaque(img, img.Bounds()); n == 0 {
		t.Error("Expected caption pixels")
	}
}

func TestMissingFontFileFallsBackToBundled(t *testing.T) {
	l := &countingLogger{}
	o := &Overlay{Caption: "beamfield", FontFile: filepath.Join(t.TempDir(), "missing.ttf"), Logger: l}
	o.Compose(image.NewRGBA(image.Rect(0, 0, 320, 240)))

	if l.errs != 1 {
		t.Errorf("Expected the unreadable font to be logged once, got %d", l.errs)
	}
	if o.faceFrom != fromTrueType {
		t.Errorf("Expected bundled font through truetype, got %v", o.faceFrom)
	}
}
