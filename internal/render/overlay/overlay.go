package overlay

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"sync"

	"github.com/golang/freetype/truetype"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/rook-computer/beamfield/internal/render/layout"
)

type Logger interface {
	Infof(component string, format string, args ...interface{})
	Errorf(component string, format string, args ...interface{})
}

var (
	// Caption colour, a warm white that reads over the gold beams.
	Foreground = color.RGBA{R: 0xFF, G: 0xF4, B: 0xDC, A: 0xFF}
	Shadow     = color.RGBA{R: 0x00, G: 0x00, B: 0x00, A: 0xA0}
)

const (
	marginPx  = 24
	minQRPx   = 96
	qrPadPx   = 8
	minFontPt = 12
)

// Overlay draws an optional caption and QR code over a composed frame.
// The zero value draws nothing.
type Overlay struct {
	Caption   string
	QRPayload string
	// FontFile is a TrueType or OpenType font for the caption. Empty means
	// the bundled Go Regular.
	FontFile string
	Logger   Logger

	mu       sync.Mutex
	fontData []byte
	face     font.Face
	faceSize int
	faceFrom faceSource
	qr       image.Image
	qrSide   int
	qrFailed bool
}

// Empty reports whether Compose would leave dst untouched.
func (o *Overlay) Empty() bool {
	return o == nil || (o.Caption == "" && o.QRPayload == "")
}

// Compose draws the overlay onto dst in place.
func (o *Overlay) Compose(dst *image.RGBA) {
	if o.Empty() || dst.Bounds().Empty() {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()

	area := layout.Inset(dst.Bounds(), marginPx)
	if o.QRPayload != "" {
		o.drawQR(dst, area)
	}
	if o.Caption != "" {
		o.drawCaption(dst, area)
	}
}

func (o *Overlay) drawQR(dst *image.RGBA, area image.Rectangle) {
	side := layout.SquareFraction(area, 0.18, minQRPx)
	if side <= 2*qrPadPx {
		return
	}
	if o.qr == nil || o.qrSide != side {
		if o.qrFailed {
			return
		}
		img, err := GenerateQRCodeImage(o.QRPayload, side-2*qrPadPx)
		if err != nil {
			o.qrFailed = true
			o.logErrorf("qr code generation failed: %v", err)
			return
		}
		o.qr, o.qrSide = img, side
	}
	box := layout.AnchorBottomRight(area, side, side)
	draw.Draw(dst, box, &image.Uniform{C: color.White}, image.Point{}, draw.Over)
	inner := layout.Inset(box, qrPadPx)
	xdraw.NearestNeighbor.Scale(dst, inner, o.qr, o.qr.Bounds(), xdraw.Over, nil)
}

func (o *Overlay) drawCaption(dst *image.RGBA, area image.Rectangle) {
	size := dst.Bounds().Dy() / 30
	if size < minFontPt {
		size = minFontPt
	}
	face := o.fontFace(size)
	metrics := face.Metrics()
	band := layout.BottomBand(area, (metrics.Ascent + metrics.Descent).Ceil())
	baseline := band.Max.Y - metrics.Descent.Ceil()

	drawer := &font.Drawer{Dst: dst, Face: face}
	width := drawer.MeasureString(o.Caption).Ceil()
	x := band.Min.X + (band.Dx()-width)/2
	offset := size / 16
	if offset < 1 {
		offset = 1
	}

	drawer.Src = image.NewUniform(Shadow)
	drawer.Dot = fixed.P(x+offset, baseline+offset)
	drawer.DrawString(o.Caption)

	drawer.Src = image.NewUniform(Foreground)
	drawer.Dot = fixed.P(x, baseline)
	drawer.DrawString(o.Caption)
}

// fontFace returns a caption face of the requested size.
func (o *Overlay) fontFace(size int) font.Face {
	if o.face != nil && o.faceSize == size {
		return o.face
	}
	if o.fontData == nil {
		o.fontData = o.loadFontData()
	}
	o.faceSize = size
	o.face, o.faceFrom = loadFace(o.fontData, float64(size), o.logErrorf)
	return o.face
}

func (o *Overlay) loadFontData() []byte {
	if o.FontFile == "" {
		return goregular.TTF
	}
	data, err := os.ReadFile(o.FontFile)
	if err != nil {
		o.logErrorf("caption font %s unreadable, using Go Regular: %v", o.FontFile, err)
		return goregular.TTF
	}
	return data
}

type faceSource int

const (
	fromTrueType faceSource = iota + 1
	fromOpenType
	fromBasic
)

func (f faceSource) String() string {
	switch f {
	case fromTrueType:
		return "truetype"
	case fromOpenType:
		return "opentype"
	case fromBasic:
		return "basicfont"
	default:
		return fmt.Sprintf("faceSource(%d)", int(f))
	}
}

// loadFace rasterizes captions with freetype. Fonts freetype cannot read,
// such as CFF-flavoured OpenType, go through the opentype parser, and the
// built-in bitmap face is the last resort.
func loadFace(data []byte, size float64, logErrorf func(string, ...interface{})) (font.Face, faceSource) {
	tt, err := truetype.Parse(data)
	if err == nil {
		return truetype.NewFace(tt, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull}), fromTrueType
	}
	logErrorf("truetype parse failed, trying opentype: %v", err)

	fnt, oerr := opentype.Parse(data)
	if oerr == nil {
		face, ferr := opentype.NewFace(fnt, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
		if ferr == nil {
			return face, fromOpenType
		}
		oerr = ferr
	}
	logErrorf("opentype face failed, using basicfont: %v", oerr)
	return basicfont.Face7x13, fromBasic
}

func (o *Overlay) logErrorf(format string, args ...interface{}) {
	if o.Logger != nil {
		o.Logger.Errorf("overlay", format, args...)
	}
}
