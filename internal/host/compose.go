package host

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// scaleOver stretches frame over the whole of dst. Only hit for the one
// frame between an output size change and the resize that follows it.
func scaleOver(dst *image.RGBA, frame *image.RGBA) {
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), frame, frame.Bounds(), xdraw.Over, nil)
}
