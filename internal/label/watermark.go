package label

import (
	"bytes"
	_ "embed"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

//go:embed assets/box.svg
var boxIcon []byte

const watermarkOpacity = 0.3

func renderIcon(size int) (*image.NRGBA, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(boxIcon))
	if err != nil {
		return nil, fmt.Errorf("parse watermark icon: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(size, size, scanner), 1.0)
	return img, nil
}

// drawWatermark blends the box icon into the bottom-right corner at 30% opacity.
func drawWatermark(dst *image.NRGBA, size, padding int) (*image.NRGBA, error) {
	if size <= 0 {
		return dst, nil
	}
	icon, err := renderIcon(size)
	if err != nil {
		return nil, err
	}
	b := dst.Bounds()
	pt := image.Pt(b.Dx()-size-padding, b.Dy()-size-padding)
	return imaging.Overlay(dst, icon, pt, watermarkOpacity), nil
}
