package label

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/skip2/go-qrcode"
)

// renderQR encodes data at medium error correction with the standard
// 4-module quiet zone and scales it to size x size with nearest-neighbour
// sampling so modules stay sharp.
func renderQR(data string, size int) (*image.NRGBA, error) {
	q, err := qrcode.New(data, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	bitmap := q.Bitmap()
	n := len(bitmap)
	img := image.NewNRGBA(image.Rect(0, 0, n, n))
	for y, row := range bitmap {
		for x, set := range row {
			if set {
				img.SetNRGBA(x, y, inkColor)
			} else {
				img.SetNRGBA(x, y, paperColor)
			}
		}
	}
	return imaging.Resize(img, size, size, imaging.NearestNeighbor), nil
}
