package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
)

// PNG returns a 2x2 PNG filled with c.
func PNG(c color.Color) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for x := 0; x < 2; x++ {
		for y := 0; y < 2; y++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// SentinelPNG is the image tests use as the "no document" fallback.
func SentinelPNG() []byte {
	return PNG(color.RGBA{R: 0xff, A: 0xff})
}
