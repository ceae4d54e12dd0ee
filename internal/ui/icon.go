package ui

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
)

var iconBytes = renderIcon(32)

// renderIcon draws a rounded square with a timeline bar and one marker.
func renderIcon(size int) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	bg := color.NRGBA{R: 0xF2, G: 0xEC, B: 0xDC, A: 0xFF}
	bar := color.NRGBA{R: 0x4A, G: 0x4A, B: 0x4A, A: 0xFF}
	mark := color.NRGBA{R: 0xD9, G: 0x4F, B: 0x30, A: 0xFF}

	r := size / 6
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if inRoundedRect(x, y, size, r) {
				img.SetNRGBA(x, y, bg)
			}
		}
	}

	barTop, barBottom := size*9/16, size*11/16
	for y := barTop; y < barBottom; y++ {
		for x := size / 8; x < size-size/8; x++ {
			img.SetNRGBA(x, y, bar)
		}
	}

	markX := size * 5 / 8
	for y := size / 4; y < size*13/16; y++ {
		for x := markX - size/16; x <= markX+size/16; x++ {
			img.SetNRGBA(x, y, mark)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func inRoundedRect(x, y, size, r int) bool {
	cx, cy := x, y
	switch {
	case x < r:
		cx = r
	case x >= size-r:
		cx = size - r - 1
	}
	switch {
	case y < r:
		cy = r
	case y >= size-r:
		cy = size - r - 1
	}
	dx, dy := x-cx, y-cy
	return dx*dx+dy*dy <= r*r
}
