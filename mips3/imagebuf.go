package mips3

import (
	"image"
	"image/color"
)

// A 16 bit RGB555 framebuffer captured from guest memory. It implements
// image.Image
type ImageBuffer struct {
	Width  int
	Height int
	Buffer []uint16
}

// Returns a new image buffer of `width` by `height` pixels
func NewImageBuffer(width, height int) *ImageBuffer {
	return &ImageBuffer{
		Width:  width,
		Height: height,
		Buffer: make([]uint16, width*height),
	}
}

// Copies the framebuffer stored at physical address `base` out of `mem`
func (buf *ImageBuffer) Capture(mem AddressSpace, base uint32) {
	for i := range buf.Buffer {
		buf.Buffer[i] = mem.Read16(base + uint32(i)*2)
	}
}

func (buf *ImageBuffer) ColorModel() color.Model {
	return color.RGBAModel
}

func (buf *ImageBuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, buf.Width, buf.Height)
}

// Returns the RGBA color value at `x`,`y`
func (buf *ImageBuffer) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= buf.Width || y >= buf.Height {
		return color.RGBA{}
	}
	val := buf.Buffer[x+y*buf.Width]
	r := uint8(((val & 0b01111100_00000000) >> 7) | ((val & 0b01111100_00000000) >> 12))
	g := uint8(((val & 0b00000011_11100000) >> 2) | ((val & 0b00000011_11100000) >> 7))
	b := uint8(((val & 0b00011111) << 3) | ((val & 0b00011111) >> 2))
	return color.RGBA{r, g, b, 255}
}

// Converts the image to an image.RGBA
func (buf *ImageBuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(buf.Bounds())

	// set each pixel
	for y := 0; y < buf.Height; y++ {
		for x := 0; x < buf.Width; x++ {
			img.Set(x, y, buf.At(x, y))
		}
	}
	return img
}
