// Package screenshot turns a framebuffer of shade indices into a scaled
// PNG.
package screenshot

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/draw"

	"github.com/richardwooding/dotmatrix/internal/logger"
	"github.com/richardwooding/dotmatrix/internal/ppu"
)

// MaxScale is the largest accepted scale factor.
const MaxScale = 10

// ErrInvalidScale indicates the scale factor is out of range.
var ErrInvalidScale = errors.New("scale must be between 1 and 10")

// ValidateScale checks scale against 1..MaxScale.
func ValidateScale(scale int) error {
	if scale < 1 || scale > MaxScale {
		return fmt.Errorf("%w: got %d", ErrInvalidScale, scale)
	}
	return nil
}

// Palette maps shade indices to the classic green DMG tones, lightest first.
var Palette = [4]color.RGBA{
	{0xE0, 0xF8, 0xD0, 0xFF},
	{0x88, 0xC0, 0x70, 0xFF},
	{0x34, 0x68, 0x56, 0xFF},
	{0x08, 0x18, 0x20, 0xFF},
}

// Framebuffer is the PPU output: one shade index per pixel, row-major.
type Framebuffer = [ppu.ScreenWidth * ppu.ScreenHeight]uint8

// Frame converts fb to an unscaled image.
func Frame(fb *Framebuffer) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, ppu.ScreenWidth, ppu.ScreenHeight))
	for i, shade := range fb {
		c := Palette[shade&0x03]
		copy(img.Pix[i*4:], []uint8{c.R, c.G, c.B, c.A})
	}
	return img
}

// Image returns fb scaled by an integer factor with nearest-neighbour
// sampling.
func Image(fb *Framebuffer, scale int) (*image.RGBA, error) {
	if err := ValidateScale(scale); err != nil {
		return nil, err
	}

	src := Frame(fb)
	if scale == 1 {
		return src, nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, ppu.ScreenWidth*scale, ppu.ScreenHeight*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst, nil
}

// Write encodes a scaled PNG of fb to w.
func Write(w io.Writer, fb *Framebuffer, scale int) error {
	img, err := Image(fb, scale)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("screenshot: %w", err)
	}
	return nil
}

// Save writes a scaled PNG of fb to path.
func Save(path string, fb *Framebuffer, scale int) (rerr error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("screenshot: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil && rerr == nil {
			rerr = fmt.Errorf("screenshot: %w", err)
		}
	}()

	if err := Write(f, fb, scale); err != nil {
		return err
	}
	logger.Logf("screenshot", "saved %s", path)
	return nil
}
