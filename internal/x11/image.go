package x11

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/BurntSushi/xgb/xproto"
)

// FillBackground sets the root window background to rgb and clears it.
func (c *Connection) FillBackground(rgb uint32) error {
	if err := c.Check("ChangeWindowAttributes", xproto.ChangeWindowAttributesChecked(
		c.Conn(), c.Root, xproto.CwBackPixel, []uint32{rgb})); err != nil {
		return err
	}
	return c.Check("ClearArea", xproto.ClearAreaChecked(c.Conn(), false, c.Root, 0, 0, 0, 0))
}

// Screenshot captures the whole root window. The server must use a 24 or 32
// bit TrueColor visual, which is what the conformance server is configured
// with.
func (c *Connection) Screenshot() (*image.RGBA, error) {
	width := c.Screen.WidthInPixels
	height := c.Screen.HeightInPixels
	reply, err := xproto.GetImage(c.Conn(), xproto.ImageFormatZPixmap, xproto.Drawable(c.Root),
		0, 0, width, height, 0xffffffff).Reply()
	if err != nil {
		return nil, Translate("GetImage", err)
	}
	return decodeZPixmap(reply.Data, int(width), int(height))
}

// decodeZPixmap converts a 32 bits-per-pixel BGRX ZPixmap into an RGBA image.
func decodeZPixmap(data []byte, width, height int) (*image.RGBA, error) {
	if len(data) < width*height*4 {
		return nil, fmt.Errorf("image data too short: %d bytes for %dx%d", len(data), width, height)
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := (y*width + x) * 4
			img.SetRGBA(x, y, color.RGBA{R: data[i+2], G: data[i+1], B: data[i], A: 0xff})
		}
	}
	return img, nil
}

// WritePNG writes img to path.
func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
