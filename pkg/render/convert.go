// Package render turns the serialized model's SVG into raster and print
// formats. Conversion shells out to rsvg-convert so the binary carries
// no native rasterizer; JSON and SVG output never need it.
package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

const installHint = "install librsvg (brew install librsvg / apt install librsvg2-bin)"

// ToPDF converts SVG bytes to a PDF document.
func ToPDF(ctx context.Context, svg []byte) ([]byte, error) {
	return rsvgConvert(ctx, svg, "pdf")
}

// ToPNG rasterizes SVG bytes at the given scale factor. A scale of 2.0
// doubles the pixel density for high-DPI displays.
func ToPNG(ctx context.Context, svg []byte, scale float64) ([]byte, error) {
	if scale <= 0 {
		return nil, fmt.Errorf("scale %g out of range", scale)
	}
	return rsvgConvert(ctx, svg, "png", "-z", fmt.Sprintf("%.2f", scale))
}

// rsvgConvert pipes the SVG through rsvg-convert. The process is killed
// when ctx is cancelled.
func rsvgConvert(ctx context.Context, svg []byte, format string, extra ...string) ([]byte, error) {
	bin, err := exec.LookPath("rsvg-convert")
	if err != nil {
		return nil, fmt.Errorf("%s export needs rsvg-convert: %s", format, installHint)
	}

	var out, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, append([]string{"-f", format}, extra...)...)
	cmd.Stdin = bytes.NewReader(svg)
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("rsvg-convert -f %s: %v: %s", format, err, stderr.String())
	}
	return out.Bytes(), nil
}
