package detector

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/perchlab/birdwatch/internal/errors"
)

var annotationColor = color.RGBA{G: 255, A: 255}

// SaveAnnotated writes a copy of the frame at framePath to outPath with the
// detection's bounding box and label drawn on it.
func SaveAnnotated(framePath, outPath string, det Detection) error {
	img := gocv.IMRead(framePath, gocv.IMReadColor)
	if img.Empty() {
		return errors.NewIOError(fmt.Sprintf("cannot decode frame %s", framePath), nil)
	}
	defer func() { _ = img.Close() }()

	gocv.Rectangle(&img, det.Box, annotationColor, 2)

	caption := fmt.Sprintf("%s %.2f", det.Label, det.Confidence)
	textOrigin := image.Pt(det.Box.Min.X, det.Box.Min.Y-6)
	if textOrigin.Y < 12 {
		textOrigin.Y = det.Box.Min.Y + 16
	}
	gocv.PutText(&img, caption, textOrigin, gocv.FontHersheySimplex, 0.5, annotationColor, 1)

	if ok := gocv.IMWrite(outPath, img); !ok {
		return errors.NewIOError(fmt.Sprintf("cannot write annotated frame %s", outPath), nil)
	}
	return nil
}
