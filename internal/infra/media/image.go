package media

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// VerticalSafe converts an arbitrary product photo into a 9:16 frame the
// vendor accepts: the source blown up and gaussian-blurred as background,
// the original fit-scaled and centered on top. Mirrors what every vertical
// ad tool does with non-vertical input.
func VerticalSafe(imagePath, outPath string, targetW, targetH int) (string, error) {
	src, err := imaging.Open(imagePath, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}

	bg := imaging.Resize(src, targetW, targetH, imaging.Lanczos)
	bg = imaging.Blur(bg, 30)

	fg := imaging.Fit(src, targetW, targetH, imaging.Lanczos)
	x := (targetW - fg.Bounds().Dx()) / 2
	y := (targetH - fg.Bounds().Dy()) / 2
	out := imaging.Paste(bg, fg, image.Pt(x, y))

	if err := imaging.Save(out, outPath); err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}
	return outPath, nil
}
