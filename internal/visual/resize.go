package visual

import (
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/liyanghua/xhs-video-tool/internal/timeline"
)

// ResizedJPEGQuality matches the still quality used for every image segment.
const ResizedJPEGQuality = 95

// ResizeImage decodes src, resizes it to exactly the canvas with Lanczos-3
// (aspect ratio is not preserved) and writes a JPEG to dst.
func ResizeImage(src, dst string, canvas timeline.Canvas) (timeline.MediaInfo, error) {
	if !canvas.Valid() {
		return timeline.MediaInfo{}, fmt.Errorf("resize %s: invalid canvas %s", src, canvas)
	}
	in, err := os.Open(src)
	if err != nil {
		return timeline.MediaInfo{}, fmt.Errorf("open image: %w", err)
	}
	defer in.Close()

	img, format, err := image.Decode(in)
	if err != nil {
		return timeline.MediaInfo{}, fmt.Errorf("decode image %s: %w", src, err)
	}
	bounds := img.Bounds()
	resized := resize.Resize(uint(canvas.Width), uint(canvas.Height), img, resize.Lanczos3)

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return timeline.MediaInfo{}, fmt.Errorf("create temp dir: %w", err)
	}
	tmp := dst + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return timeline.MediaInfo{}, fmt.Errorf("create resized image: %w", err)
	}
	if err := jpeg.Encode(out, resized, &jpeg.Options{Quality: ResizedJPEGQuality}); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return timeline.MediaInfo{}, fmt.Errorf("encode resized %s image: %w", format, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return timeline.MediaInfo{}, fmt.Errorf("close resized image: %w", err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return timeline.MediaInfo{}, fmt.Errorf("finalize resized image: %w", err)
	}
	return timeline.MediaInfo{Width: bounds.Dx(), Height: bounds.Dy()}, nil
}
