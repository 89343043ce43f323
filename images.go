package visurena

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"

	"github.com/visurena/website/views"
)

const (
	imagesSubdir = "images"
	jpegQuality  = 80
)

var thumbTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
}

// thumbName reports whether name is a plain image file name a thumbnail can
// be made from.
func thumbName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") || strings.ContainsAny(name, `/\`) {
		return false
	}
	_, ok := thumbTypes[strings.ToLower(filepath.Ext(name))]
	return ok
}

// makeThumbnail decodes the image at src and scales it down to width pixels
// wide, keeping the aspect ratio. Narrower images are re-encoded unscaled.
// The output format follows the file extension.
func makeThumbnail(src string, width int) ([]byte, string, error) {
	f, err := os.Open(src)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, "", fmt.Errorf("decode %s: %w", filepath.Base(src), err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > width {
		newH := h * width / w
		if newH < 1 {
			newH = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, width, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	ext := strings.ToLower(filepath.Ext(src))
	var buf bytes.Buffer
	switch ext {
	case ".png":
		err = png.Encode(&buf, img)
	case ".gif":
		err = gif.Encode(&buf, img, nil)
	default:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality})
	}
	if err != nil {
		return nil, "", fmt.Errorf("encode %s: %w", filepath.Base(src), err)
	}
	return buf.Bytes(), thumbTypes[ext], nil
}

func (a *App) imagePath(name string) string {
	return filepath.Join(a.Config.StaticDir, imagesSubdir, name)
}

func (a *App) handleThumb(c echo.Context) error {
	name := c.Param("file")
	if !thumbName(name) {
		return a.notFound(c)
	}
	data, ctype, err := makeThumbnail(a.imagePath(name), a.Config.ThumbWidth)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return a.notFound(c)
		}
		return err
	}
	return c.Blob(http.StatusOK, ctype, data)
}

// thumbRoutes returns the /thumbs/ routes of post images that exist in the
// static images dir, de-duplicated and in post order.
func (a *App) thumbRoutes(images []string) []string {
	seen := make(map[string]bool)
	var routes []string
	for _, img := range images {
		thumb := views.ThumbURL(img)
		if thumb == img || seen[thumb] {
			continue
		}
		name := strings.TrimPrefix(thumb, thumbPrefix)
		if !thumbName(name) {
			continue
		}
		if info, err := os.Stat(a.imagePath(name)); err != nil || !info.Mode().IsRegular() {
			continue
		}
		seen[thumb] = true
		routes = append(routes, thumb)
	}
	return routes
}

// handlePublic serves /public/<name> from the static dir, falling back to the
// embedded assets.
func (a *App) handlePublic(c echo.Context) error {
	name := strings.TrimPrefix(path.Clean("/"+c.Param("*")), "/")
	if name == "" {
		return a.notFound(c)
	}
	local := filepath.Join(a.Config.StaticDir, filepath.FromSlash(name))
	if info, err := os.Stat(local); err == nil && info.Mode().IsRegular() {
		return c.File(local)
	}
	data, err := fs.ReadFile(embeddedPublic(), name)
	if err != nil {
		return a.notFound(c)
	}
	ctype := mime.TypeByExtension(path.Ext(name))
	if ctype == "" {
		ctype = http.DetectContentType(data)
	}
	return c.Blob(http.StatusOK, ctype, data)
}
