package filemgr

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"slices"
	"strings"

	"github.com/disintegration/imaging"
)

// DecodeDataURL splits "data:<mime>;base64,<payload>" and checks the MIME
// type against the picture type.
func DecodeDataURL(value string, picType PictureType) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(value, "data:")
	if !ok {
		return nil, "", ErrNotDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", ErrNotDataURL
	}
	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return nil, "", ErrNotDataURL
	}
	mime = strings.ToLower(mime)
	if !slices.Contains(AllowedMIMEs[picType], mime) {
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedImage, mime)
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageBytes {
		return nil, "", ErrImageTooLarge
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", ErrNotDataURL
	}
	return data, mime, nil
}

// NormalizeImage re-encodes a data URL image as a JPEG data URL that fits the
// picture type's size. Re-encoding strips EXIF. Plain URLs are kept as given.
func NormalizeImage(value string, picType PictureType) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" || !strings.HasPrefix(value, "data:") {
		return value, nil
	}

	data, _, err := DecodeDataURL(value, picType)
	if err != nil {
		return "", err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", ErrInvalidImage
	}

	side := MaxSide[picType]
	b := img.Bounds()
	if b.Dx() > side || b.Dy() > side {
		img = imaging.Fit(img, side, side, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// NormalizeGallery runs NormalizeImage over every entry, dropping blanks.
func NormalizeGallery(values []string) ([]string, error) {
	out := make([]string, 0, len(values))
	for i, v := range values {
		img, err := NormalizeImage(v, PicPhoto)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i+1, err)
		}
		if img != "" {
			out = append(out, img)
		}
	}
	return out, nil
}
