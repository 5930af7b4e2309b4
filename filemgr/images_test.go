package filemgr

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngDataURL(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func decodeResult(t *testing.T, dataURL string) image.Image {
	t.Helper()
	data, mime, err := DecodeDataURL(dataURL, PicAvatar)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mime)
	img, _, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func TestNormalizeImageFitsAvatar(t *testing.T) {
	out, err := NormalizeImage(pngDataURL(t, 1024, 256), PicAvatar)
	require.NoError(t, err)

	b := decodeResult(t, out).Bounds()
	assert.Equal(t, 512, b.Dx())
	assert.Equal(t, 128, b.Dy())
}

func TestNormalizeImageKeepsSmallImagesSize(t *testing.T) {
	out, err := NormalizeImage(pngDataURL(t, 64, 48), PicAvatar)
	require.NoError(t, err)

	b := decodeResult(t, out).Bounds()
	assert.Equal(t, 64, b.Dx())
	assert.Equal(t, 48, b.Dy())
}

func TestNormalizeImagePassesThroughURLs(t *testing.T) {
	out, err := NormalizeImage(" https://cdn.example.com/gala.jpg ", PicPoster)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/gala.jpg", out)
}

func TestNormalizeImageRejects(t *testing.T) {
	_, err := NormalizeImage("data:image/svg+xml;base64,PHN2Zz4=", PicAvatar)
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	_, err = NormalizeImage("data:image/png;base64,not-base64!!", PicAvatar)
	assert.ErrorIs(t, err, ErrNotDataURL)

	_, err = NormalizeImage("data:image/png;base64,"+base64.StdEncoding.EncodeToString([]byte("hello")), PicAvatar)
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestNormalizeGallery(t *testing.T) {
	out, err := NormalizeGallery([]string{"", "/images/a.jpg", pngDataURL(t, 10, 10)})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "/images/a.jpg", out[0])

	_, err = NormalizeGallery([]string{"data:text/plain;base64,aGk="})
	assert.ErrorContains(t, err, "image 1")
}
