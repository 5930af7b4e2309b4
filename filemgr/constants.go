package filemgr

import "errors"

type PictureType string

const (
	PicAvatar PictureType = "avatar"
	PicPoster PictureType = "poster"
	PicPhoto  PictureType = "photo"
)

var (
	AllowedMIMEs = map[PictureType][]string{
		PicAvatar: {"image/jpeg", "image/png", "image/gif"},
		PicPoster: {"image/jpeg", "image/png"},
		PicPhoto:  {"image/jpeg", "image/png", "image/gif"},
	}

	// MaxSide is the longest edge after resizing.
	MaxSide = map[PictureType]int{
		PicAvatar: 512,
		PicPoster: 1600,
		PicPhoto:  1600,
	}
)

const MaxImageBytes = 5 << 20

var (
	ErrNotDataURL       = errors.New("not a base64 data URL")
	ErrUnsupportedImage = errors.New("unsupported image type")
	ErrImageTooLarge    = errors.New("image exceeds 5 MB")
	ErrInvalidImage     = errors.New("image could not be decoded")
)
