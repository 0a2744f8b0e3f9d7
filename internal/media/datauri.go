package media

import (
	"encoding/base64"
	"net/http"
	"strings"

	dErrors "foodgram/pkg/domain-errors"
)

// MaxImageBytes bounds a decoded image.
const MaxImageBytes = 5 << 20

var extensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Image is a decoded upload.
type Image struct {
	Data        []byte
	ContentType string
	Ext         string
}

// DecodeDataURI parses "data:image/<type>;base64,<payload>". The declared type
// must be a supported image type and must match the sniffed content.
func DecodeDataURI(uri string) (*Image, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, invalid("image must be a base64 data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, invalid("image must be a base64 data URI")
	}
	contentType, encoding, _ := strings.Cut(meta, ";")
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if encoding != "base64" {
		return nil, invalid("image must be base64 encoded")
	}
	ext, ok := extensions[contentType]
	if !ok {
		return nil, invalid("image type must be png, jpeg, gif or webp")
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageBytes+3 {
		return nil, invalid("image is too large")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, invalid("image is not valid base64")
	}
	if len(data) == 0 {
		return nil, invalid("image is empty")
	}
	if len(data) > MaxImageBytes {
		return nil, invalid("image is too large")
	}
	if sniffed := http.DetectContentType(data); sniffed != contentType {
		return nil, invalid("image content does not match " + contentType)
	}
	return &Image{Data: data, ContentType: contentType, Ext: ext}, nil
}

func invalid(msg string) error {
	return dErrors.New(dErrors.CodeValidation, "image: "+msg)
}
