// Package imagecodec converts uploaded files and model output into the
// data-URL encoded images carried through studio state.
package imagecodec

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMIMEType is used whenever a payload carries no recognizable image tag.
const DefaultMIMEType = "image/png"

// MaxUploadBytes caps a single uploaded photo.
const MaxUploadBytes = 20 << 20

var (
	dataURLPrefix = regexp.MustCompile(`^data:(image/[a-zA-Z+]+);base64,`)

	ErrEmptyImage   = errors.New("image payload is empty")
	ErrNotDataURL   = errors.New("value is not a base64 data URL")
	ErrNotAnImage   = errors.New("file is not an image")
	ErrUploadTooBig = fmt.Errorf("image exceeds %d bytes", MaxUploadBytes)
)

// Image is one encoded image. Values are never modified after creation;
// retouching produces a new Image.
type Image struct {
	MIMEType string
	Data     []byte
}

// New copies data into a fresh Image.
func New(mimeType string, data []byte) Image {
	if mimeType == "" {
		mimeType = DefaultMIMEType
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return Image{MIMEType: mimeType, Data: buf}
}

// DataURL renders the image in its text transport form.
func (img Image) DataURL() string {
	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = DefaultMIMEType
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// Equal reports whether both images carry the same type and bytes.
func (img Image) Equal(other Image) bool {
	return img.MIMEType == other.MIMEType && string(img.Data) == string(other.Data)
}

func (img Image) MarshalJSON() ([]byte, error) {
	return json.Marshal(img.DataURL())
}

func (img *Image) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	decoded, err := Decode(s)
	if err != nil {
		return err
	}
	*img = decoded
	return nil
}

// MIMEType extracts the image type from a data URL, falling back to
// DefaultMIMEType when the tag is missing or not an image type.
func MIMEType(dataURL string) string {
	m := dataURLPrefix.FindStringSubmatch(dataURL)
	if m == nil {
		return DefaultMIMEType
	}
	return m[1]
}

// Decode parses a data URL produced by DataURL or by a browser FileReader.
func Decode(dataURL string) (Image, error) {
	if !strings.HasPrefix(dataURL, "data:") {
		return Image{}, ErrNotDataURL
	}
	comma := strings.IndexByte(dataURL, ',')
	if comma < 0 {
		return Image{}, ErrNotDataURL
	}
	header := dataURL[:comma]
	if !strings.HasSuffix(header, ";base64") {
		return Image{}, ErrNotDataURL
	}
	data, err := base64.StdEncoding.DecodeString(dataURL[comma+1:])
	if err != nil {
		return Image{}, fmt.Errorf("decode base64 payload: %w", err)
	}
	if len(data) == 0 {
		return Image{}, ErrEmptyImage
	}
	return Image{MIMEType: MIMEType(dataURL), Data: data}, nil
}

// FromReader reads an uploaded file. The declared content type wins when it is
// an image type; otherwise the type is sniffed from the bytes.
func FromReader(r io.Reader, declaredType string) (Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return Image{}, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return Image{}, ErrEmptyImage
	}
	if len(data) > MaxUploadBytes {
		return Image{}, ErrUploadTooBig
	}

	mimeType := normalizeType(declaredType)
	if mimeType == "" {
		detected := mimetype.Detect(data)
		if !strings.HasPrefix(detected.String(), "image/") {
			return Image{}, ErrNotAnImage
		}
		mimeType = normalizeType(detected.String())
	}
	if mimeType == "" {
		mimeType = DefaultMIMEType
	}
	return Image{MIMEType: mimeType, Data: data}, nil
}

// FromFileHeader opens a multipart upload and encodes it.
func FromFileHeader(fh *multipart.FileHeader) (Image, error) {
	if fh.Size > MaxUploadBytes {
		return Image{}, ErrUploadTooBig
	}
	f, err := fh.Open()
	if err != nil {
		return Image{}, fmt.Errorf("open upload %q: %w", fh.Filename, err)
	}
	defer f.Close()
	return FromReader(f, fh.Header.Get("Content-Type"))
}

// normalizeType strips parameters and rejects non-image types.
func normalizeType(t string) string {
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = t[:i]
	}
	t = strings.ToLower(strings.TrimSpace(t))
	if !strings.HasPrefix(t, "image/") {
		return ""
	}
	// the data URL tag only admits letters and '+'
	if !dataURLPrefix.MatchString("data:" + t + ";base64,") {
		return ""
	}
	return t
}
