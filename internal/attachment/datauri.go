// Package attachment decodes report files sent as base64 data URIs and pulls out
// whatever text the model can use from them.
package attachment

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxBytes is the largest decoded report file accepted.
const DefaultMaxBytes = 4 << 20

var (
	ErrMalformed       = errors.New("report file must be a base64 data URI (data:<mimetype>;base64,<data>)")
	ErrTooLarge        = errors.New("report file is larger than the allowed size")
	ErrUnsupportedType = errors.New("report file must be a PNG, JPEG, WebP, HEIC or HEIF image, or a PDF")
)

// imageTypes are the image formats the model accepts inline.
var imageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
	"image/heic": true,
	"image/heif": true,
}

// File is a decoded report attachment.
type File struct {
	// DeclaredType is the MIME type named in the data URI.
	DeclaredType string
	// MIMEType is the type detected from the content itself.
	MIMEType string
	Data     []byte
}

// IsPDF reports whether the content is a PDF document.
func (f *File) IsPDF() bool {
	return f.MIMEType == "application/pdf"
}

// IsImage reports whether the content is an image in a format the model accepts.
func (f *File) IsImage() bool {
	return imageTypes[f.MIMEType]
}

// ImageFormat returns the short format name ("png", "jpeg", ...) of an image file.
func (f *File) ImageFormat() string {
	return strings.TrimPrefix(f.MIMEType, "image/")
}

// Decode parses a data URI, enforces maxBytes on the decoded payload and checks the
// content is a supported image or a PDF. A maxBytes of zero or less means DefaultMaxBytes.
func Decode(uri string, maxBytes int) (*File, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, ErrMalformed
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, ErrMalformed
	}
	declared, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 || declared == "" {
		return nil, ErrMalformed
	}
	// Parameters such as ;name=scan.png may precede ;base64.
	declared, _, _ = strings.Cut(declared, ";")

	if base64.StdEncoding.DecodedLen(len(payload)) > maxBytes+2 {
		return nil, fmt.Errorf("%w (%d bytes max)", ErrTooLarge, maxBytes)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(data) > maxBytes {
		return nil, fmt.Errorf("%w (%d bytes max)", ErrTooLarge, maxBytes)
	}

	detected := mimetype.Detect(data)
	f := &File{
		DeclaredType: strings.ToLower(declared),
		MIMEType:     baseType(detected.String()),
		Data:         data,
	}
	if !f.IsPDF() && !f.IsImage() {
		return nil, fmt.Errorf("%w (detected %s)", ErrUnsupportedType, f.MIMEType)
	}
	return f, nil
}

// Text returns the plain text of a PDF attachment. Images and PDFs without a text
// layer yield an empty string.
func (f *File) Text() (string, error) {
	if !f.IsPDF() {
		return "", nil
	}
	return pdfText(bytes.NewReader(f.Data), int64(len(f.Data)))
}

func baseType(mime string) string {
	t, _, _ := strings.Cut(mime, ";")
	return strings.TrimSpace(t)
}

// EncodeDataURI wraps data in a base64 data URI typed by its detected content.
func EncodeDataURI(data []byte) string {
	return "data:" + baseType(mimetype.Detect(data).String()) + ";base64," + base64.StdEncoding.EncodeToString(data)
}
