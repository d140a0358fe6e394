package docparse

import (
	"bytes"
	"fmt"
	"strings"
)

const (
	defaultMaxPDFBytes   = 10 << 20
	defaultMaxImageBytes = 5 << 20
)

// Limits bounds accepted upload sizes per file type.
type Limits struct {
	MaxPDFBytes   int64
	MaxImageBytes int64
}

// DefaultLimits returns the standard upload bounds: 10 MiB for PDFs,
// 5 MiB for images.
func DefaultLimits() Limits {
	return Limits{
		MaxPDFBytes:   defaultMaxPDFBytes,
		MaxImageBytes: defaultMaxImageBytes,
	}
}

// forbiddenNameChars are rejected anywhere in an uploaded file name. Path
// separators are included since uploads carry a bare name, never a path.
const forbiddenNameChars = `<>:"|?*\/` + "\x00"

var contentMarkers = [][]byte{
	[]byte("<?php"),
	[]byte("<script"),
	[]byte("javascript:"),
	[]byte("eval("),
	[]byte("cmd.exe"),
	[]byte("powershell"),
	[]byte("/bin/sh"),
}

// ValidateUpload runs every acceptance check on an uploaded file and
// returns the detected type. The type comes from the content signature;
// the extension only has to agree with it.
func ValidateUpload(fileName string, data []byte, limits Limits) (FileType, error) {
	if len(data) == 0 {
		return "", ErrEmptyFile
	}
	if err := validateFileName(fileName); err != nil {
		return "", err
	}

	expected, ok := TypeFromExtension(fileName)
	if !ok {
		return "", fmt.Errorf("%w: extension %q", ErrUnsupportedType, strings.ToLower(fileName))
	}
	actual, ok := SniffType(data)
	if !ok {
		return "", fmt.Errorf("%w: unrecognized content signature", ErrUnsupportedType)
	}
	if expected != actual {
		return "", fmt.Errorf("%w: named %s, content is %s", ErrTypeMismatch, expected, actual)
	}

	limit := limits.MaxImageBytes
	if actual == FileTypePDF {
		limit = limits.MaxPDFBytes
	}
	if int64(len(data)) > limit {
		return "", fmt.Errorf("%w: %d bytes over %d byte limit", ErrTooLarge, len(data), limit)
	}

	if err := scanContent(data); err != nil {
		return "", err
	}
	return actual, nil
}

func validateFileName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty name", ErrDangerousName)
	}
	if strings.ContainsAny(name, forbiddenNameChars) {
		return fmt.Errorf("%w: %q", ErrDangerousName, name)
	}
	if strings.Contains(name, "..") {
		return fmt.Errorf("%w: traversal sequence in %q", ErrDangerousName, name)
	}
	return nil
}

// scanContent rejects payloads carrying executable-looking markers and
// files that are mostly NUL bytes.
func scanContent(data []byte) error {
	lowered := bytes.ToLower(data)
	for _, marker := range contentMarkers {
		if bytes.Contains(lowered, marker) {
			return fmt.Errorf("%w: marker %q", ErrDangerousContent, marker)
		}
	}
	if nulRatio(data) > 0.5 {
		return fmt.Errorf("%w: mostly NUL bytes", ErrDangerousContent)
	}
	return nil
}

func nulRatio(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}
	return float64(bytes.Count(data, []byte{0})) / float64(len(data))
}
