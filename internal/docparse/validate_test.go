package docparse

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pdfBytes(body string) []byte {
	return append([]byte("%PDF-1.4\n"), []byte(body)...)
}

func jpegBytes(size int) []byte {
	data := make([]byte, size)
	copy(data, []byte{0xFF, 0xD8, 0xFF, 0xE0})
	for i := 4; i < size; i++ {
		data[i] = byte('a' + i%20)
	}
	return data
}

func TestValidateUploadAccepts(t *testing.T) {
	got, err := ValidateUpload("resume.pdf", pdfBytes("plain resume content"), DefaultLimits())
	require.NoError(t, err)
	assert.Equal(t, FileTypePDF, got)

	got, err = ValidateUpload("photo.jpeg", jpegBytes(256), DefaultLimits())
	require.NoError(t, err)
	assert.Equal(t, FileTypeJPEG, got)
}

func TestValidateUploadRejects(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		data     []byte
		limits   Limits
		wantErr  error
	}{
		{"empty file", "resume.pdf", nil, DefaultLimits(), ErrEmptyFile},
		{"empty name", "   ", pdfBytes("x"), DefaultLimits(), ErrDangerousName},
		{"path separator", "a/b.pdf", pdfBytes("x"), DefaultLimits(), ErrDangerousName},
		{"traversal", "..resume.pdf", pdfBytes("x"), DefaultLimits(), ErrDangerousName},
		{"nul in name", "re\x00sume.pdf", pdfBytes("x"), DefaultLimits(), ErrDangerousName},
		{"unknown extension", "resume.txt", pdfBytes("x"), DefaultLimits(), ErrUnsupportedType},
		{"unknown signature", "resume.pdf", []byte("just text"), DefaultLimits(), ErrUnsupportedType},
		{"extension lies about content", "resume.pdf", jpegBytes(64), DefaultLimits(), ErrTypeMismatch},
		{"pdf over limit", "resume.pdf", pdfBytes("0123456789"), Limits{MaxPDFBytes: 10, MaxImageBytes: 1 << 20}, ErrTooLarge},
		{"image over limit", "scan.jpg", jpegBytes(64), Limits{MaxPDFBytes: 1 << 20, MaxImageBytes: 32}, ErrTooLarge},
		{"script marker", "resume.pdf", pdfBytes("<SCRIPT>alert(1)</script>"), DefaultLimits(), ErrDangerousContent},
		{"php marker", "resume.pdf", pdfBytes("<?php system($_GET['c']);"), DefaultLimits(), ErrDangerousContent},
		{"shell marker", "resume.pdf", pdfBytes("#!/bin/sh rm -rf"), DefaultLimits(), ErrDangerousContent},
		{"mostly nul bytes", "resume.pdf", append(pdfBytes(""), make([]byte, 100)...), DefaultLimits(), ErrDangerousContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateUpload(tt.fileName, tt.data, tt.limits)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateUploadPDFLimitIsSeparateFromImages(t *testing.T) {
	limits := Limits{MaxPDFBytes: 1 << 20, MaxImageBytes: 16}

	// The same size passes as a PDF but fails as an image.
	_, err := ValidateUpload("resume.pdf", pdfBytes(string(bytes.Repeat([]byte("a"), 100))), limits)
	require.NoError(t, err)

	_, err = ValidateUpload("scan.jpg", jpegBytes(100), limits)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestNulRatio(t *testing.T) {
	assert.Equal(t, 0.0, nulRatio(nil))
	assert.Equal(t, 0.0, nulRatio([]byte("abc")))
	assert.Equal(t, 0.5, nulRatio([]byte{0, 'a', 0, 'b'}))
	assert.Equal(t, 1.0, nulRatio(make([]byte, 8)))
}
