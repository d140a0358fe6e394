// Package visionocr extracts text from scanned documents and images with a
// vision model. It is the fallback path for PDFs without a text layer and
// the only path for JPEG/PNG uploads.
package visionocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"time"

	_ "image/png"

	"github.com/gen2brain/go-fitz"

	"github.com/hirelens/hirelens/internal/ai/llmclient"
	"github.com/hirelens/hirelens/internal/docparse"
)

const jpegQuality = 95

const ocrTemperature = 0.1

const systemPrompt = `You are a precise OCR engine for resumes. Transcribe ALL visible text from the supplied page images, top to bottom, left to right. Keep line breaks between logical lines. Do not summarize, translate or reorder anything. Include URLs exactly as printed. Return one entry per page, numbered from 1 in the order the images appear.`

// ocrOutput is the vision model contract: one transcription per page.
type ocrOutput struct {
	Pages []ocrPage `json:"pages"`
}

type ocrPage struct {
	PageNumber int    `json:"page_number"`
	Text       string `json:"text"`
}

// Extractor OCRs documents through the shared LLM client.
type Extractor struct {
	llm *llmclient.Client
}

// New creates a vision OCR extractor.
func New(llm *llmclient.Client) *Extractor {
	return &Extractor{llm: llm}
}

// ExtractPDF renders every page to JPEG and transcribes them in one call.
func (e *Extractor) ExtractPDF(ctx context.Context, data []byte) (*docparse.Document, error) {
	images, err := renderPDFPages(data)
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("pdf has no pages to render")
	}
	return e.transcribe(ctx, docparse.FileTypePDF, images)
}

// ExtractImage transcribes a single uploaded image.
func (e *Extractor) ExtractImage(ctx context.Context, fileType docparse.FileType, data []byte) (*docparse.Document, error) {
	img, err := toJPEG(data)
	if err != nil {
		return nil, err
	}
	return e.transcribe(ctx, fileType, [][]byte{img})
}

func (e *Extractor) transcribe(ctx context.Context, fileType docparse.FileType, images [][]byte) (*docparse.Document, error) {
	out, err := llmclient.Run[ocrOutput](ctx, e.llm, llmclient.Request{
		System:      systemPrompt,
		User:        fmt.Sprintf("Transcribe these %d resume page(s).", len(images)),
		Images:      images,
		Temperature: ocrTemperature,
		SchemaName:  "ocr_pages",
	})
	if err != nil {
		return nil, err
	}

	doc := &docparse.Document{
		FileType:    fileType,
		Pages:       make([]docparse.Page, len(images)),
		TotalPages:  len(images),
		ProcessedAt: time.Now().UTC(),
	}
	for i := range doc.Pages {
		doc.Pages[i].PageNumber = i + 1
	}
	// Trust our own page count over the model's; slot texts by the numbers
	// it reported where they fit.
	for _, p := range out.Pages {
		if p.PageNumber >= 1 && p.PageNumber <= len(doc.Pages) {
			doc.Pages[p.PageNumber-1].Text = p.Text
		}
	}
	return doc, nil
}

// renderPDFPages rasterizes each page to a JPEG for the vision model.
func renderPDFPages(data []byte) ([][]byte, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("open pdf for rendering: %w", err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	images := make([][]byte, 0, pageCount)
	for i := 0; i < pageCount; i++ {
		img, err := doc.Image(i)
		if err != nil {
			return nil, fmt.Errorf("render page %d: %w", i+1, err)
		}
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, fmt.Errorf("encode page %d: %w", i+1, err)
		}
		images = append(images, buf.Bytes())
	}
	return images, nil
}

// toJPEG re-encodes any supported image as JPEG for a uniform payload.
func toJPEG(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
