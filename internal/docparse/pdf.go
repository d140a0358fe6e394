package docparse

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
)

// US Letter height in points, used when a page carries no MediaBox.
const fallbackPageHeight = 792.0

// Words closer than this fraction of the font size are merged into one word.
const wordGapFactor = 0.3

// wordBox is a word with its bounding box. Horizontal coordinates keep the
// PDF x axis; vertical coordinates are flipped to a top-left origin so they
// compare directly against converted annotation rectangles.
type wordBox struct {
	text   string
	x0, x1 float64
	top    float64
	bottom float64
}

type rectBox struct {
	x0, x1 float64
	top    float64
	bottom float64
}

func (w wordBox) intersects(r rectBox) bool {
	return w.x0 <= r.x1 && w.x1 >= r.x0 && w.top <= r.bottom && w.bottom >= r.top
}

// ParsePDF extracts reading-order text and link annotations from every
// page. The underlying reader panics on some malformed files, so the whole
// walk runs under a recover.
func ParsePDF(data []byte) (doc *Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	total := reader.NumPage()
	doc = &Document{
		FileType:    FileTypePDF,
		Pages:       make([]Page, 0, total),
		TotalPages:  total,
		ProcessedAt: time.Now().UTC(),
	}

	for num := 1; num <= total; num++ {
		page := reader.Page(num)
		out := Page{PageNumber: num}
		if !page.V.IsNull() {
			height := pageHeight(page)
			words, text := pageWords(page, height)
			out.Text = text
			out.Links = pageLinks(page, words, height)
		}
		doc.Pages = append(doc.Pages, out)
	}
	return doc, nil
}

// pageHeight resolves the MediaBox height, walking the Parent chain since
// the box may be inherited from the page tree.
func pageHeight(p pdf.Page) float64 {
	v := p.V
	for depth := 0; depth < 16 && !v.IsNull(); depth++ {
		if mb := v.Key("MediaBox"); mb.Kind() == pdf.Array && mb.Len() == 4 {
			return mb.Index(3).Float64() - mb.Index(1).Float64()
		}
		v = v.Key("Parent")
	}
	return fallbackPageHeight
}

// pageWords builds word boxes row by row and the page text in reading
// order: rows top to bottom, words left to right, single spaces between
// words, newlines between rows.
func pageWords(p pdf.Page, height float64) ([]wordBox, string) {
	rows, err := p.GetTextByRow()
	if err != nil {
		return nil, ""
	}

	var words []wordBox
	var lines []string
	for _, row := range rows {
		rowWords := splitRowWords(row.Content, height)
		if len(rowWords) == 0 {
			continue
		}
		parts := make([]string, len(rowWords))
		for i, w := range rowWords {
			parts[i] = w.text
		}
		lines = append(lines, strings.Join(parts, " "))
		words = append(words, rowWords...)
	}
	return words, strings.Join(lines, "\n")
}

// splitRowWords merges adjacent text runs of one row into words. Runs that
// contain literal spaces are split, apportioning the run width evenly over
// its characters.
func splitRowWords(runs []pdf.Text, height float64) []wordBox {
	var words []wordBox
	var cur *wordBox

	flush := func() {
		if cur != nil && strings.TrimSpace(cur.text) != "" {
			cur.text = strings.TrimSpace(cur.text)
			words = append(words, *cur)
		}
		cur = nil
	}
	extend := func(text string, x0, x1, y0, y1 float64) {
		if cur == nil {
			cur = &wordBox{text: text, x0: x0, x1: x1, top: height - y1, bottom: height - y0}
			return
		}
		cur.text += text
		if x1 > cur.x1 {
			cur.x1 = x1
		}
		if top := height - y1; top < cur.top {
			cur.top = top
		}
		if bottom := height - y0; bottom > cur.bottom {
			cur.bottom = bottom
		}
	}

	for _, run := range runs {
		if run.S == "" {
			continue
		}
		size := run.FontSize
		if size <= 0 {
			size = 1
		}
		// A horizontal gap wider than the merge threshold breaks the word.
		if cur != nil && run.X-cur.x1 >= wordGapFactor*size {
			flush()
		}

		chars := []rune(run.S)
		charWidth := run.W / float64(len(chars))
		x := run.X
		start := 0
		for i, c := range chars {
			if c != ' ' {
				continue
			}
			if i > start {
				extend(string(chars[start:i]), x+charWidth*float64(start), x+charWidth*float64(i), run.Y, run.Y+size)
			}
			flush()
			start = i + 1
		}
		if start < len(chars) {
			extend(string(chars[start:]), x+charWidth*float64(start), x+charWidth*float64(len(chars)), run.Y, run.Y+size)
		}
	}
	flush()
	return words
}

// pageLinks reads Link annotations, converts their rectangles to top-left
// coordinates and anchors each one to the words under it. Annotations whose
// rectangle covers no words are dropped, as are duplicate (anchor, uri)
// pairs within a page.
func pageLinks(p pdf.Page, words []wordBox, height float64) []Link {
	annots := p.V.Key("Annots")
	if annots.Kind() != pdf.Array {
		return nil
	}

	seen := make(map[string]struct{})
	var links []Link
	for i := 0; i < annots.Len(); i++ {
		annot := annots.Index(i)
		if annot.Key("Subtype").Name() != "Link" {
			continue
		}
		uri := annotURI(annot)
		if uri == "" {
			continue
		}
		rect, ok := annotRect(annot, height)
		if !ok {
			continue
		}
		anchor := anchorText(words, rect)
		if anchor == "" {
			continue
		}
		key := anchor + "\x00" + uri
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		links = append(links, Link{AnchorText: anchor, URI: uri})
	}
	return links
}

func annotURI(annot pdf.Value) string {
	action := annot.Key("A")
	if action.Kind() != pdf.Dict {
		return ""
	}
	uri := action.Key("URI")
	if uri.Kind() != pdf.String {
		return ""
	}
	return uri.RawString()
}

func annotRect(annot pdf.Value, height float64) (rectBox, bool) {
	rect := annot.Key("Rect")
	if rect.Kind() != pdf.Array || rect.Len() != 4 {
		return rectBox{}, false
	}
	x0, y0 := rect.Index(0).Float64(), rect.Index(1).Float64()
	x1, y1 := rect.Index(2).Float64(), rect.Index(3).Float64()
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	return rectBox{x0: x0, x1: x1, top: height - y1, bottom: height - y0}, true
}

// anchorText joins the words intersecting the rectangle, in reading order.
func anchorText(words []wordBox, rect rectBox) string {
	var parts []string
	for _, w := range words {
		if w.intersects(rect) {
			parts = append(parts, w.text)
		}
	}
	return strings.Join(parts, " ")
}
