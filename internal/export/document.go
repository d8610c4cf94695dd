package export

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"incident-backend/internal/attachments"
	"incident-backend/internal/media"
	"incident-backend/internal/reports"
)

// Layout in millimetres on A4 portrait.
const (
	marginX       = 14.0
	textWidth     = 180.0
	attachTextW   = 90.0
	pageBreakY    = 250.0
	pageBottomY   = 282.0
	pageTopY      = 20.0
	previewX      = 120.0
	previewMaxW   = 75.0
	previewMaxH   = 45.0
	previewPixelW = 600
	previewPixelH = 360
)

const timeLayout = "2006-01-02 15:04:05 MST"

// mediaLine is what the document says about an attachment's binary.
type mediaLine struct {
	text    string
	preview []byte // raw image bytes for pictures and sketches
}

// document wraps fpdf with a running vertical offset.
type document struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
	y   float64
}

func newDocument(title string, now time.Time) *document {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(now)
	pdf.SetTitle(title, true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	return &document{
		pdf: pdf,
		tr:  pdf.UnicodeTranslatorFromDescriptor(""),
		y:   pageTopY,
	}
}

func (d *document) font(size float64) {
	d.pdf.SetFont("Helvetica", "", size)
}

// line writes one line at the current offset and advances by step. Text
// that would run off the page continues on a new one.
func (d *document) line(text string, step float64) {
	if d.y > pageBottomY {
		d.newPage()
	}
	d.pdf.Text(marginX, d.y, d.tr(text))
	d.y += step
}

// wrapped splits text to width and writes each line.
func (d *document) wrapped(text string, width, step float64) int {
	lines := d.pdf.SplitText(d.tr(text), width)
	for _, l := range lines {
		if d.y > pageBottomY {
			d.newPage()
		}
		d.pdf.Text(marginX, d.y, l)
		d.y += step
	}
	return len(lines)
}

func (d *document) newPage() {
	d.pdf.AddPage()
	d.y = pageTopY
}

func (d *document) header(report reports.Report) {
	d.font(20)
	d.line("Report: "+orDefault(report.Title, "Untitled"), 10)

	d.font(12)
	d.line("Report ID: "+report.ID, 6)
	d.line("Created: "+report.CreatedAt.UTC().Format(timeLayout), 6)
	d.line("Updated: "+report.UpdatedAt.UTC().Format(timeLayout), 6)
	if len(report.Tags) > 0 {
		d.line("Tags: "+strings.Join(report.Tags, ", "), 6)
	}
	d.y += 2
	d.line("Description:", 6)
	d.wrapped(orDefault(report.Description, reports.DefaultDescription), textWidth, 6)
}

func (d *document) attachmentsHeading() {
	d.y += 10
	d.font(16)
	d.line("Attachments", 10)
}

// attachment renders one attachment block. Images are previewed to the
// right of the text, top-aligned with the block title, so a block with a
// preview starts on a new page unless the preview and its caption fit.
func (d *document) attachment(index int, att attachments.Attachment, ml mediaLine) {
	if d.y > pageBreakY || (len(ml.preview) > 0 && d.y+previewMaxH+5 > pageBottomY) {
		d.newPage()
	}
	startY := d.y
	startPage := d.pdf.PageNo()

	d.font(14)
	d.line(fmt.Sprintf("Attachment %d: %s", index, orDefault(att.Title, "Untitled")), 6)

	d.font(10)
	d.line("ID: "+att.ID, 5)
	d.line("Type: "+string(att.MediaType), 5)
	textHeight := 16.0
	if strings.TrimSpace(att.Description) != "" {
		n := d.wrapped("Description: "+att.Description, attachTextW, 5)
		textHeight += float64(n) * 5
	}
	d.line(ml.text, 5)
	textHeight += 5

	if len(ml.preview) > 0 && d.pdf.PageNo() == startPage {
		if h, ok := d.preview(att, ml.preview, startY); ok && h+5 > textHeight {
			d.y += h + 5 - textHeight
		}
	}
	d.y += 10
}

// preview embeds a JPEG thumbnail of data and returns its rendered height.
// Undecodable images are skipped.
func (d *document) preview(att attachments.Attachment, data []byte, top float64) (float64, bool) {
	thumb, size, err := media.Thumbnail(data, previewPixelW, previewPixelH)
	if err != nil || size.X == 0 || size.Y == 0 {
		return 0, false
	}
	w, h := previewMaxW, previewMaxW*float64(size.Y)/float64(size.X)
	if h > previewMaxH {
		h = previewMaxH
		w = previewMaxH * float64(size.X) / float64(size.Y)
	}
	x := previewX + (previewMaxW-w)/2

	opts := fpdf.ImageOptions{ImageType: "JPG"}
	d.pdf.RegisterImageOptionsReader(att.ID, opts, bytes.NewReader(thumb))
	if d.pdf.Err() {
		d.pdf.ClearError()
		return 0, false
	}
	d.pdf.ImageOptions(att.ID, x, top, w, h, false, opts, 0, "")

	d.font(8)
	caption := d.tr(orDefault(att.Title, "Untitled"))
	captionX := previewX + (previewMaxW-d.pdf.GetStringWidth(caption))/2
	d.pdf.Text(captionX, top+h+5, caption)
	d.font(10)
	return h, true
}

func (d *document) write(w io.Writer) error {
	return d.pdf.Output(w)
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
