// Package export bundles a report and its attachment binaries into a zip
// archive holding a PDF summary and a media folder.
package export

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"incident-backend/internal/attachments"
	"incident-backend/internal/media"
	"incident-backend/internal/ownership"
	"incident-backend/internal/reports"
	"incident-backend/internal/shared/metrics"
	"incident-backend/internal/shared/telemetry"
	"incident-backend/internal/shared/util"
)

const defaultFetchTimeout = 30 * time.Second

// ReportSource loads a report on behalf of a caller.
type ReportSource interface {
	GetReport(ctx context.Context, id, callerID string) (reports.Report, error)
}

// AttachmentSource lists a report's attachments on behalf of a caller.
type AttachmentSource interface {
	GetAttachments(ctx context.Context, reportID, callerID string) ([]attachments.Attachment, error)
}

// Fetcher opens a stored binary by URL. object.ObjectStore satisfies it.
type Fetcher interface {
	Open(ctx context.Context, url string) (io.ReadCloser, error)
}

// OutcomeStatus describes what happened to one attachment's binary.
type OutcomeStatus string

const (
	OutcomeFetched OutcomeStatus = "fetched"
	OutcomeNoMedia OutcomeStatus = "no_media"
	OutcomeFailed  OutcomeStatus = "failed"
)

// Outcome is the per-attachment result of an export.
type Outcome struct {
	AttachmentID string
	Status       OutcomeStatus
	// EntryName is the archive path of the binary when fetched.
	EntryName string
	// Err wraps ErrDownloadFailed when Status is OutcomeFailed.
	Err error
}

// Result is a finished archive.
type Result struct {
	FileName string
	Data     []byte
	Outcomes []Outcome
}

// Failed counts attachments whose binary could not be fetched.
func (r Result) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == OutcomeFailed {
			n++
		}
	}
	return n
}

type Assembler struct {
	Guard        *ownership.Guard
	Reports      ReportSource
	Attachments  AttachmentSource
	Fetcher      Fetcher
	FetchTimeout time.Duration
	Now          func() time.Time
}

func NewAssembler(guard *ownership.Guard, reportsSrc ReportSource, attachmentsSrc AttachmentSource, fetcher Fetcher, fetchTimeout time.Duration) *Assembler {
	if fetchTimeout <= 0 {
		fetchTimeout = defaultFetchTimeout
	}
	return &Assembler{
		Guard:        guard,
		Reports:      reportsSrc,
		Attachments:  attachmentsSrc,
		Fetcher:      fetcher,
		FetchTimeout: fetchTimeout,
		Now:          func() time.Time { return time.Now().UTC() },
	}
}

// Export builds the archive for reportID. Ownership is checked before any
// I/O; failed media fetches are recorded and the export continues.
func (a *Assembler) Export(ctx context.Context, reportID, callerID string) (Result, error) {
	started := time.Now()
	res, err := a.export(ctx, reportID, callerID)
	switch {
	case err != nil:
		metrics.ObserveExport("failed", started)
	case res.Failed() > 0:
		metrics.ObserveExport("partial", started)
	default:
		metrics.ObserveExport("ok", started)
	}
	return res, err
}

func (a *Assembler) export(ctx context.Context, reportID, callerID string) (Result, error) {
	if err := a.Guard.RequireReportOwner(ctx, reportID, callerID); err != nil {
		return Result{}, err
	}
	report, err := a.Reports.GetReport(ctx, reportID, callerID)
	if err != nil {
		return Result{}, err
	}
	list, err := a.Attachments.GetAttachments(ctx, reportID, callerID)
	if err != nil {
		return Result{}, err
	}

	baseName := util.SanitizeExportName(orDefault(report.Title, "report"))
	doc := newDocument("Report: "+orDefault(report.Title, "Untitled"), a.Now())
	doc.header(report)

	var archive bytes.Buffer
	zw := zip.NewWriter(&archive)
	names := newEntryNames()
	outcomes := make([]Outcome, 0, len(list))

	if len(list) > 0 {
		doc.attachmentsHeading()
	}
	for i, att := range list {
		outcome := Outcome{AttachmentID: att.ID, Status: OutcomeNoMedia}
		ml := mediaLine{text: "Media file: none"}

		if att.HasMedia() {
			data, err := a.fetch(ctx, att.MediaURL)
			if err != nil {
				metrics.MediaFetchFailuresTotal.Inc()
				telemetry.Warn("export.media_fetch_failed", map[string]any{
					"report_id":     reportID,
					"attachment_id": att.ID,
					"request_id":    telemetry.RequestIDFromContext(ctx),
					"error":         err.Error(),
				})
				outcome.Status = OutcomeFailed
				outcome.Err = err
				ml.text = "Media file: could not download"
			} else {
				entry := names.claim(mediaEntryName(att))
				if err := writeEntry(zw, "media/"+entry, data, zip.Store, a.Now()); err != nil {
					return Result{}, err
				}
				outcome.Status = OutcomeFetched
				outcome.EntryName = "media/" + entry
				ml.text = "Media file: " + entry
				if att.MediaType.IsImage() {
					ml.preview = data
				}
			}
		}
		doc.attachment(i+1, att, ml)
		outcomes = append(outcomes, outcome)
	}

	var pdfBuf bytes.Buffer
	if err := doc.write(&pdfBuf); err != nil {
		return Result{}, fmt.Errorf("render export document: %w", err)
	}
	if err := writeEntry(zw, baseName+"-report.pdf", pdfBuf.Bytes(), zip.Deflate, a.Now()); err != nil {
		return Result{}, err
	}
	if err := zw.Close(); err != nil {
		return Result{}, fmt.Errorf("close archive: %w", err)
	}

	return Result{
		FileName: baseName + "-" + reportID + ".zip",
		Data:     archive.Bytes(),
		Outcomes: outcomes,
	}, nil
}

func (a *Assembler) fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, a.FetchTimeout)
	defer cancel()

	rc, err := a.Fetcher.Open(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	return data, nil
}

func writeEntry(zw *zip.Writer, name string, data []byte, method uint16, modified time.Time) error {
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   method,
		Modified: modified,
	})
	if err != nil {
		return fmt.Errorf("create archive entry %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write archive entry %s: %w", name, err)
	}
	return nil
}

// mediaEntryName is <sanitized title>_<type><ext>.
func mediaEntryName(att attachments.Attachment) string {
	title := util.SanitizeExportName(orDefault(att.Title, "untitled"))
	return title + "_" + string(att.MediaType) + media.ExtensionFor(string(att.MediaType), att.MediaURL)
}

// entryNames hands out unique archive names, suffixing repeats with -2, -3...
type entryNames map[string]int

func newEntryNames() entryNames {
	return entryNames{}
}

func (e entryNames) claim(name string) string {
	e[name]++
	n := e[name]
	if n == 1 {
		return name
	}
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for {
		candidate := base + "-" + strconv.Itoa(n) + ext
		if _, taken := e[candidate]; !taken {
			e[candidate] = 1
			return candidate
		}
		n++
	}
}
