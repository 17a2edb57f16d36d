// Package upload delivers screenshots to the collection endpoint and keeps
// the ones that could not be delivered in a durable failed queue.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/workplus/workplus/internal/activitylog"
	"github.com/workplus/workplus/internal/capture"
	"github.com/workplus/workplus/internal/metrics"
	"github.com/workplus/workplus/internal/models"
)

// Outcome of one upload attempt
type Outcome int

const (
	Delivered Outcome = iota
	Failed
	// Skipped means the file was already gone; nothing was sent or queued
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case Delivered:
		return models.OutcomeDelivered
	case Skipped:
		return models.OutcomeSkipped
	default:
		return models.OutcomeFailed
	}
}

// Result is the terminal state of an upload. Reason is nil when delivered.
type Result struct {
	Outcome Outcome
	Reason  error
}

// UploadRecorder journals upload outcomes
type UploadRecorder interface {
	RecordUpload(record *models.UploadRecord) error
}

// Options are the collaborators of an Uploader. Journal may be nil.
type Options struct {
	URL      string
	Client   *http.Client
	Probe    Prober
	Queue    *FailedQueue
	Identity capture.Identity
	Activity *activitylog.Logger
	Journal  UploadRecorder
	Metrics  metrics.Recorder
}

// Uploader performs one multipart upload per call. It never retries inline;
// failed artifacts go to the failed queue.
type Uploader struct {
	log  zerolog.Logger
	opts Options
}

func NewUploader(log zerolog.Logger, opts Options) *Uploader {
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Uploader{log: log, opts: opts}
}

// Upload delivers a freshly captured artifact
func (u *Uploader) Upload(ctx context.Context, a capture.Artifact) Result {
	return u.upload(ctx, a, models.SourceCapture)
}

func (u *Uploader) upload(ctx context.Context, a capture.Artifact, source string) Result {
	res := u.attempt(ctx, a)
	u.record(a, source, res)
	return res
}

func (u *Uploader) attempt(ctx context.Context, a capture.Artifact) Result {
	if _, err := os.Stat(a.Path); err != nil {
		return Result{Outcome: Skipped, Reason: fmt.Errorf("%w: %v", ErrMissing, err)}
	}

	email := a.OwnerEmail
	if email == "" {
		email = u.opts.Identity.Email()
	}

	if err := u.opts.Probe.Reachable(ctx); err != nil {
		if !errors.Is(err, ErrNoConnectivity) {
			err = fmt.Errorf("%w: %v", ErrNoConnectivity, err)
		}
		return u.fail(a, err)
	}

	if err := u.post(ctx, a, email); err != nil {
		return u.fail(a, err)
	}

	if err := Remove(a.Path); err != nil {
		// delivered; the leftover file is picked up as an orphan later
		u.log.Warn().Err(err).Str("file", a.Name()).Msg("failed to delete uploaded screenshot")
	}
	return Result{Outcome: Delivered}
}

func (u *Uploader) fail(a capture.Artifact, reason error) Result {
	if _, err := u.opts.Queue.Enqueue(a); err != nil {
		u.log.Error().Err(err).Str("file", a.Name()).Msg("failed to move screenshot to failed queue")
	}
	return Result{Outcome: Failed, Reason: reason}
}

func (u *Uploader) post(ctx context.Context, a capture.Artifact, email string) error {
	body, contentType, err := multipartBody(a, email)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.opts.URL, body)
	if err != nil {
		return fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := u.opts.Client.Do(req)
	if err != nil {
		return fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &TransportError{StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return nil
}

func multipartBody(a capture.Artifact, email string) (*bytes.Buffer, string, error) {
	f, err := os.Open(a.Path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open screenshot: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("userMail", email); err != nil {
		return nil, "", err
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, a.Name()))
	h.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("failed to read screenshot: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}

	return &buf, mw.FormDataContentType(), nil
}

func (u *Uploader) record(a capture.Artifact, source string, res Result) {
	ev := u.log.Info()
	if res.Outcome != Delivered {
		ev = u.log.Warn().Err(res.Reason)
	}
	ev.Str("file", a.Name()).Str("source", source).Str("outcome", res.Outcome.String()).Msg("screenshot upload finished")

	switch res.Outcome {
	case Delivered:
		u.opts.Activity.Appendf("Uploaded screenshot: %s", a.Name())
	case Skipped:
		u.opts.Activity.Appendf("Upload skipped - file not found: %s", a.Name())
	default:
		u.opts.Activity.Appendf("Upload failed, screenshot retained: %s (%v)", a.Name(), res.Reason)
	}

	u.opts.Metrics.IncUploads(res.Outcome.String(), source)
	u.opts.Metrics.SetQueueDepth(u.opts.Queue.Len())

	if u.opts.Journal == nil {
		return
	}
	rec := &models.UploadRecord{
		Timestamp: time.Now(),
		FileName:  a.Name(),
		Outcome:   res.Outcome.String(),
		Source:    source,
	}
	if res.Reason != nil {
		rec.Reason = res.Reason.Error()
	}
	if err := u.opts.Journal.RecordUpload(rec); err != nil {
		u.log.Warn().Err(err).Msg("failed to journal upload")
	}
}
