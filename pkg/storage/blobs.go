package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"sync"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Metadata describes a blob after a completed upload.
type Metadata struct {
	Path        string    `json:"path"`
	Size        int64     `json:"size"`
	ContentType string    `json:"contentType"`
	Updated     time.Time `json:"updated"`
	URL         string    `json:"url"`
	PageCount   *int      `json:"pageCount,omitempty"`
}

// Progress reports bytes written to the backend so far.
type Progress struct {
	Transferred int64 `json:"transferred"`
	Total       int64 `json:"total"`
}

// Percent returns progress in the range [0, 100].
func (p Progress) Percent() float64 {
	if p.Total <= 0 {
		return 0
	}
	return float64(p.Transferred) / float64(p.Total) * 100
}

// Blobs is the blob access layer over a storage System.
type Blobs struct {
	sys               System
	client            *http.Client
	maxSize           int64
	moveDeletesSource bool
	logger            *slog.Logger
}

// NewBlobs creates the access layer. Copy and Move fetch source bytes over
// HTTP with a pooled client that shares no global state.
func NewBlobs(sys System, cfg *Config, logger *slog.Logger) *Blobs {
	return &Blobs{
		sys:               sys,
		client:            cleanhttp.DefaultPooledClient(),
		maxSize:           cfg.MaxUploadSizeBytes(),
		moveDeletesSource: cfg.MoveDeletesSource,
		logger:            logger.With("system", "blobs"),
	}
}

// UploadOption adjusts one upload.
type UploadOption func(*uploadOptions)

type uploadOptions struct {
	contentType string
}

// WithContentType overrides content type detection.
func WithContentType(ct string) UploadOption {
	return func(o *uploadOptions) { o.contentType = ct }
}

// Upload starts writing r to path and returns immediately. size may be -1
// when unknown. The returned handle reports progress, completion, the
// error if any, and metadata refreshed from the backend on success.
func (b *Blobs) Upload(ctx context.Context, path string, r io.Reader, size int64, opts ...UploadOption) *Upload {
	var o uploadOptions
	for _, opt := range opts {
		opt(&o)
	}

	u := newUpload(path)
	go func() {
		meta, err := b.upload(ctx, u, path, r, size, o)
		if err != nil {
			b.logger.Error("upload failed", "path", path, "error", err)
		} else {
			b.logger.Info("upload complete", "path", path, "size", meta.Size, "content_type", meta.ContentType)
		}
		u.finish(meta, err)
	}()
	return u
}

func (b *Blobs) upload(ctx context.Context, u *Upload, key string, r io.Reader, size int64, o uploadOptions) (*Metadata, error) {
	if _, err := cleanKey(key); err != nil {
		return nil, err
	}
	if b.maxSize > 0 && size > b.maxSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, size)
	}

	if b.maxSize > 0 {
		r = io.LimitReader(r, b.maxSize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if b.maxSize > 0 && int64(len(data)) > b.maxSize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, b.maxSize)
	}

	contentType := o.contentType
	if contentType == "" {
		contentType = detect(key, data)
	}

	total := int64(len(data))
	u.report(Progress{Total: total})
	pr := &progressReader{r: bytes.NewReader(data), total: total, report: u.report}

	if err := b.sys.Store(ctx, key, pr, total, contentType); err != nil {
		return nil, err
	}

	meta, err := b.metadata(ctx, key)
	if err != nil {
		return nil, err
	}
	if meta.ContentType == "application/pdf" || contentType == "application/pdf" {
		if count, err := api.PageCount(bytes.NewReader(data), model.NewDefaultConfiguration()); err != nil {
			b.logger.Warn("failed to extract pdf page count", "path", key, "error", err)
		} else {
			meta.PageCount = &count
		}
	}
	return meta, nil
}

// URL returns a download URL for path.
func (b *Blobs) URL(ctx context.Context, path string) (string, error) {
	u, err := b.sys.URL(ctx, path)
	if err != nil {
		b.logger.Error("download url failed", "path", path, "error", err)
		return "", err
	}
	return u, nil
}

// Delete removes path. Absent blobs are not an error.
func (b *Blobs) Delete(ctx context.Context, path string) error {
	if err := b.sys.Delete(ctx, path); err != nil {
		b.logger.Error("delete failed", "path", path, "error", err)
		return err
	}
	b.logger.Info("blob deleted", "path", path)
	return nil
}

// Stat returns the current metadata for path.
func (b *Blobs) Stat(ctx context.Context, path string) (*Metadata, error) {
	return b.metadata(ctx, path)
}

// Copy resolves the download URL of from, fetches its bytes, and uploads
// them to to. The source is left in place.
func (b *Blobs) Copy(ctx context.Context, from, to string) (*Metadata, error) {
	meta, err := b.copy(ctx, from, to)
	if err != nil {
		b.logger.Error("copy failed", "from", from, "to", to, "error", err)
		return nil, err
	}
	b.logger.Info("blob copied", "from", from, "to", to)
	return meta, nil
}

// Move copies from to to. The source is deleted afterwards only when the
// storage is configured with move_deletes_source; otherwise Move behaves
// exactly like Copy. Paths naming the same key leave the blob untouched.
func (b *Blobs) Move(ctx context.Context, from, to string) (*Metadata, error) {
	meta, err := b.copy(ctx, from, to)
	if err != nil {
		b.logger.Error("move failed", "from", from, "to", to, "error", err)
		return nil, err
	}

	same, _ := sameKey(from, to)
	if b.moveDeletesSource && !same {
		if err := b.sys.Delete(ctx, from); err != nil {
			b.logger.Error("move source cleanup failed", "from", from, "error", err)
			return meta, fmt.Errorf("delete source %s: %w", from, err)
		}
	}

	b.logger.Info("blob moved", "from", from, "to", to, "source_deleted", b.moveDeletesSource && !same)
	return meta, nil
}

// sameKey reports whether from and to normalise to the same storage key.
func sameKey(from, to string) (bool, error) {
	f, err := cleanKey(from)
	if err != nil {
		return false, err
	}
	t, err := cleanKey(to)
	if err != nil {
		return false, err
	}
	return f == t, nil
}

func (b *Blobs) copy(ctx context.Context, from, to string) (*Metadata, error) {
	same, err := sameKey(from, to)
	if err != nil {
		return nil, err
	}

	exists, err := b.sys.Validate(ctx, from)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}
	if same {
		return b.metadata(ctx, from)
	}

	src, err := b.sys.URL(ctx, from)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", from, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusForbidden:
		return nil, ErrPermissionDenied
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("fetch %s: unexpected status %s", from, resp.Status)
	}

	var opts []UploadOption
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		opts = append(opts, WithContentType(ct))
	}

	return b.Upload(ctx, to, resp.Body, resp.ContentLength, opts...).Wait(ctx)
}

func (b *Blobs) metadata(ctx context.Context, key string) (*Metadata, error) {
	info, err := b.sys.Stat(ctx, key)
	if err != nil {
		return nil, err
	}
	u, err := b.sys.URL(ctx, key)
	if err != nil {
		return nil, err
	}
	return &Metadata{
		Path:        key,
		Size:        info.Size,
		ContentType: info.ContentType,
		Updated:     info.Updated,
		URL:         u,
	}, nil
}

func detect(key string, data []byte) string {
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}

// Upload is an in-flight blob upload.
type Upload struct {
	path     string
	progress chan Progress
	done     chan struct{}

	mu   sync.Mutex
	meta *Metadata
	err  error
	last Progress
}

func newUpload(path string) *Upload {
	return &Upload{
		path:     path,
		progress: make(chan Progress, 1),
		done:     make(chan struct{}),
	}
}

// Path returns the destination path.
func (u *Upload) Path() string {
	return u.path
}

// Progress delivers progress updates, keeping only the latest undelivered
// value. The channel closes when the upload finishes.
func (u *Upload) Progress() <-chan Progress {
	return u.progress
}

// Last returns the most recent progress value.
func (u *Upload) Last() Progress {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.last
}

// Done is closed when the upload finishes.
func (u *Upload) Done() <-chan struct{} {
	return u.done
}

// Err returns the failure, or nil while running or after success.
func (u *Upload) Err() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.err
}

// Metadata returns the refreshed metadata once the upload has succeeded.
func (u *Upload) Metadata() *Metadata {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.meta
}

// Wait blocks until the upload finishes or ctx is done.
func (u *Upload) Wait(ctx context.Context) (*Metadata, error) {
	select {
	case <-u.done:
		return u.Metadata(), u.Err()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (u *Upload) report(p Progress) {
	u.mu.Lock()
	u.last = p
	u.mu.Unlock()

	select {
	case u.progress <- p:
		return
	default:
	}
	select {
	case <-u.progress:
	default:
	}
	select {
	case u.progress <- p:
	default:
	}
}

func (u *Upload) finish(meta *Metadata, err error) {
	u.mu.Lock()
	u.meta = meta
	u.err = err
	u.mu.Unlock()
	close(u.progress)
	close(u.done)
}

type progressReader struct {
	r      io.Reader
	read   int64
	total  int64
	report func(Progress)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		p.report(Progress{Transferred: p.read, Total: p.total})
	}
	return n, err
}
