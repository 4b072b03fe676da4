// Package blob adapts locally selected receipt images into remotely
// addressable blob references. An ExternalBlob moves through
// Idle -> Uploading -> {Completed, Failed}; progress observers see a
// non-decreasing percentage sequence in [0, 100] that ends at exactly 100 on
// success and goes silent on failure.
package blob

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/caffeinepub/travel-expense-tracker/internal/core"
	"github.com/caffeinepub/travel-expense-tracker/internal/remote"
)

type State string

const (
	StateIdle      State = "idle"
	StateUploading State = "uploading"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

var (
	ErrEmptyImage           = errors.New("empty image")
	ErrUnsupportedImageType = errors.New("unsupported image type")
	ErrUploadInProgress     = errors.New("upload already in progress")
	ErrAlreadyUploaded      = errors.New("blob already uploaded")
	ErrNotUploaded          = errors.New("blob not uploaded yet")
)

// supportedImageTypes is the closed set of receipt image formats accepted
// before any remote call is made.
var supportedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// ExternalBlob is a receipt image that is either pending local upload or
// already stored remotely. The UI holds at most one per in-progress form;
// once embedded in an expense the reference is owned by that record.
type ExternalBlob struct {
	mu          sync.Mutex
	state       State
	data        []byte
	contentType string
	ref         core.BlobRef
	observers   []func(pct int)
	lastPct     int
}

// FromBytes wraps locally selected image bytes. The content type is sniffed
// when the caller did not provide a usable one; unsupported formats are
// rejected here, before any upload.
func FromBytes(data []byte, contentType string) (*ExternalBlob, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if !supportedImageTypes[contentType] {
		return nil, ErrUnsupportedImageType
	}
	return &ExternalBlob{
		state:       StateIdle,
		data:        data,
		contentType: contentType,
	}, nil
}

// FromRef wraps an existing remote reference, bypassing upload entirely.
// Used when an expense is edited without changing its receipt image.
func FromRef(ref core.BlobRef) *ExternalBlob {
	return &ExternalBlob{
		state: StateCompleted,
		ref:   ref,
	}
}

// WithUploadProgress attaches a progress observer and returns the blob for
// chaining. Observers attached after completion or failure never fire.
func (b *ExternalBlob) WithUploadProgress(fn func(pct int)) *ExternalBlob {
	if fn == nil {
		return b
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observers = append(b.observers, fn)
	return b
}

func (b *ExternalBlob) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// ContentType returns the image MIME type for blobs built from local bytes.
func (b *ExternalBlob) ContentType() string {
	return b.contentType
}

// Ref returns the remote reference once the blob is Completed.
func (b *ExternalBlob) Ref() (core.BlobRef, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateCompleted {
		return core.BlobRef{}, ErrNotUploaded
	}
	return b.ref, nil
}

// DirectURL returns a display URL valid for the lifetime of the underlying
// reference, or "" while no reference exists.
func (b *ExternalBlob) DirectURL() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ref.URL
}

// Upload transfers the local bytes through the uploader and resolves the
// blob to a remote reference. It may be called at most once; blobs built
// with FromRef are already Completed and reject it. On failure the blob is
// Failed, observers stay silent from that point on, and there is no retry.
func (b *ExternalBlob) Upload(ctx context.Context, uploader remote.BlobUploader) (core.BlobRef, error) {
	b.mu.Lock()
	switch b.state {
	case StateUploading:
		b.mu.Unlock()
		return core.BlobRef{}, ErrUploadInProgress
	case StateCompleted:
		b.mu.Unlock()
		return core.BlobRef{}, ErrAlreadyUploaded
	case StateFailed:
		b.mu.Unlock()
		return core.BlobRef{}, ErrNotUploaded
	}
	b.state = StateUploading
	data := b.data
	contentType := b.contentType
	b.mu.Unlock()

	ref, err := uploader.UploadBillImage(ctx, data, contentType, b.observe)
	if err != nil {
		b.mu.Lock()
		b.state = StateFailed
		b.mu.Unlock()
		return core.BlobRef{}, err
	}

	// The final event before completion must report exactly 100, even if
	// the transport never got there.
	b.observe(100)

	b.mu.Lock()
	b.state = StateCompleted
	b.ref = ref
	b.data = nil
	b.mu.Unlock()
	return ref, nil
}

// Bytes returns the raw image content: local bytes while pending, a remote
// read once uploaded.
func (b *ExternalBlob) Bytes(ctx context.Context, uploader remote.BlobUploader) ([]byte, error) {
	b.mu.Lock()
	if b.data != nil {
		data := append([]byte(nil), b.data...)
		b.mu.Unlock()
		return data, nil
	}
	state, ref := b.state, b.ref
	b.mu.Unlock()

	if state != StateCompleted {
		return nil, ErrNotUploaded
	}
	return uploader.ReadBillImage(ctx, ref)
}

// observe normalizes transport progress: values are clamped to [0, 100],
// non-increasing reports are dropped, and nothing is delivered outside the
// Uploading state.
func (b *ExternalBlob) observe(pct int) {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}

	b.mu.Lock()
	if b.state != StateUploading || pct <= b.lastPct {
		b.mu.Unlock()
		return
	}
	b.lastPct = pct
	observers := append(([]func(int))(nil), b.observers...)
	b.mu.Unlock()

	for _, fn := range observers {
		fn(pct)
	}
}
