package blob

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caffeinepub/travel-expense-tracker/internal/core"
	"github.com/caffeinepub/travel-expense-tracker/internal/remote"
	"github.com/caffeinepub/travel-expense-tracker/internal/remote/memory"
)

// scriptedUploader replays a fixed progress script, then succeeds or fails.
type scriptedUploader struct {
	script []int
	err    error
	ref    core.BlobRef
}

func (u *scriptedUploader) UploadBillImage(_ context.Context, _ []byte, _ string, progress func(pct int)) (core.BlobRef, error) {
	for _, pct := range u.script {
		if progress != nil {
			progress(pct)
		}
	}
	if u.err != nil {
		return core.BlobRef{}, u.err
	}
	return u.ref, nil
}

func (u *scriptedUploader) ReadBillImage(context.Context, core.BlobRef) ([]byte, error) {
	return nil, remote.ErrBlobNotFound
}

// A tiny PNG header is enough for content sniffing.
var pngBytes = []byte("\x89PNG\r\n\x1a\n0000000000000000")

func TestFromBytesValidation(t *testing.T) {
	t.Run("rejects empty", func(t *testing.T) {
		_, err := FromBytes(nil, "image/png")
		require.ErrorIs(t, err, ErrEmptyImage)
	})

	t.Run("rejects non-image", func(t *testing.T) {
		_, err := FromBytes([]byte("plain text"), "text/plain")
		require.ErrorIs(t, err, ErrUnsupportedImageType)
	})

	t.Run("sniffs missing content type", func(t *testing.T) {
		b, err := FromBytes(pngBytes, "")
		require.NoError(t, err)
		assert.Equal(t, "image/png", b.ContentType())
		assert.Equal(t, StateIdle, b.State())
	})
}

func TestUploadSuccessProgress(t *testing.T) {
	uploader := &scriptedUploader{
		script: []int{10, 40, 40, 30, 95, 120, -5},
		ref:    core.BlobRef{Key: "k", URL: "mem://bill-images/k"},
	}

	b, err := FromBytes(pngBytes, "image/png")
	require.NoError(t, err)

	var seen []int
	b.WithUploadProgress(func(pct int) { seen = append(seen, pct) })

	ref, err := b.Upload(context.Background(), uploader)
	require.NoError(t, err)
	assert.Equal(t, "mem://bill-images/k", ref.URL)
	assert.Equal(t, StateCompleted, b.State())

	require.NotEmpty(t, seen)
	assert.True(t, sort.IntsAreSorted(seen), "progress must be non-decreasing, got %v", seen)
	assert.Equal(t, 100, seen[len(seen)-1], "final event must report exactly 100")
	for _, pct := range seen {
		assert.GreaterOrEqual(t, pct, 0)
		assert.LessOrEqual(t, pct, 100)
	}

	got, err := b.Ref()
	require.NoError(t, err)
	assert.Equal(t, ref, got)
}

func TestUploadReportsHundredExactlyOnce(t *testing.T) {
	uploader := &scriptedUploader{script: []int{50, 100}, ref: core.BlobRef{Key: "k", URL: "u"}}

	b, err := FromBytes(pngBytes, "image/png")
	require.NoError(t, err)

	var seen []int
	b.WithUploadProgress(func(pct int) { seen = append(seen, pct) })

	_, err = b.Upload(context.Background(), uploader)
	require.NoError(t, err)
	assert.Equal(t, []int{50, 100}, seen)
}

func TestUploadFailure(t *testing.T) {
	boom := errors.New("network down")
	uploader := &scriptedUploader{script: []int{30, 60}, err: boom}

	b, err := FromBytes(pngBytes, "image/png")
	require.NoError(t, err)

	var seen []int
	b.WithUploadProgress(func(pct int) { seen = append(seen, pct) })

	_, err = b.Upload(context.Background(), uploader)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, StateFailed, b.State())
	assert.Equal(t, []int{30, 60}, seen, "no progress event may follow the failure")

	// Terminal: a failed blob cannot be re-uploaded and has no reference.
	_, err = b.Upload(context.Background(), uploader)
	require.Error(t, err)
	_, err = b.Ref()
	require.ErrorIs(t, err, ErrNotUploaded)
	assert.Empty(t, seen[2:], "observers stay silent after failure")
}

func TestUploadOnlyOnce(t *testing.T) {
	uploader := &scriptedUploader{ref: core.BlobRef{Key: "k", URL: "u"}}

	b, err := FromBytes(pngBytes, "image/png")
	require.NoError(t, err)
	_, err = b.Upload(context.Background(), uploader)
	require.NoError(t, err)

	_, err = b.Upload(context.Background(), uploader)
	require.ErrorIs(t, err, ErrAlreadyUploaded)
}

func TestFromRefBypassesUpload(t *testing.T) {
	ref := core.BlobRef{Key: "existing", URL: "mem://bill-images/existing"}
	b := FromRef(ref)

	assert.Equal(t, StateCompleted, b.State())
	assert.Equal(t, ref.URL, b.DirectURL())

	got, err := b.Ref()
	require.NoError(t, err)
	assert.Equal(t, ref, got)

	_, err = b.Upload(context.Background(), &scriptedUploader{})
	require.ErrorIs(t, err, ErrAlreadyUploaded)
}

func TestBytesRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	b, err := FromBytes(pngBytes, "image/png")
	require.NoError(t, err)

	// Local bytes are served before the upload.
	data, err := b.Bytes(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)

	ref, err := b.Upload(ctx, store)
	require.NoError(t, err)

	// After the upload the bytes come from the remote store.
	data, err = FromRef(ref).Bytes(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
}

func TestObserverAttachedLateNeverFires(t *testing.T) {
	uploader := &scriptedUploader{ref: core.BlobRef{Key: "k", URL: "u"}}
	b, err := FromBytes(pngBytes, "image/png")
	require.NoError(t, err)

	_, err = b.Upload(context.Background(), uploader)
	require.NoError(t, err)

	fired := false
	b.WithUploadProgress(func(int) { fired = true })
	assert.False(t, fired)
}
