package filestore

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

// fileHeader builds a *multipart.FileHeader the way gin hands one to a handler.
func fileHeader(t *testing.T, filename, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	form, err := multipart.NewReader(&body, mw.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["file"][0]
}

func newLocalUploader(t *testing.T, maxBytes int64) (*Uploader, string) {
	t.Helper()
	root := t.TempDir()
	local, err := NewLocal(root)
	require.NoError(t, err)
	u := NewUploader(local, maxBytes, []string{"image/jpeg", "image/webp", "image/png", "image/gif"})
	u.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return u, root
}

func TestUpload_RoundTrip(t *testing.T) {
	u, root := newLocalUploader(t, 1<<20)
	ctx := context.Background()

	stored, err := u.Upload(ctx, "posts", fileHeader(t, "Photo.PNG", "image/png", pngBytes))
	require.NoError(t, err)
	assert.Equal(t, "1700000000000.png", stored.FileName)
	assert.Equal(t, "/uploads/posts/1700000000000.png", stored.FilePath)
	assert.FileExists(t, filepath.Join(root, "posts", stored.FileName))

	obj, err := u.Open(ctx, "posts", stored.FileName)
	require.NoError(t, err)
	defer obj.Body.Close()
	got, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, got)
	assert.Equal(t, "image/png", obj.ContentType)
	assert.Equal(t, int64(len(pngBytes)), obj.Size)
}

func TestUpload_SameMillisecondGetsDistinctNames(t *testing.T) {
	u, _ := newLocalUploader(t, 1<<20)
	ctx := context.Background()

	a, err := u.Upload(ctx, "posts", fileHeader(t, "a.png", "image/png", pngBytes))
	require.NoError(t, err)
	b, err := u.Upload(ctx, "posts", fileHeader(t, "b.png", "image/png", pngBytes))
	require.NoError(t, err)
	assert.NotEqual(t, a.FileName, b.FileName)
}

func TestUpload_RejectedBeforeWrite(t *testing.T) {
	tests := []struct {
		name        string
		folder      string
		filename    string
		contentType string
		content     []byte
		wantErr     error
	}{
		{"too large", "posts", "big.png", "image/png", append(pngBytes, bytes.Repeat([]byte{1}, 200)...), ErrTooLarge},
		{"declared type not allowed", "posts", "doc.pdf", "application/pdf", pngBytes, ErrType},
		{"content does not match", "posts", "fake.png", "image/png", []byte("plain text pretending"), ErrType},
		{"traversal folder", "..", "a.png", "image/png", pngBytes, ErrBadFolder},
		{"dot folder", ".", "a.png", "image/png", pngBytes, ErrBadFolder},
		{"nested folder", `a\b`, "a.png", "image/png", pngBytes, ErrBadFolder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, root := newLocalUploader(t, 128)
			_, err := u.Upload(context.Background(), tt.folder, fileHeader(t, tt.filename, tt.contentType, tt.content))
			assert.ErrorIs(t, err, tt.wantErr)

			entries, err := os.ReadDir(root)
			require.NoError(t, err)
			assert.Empty(t, entries, "nothing may be written for a rejected upload")
		})
	}
}

func TestOpen_Missing(t *testing.T) {
	u, _ := newLocalUploader(t, 1<<20)
	ctx := context.Background()

	_, err := u.Open(ctx, "posts", "nope.png")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = u.Open(ctx, "posts", "..")
	assert.ErrorIs(t, err, ErrBadName)
}

func TestValidSegment(t *testing.T) {
	for _, ok := range []string{"posts", "avatars-2024", "a.b"} {
		assert.NoError(t, ValidSegment(ok), ok)
	}
	for _, bad := range []string{"", ".", "..", "a/b", `a\b`, "a\x00b"} {
		assert.Error(t, ValidSegment(bad), bad)
	}
}

func TestCloudinary_OpenProxiesDeliveryURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/demo/image/upload/reviewcms/posts/1.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngBytes)
	}))
	defer srv.Close()

	cld, err := cloudinary.NewFromParams("demo", "key", "secret")
	require.NoError(t, err)
	c := &Cloudinary{cld: cld, DeliveryBase: srv.URL, client: srv.Client()}

	obj, err := c.Open(context.Background(), "posts", "1.png")
	require.NoError(t, err)
	defer obj.Body.Close()
	got, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, got)

	_, err = c.Open(context.Background(), "posts", "2.png")
	assert.ErrorIs(t, err, ErrNotFound)
}
