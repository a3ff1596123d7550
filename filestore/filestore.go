// Package filestore validates uploads and hands them to a storage backend.
package filestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

var (
	ErrNotFound  = errors.New("file not found")
	ErrExists    = errors.New("file already exists")
	ErrTooLarge  = errors.New("file exceeds the size limit")
	ErrType      = errors.New("file type not allowed")
	ErrBadFolder = errors.New("invalid folder name")
	ErrBadName   = errors.New("invalid file name")
)

// Object is an opened stored file.
type Object struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
}

// Backend stores files under a folder/name key.
type Backend interface {
	Save(ctx context.Context, folder, name string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, folder, name string) (*Object, error)
}

// Stored describes a successful upload.
type Stored struct {
	FileName string `json:"fileName"`
	FilePath string `json:"filePath"`
}

// Uploader enforces the size ceiling and type whitelist before anything is written.
type Uploader struct {
	backend  Backend
	maxBytes int64
	allowed  map[string]bool
	now      func() time.Time
}

func NewUploader(backend Backend, maxBytes int64, allowedTypes []string) *Uploader {
	allowed := make(map[string]bool, len(allowedTypes))
	for _, t := range allowedTypes {
		allowed[strings.ToLower(strings.TrimSpace(t))] = true
	}
	return &Uploader{backend: backend, maxBytes: maxBytes, allowed: allowed, now: time.Now}
}

func (u *Uploader) MaxBytes() int64 { return u.maxBytes }

// Upload validates fh and stores it as <unix-millis><ext> under folder.
func (u *Uploader) Upload(ctx context.Context, folder string, fh *multipart.FileHeader) (*Stored, error) {
	if err := ValidSegment(folder); err != nil {
		return nil, ErrBadFolder
	}
	if fh.Size > u.maxBytes {
		return nil, ErrTooLarge
	}

	declared, _, _ := mime.ParseMediaType(fh.Header.Get("Content-Type"))
	if !u.allowed[strings.ToLower(declared)] {
		return nil, fmt.Errorf("%w: %s", ErrType, declared)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	// Read at most one byte past the ceiling so a lying Size is still caught.
	data, err := io.ReadAll(io.LimitReader(f, u.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > u.maxBytes {
		return nil, ErrTooLarge
	}

	sniffed, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	if !u.allowed[sniffed] {
		return nil, fmt.Errorf("%w: content is %s", ErrType, sniffed)
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	stamp := u.now().UnixMilli()
	for attempt := 0; attempt < 5; attempt++ {
		name := fmt.Sprintf("%d%s", stamp+int64(attempt), ext)
		err := u.backend.Save(ctx, folder, name, bytes.NewReader(data), int64(len(data)), sniffed)
		if errors.Is(err, ErrExists) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return &Stored{FileName: name, FilePath: "/uploads/" + folder + "/" + name}, nil
	}
	return nil, fmt.Errorf("store upload: %w", ErrExists)
}

// Open validates the path segments and opens the stored file.
func (u *Uploader) Open(ctx context.Context, folder, name string) (*Object, error) {
	if err := ValidSegment(folder); err != nil {
		return nil, ErrBadFolder
	}
	if err := ValidSegment(name); err != nil {
		return nil, ErrBadName
	}
	return u.backend.Open(ctx, folder, name)
}

// ValidSegment accepts a single path component that cannot escape its parent.
func ValidSegment(s string) error {
	if s == "" || s == "." || s == ".." || strings.ContainsAny(s, `/\`) || strings.ContainsRune(s, 0) {
		return fmt.Errorf("invalid path segment %q", s)
	}
	return nil
}

func contentTypeFor(name string) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); t != "" {
		return t
	}
	return "application/octet-stream"
}
