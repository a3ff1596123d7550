package filestore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const cloudinaryRoot = "reviewcms"

// Cloudinary uploads images to a Cloudinary folder and proxies reads
// through the public delivery URL.
type Cloudinary struct {
	cld *cloudinary.Cloudinary

	// DeliveryBase is the host serving delivered assets.
	DeliveryBase string
	client       *http.Client
}

func NewCloudinary(url string) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromURL(url)
	if err != nil {
		return nil, fmt.Errorf("cloudinary configuration error: %w", err)
	}
	return &Cloudinary{
		cld:          cld,
		DeliveryBase: "https://res.cloudinary.com",
		client:       &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func publicID(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func (c *Cloudinary) Save(ctx context.Context, folder, name string, r io.Reader, _ int64, _ string) error {
	result, err := c.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		Folder:   cloudinaryRoot + "/" + folder,
		PublicID: publicID(name),
	})
	if err != nil {
		return fmt.Errorf("cloudinary upload: %w", err)
	}
	if result.Error.Message != "" {
		return fmt.Errorf("cloudinary upload: %s", result.Error.Message)
	}
	return nil
}

func (c *Cloudinary) deliveryURL(folder, name string) string {
	return fmt.Sprintf("%s/%s/image/upload/%s/%s/%s",
		c.DeliveryBase, c.cld.Config.Cloud.CloudName, cloudinaryRoot, folder, name)
}

func (c *Cloudinary) Open(ctx context.Context, folder, name string) (*Object, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.deliveryURL(folder, name), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cloudinary fetch: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("cloudinary fetch: status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = contentTypeFor(name)
	}
	return &Object{Body: resp.Body, Size: resp.ContentLength, ContentType: contentType}, nil
}
