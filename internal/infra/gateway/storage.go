package gateway

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/lsiproject/propertyhub/client"
	"github.com/lsiproject/propertyhub/internal/config"
)

// ObjectStorage uploads property images to a Supabase storage bucket.
type ObjectStorage struct {
	client  *client.Client
	baseURL string
	key     string
	bucket  string
}

func NewObjectStorage(cl *client.Client, conf config.Storage) *ObjectStorage {
	return &ObjectStorage{
		client:  cl,
		baseURL: strings.TrimRight(conf.URL, "/"),
		key:     conf.Key,
		bucket:  conf.Bucket,
	}
}

func (s *ObjectStorage) Upload(ctx context.Context, name, contentType string, content []byte) (string, error) {
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, s.bucket, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(content))
	if err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+s.key)
	req.Header.Set("x-upsert", "false")

	err = s.client.Do(req, nil)
	if err != nil {
		return "", err
	}
	return s.PublicURL(name), nil
}

func (s *ObjectStorage) PublicURL(name string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, name)
}
