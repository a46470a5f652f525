package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/go-resty/resty/v2"
)

// MediaStorage uploads course assets (thumbnails) and returns a public URL
type MediaStorage interface {
	UploadImage(ctx context.Context, filename string, r io.Reader) (string, error)
}

// CloudStorage posts assets to a cloud media API as multipart form data
type CloudStorage struct {
	client *resty.Client
}

func NewCloudStorage(uploadURL, apiKey string, timeout time.Duration) *CloudStorage {
	client := resty.New().
		SetBaseURL(uploadURL).
		SetTimeout(timeout).
		SetAuthToken(apiKey)
	return &CloudStorage{client: client}
}

func (s *CloudStorage) UploadImage(ctx context.Context, filename string, r io.Reader) (string, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetFileReader("file", filename, r).
		Post("/upload")
	if err != nil {
		return "", fmt.Errorf("upload image: %v", err)
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("upload image: status %d: %s", resp.StatusCode(), resp.String())
	}

	var result struct {
		SecureURL string `json:"secure_url"`
		URL       string `json:"url"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return "", fmt.Errorf("parse upload response: %v", err)
	}
	if result.SecureURL != "" {
		return result.SecureURL, nil
	}
	if result.URL == "" {
		return "", fmt.Errorf("upload response has no url")
	}
	return result.URL, nil
}
