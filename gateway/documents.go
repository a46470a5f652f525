package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// DocumentPayload is the data rendered onto the certificate template
type DocumentPayload struct {
	Name   string `json:"name"`
	Course string `json:"course"`
	Date   string `json:"date"`
}

// DocumentMetadata correlates the asynchronous finalization webhook back to
// the progress row it belongs to.
type DocumentMetadata struct {
	UserID   string `json:"userId"`
	CourseID uint   `json:"courseId"`
}

// Document is the provider's synchronous response. PreviewURL is available
// immediately; DownloadURL arrives later via webhook and may be empty here.
type Document struct {
	ID          string
	PreviewURL  string
	DownloadURL string
}

// DocumentProvider is the outbound document-generation collaborator
type DocumentProvider interface {
	CreateDocument(ctx context.Context, payload DocumentPayload, meta DocumentMetadata) (*Document, error)
}

// PdfMonkeyProvider renders certificates through the PDFMonkey API
type PdfMonkeyProvider struct {
	client     *resty.Client
	templateID string
}

func NewPdfMonkeyProvider(apiURL, apiKey, templateID string, timeout time.Duration) *PdfMonkeyProvider {
	client := resty.New().
		SetBaseURL(apiURL).
		SetTimeout(timeout).
		SetAuthToken(apiKey)
	return &PdfMonkeyProvider{client: client, templateID: templateID}
}

func (p *PdfMonkeyProvider) CreateDocument(ctx context.Context, payload DocumentPayload, meta DocumentMetadata) (*Document, error) {
	body := map[string]interface{}{
		"document": map[string]interface{}{
			"document_template_id": p.templateID,
			"payload":              payload,
			"metadata":             meta,
		},
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post("/api/v1/documents")
	if err != nil {
		return nil, fmt.Errorf("create document: %v", err)
	}
	if resp.StatusCode() != 200 && resp.StatusCode() != 201 {
		return nil, fmt.Errorf("create document: status %d: %s", resp.StatusCode(), resp.String())
	}

	var result struct {
		Document struct {
			ID          string `json:"id"`
			PreviewURL  string `json:"preview_url"`
			DownloadURL string `json:"download_url"`
		} `json:"document"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("parse document response: %v", err)
	}
	if result.Document.PreviewURL == "" && result.Document.DownloadURL == "" {
		return nil, fmt.Errorf("document response has no url")
	}

	return &Document{
		ID:          result.Document.ID,
		PreviewURL:  result.Document.PreviewURL,
		DownloadURL: result.Document.DownloadURL,
	}, nil
}
