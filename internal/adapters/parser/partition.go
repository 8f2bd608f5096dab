// Package parser provides document parsing adapters.
// Adapters implementing ports.DocumentParser.
package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/0xcro3dile/privategpt-go/internal/domain/ports"
	"github.com/0xcro3dile/privategpt-go/internal/logger"
)

const (
	DefaultPartitionURL = "http://localhost:8000"
	partitionPath       = "/general/v0/general"
	healthPath          = "/healthcheck"
)

// PartitionParser extracts text by posting files to an Unstructured
// partition service.
type PartitionParser struct {
	serviceURL string
	client     *http.Client
	formats    []string
}

var _ ports.DocumentParser = (*PartitionParser)(nil)

// NewPartitionParser creates a parser for the service at serviceURL. With no
// formats it handles pdf and docx.
func NewPartitionParser(serviceURL string, formats ...string) *PartitionParser {
	if serviceURL == "" {
		serviceURL = DefaultPartitionURL
	}
	if len(formats) == 0 {
		formats = []string{"pdf", "docx"}
	}
	return &PartitionParser{
		serviceURL: strings.TrimRight(serviceURL, "/"),
		client: &http.Client{
			Timeout: 5 * time.Minute,
		},
		formats: formats,
	}
}

// element is one item of the partition response.
type element struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Parse uploads the document and joins the text of the returned elements
// with blank lines.
func (p *PartitionParser) Parse(ctx context.Context, data []byte, filename string) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("files", filepath.Base(filename))
	if err != nil {
		return "", fmt.Errorf("creating form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("writing form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("closing form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.serviceURL+partitionPath, &body)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	logger.GetLogger().WithField("file", filename).WithField("bytes", len(data)).Debug("partitioning document")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling partition service: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var failure struct {
			Detail any `json:"detail"`
		}
		if json.Unmarshal(raw, &failure) == nil && failure.Detail != nil {
			return "", fmt.Errorf("partition service returned status %d: %v", resp.StatusCode, failure.Detail)
		}
		return "", fmt.Errorf("partition service returned status %d", resp.StatusCode)
	}

	var elements []element
	if err := json.Unmarshal(raw, &elements); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	texts := make([]string, 0, len(elements))
	for _, e := range elements {
		if t := strings.TrimSpace(e.Text); t != "" {
			texts = append(texts, t)
		}
	}
	return strings.Join(texts, "\n\n"), nil
}

// SupportedFormats returns formats this parser handles.
func (p *PartitionParser) SupportedFormats() []string {
	return p.formats
}

// IsServiceHealthy checks if the partition service is reachable.
func (p *PartitionParser) IsServiceHealthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.serviceURL+healthPath, nil)
	if err != nil {
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}
