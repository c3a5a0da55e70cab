// Package parser provides document parsing adapters.
// Clean Architecture: Adapter implementing ports.DocumentParser.
// Calls an external extraction service for PDF text.
package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/0xcro3dile/islandguide/internal/domain/ports"
)

var _ ports.DocumentParser = (*PythonPDFParser)(nil)

// PythonPDFParser implements ports.DocumentParser over the PDF extraction
// service's HTTP API.
type PythonPDFParser struct {
	serviceURL string
	client     *http.Client
}

// NewPythonPDFParser creates a new PDF parser that calls the extraction service.
func NewPythonPDFParser(serviceURL string) *PythonPDFParser {
	if serviceURL == "" {
		serviceURL = "http://localhost:8081"
	}
	return &PythonPDFParser{
		serviceURL: serviceURL,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// parseResponse is the extraction service response format. PageTexts is
// preferred; older service builds only send Text with form feeds between pages.
type parseResponse struct {
	Text      string   `json:"text"`
	PageTexts []string `json:"page_texts,omitempty"`
	Pages     int      `json:"pages"`
	Library   string   `json:"library,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// Parse extracts per-page text from PDF bytes.
func (p *PythonPDFParser) Parse(ctx context.Context, data []byte, filename string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.serviceURL+"/parse", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("X-Filename", filename)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling PDF service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var result parseResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decoding response (status %d): %w", resp.StatusCode, err)
	}

	if result.Error != "" {
		return nil, fmt.Errorf("PDF parse error: %s", result.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("PDF service returned status %d", resp.StatusCode)
	}

	if len(result.PageTexts) > 0 {
		return result.PageTexts, nil
	}
	return splitPages(result.Text), nil
}

// splitPages splits on form feeds; text without any is one page.
func splitPages(text string) []string {
	if text == "" {
		return []string{}
	}
	pages := strings.Split(text, "\f")
	if n := len(pages); n > 1 && strings.TrimSpace(pages[n-1]) == "" {
		pages = pages[:n-1]
	}
	return pages
}

// SupportedFormats returns formats this parser handles.
func (p *PythonPDFParser) SupportedFormats() []string {
	return []string{"pdf"}
}

// IsServiceHealthy checks if the extraction service is running.
func (p *PythonPDFParser) IsServiceHealthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.serviceURL+"/health", nil)
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
