// Package vision recognizes page text and labels with the Google Cloud
// Vision images:annotate REST endpoint.
package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/docgate/internal/core/domain"
	"github.com/kirillkom/docgate/internal/core/ports"
	"github.com/kirillkom/docgate/internal/infrastructure/resilience"
)

const (
	annotatePath    = "/v1/images:annotate"
	defaultMaxLabel = 20
)

type Config struct {
	BaseURL   string
	APIKey    string
	MaxLabels int
}

type Client struct {
	baseURL    string
	apiKey     string
	maxLabels  int
	httpClient *http.Client
	guard      *resilience.Guard
	logger     *slog.Logger
}

// New builds a client whose calls all pass through guard. The guard owns
// the per-call deadline, so the http.Client carries only a backstop timeout.
func New(cfg Config, guard *resilience.Guard, logger *slog.Logger) *Client {
	if cfg.MaxLabels <= 0 {
		cfg.MaxLabels = defaultMaxLabel
	}
	if logger == nil {
		logger = slog.Default()
	}
	if guard == nil {
		guard = resilience.NewGuard(resilience.GuardConfig{Breaker: resilience.NoRetryConfig()}, logger)
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		maxLabels:  cfg.MaxLabels,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		guard:      guard,
		logger:     logger,
	}
}

type annotateRequest struct {
	Requests []imageRequest `json:"requests"`
}

type imageRequest struct {
	Image        imageContent  `json:"image"`
	Features     []feature     `json:"features"`
	ImageContext *imageContext `json:"imageContext,omitempty"`
}

type imageContent struct {
	Content string `json:"content"`
}

type feature struct {
	Type       string `json:"type"`
	MaxResults int    `json:"maxResults,omitempty"`
}

type imageContext struct {
	LanguageHints []string `json:"languageHints,omitempty"`
}

type annotateResponse struct {
	Responses []imageResponse `json:"responses"`
}

type imageResponse struct {
	FullTextAnnotation *struct {
		Text string `json:"text"`
	} `json:"fullTextAnnotation"`
	LabelAnnotations []struct {
		Description string  `json:"description"`
		Score       float64 `json:"score"`
	} `json:"labelAnnotations"`
	Error *apiStatus `json:"error"`
}

type apiStatus struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Recognize runs document text detection and label detection in one call.
func (c *Client) Recognize(ctx context.Context, page *domain.PageImage, languageHints []string) (ports.Recognition, error) {
	data, err := page.Bytes()
	if err != nil {
		return ports.Recognition{}, err
	}

	req := annotateRequest{Requests: []imageRequest{{
		Image: imageContent{Content: base64.StdEncoding.EncodeToString(data)},
		Features: []feature{
			{Type: "DOCUMENT_TEXT_DETECTION"},
			{Type: "LABEL_DETECTION", MaxResults: c.maxLabels},
		},
	}}}
	if len(languageHints) > 0 {
		req.Requests[0].ImageContext = &imageContext{LanguageHints: languageHints}
	}

	var resp annotateResponse
	err = c.guard.Do(ctx, "vision_annotate", func(callCtx context.Context) error {
		return c.postJSON(callCtx, annotatePath, req, &resp, "annotate")
	}, classifyVisionError)
	if err != nil {
		return ports.Recognition{}, wrapTemporaryIfNeeded("vision annotate", err)
	}
	if len(resp.Responses) == 0 {
		return ports.Recognition{}, fmt.Errorf("vision annotate: empty response")
	}

	r := resp.Responses[0]
	if r.Error != nil && r.Error.Code != 0 {
		return ports.Recognition{}, fmt.Errorf("vision annotate page %d: code %d: %s", page.Index, r.Error.Code, r.Error.Message)
	}

	out := ports.Recognition{}
	if r.FullTextAnnotation != nil {
		out.Text = r.FullTextAnnotation.Text
	}
	for _, l := range r.LabelAnnotations {
		out.Labels = append(out.Labels, ports.Label{Name: l.Description, Score: l.Score})
	}
	c.logger.Debug("vision_page_recognized", "page", page.Index, "text_bytes", len(out.Text), "labels", len(out.Labels))
	return out, nil
}
