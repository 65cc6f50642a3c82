// Package stt is the speech-to-text backend behind voice capture.
package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/2beens/gymflow/internal/gymflow/capture"
	"github.com/2beens/gymflow/internal/telemetry/tracing"
)

const (
	DefaultBaseURL = "https://api.elevenlabs.io"
	DefaultModel   = "scribe_v1"
	transcribePath = "/v1/speech-to-text"
	maxErrorBody   = 512
)

var ErrMissingAPIKey = errors.New("stt api key missing")

var _ capture.Transcriber = (*Client)(nil)

type ClientParams struct {
	BaseURL           string
	APIKey            string
	Model             string
	Language          string
	Timeout           time.Duration
	RequestsPerSecond float64
	// Transport defaults to http.DefaultTransport, wrapped with otelhttp.
	Transport http.RoundTripper
}

type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	apiKey     string
	model      string
	language   string
}

type transcriptResponse struct {
	Text         string `json:"text"`
	LanguageCode string `json:"language_code"`
}

func NewClient(params ClientParams) (*Client, error) {
	if params.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if params.BaseURL == "" {
		params.BaseURL = DefaultBaseURL
	}
	if params.Model == "" {
		params.Model = DefaultModel
	}
	if params.Timeout <= 0 {
		params.Timeout = 30 * time.Second
	}
	if params.Transport == nil {
		params.Transport = http.DefaultTransport
	}

	limit := rate.Inf
	if params.RequestsPerSecond > 0 {
		limit = rate.Limit(params.RequestsPerSecond)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   params.Timeout,
			Transport: otelhttp.NewTransport(params.Transport),
		},
		limiter:  rate.NewLimiter(limit, 1),
		baseURL:  strings.TrimRight(params.BaseURL, "/"),
		apiKey:   params.APIKey,
		model:    params.Model,
		language: params.Language,
	}, nil
}

// Transcribe uploads one audio clip and returns the recognized text.
func (c *Client) Transcribe(ctx context.Context, name string, audio io.Reader) (_ string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "stt.transcribe")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	body, contentType, err := c.multipartBody(name, audio)
	if err != nil {
		return "", fmt.Errorf("build request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+transcribePath, body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", fmt.Errorf("stt returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var transcript transcriptResponse
	if err := json.NewDecoder(resp.Body).Decode(&transcript); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	log.Tracef("stt: transcribed %q [%s]: %q", name, transcript.LanguageCode, transcript.Text)
	return transcript.Text, nil
}

func (c *Client) multipartBody(name string, audio io.Reader) (*bytes.Buffer, string, error) {
	if name == "" {
		name = "audio.webm"
	}

	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	if err := mw.WriteField("model_id", c.model); err != nil {
		return nil, "", err
	}
	if c.language != "" && !strings.EqualFold(c.language, "auto") {
		if err := mw.WriteField("language_code", c.language); err != nil {
			return nil, "", err
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filepath.Base(name)))
	h.Set("Content-Type", mimeFromExt(filepath.Ext(name)))
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, audio); err != nil {
		return nil, "", fmt.Errorf("copy audio: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf, mw.FormDataContentType(), nil
}

func mimeFromExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".mp3":
		return "audio/mpeg"
	case ".m4a":
		return "audio/mp4"
	case ".wav":
		return "audio/wav"
	case ".ogg", ".oga":
		return "audio/ogg"
	case ".webm":
		return "audio/webm"
	case ".flac":
		return "audio/flac"
	case ".aac":
		return "audio/aac"
	default:
		return "application/octet-stream"
	}
}
