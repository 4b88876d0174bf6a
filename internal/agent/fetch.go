package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

const (
	// DefaultFetchTimeout bounds one fetch_url request.
	DefaultFetchTimeout = 30 * time.Second
	// DefaultMaxFetchBytes caps how much of a response body is read.
	DefaultMaxFetchBytes = 512 * 1024
	// maxFetchChars caps the text handed back to the model.
	maxFetchChars = 8000
)

var (
	blockTags  = regexp.MustCompile(`(?i)</?(p|div|br|li|h[1-6]|tr|section|article|header|footer)[^>]*>`)
	skipBlocks = regexp.MustCompile(`(?is)<(script|style|noscript)[^>]*>.*?</(script|style|noscript)>`)
	blankRuns  = regexp.MustCompile(`\n\s*\n+`)
	spaceRuns  = regexp.MustCompile(`[ \t\f\r]+`)
)

// FetchURL downloads a web page and returns its readable text.
type FetchURL struct {
	client   *http.Client
	maxBytes int64
	strip    *bluemonday.Policy
}

// NewFetchURL creates the fetch_url tool. Zero values select the defaults.
func NewFetchURL(timeout time.Duration, maxBytes int64) *FetchURL {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFetchBytes
	}
	return &FetchURL{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
		strip:    bluemonday.StrictPolicy(),
	}
}

func (f *FetchURL) Name() string { return "fetch_url" }

func (f *FetchURL) Description() string {
	return "Fetch a web page over HTTP(S) and return its text content with markup removed."
}

func (f *FetchURL) Parameters() (map[string]interface{}, []string) {
	return map[string]interface{}{
		"url": map[string]interface{}{
			"type":        "string",
			"description": "Absolute http or https URL to fetch",
		},
	}, []string{"url"}
}

func (f *FetchURL) Run(ctx context.Context, input json.RawMessage) (string, error) {
	var params struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return "", err
	}

	u, err := url.Parse(strings.TrimSpace(params.URL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", errors.New("url must be an absolute http or https URL")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "goalie/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("GET %s: %s", u, resp.Status)
	}

	text := string(body)
	if strings.Contains(resp.Header.Get("Content-Type"), "html") || looksLikeHTML(text) {
		text = f.htmlToText(text)
	}

	text = strings.TrimSpace(text)
	if len(text) > maxFetchChars {
		text = text[:maxFetchChars] + "\n... (truncated)"
	}
	if text == "" {
		return "The page has no readable text.", nil
	}
	return text, nil
}

func (f *FetchURL) htmlToText(s string) string {
	s = skipBlocks.ReplaceAllString(s, "")
	s = blockTags.ReplaceAllString(s, "\n")
	s = f.strip.Sanitize(s)
	s = html.UnescapeString(s)
	s = spaceRuns.ReplaceAllString(s, " ")
	s = blankRuns.ReplaceAllString(s, "\n\n")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.Join(lines, "\n")
}

func looksLikeHTML(s string) bool {
	head := strings.ToLower(s)
	if len(head) > 512 {
		head = head[:512]
	}
	return strings.Contains(head, "<html") || strings.Contains(head, "<!doctype html")
}
