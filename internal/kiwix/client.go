// Package kiwix is a client for an offline corpus server exposing the
// Kiwix search and viewer endpoints: full-text search returning RSS XML,
// and plain document fetch by corpus-relative link.
package kiwix

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"lentera/internal/models"
)

// ServiceError is a non-2xx response from the corpus server.
type ServiceError struct {
	Endpoint string
	Status   int
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("corpus server %s returned status %d", e.Endpoint, e.Status)
}

const DefaultPageLength = 140

type Client struct {
	BaseURL    string
	PageLength int
	client     *http.Client
}

// NewClient creates a corpus client. The timeout bounds every search and
// fetch call; the corpus server is typically a single local process.
func NewClient(baseURL string, pageLength int, timeout time.Duration) *Client {
	if pageLength <= 0 {
		pageLength = DefaultPageLength
	}
	return &Client{
		BaseURL:    baseURL,
		PageLength: pageLength,
		client:     &http.Client{Timeout: timeout},
	}
}

type rssEnvelope struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string         `xml:"title"`
	Link        string         `xml:"link"`
	Description rawDescription `xml:"description"`
	WordCount   int            `xml:"wordCount"`
	Book        struct {
		Title string `xml:"title"`
	} `xml:"book"`
}

// rawDescription keeps the inner XML so the bold keyword spans the search
// engine marks survive parsing.
type rawDescription struct {
	Inner string `xml:",innerxml"`
}

var (
	boldSpanRe = regexp.MustCompile(`(?s)<b>(.*?)</b>`)
	anyTagRe   = regexp.MustCompile(`</?[^>]+>`)
	wsRe       = regexp.MustCompile(`\s+`)
)

func (d rawDescription) parse() models.Description {
	var bold []string
	for _, m := range boldSpanRe.FindAllStringSubmatch(d.Inner, -1) {
		span := strings.TrimSpace(html.UnescapeString(m[1]))
		if span != "" {
			bold = append(bold, span)
		}
	}

	text := anyTagRe.ReplaceAllString(d.Inner, "")
	text = html.UnescapeString(text)
	text = strings.TrimSpace(wsRe.ReplaceAllString(text, " "))

	return models.Description{Text: text, Bold: bold}
}

// Search runs one full-text search and returns the ranked hits.
func (c *Client) Search(ctx context.Context, keyword string) ([]models.SearchHit, error) {
	endpoint := fmt.Sprintf("%s/search?pattern=%s&format=xml&pageLength=%d",
		c.BaseURL, url.QueryEscape(keyword), c.PageLength)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to search corpus for %q: %w", keyword, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ServiceError{Endpoint: "/search", Status: resp.StatusCode}
	}

	var envelope rssEnvelope
	if err := xml.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to parse search XML for %q: %w", keyword, err)
	}

	hits := make([]models.SearchHit, 0, len(envelope.Channel.Items))
	for _, item := range envelope.Channel.Items {
		hits = append(hits, models.SearchHit{
			Title:       strings.TrimSpace(item.Title),
			Link:        strings.TrimSpace(item.Link),
			Description: item.Description.parse(),
			WordCount:   item.WordCount,
			BookTitle:   strings.TrimSpace(item.Book.Title),
		})
	}
	return hits, nil
}

// FetchDocument retrieves the raw document body behind a corpus-relative
// link, as returned in a search hit.
func (c *Client) FetchDocument(ctx context.Context, link string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+link, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create fetch request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", link, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &ServiceError{Endpoint: link, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", link, err)
	}
	return string(body), nil
}
