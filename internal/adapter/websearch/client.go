package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"cineqa/internal/fusion"
)

// Client queries an external web search provider. A configured SearXNG
// instance takes precedence; otherwise the DuckDuckGo Instant Answer API is
// used, which needs no key.
type Client struct {
	searxngURL string
	client     *http.Client
	baseURL    string
}

func NewClient(searxngURL string) *Client {
	return &Client{
		searxngURL: searxngURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// SetBaseURL overrides the DuckDuckGo endpoint. Used by tests.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]fusion.WebResult, error) {
	if c.searxngURL != "" {
		return c.searchSearXNG(ctx, query, maxResults)
	}
	return c.searchDuckDuckGo(ctx, query, maxResults)
}

func (c *Client) searchSearXNG(ctx context.Context, query string, maxResults int) ([]fusion.WebResult, error) {
	base, err := url.Parse(c.searxngURL)
	if err != nil {
		return nil, fmt.Errorf("invalid searxng url: %w", err)
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("pageno", "1")
	q.Set("categories", "general")
	base.Path = "/search"
	base.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", base.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("searxng api error: %d", resp.StatusCode)
	}

	var parsed struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	results := make([]fusion.WebResult, 0, maxResults)
	for _, r := range parsed.Results {
		if len(results) >= maxResults {
			break
		}
		results = append(results, fusion.WebResult{Title: r.Title, URL: r.URL, Snippet: r.Content})
	}
	return results, nil
}

func (c *Client) searchDuckDuckGo(ctx context.Context, query string, maxResults int) ([]fusion.WebResult, error) {
	endpoint := "https://api.duckduckgo.com/"
	if c.baseURL != "" {
		endpoint = c.baseURL
	}
	u := fmt.Sprintf("%s?q=%s&format=json&no_html=1", endpoint, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; CineqaBot/1.0)")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo api error: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Heading       string `json:"Heading"`
		AbstractText  string `json:"AbstractText"`
		AbstractURL   string `json:"AbstractURL"`
		RelatedTopics []struct {
			FirstURL string `json:"FirstURL"`
			Text     string `json:"Text"`
		} `json:"RelatedTopics"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}

	var results []fusion.WebResult
	if parsed.AbstractText != "" && parsed.AbstractURL != "" {
		results = append(results, fusion.WebResult{
			Title:   parsed.Heading,
			URL:     parsed.AbstractURL,
			Snippet: parsed.AbstractText,
		})
	}
	for _, topic := range parsed.RelatedTopics {
		if len(results) >= maxResults {
			break
		}
		if topic.FirstURL == "" || topic.Text == "" {
			continue
		}
		title := topic.Text
		if r := []rune(title); len(r) > 100 {
			title = string(r[:100])
		}
		results = append(results, fusion.WebResult{
			Title:   title,
			URL:     topic.FirstURL,
			Snippet: topic.Text,
		})
	}
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}
