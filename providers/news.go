package providers

import (
	"context"
	"groupchat/domain"
	"groupchat/errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

const (
	DefaultNewsURL      = "https://newsapi.org"
	DefaultNewsCountry  = "cn"
	DefaultNewsPageSize = 8
)

type newsResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Articles []newsArticle `json:"articles"`
}

type newsArticle struct {
	Title      string `json:"title"`
	URL        string `json:"url"`
	URLToImage string `json:"urlToImage"`
}

// NewsProvider fetches top headlines from a NewsAPI compatible endpoint.
// The query is ignored, the digest has no argument.
type NewsProvider struct {
	client   *http.Client
	baseURL  string
	apiKey   string
	country  string
	pageSize int
}

func NewNewsProvider(client *http.Client, baseURL, apiKey, country string) *NewsProvider {
	if baseURL == "" {
		baseURL = DefaultNewsURL
	}
	if country == "" {
		country = DefaultNewsCountry
	}
	return &NewsProvider{
		client:   client,
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		country:  country,
		pageSize: DefaultNewsPageSize,
	}
}

func (p *NewsProvider) Fetch(ctx context.Context, _ string) ([]domain.NewsItem, error) {
	if p.apiKey == "" {
		return nil, errors.ErrProviderNotConfigured
	}
	params := url.Values{}
	params.Set("country", p.country)
	params.Set("pageSize", strconv.Itoa(p.pageSize))
	header := http.Header{}
	header.Set("X-Api-Key", p.apiKey)

	var resp newsResponse
	if err := getJSON(ctx, p.client, p.baseURL+"/v2/top-headlines?"+params.Encode(), header, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "ok" {
		return nil, failure("news api status %q: %s", resp.Status, resp.Message)
	}

	items := lo.FilterMap(resp.Articles, func(a newsArticle, _ int) (domain.NewsItem, bool) {
		return domain.NewsItem{Title: a.Title, ImageURL: a.URLToImage, URL: a.URL}, a.Title != "" && a.URL != ""
	})
	if len(items) == 0 {
		return nil, failure("no headline")
	}
	return items, nil
}
