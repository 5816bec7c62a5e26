package providers

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

const DefaultMovieURL = "https://www.libvio.link"

var vidPattern = regexp.MustCompile(`var vid = '(.+?)';`)

// MovieProvider resolves a title to a raw stream url in two steps:
// the search page gives the first detail link, the detail page embeds the
// stream url in a script.
type MovieProvider struct {
	client  *http.Client
	baseURL *url.URL
}

func NewMovieProvider(client *http.Client, baseURL string) (*MovieProvider, error) {
	if baseURL == "" {
		baseURL = DefaultMovieURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, err
	}
	return &MovieProvider{client: client, baseURL: u}, nil
}

func (p *MovieProvider) Fetch(ctx context.Context, title string) (string, error) {
	search := p.baseURL.JoinPath("search/")
	search.RawQuery = url.Values{"wd": {title}}.Encode()

	page, err := get(ctx, p.client, search.String(), nil)
	if err != nil {
		return "", err
	}
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return "", failure("parse search page: %v", err)
	}
	href := firstLink(doc, "fed-list-pics")
	if href == "" {
		return "", failure("no result for %q", title)
	}
	detail, err := p.baseURL.Parse(href)
	if err != nil {
		return "", failure("detail link %q: %v", href, err)
	}

	page, err = get(ctx, p.client, detail.String(), nil)
	if err != nil {
		return "", err
	}
	doc, err = html.Parse(bytes.NewReader(page))
	if err != nil {
		return "", failure("parse detail page: %v", err)
	}
	stream := streamURL(doc)
	if stream == "" {
		return "", failure("no stream on %s", detail.Path)
	}
	return stream, nil
}

// firstLink returns the href of the first <a> carrying class.
func firstLink(n *html.Node, class string) string {
	if n.Type == html.ElementNode && n.Data == "a" && hasClass(n, class) {
		if href := attr(n, "href"); href != "" {
			return href
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if href := firstLink(c, class); href != "" {
			return href
		}
	}
	return ""
}

// streamURL scans inline scripts for the player variable.
func streamURL(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "script" && n.FirstChild != nil {
		if m := vidPattern.FindStringSubmatch(n.FirstChild.Data); m != nil {
			return m[1]
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if s := streamURL(c); s != "" {
			return s
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
