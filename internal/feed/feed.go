package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/lankasignal/lankasignal/internal/config"
	"github.com/lankasignal/lankasignal/internal/store"
)

const (
	maxTitleRunes = 300
	// Shorter anchors on scraped pages are navigation, not headlines.
	minHTMLTitleRunes = 20
	defaultMaxAge     = 7 * 24 * time.Hour
	defaultUserAgent  = "lankasignal/1.0"
)

// Fetcher retrieves headlines from a single configured source.
type Fetcher interface {
	Fetch(ctx context.Context, source config.Source) ([]store.NewArticle, error)
}

// Options tune a fetch. Zero values fall back to defaults.
type Options struct {
	UserAgent    string
	MaxPerSource int
	MaxAge       time.Duration
	Client       *http.Client
}

func (o Options) withDefaults() Options {
	if o.UserAgent == "" {
		o.UserAgent = defaultUserAgent
	}
	if o.MaxAge <= 0 {
		o.MaxAge = defaultMaxAge
	}
	if o.Client == nil {
		o.Client = http.DefaultClient
	}
	return o
}

// RSSFetcher reads RSS and Atom feeds.
type RSSFetcher struct {
	parser *gofeed.Parser
	opts   Options
	now    func() time.Time
}

func NewRSSFetcher(opts Options) *RSSFetcher {
	opts = opts.withDefaults()
	p := gofeed.NewParser()
	p.UserAgent = opts.UserAgent
	p.Client = opts.Client
	return &RSSFetcher{parser: p, opts: opts, now: time.Now}
}

func (f *RSSFetcher) Fetch(ctx context.Context, source config.Source) ([]store.NewArticle, error) {
	feed, err := f.parser.ParseURLWithContext(source.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", source.Name, err)
	}

	now := f.now()
	maxAge := now.Add(-f.opts.MaxAge)
	seen := map[string]bool{}
	articles := make([]store.NewArticle, 0, len(feed.Items))
	for _, item := range feed.Items {
		if f.opts.MaxPerSource > 0 && len(articles) >= f.opts.MaxPerSource {
			break
		}
		if pub := published(item); pub != nil && pub.Before(maxAge) {
			continue
		}
		title := truncate(cleanText(item.Title), maxTitleRunes)
		link := strings.TrimSpace(item.Link)
		if title == "" || link == "" || seen[link] {
			continue
		}
		seen[link] = true
		articles = append(articles, store.NewArticle{
			Title:  title,
			URL:    link,
			Source: source.Name,
		})
	}
	return articles, nil
}

func published(item *gofeed.Item) *time.Time {
	if item.PublishedParsed != nil {
		return item.PublishedParsed
	}
	return item.UpdatedParsed
}

// HTMLFetcher collects headline links from a page using the source's CSS
// selector.
type HTMLFetcher struct {
	opts Options
}

func NewHTMLFetcher(opts Options) *HTMLFetcher {
	return &HTMLFetcher{opts: opts.withDefaults()}
}

func (f *HTMLFetcher) Fetch(ctx context.Context, source config.Source) ([]store.NewArticle, error) {
	base, err := url.Parse(source.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing url for %s: %w", source.Name, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", source.Name, err)
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)

	resp, err := f.opts.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", source.Name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: unexpected status %d", source.Name, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", source.Name, err)
	}

	seen := map[string]bool{}
	var articles []store.NewArticle
	doc.Find(source.Selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if f.opts.MaxPerSource > 0 && len(articles) >= f.opts.MaxPerSource {
			return false
		}
		link := s
		if goquery.NodeName(s) != "a" {
			link = s.Find("a[href]").First()
		}
		href, ok := link.Attr("href")
		if !ok {
			return true
		}
		title := cleanText(s.Text())
		if len([]rune(title)) < minHTMLTitleRunes {
			return true
		}
		abs := resolve(base, href)
		if abs == "" || seen[abs] {
			return true
		}
		seen[abs] = true
		articles = append(articles, store.NewArticle{
			Title:  truncate(title, maxTitleRunes),
			URL:    abs,
			Source: source.Name,
		})
		return true
	})
	return articles, nil
}

// resolve makes href absolute against base. Non-http links resolve to "".
func resolve(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	u := base.ResolveReference(ref)
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	u.Fragment = ""
	return u.String()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

// cleanText strips markup from s and collapses whitespace.
func cleanText(s string) string {
	if strings.ContainsAny(s, "<&") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			s = doc.Text()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}
