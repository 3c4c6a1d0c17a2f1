package datasource

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/seenimoa/marketlens/pkg/models"
	"github.com/seenimoa/marketlens/pkg/utils"
)

// defaultPublisher is used when a feed item names no author.
const defaultPublisher = "Yahoo Finance"

// News returns up to limit headlines for ticker from the Yahoo Finance RSS
// feed, newest first. A non-positive limit returns every item.
func (y *Yahoo) News(ctx context.Context, ticker string, limit int) ([]models.NewsArticle, error) {
	symbol := utils.ToYahooSymbol(ticker)
	u := fmt.Sprintf("%s/rss/2.0/headline?s=%s&region=US&lang=en-US", y.endpoints.Feeds, url.QueryEscape(symbol))

	data, err := y.client.Get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("yahoo news %s: %w", symbol, err)
	}
	feed, err := y.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: parse RSS for %s: %v", ErrProviderUnavailable, symbol, err)
	}

	articles := feedArticles(feed, symbol)
	if limit > 0 && len(articles) > limit {
		articles = articles[:limit]
	}
	return articles, nil
}

// feedArticles converts feed items into articles sorted newest first.
func feedArticles(feed *gofeed.Feed, source string) []models.NewsArticle {
	articles := make([]models.NewsArticle, 0, len(feed.Items))
	for _, item := range feed.Items {
		if strings.TrimSpace(item.Title) == "" {
			continue
		}
		a := models.NewsArticle{
			Title:     strings.TrimSpace(item.Title),
			Link:      item.Link,
			Publisher: defaultPublisher,
			Summary:   cleanHTML(item.Description),
			Thumbnail: thumbnail(item),
			Source:    source,
		}
		if item.Author != nil && item.Author.Name != "" {
			a.Publisher = item.Author.Name
		}
		if item.PublishedParsed != nil {
			a.PublishTime = item.PublishedParsed.Unix()
		}
		articles = append(articles, a)
	}
	SortNewestFirst(articles)
	return articles
}

// thumbnail returns the item image or the last media:content URL.
func thumbnail(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	media, ok := item.Extensions["media"]
	if !ok {
		return ""
	}
	contents := media["content"]
	for i := len(contents) - 1; i >= 0; i-- {
		if u := contents[i].Attrs["url"]; u != "" {
			return u
		}
	}
	return ""
}

// SortNewestFirst orders articles by publish time, newest first.
func SortNewestFirst(articles []models.NewsArticle) {
	sort.SliceStable(articles, func(i, j int) bool { return articles[i].PublishTime > articles[j].PublishTime })
}

// cleanHTML strips HTML tags from a string using goquery.
func cleanHTML(s string) string {
	if s == "" || !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}
