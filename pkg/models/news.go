package models

// NewsArticle is a headline linked to one or more tickers.
type NewsArticle struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Publisher   string `json:"publisher"`
	Summary     string `json:"summary,omitempty"`
	PublishTime int64  `json:"providerPublishTime"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	Source      string `json:"source,omitempty"`
}
