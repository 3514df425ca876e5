// Twitter-style API implementation of [Backend]
//
// Response types follow the v1.1 status object.
package services

import (
	"context"
	"net/http"
	"net/url"

	"github.com/desertthunder/twx/internal/models"
)

const defaultTwitterBaseURL = "https://api.twitter.com"

// TwitterUserMention is an entry of entities.user_mentions.
type TwitterUserMention struct {
	IDStr      string `json:"id_str"`
	ScreenName string `json:"screen_name"`
}

type twitterEntities struct {
	UserMentions []TwitterUserMention `json:"user_mentions"`
}

// TwitterStatus is the status object returned by favorites/create.
type TwitterStatus struct {
	IDStr         string          `json:"id_str"`
	Text          string          `json:"text"`
	Favorited     bool            `json:"favorited"`
	ReplyCount    int64           `json:"reply_count"`
	RetweetCount  int64           `json:"retweet_count"`
	FavoriteCount int64           `json:"favorite_count"`
	Entities      twitterEntities `json:"entities"`
}

// TwitterClient calls the Twitter-style REST API.
type TwitterClient struct {
	apiClient
}

// NewTwitterClient creates a client rooted at baseURL; an empty baseURL uses the public API.
func NewTwitterClient(baseURL string, httpClient *http.Client) *TwitterClient {
	if baseURL == "" {
		baseURL = defaultTwitterBaseURL
	}
	return &TwitterClient{apiClient: newAPIClient("twitter", baseURL, httpClient)}
}

// CreateFavorite calls POST /1.1/favorites/create.json with form id=<statusID>.
func (c *TwitterClient) CreateFavorite(ctx context.Context, account models.Account, statusID string) (*TwitterStatus, error) {
	var status TwitterStatus
	form := url.Values{"id": {statusID}}
	if err := c.post(ctx, account, "/1.1/favorites/create.json", form, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Backend returns the client paired with its normalizer.
func (c *TwitterClient) Backend() Backend {
	return backend[TwitterStatus]{call: c.CreateFavorite, normalize: normalizeTwitter}
}

func normalizeTwitter(account models.Account, s *TwitterStatus) *models.FavoriteResult {
	ids := make([]string, len(s.Entities.UserMentions))
	for i, m := range s.Entities.UserMentions {
		ids[i] = m.IDStr
	}

	return &models.FavoriteResult{
		StatusID:      s.IDStr,
		IsFavorite:    s.Favorited,
		ReplyCount:    s.ReplyCount,
		RepostCount:   s.RetweetCount,
		FavoriteCount: s.FavoriteCount,
		Mentions:      mentionKeys(account, ids...),
	}
}
