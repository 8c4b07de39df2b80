package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"duels-tracker/internal/config"
	"duels-tracker/internal/domain"

	"github.com/valyala/fasthttp"
)

const (
	feedURL  = "https://www.geoguessr.com/api/v4/feed/private"
	duelsURL = "https://game-server.geoguessr.com/api/duels"
)

// GeoClient talks to the GeoGuessr private feed and duels APIs. All
// requests carry the _ncfa session cookie of the authenticated player.
type GeoClient struct {
	ncfaToken string
	client    *fasthttp.Client
}

func NewGeoClient(cfg *config.Config) *GeoClient {
	return &GeoClient{
		ncfaToken: cfg.NcfaToken,
		client: &fasthttp.Client{
			MaxConnsPerHost:     16,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

// GetPlayerInfo resolves the authenticated account from the first feed
// entry. An empty feed means the token is invalid or expired.
func (c *GeoClient) GetPlayerInfo(ctx context.Context) (*domain.PlayerInfo, error) {
	page, err := doRequest[FeedPage](ctx, c, feedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch player info: %w", err)
	}
	if len(page.Entries) == 0 || page.Entries[0].User == nil {
		return nil, fmt.Errorf("no entries in feed, session token may be invalid")
	}
	user := page.Entries[0].User
	return &domain.PlayerInfo{ID: user.ID, Nick: user.Nick}, nil
}

// GetFeedPage fetches one page of the activity feed. paginationToken is
// empty for the first page.
func (c *GeoClient) GetFeedPage(ctx context.Context, paginationToken string) (*FeedPage, error) {
	u := feedURL
	if paginationToken != "" {
		u = fmt.Sprintf("%s?paginationToken=%s", feedURL, url.QueryEscape(paginationToken))
	}
	return doRequest[FeedPage](ctx, c, u)
}

// GetGameDetail fetches the full duel payload for one game token.
func (c *GeoClient) GetGameDetail(ctx context.Context, gameID string) (*Game, error) {
	return doRequest[Game](ctx, c, fmt.Sprintf("%s/%s", duelsURL, url.PathEscape(gameID)))
}

func doRequest[T any](ctx context.Context, client *GeoClient, url string) (*T, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetCookie("_ncfa", client.ncfaToken)

	deadline, ok := ctx.Deadline()
	if ok {
		if err := client.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, err
		}
	} else {
		if err := client.client.Do(req, resp); err != nil {
			return nil, err
		}
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("API error: %d", resp.StatusCode())
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type FeedPage struct {
	Entries         []FeedEntry `json:"entries"`
	PaginationToken string      `json:"paginationToken"`
}

// FeedEntry is one activity event. Payload is an opaque JSON string whose
// shape varies per event type; the processor decodes it.
type FeedEntry struct {
	Time    time.Time `json:"time"`
	User    *FeedUser `json:"user"`
	Payload string    `json:"payload"`
}

type FeedUser struct {
	ID   string `json:"id"`
	Nick string `json:"nick"`
}

// Game is the raw duel payload from the game server. Optional fields are
// pointers so a missing value never reads as a real zero.
type Game struct {
	GameID             string  `json:"gameId"`
	CurrentRoundNumber int     `json:"currentRoundNumber"`
	Options            Options `json:"options"`
	Teams              []Team  `json:"teams"`
	Rounds             []Round `json:"rounds"`
}

type Options struct {
	Map struct {
		Name string `json:"name"`
	} `json:"map"`
	CompetitiveGameMode string          `json:"competitiveGameMode"`
	MovementOptions     MovementOptions `json:"movementOptions"`
}

type MovementOptions struct {
	ForbidMoving   bool `json:"forbidMoving"`
	ForbidZooming  bool `json:"forbidZooming"`
	ForbidRotating bool `json:"forbidRotating"`
}

type Team struct {
	ID      string       `json:"id"`
	Health  *float64     `json:"health"`
	Players []TeamPlayer `json:"players"`
}

type TeamPlayer struct {
	PlayerID       string          `json:"playerId"`
	CountryCode    string          `json:"countryCode"`
	Rating         *float64        `json:"rating"`
	ProgressChange *ProgressChange `json:"progressChange"`
	Guesses        []Guess         `json:"guesses"`
}

type ProgressChange struct {
	CompetitiveProgress  *RatingProgress `json:"competitiveProgress"`
	RankedSystemProgress *RatingProgress `json:"rankedSystemProgress"`
}

type RatingProgress struct {
	RatingBefore *float64 `json:"ratingBefore"`
	RatingAfter  *float64 `json:"ratingAfter"`
}

type Guess struct {
	RoundNumber int     `json:"roundNumber"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	// meters
	Distance float64 `json:"distance"`
	Score    int     `json:"score"`
}

type Round struct {
	RoundNumber      int        `json:"roundNumber"`
	StartTime        *time.Time `json:"startTime"`
	DamageMultiplier *float64   `json:"damageMultiplier"`
	Panorama         Panorama   `json:"panorama"`
}

type Panorama struct {
	CountryCode string  `json:"countryCode"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
}
