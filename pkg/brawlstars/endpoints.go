package brawlstars

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Sternrassler/brawl-client/pkg/client"
)

// Path templates relative to the API base URL.
const (
	pathPlayer          = "/players/%s"
	pathBattleLog       = "/players/%s/battlelog"
	pathClub            = "/clubs/%s"
	pathClubMembers     = "/clubs/%s/members"
	pathGameModes       = "/gamemodes"
	pathEvents          = "/events/rotation"
	pathBrawlers        = "/brawlers"
	pathBrawler         = "/brawlers/%d"
	pathPlayerRankings  = "/rankings/%s/players"
	pathClubRankings    = "/rankings/%s/clubs"
	pathBrawlerRankings = "/rankings/%s/brawlers/%d"
)

// Cache lifetimes for data that changes rarely. Everything else uses the
// client's default TTL.
const (
	CatalogueTTL = 24 * time.Hour
	EventsTTL    = time.Hour
)

// Default page sizes per list.
const (
	defaultMemberLimit    = 30
	defaultCatalogueLimit = 100
	defaultRankingLimit   = 200
)

// GlobalRankings is the country code of the worldwide leaderboards.
const GlobalRankings = "global"

// PageOptions selects a page of a list endpoint. After and Before are
// mutually exclusive.
type PageOptions struct {
	// Limit is the page size; zero uses the endpoint default.
	Limit int

	// After requests the page following this cursor.
	After string

	// Before requests the page preceding this cursor.
	Before string
}

// Validate rejects option sets the API would refuse.
func (o PageOptions) Validate() error {
	if o.After != "" && o.Before != "" {
		return client.NewBadRequest(
			"Incorrect query_params",
			"Cannot specify both 'after' and 'before' pagination markers. Choose one or neither.",
		)
	}
	if o.Limit < 0 {
		return client.NewBadRequest("Incorrect query_params", "limit must not be negative")
	}
	return nil
}

func (o PageOptions) params(defaultLimit int) (client.Params, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	limit := o.Limit
	if limit == 0 {
		limit = defaultLimit
	}

	p := client.Params{"limit": limit}
	if o.After != "" {
		p["after"] = o.After
	}
	if o.Before != "" {
		p["before"] = o.Before
	}
	return p, nil
}

func countryPath(country string) string {
	country = strings.TrimSpace(country)
	if country == "" {
		country = GlobalRankings
	}
	return url.PathEscape(country)
}

func tagRequest(name, template, tag string) (client.Request, error) {
	normalized, err := NormalizeTag(tag)
	if err != nil {
		return client.Request{}, err
	}
	return client.Request{Name: name, Path: fmt.Sprintf(template, normalized)}, nil
}
