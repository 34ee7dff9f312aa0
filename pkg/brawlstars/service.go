// Package brawlstars exposes the Brawl Stars API endpoints as typed Go
// methods on top of the resilient client.
//
// Example usage:
//
//	c, err := client.New(client.DefaultConfig(token))
//	if err != nil {
//		return err
//	}
//	defer c.Close()
//
//	svc := brawlstars.NewService(c)
//	player, err := svc.Player(ctx, "#2PP")
package brawlstars

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Sternrassler/brawl-client/pkg/client"
	"github.com/Sternrassler/brawl-client/pkg/logging"
	"github.com/Sternrassler/brawl-client/pkg/pagination"
	"github.com/rs/zerolog"
)

// Requester executes logical API requests. *client.Client implements it.
type Requester interface {
	Execute(ctx context.Context, r client.Request) (json.RawMessage, error)
}

// Service binds endpoint paths and response models to a Requester.
type Service struct {
	api    Requester
	batch  pagination.Config
	logger zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithBatchConfig sets the worker pool used by batch methods.
func WithBatchConfig(cfg pagination.Config) Option {
	return func(s *Service) { s.batch = cfg }
}

// WithLogger overrides the component logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService creates a Service. It panics if api is nil.
func NewService(api Requester, opts ...Option) *Service {
	if api == nil {
		panic("brawlstars: requester cannot be nil")
	}

	s := &Service{
		api:    api,
		batch:  pagination.DefaultConfig(),
		logger: logging.NewLogger("brawlstars"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// decode executes r and unmarshals the body into T.
func decode[T any](ctx context.Context, api Requester, r client.Request) (T, error) {
	var result T

	data, err := api.Execute(ctx, r)
	if err != nil {
		return result, err
	}

	if err := json.Unmarshal(data, &result); err != nil {
		return result, &client.APIError{
			StatusCode: http.StatusOK,
			Class:      client.ErrorClassDecode,
			Reason:     "Decode Error",
			Message:    fmt.Sprintf("decode %s response into %T", r.Name, result),
			Err:        err,
		}
	}
	return result, nil
}

// Player returns a player profile.
func (s *Service) Player(ctx context.Context, tag string) (*Player, error) {
	req, err := tagRequest("player", pathPlayer, tag)
	if err != nil {
		return nil, err
	}

	player, err := decode[Player](ctx, s.api, req)
	if err != nil {
		return nil, err
	}
	return &player, nil
}

// BattleLog returns a player's recent battles.
func (s *Service) BattleLog(ctx context.Context, tag string) (*Page[BattleLogEntry], error) {
	req, err := tagRequest("battlelog", pathBattleLog, tag)
	if err != nil {
		return nil, err
	}

	page, err := decode[Page[BattleLogEntry]](ctx, s.api, req)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// Club returns a club profile.
func (s *Service) Club(ctx context.Context, tag string) (*Club, error) {
	req, err := tagRequest("club", pathClub, tag)
	if err != nil {
		return nil, err
	}

	club, err := decode[Club](ctx, s.api, req)
	if err != nil {
		return nil, err
	}
	return &club, nil
}

// ClubMembers returns one page of a club's members.
func (s *Service) ClubMembers(ctx context.Context, tag string, opts PageOptions) (*Page[ClubMember], error) {
	req, err := tagRequest("club_members", pathClubMembers, tag)
	if err != nil {
		return nil, err
	}
	if req.Query, err = opts.params(defaultMemberLimit); err != nil {
		return nil, err
	}

	page, err := decode[Page[ClubMember]](ctx, s.api, req)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// AllClubMembers follows the member list's cursors and returns every member.
func (s *Service) AllClubMembers(ctx context.Context, tag string) ([]ClubMember, error) {
	return pagination.Collect(ctx, func(ctx context.Context, after string) ([]ClubMember, string, error) {
		page, err := s.ClubMembers(ctx, tag, PageOptions{After: after})
		if err != nil {
			return nil, "", err
		}
		return page.Items, page.Paging.Cursors.After, nil
	}, 0)
}

// GameModes returns the game mode catalogue.
func (s *Service) GameModes(ctx context.Context, opts PageOptions) (*Page[GameMode], error) {
	query, err := opts.params(defaultCatalogueLimit)
	if err != nil {
		return nil, err
	}

	page, err := decode[Page[GameMode]](ctx, s.api, client.Request{
		Name:  "gamemodes",
		Path:  pathGameModes,
		Query: query,
		TTL:   CatalogueTTL,
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// Events returns the current map rotation.
func (s *Service) Events(ctx context.Context) ([]EventEntry, error) {
	return decode[[]EventEntry](ctx, s.api, client.Request{
		Name: "events",
		Path: pathEvents,
		TTL:  EventsTTL,
	})
}

// Brawlers returns the brawler catalogue.
func (s *Service) Brawlers(ctx context.Context, opts PageOptions) (*Page[Brawler], error) {
	query, err := opts.params(defaultCatalogueLimit)
	if err != nil {
		return nil, err
	}

	page, err := decode[Page[Brawler]](ctx, s.api, client.Request{
		Name:  "brawlers",
		Path:  pathBrawlers,
		Query: query,
		TTL:   CatalogueTTL,
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// Brawler returns one brawler by ID.
func (s *Service) Brawler(ctx context.Context, id int) (*Brawler, error) {
	brawler, err := decode[Brawler](ctx, s.api, client.Request{
		Name: "brawler",
		Path: fmt.Sprintf(pathBrawler, id),
		TTL:  CatalogueTTL,
	})
	if err != nil {
		return nil, err
	}
	return &brawler, nil
}

// PlayerRankings returns a country's player leaderboard. An empty country
// means GlobalRankings.
func (s *Service) PlayerRankings(ctx context.Context, country string, opts PageOptions) (*Page[PlayerRanking], error) {
	query, err := opts.params(defaultRankingLimit)
	if err != nil {
		return nil, err
	}

	page, err := decode[Page[PlayerRanking]](ctx, s.api, client.Request{
		Name:  "rankings_players",
		Path:  fmt.Sprintf(pathPlayerRankings, countryPath(country)),
		Query: query,
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// ClubRankings returns a country's club leaderboard.
func (s *Service) ClubRankings(ctx context.Context, country string, opts PageOptions) (*Page[ClubRanking], error) {
	query, err := opts.params(defaultRankingLimit)
	if err != nil {
		return nil, err
	}

	page, err := decode[Page[ClubRanking]](ctx, s.api, client.Request{
		Name:  "rankings_clubs",
		Path:  fmt.Sprintf(pathClubRankings, countryPath(country)),
		Query: query,
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// BrawlerRankings returns a country's leaderboard for one brawler.
func (s *Service) BrawlerRankings(ctx context.Context, country string, brawlerID int, opts PageOptions) (*Page[PlayerRanking], error) {
	query, err := opts.params(defaultRankingLimit)
	if err != nil {
		return nil, err
	}

	page, err := decode[Page[PlayerRanking]](ctx, s.api, client.Request{
		Name:  "rankings_brawlers",
		Path:  fmt.Sprintf(pathBrawlerRankings, countryPath(country), brawlerID),
		Query: query,
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// Players fetches several profiles concurrently, keyed by the tags as
// given. Profiles that failed are missing from the map and reported in the
// joined error.
func (s *Service) Players(ctx context.Context, tags []string) (map[string]*Player, error) {
	players, err := pagination.FetchAll(ctx, s.batch, tags, s.Player)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Int("requested", len(tags)).
			Int("fetched", len(players)).
			Msg("Batch player fetch incomplete")
	}
	return players, err
}
