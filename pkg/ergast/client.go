// Package ergast talks to the Ergast-compatible F1 results API. It
// serves two roles: authoritative standings source and round-results
// provider for the points replay.
package ergast

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pitlane-data/pitwall/log"
	"github.com/pitlane-data/pitwall/pkg/model"
	"github.com/pitlane-data/pitwall/pkg/utils/cache"
	"github.com/pitlane-data/pitwall/pkg/utils/cache/loadercache"
)

const (
	DefaultBaseURL = "https://ergast.com/api/f1"
	// a race that started this long ago counts as concluded
	concludedAfter = 4 * time.Hour
)

// ResponseStore persists raw API bodies keyed by URL. Implementations
// must be idempotent; last writer wins.
type ResponseStore interface {
	Get(ctx context.Context, url string) ([]byte, bool, error)
	Put(ctx context.Context, url string, body []byte) error
	Close() error
}

type Client struct {
	baseURL  string
	client   *http.Client
	store    ResponseStore
	schedule cache.Cache[int, []Round]
	l        *log.Logger
}

type Option func(*Client)

func WithBaseURL(arg string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(arg, "/") }
}

func WithHTTPClient(arg *http.Client) Option {
	return func(c *Client) { c.client = arg }
}

// WithResponseStore adds an on-disk cache for response bodies. Only
// URLs whose payload is immutable (concluded rounds) are stored.
func WithResponseStore(arg ResponseStore) Option {
	return func(c *Client) { c.store = arg }
}

func WithLogger(arg *log.Logger) Option {
	return func(c *Client) { c.l = arg }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		l:       log.Default().Named("ergast"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.schedule = loadercache.New[int, []Round](
		loadercache.WithLoader[int, []Round](c.loadSchedule),
		loadercache.WithLogger[int, []Round](c.l.Named("schedule")),
	)
	return c
}

// Round is one scheduled event of a season.
type Round struct {
	Season int       `json:"season"`
	Round  int       `json:"round"`
	Name   string    `json:"name"`
	Start  time.Time `json:"start"`
}

// Schedule returns the season calendar, memoized per season.
func (c *Client) Schedule(ctx context.Context, season int) ([]Round, error) {
	rounds, err := c.schedule.Get(ctx, season)
	if err != nil {
		return nil, err
	}
	return *rounds, nil
}

// RoundConcluded reports whether the round's race start lies far
// enough in the past for its results to be final.
func (c *Client) RoundConcluded(ctx context.Context, season, round int) (bool, error) {
	rounds, err := c.Schedule(ctx, season)
	if err != nil {
		return false, err
	}
	for i := range rounds {
		if rounds[i].Round == round {
			return time.Since(rounds[i].Start) > concludedAfter, nil
		}
	}
	return false, fmt.Errorf("round %d not in %d schedule: %w", round, season, model.ErrNotAvailable)
}

// LatestConcludedRound returns the highest round of the season whose
// race has concluded, or model.ErrNotAvailable before the opener.
func (c *Client) LatestConcludedRound(ctx context.Context, season int) (int, error) {
	rounds, err := c.Schedule(ctx, season)
	if err != nil {
		return 0, err
	}
	latest := 0
	for i := range rounds {
		if time.Since(rounds[i].Start) > concludedAfter && rounds[i].Round > latest {
			latest = rounds[i].Round
		}
	}
	if latest == 0 {
		return 0, fmt.Errorf("season %d has no concluded round: %w", season, model.ErrNotAvailable)
	}
	return latest, nil
}

// DriverStandings fetches the official driver table after the given
// round; round 0 means the latest available. An empty standings list
// means the API has no data yet (model.ErrNotAvailable).
func (c *Client) DriverStandings(
	ctx context.Context, season, round int,
) (*model.Standings, error) {
	url := c.standingsURL(season, round, "driverStandings")
	storable := round > 0
	body, cached, err := c.get(ctx, url, storable)
	if err != nil {
		return nil, err
	}
	var payload mrData
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode driver standings: %w", err)
	}
	lists := payload.MRData.StandingsTable.StandingsLists
	if len(lists) == 0 {
		return nil, model.ErrNotAvailable
	}
	list := &lists[0]

	entries := make([]model.StandingsEntry, 0, len(list.DriverStandings))
	for i := range list.DriverStandings {
		node := &list.DriverStandings[i]
		entry, err := node.standing.entry(node.Driver.Code, node.Driver.fullName())
		if err != nil {
			return nil, fmt.Errorf("driver standings row %d: %w", i, err)
		}
		if len(node.Constructors) > 0 {
			entry.Team = node.Constructors[len(node.Constructors)-1].Name
		}
		entries = append(entries, entry)
	}
	if storable && !cached {
		c.putStore(ctx, url, body)
	}
	return c.standings(list, season, model.ClassDriver, entries)
}

// ConstructorStandings is the constructor counterpart of
// DriverStandings.
func (c *Client) ConstructorStandings(
	ctx context.Context, season, round int,
) (*model.Standings, error) {
	url := c.standingsURL(season, round, "constructorStandings")
	storable := round > 0
	body, cached, err := c.get(ctx, url, storable)
	if err != nil {
		return nil, err
	}
	var payload mrData
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode constructor standings: %w", err)
	}
	lists := payload.MRData.StandingsTable.StandingsLists
	if len(lists) == 0 {
		return nil, model.ErrNotAvailable
	}
	list := &lists[0]

	entries := make([]model.StandingsEntry, 0, len(list.ConstructorStandings))
	for i := range list.ConstructorStandings {
		node := &list.ConstructorStandings[i]
		entry, err := node.standing.entry(node.Constructor.Name, node.Constructor.Name)
		if err != nil {
			return nil, fmt.Errorf("constructor standings row %d: %w", i, err)
		}
		entries = append(entries, entry)
	}
	if storable && !cached {
		c.putStore(ctx, url, body)
	}
	return c.standings(list, season, model.ClassConstructor, entries)
}

// SessionResults returns the classified rows of a race or sprint.
// A sprint that was never scheduled comes back as
// model.ErrNotAvailable.
func (c *Client) SessionResults(
	ctx context.Context, season, round int, kind model.SessionKind,
) ([]model.ResultRow, error) {
	endpoint := "results"
	if kind == model.SessionSprint {
		endpoint = "sprint"
	}
	url := fmt.Sprintf("%s/%d/%d/%s.json", c.baseURL, season, round, endpoint)
	body, cached, err := c.get(ctx, url, true)
	if err != nil {
		return nil, err
	}
	var payload mrData
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode %s results: %w", endpoint, err)
	}
	races := payload.MRData.RaceTable.Races
	if len(races) == 0 {
		return nil, model.ErrNotAvailable
	}
	nodes := races[0].Results
	if kind == model.SessionSprint {
		nodes = races[0].SprintResults
	}
	if len(nodes) == 0 {
		return nil, model.ErrNotAvailable
	}

	rows := make([]model.ResultRow, 0, len(nodes))
	for i := range nodes {
		node := &nodes[i]
		row := model.ResultRow{
			CompetitorID: node.Driver.Code,
			DriverName:   node.Driver.fullName(),
			TeamName:     node.Constructor.Name,
		}
		// positionText is numeric for classified finishers only
		// ("R", "D", "W" otherwise)
		if pos, err := strconv.Atoi(node.PositionText); err == nil {
			row.Position = &pos
		}
		if node.FastestLap != nil {
			if d, err := ParseLapTime(node.FastestLap.Time.Time); err == nil {
				row.FastestLap = &d
			}
		}
		rows = append(rows, row)
	}
	if !cached {
		c.putStore(ctx, url, body)
	}
	return rows, nil
}

func (c *Client) standingsURL(season, round int, endpoint string) string {
	if round > 0 {
		return fmt.Sprintf("%s/%d/%d/%s.json", c.baseURL, season, round, endpoint)
	}
	return fmt.Sprintf("%s/%d/%s.json", c.baseURL, season, endpoint)
}

func (c *Client) standings(
	list *standingsList, season int, class model.CompetitorClass, entries []model.StandingsEntry,
) (*model.Standings, error) {
	round, err := strconv.Atoi(list.Round)
	if err != nil {
		return nil, fmt.Errorf("standings round %q: %w", list.Round, err)
	}
	return &model.Standings{
		Season:  season,
		Round:   round,
		Class:   class,
		Entries: entries,
		Source:  "ergast",
	}, nil
}

// get fetches a URL, consulting the response store first when the
// payload is expected to be immutable. It never writes to the store:
// callers persist via putStore once the payload proved to carry data.
// The second return reports a store hit.
func (c *Client) get(ctx context.Context, url string, storable bool) ([]byte, bool, error) {
	if c.store != nil && storable {
		body, ok, err := c.store.Get(ctx, url)
		if err != nil {
			c.l.Warn("response store read failed", log.String("url", url), log.ErrorField(err))
		} else if ok {
			return body, true, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("request %s: unexpected status %s", url, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", url, err)
	}
	return body, false, nil
}

// putStore persists a response body. A round queried before it ran
// answers with an empty payload under the same URL, so callers must
// only store bodies that decoded to actual data; pinning the empty
// answer would keep reporting "not available" after the session.
func (c *Client) putStore(ctx context.Context, url string, body []byte) {
	if c.store == nil {
		return
	}
	if err := c.store.Put(ctx, url, body); err != nil {
		c.l.Warn("response store write failed", log.String("url", url), log.ErrorField(err))
	}
}

func (c *Client) loadSchedule(ctx context.Context, season int) (*[]Round, error) {
	url := fmt.Sprintf("%s/%d.json", c.baseURL, season)
	body, _, err := c.get(ctx, url, false)
	if err != nil {
		return nil, err
	}
	var payload mrData
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode schedule: %w", err)
	}
	races := payload.MRData.RaceTable.Races
	if len(races) == 0 {
		return nil, model.ErrNotAvailable
	}
	rounds := make([]Round, 0, len(races))
	for i := range races {
		node := &races[i]
		round, err := strconv.Atoi(node.Round)
		if err != nil {
			return nil, fmt.Errorf("schedule round %q: %w", node.Round, err)
		}
		start, err := node.start()
		if err != nil {
			return nil, fmt.Errorf("schedule round %d: %w", round, err)
		}
		rounds = append(rounds, Round{
			Season: season,
			Round:  round,
			Name:   node.RaceName,
			Start:  start,
		})
	}
	return &rounds, nil
}

// ParseLapTime converts the API's lap-time rendering ("1:27.097" or
// plain seconds) to a duration.
func ParseLapTime(arg string) (time.Duration, error) {
	arg = strings.TrimSpace(arg)
	var spec string
	if idx := strings.Index(arg, ":"); idx >= 0 {
		spec = arg[:idx] + "m" + arg[idx+1:] + "s"
	} else {
		spec = arg + "s"
	}
	d, err := time.ParseDuration(spec)
	if err != nil {
		return 0, fmt.Errorf("lap time %q: %w", arg, err)
	}
	return d, nil
}

// wire types (Ergast MRData envelope)

type mrData struct {
	MRData struct {
		StandingsTable struct {
			StandingsLists []standingsList `json:"StandingsLists"`
		} `json:"StandingsTable"`
		RaceTable struct {
			Races []raceNode `json:"Races"`
		} `json:"RaceTable"`
	} `json:"MRData"`
}

type standingsList struct {
	Season               string                    `json:"season"`
	Round                string                    `json:"round"`
	DriverStandings      []driverStandingNode      `json:"DriverStandings"`
	ConstructorStandings []constructorStandingNode `json:"ConstructorStandings"`
}

type standing struct {
	Position string `json:"position"`
	Points   string `json:"points"`
	Wins     string `json:"wins"`
}

func (s *standing) entry(id, name string) (model.StandingsEntry, error) {
	position, err := strconv.Atoi(s.Position)
	if err != nil {
		return model.StandingsEntry{}, fmt.Errorf("position %q: %w", s.Position, err)
	}
	points, err := decimal.NewFromString(s.Points)
	if err != nil {
		return model.StandingsEntry{}, fmt.Errorf("points %q: %w", s.Points, err)
	}
	wins, err := strconv.Atoi(s.Wins)
	if err != nil {
		return model.StandingsEntry{}, fmt.Errorf("wins %q: %w", s.Wins, err)
	}
	return model.StandingsEntry{
		Position:     position,
		CompetitorID: id,
		Name:         name,
		Points:       points,
		Wins:         wins,
	}, nil
}

type driverStandingNode struct {
	standing
	Driver       driverNode        `json:"Driver"`
	Constructors []constructorNode `json:"Constructors"`
}

type constructorStandingNode struct {
	standing
	Constructor constructorNode `json:"Constructor"`
}

type driverNode struct {
	Code       string `json:"code"`
	GivenName  string `json:"givenName"`
	FamilyName string `json:"familyName"`
}

func (d *driverNode) fullName() string {
	return strings.TrimSpace(d.GivenName + " " + d.FamilyName)
}

type constructorNode struct {
	Name string `json:"name"`
}

type raceNode struct {
	Season        string       `json:"season"`
	Round         string       `json:"round"`
	RaceName      string       `json:"raceName"`
	Date          string       `json:"date"`
	Time          string       `json:"time"`
	Results       []resultNode `json:"Results"`
	SprintResults []resultNode `json:"SprintResults"`
}

func (r *raceNode) start() (time.Time, error) {
	if r.Time != "" {
		return time.Parse(time.RFC3339, r.Date+"T"+r.Time)
	}
	return time.Parse("2006-01-02", r.Date)
}

type resultNode struct {
	PositionText string          `json:"positionText"`
	Driver       driverNode      `json:"Driver"`
	Constructor  constructorNode `json:"Constructor"`
	FastestLap   *struct {
		Time struct {
			Time string `json:"time"`
		} `json:"Time"`
	} `json:"FastestLap"`
}
