// Package stats queries the game stats service. Every request carries an
// auth token minted by authtoken for the requesting player id.
package stats

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/floatdrop/lru"
	"go.uber.org/zap"

	"bfstats/internal/authtoken"
)

const maxResponseSize = 1 << 20

var (
	ErrEmptyHost  = errors.New("stats: host is empty")
	ErrHTTPStatus = errors.New("stats: unexpected http status")
	ErrBadAuthPID = errors.New("stats: authpid is not a valid player id")
)

// TokenSource mints the auth token for a player id.
type TokenSource func(pid uint32) (string, error)

func defaultTokens(pid uint32) (string, error) {
	return authtoken.MakeToken(pid, false, 0)
}

type Client struct {
	host   string
	scheme string
	pid    uint32

	http   *http.Client
	lg     *zap.SugaredLogger
	tokens TokenSource

	mu    sync.Mutex
	cache *lru.LRU[string, Result]
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithScheme overrides the default "http" scheme.
func WithScheme(scheme string) ClientOption {
	return func(c *Client) { c.scheme = scheme }
}

func WithLogger(lg *zap.SugaredLogger) ClientOption {
	return func(c *Client) { c.lg = lg }
}

// WithCache keeps up to size successful results in memory, keyed by the
// request without its auth token. Zero disables caching.
func WithCache(size int) ClientOption {
	return func(c *Client) {
		if size > 0 {
			c.cache = lru.New[string, Result](size)
		} else {
			c.cache = nil
		}
	}
}

func WithTokenSource(ts TokenSource) ClientOption {
	return func(c *Client) { c.tokens = ts }
}

// NewClient returns a client for host that authenticates as pid unless a
// request names another player through the "authpid" parameter. host may
// carry a scheme prefix, which then overrides WithScheme.
func NewClient(host string, pid uint32, opts ...ClientOption) (*Client, error) {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if host == "" {
		return nil, ErrEmptyHost
	}
	c := &Client{
		host:   host,
		scheme: "http",
		pid:    pid,
		http:   http.DefaultClient,
		lg:     zap.NewNop().Sugar(),
		tokens: defaultTokens,
	}
	for _, o := range opts {
		o(c)
	}
	if i := strings.Index(c.host, "://"); i >= 0 {
		c.scheme, c.host = c.host[:i], c.host[i+3:]
	}
	if c.tokens == nil {
		c.tokens = defaultTokens
	}
	if c.lg == nil {
		c.lg = zap.NewNop().Sugar()
	}
	return c, nil
}

// PID returns the player id the client authenticates as by default.
func (c *Client) PID() uint32 { return c.pid }

// authPID returns the player id the request must be authenticated as: the
// "authpid" parameter when present, the client's pid otherwise. The
// parameter is sent to the service along with the others.
func (c *Client) authPID(params url.Values) (uint32, error) {
	s := params.Get("authpid")
	if s == "" {
		return c.pid, nil
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadAuthPID, s)
	}
	return uint32(n), nil
}

// RequestURI builds "/<function>.aspx?<params>&auth=<token>". Parameters
// are sorted by key. The token is appended unescaped; its alphabet is
// URL safe.
func RequestURI(function string, params url.Values, token string) string {
	var b strings.Builder
	b.WriteString("/")
	b.WriteString(function)
	b.WriteString(".aspx?")
	if q := params.Encode(); q != "" {
		b.WriteString(q)
		b.WriteString("&")
	}
	b.WriteString("auth=")
	b.WriteString(token)
	return b.String()
}

func cacheKey(function string, params url.Values, pid uint32) string {
	return function + "?" + params.Encode() + "#" + strconv.FormatUint(uint64(pid), 10)
}

func (c *Client) cached(key string) (Result, bool) {
	if c.cache == nil {
		return Result{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if v := c.cache.Get(key); v != nil {
		return v.clone(), true
	}
	return Result{}, false
}

func (c *Client) store(key string, res Result) {
	if c.cache == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Set(key, res.clone())
}

// Query calls function with params. A service-side error status yields
// both the parsed result and ErrServer.
func (c *Client) Query(ctx context.Context, function string, params url.Values) (*Result, error) {
	pid, err := c.authPID(params)
	if err != nil {
		return nil, err
	}
	key := cacheKey(function, params, pid)
	if res, ok := c.cached(key); ok {
		c.lg.Debugw("stats cache hit", "function", function)
		return &res, nil
	}

	token, err := c.tokens(pid)
	if err != nil {
		return nil, fmt.Errorf("auth token: %w", err)
	}
	uri := RequestURI(function, params, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.scheme+"://"+c.host+uri, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", ErrHTTPStatus, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	res, err := ParseResponse(string(body))
	if err != nil {
		c.lg.Warnw("stats query failed", "function", function, "authpid", pid, "error", err)
		return res, err
	}
	c.lg.Debugw("stats query", "function", function, "authpid", pid, "rows", len(res.Rows))
	c.store(key, *res)
	return res, nil
}

func (c *Client) GetLeaderboard(ctx context.Context, pos, after int, typ string, extra url.Values) (*Result, error) {
	params := url.Values{}
	for k, v := range extra {
		params[k] = v
	}
	params.Set("pos", strconv.Itoa(pos))
	params.Set("after", strconv.Itoa(after))
	params.Set("type", typ)
	return c.Query(ctx, "getleaderboard", params)
}

func (c *Client) GetPlayerInfo(ctx context.Context, mode string) (*Result, error) {
	return c.Query(ctx, "getplayerinfo", url.Values{"mode": {mode}})
}

func (c *Client) GetPlayerProgress(ctx context.Context, mode, scale string) (*Result, error) {
	if scale == "" {
		scale = "game"
	}
	return c.Query(ctx, "getplayerprogress", url.Values{"mode": {mode}, "scale": {scale}})
}

// GetUnlocksInfo is authenticated as pid itself.
func (c *Client) GetUnlocksInfo(ctx context.Context, pid uint32) (*Result, error) {
	return c.Query(ctx, "getunlocksinfo", url.Values{"authpid": {strconv.FormatUint(uint64(pid), 10)}})
}

func (c *Client) GetAwardsInfo(ctx context.Context, pid uint32) (*Result, error) {
	return c.Query(ctx, "getawardsinfo", url.Values{"pid": {strconv.FormatUint(uint64(pid), 10)}})
}

// GetBackendInfo is always authenticated as player 0.
func (c *Client) GetBackendInfo(ctx context.Context) (*Result, error) {
	return c.Query(ctx, "getbackendinfo", url.Values{"authpid": {"0"}})
}

func (c *Client) PlayerSearch(ctx context.Context, nick string) (*Result, error) {
	return c.Query(ctx, "playersearch", url.Values{"nick": {nick}})
}
