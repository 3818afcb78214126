// Package rest is a Remote for backends speaking the Parse REST protocol:
// objects live under /classes/<Type>, queries take a JSON "where" document,
// and relations are queried with $relatedTo.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/tidwall/gjson"

	"github.com/nagiek/rendr/breaker"
	"github.com/nagiek/rendr/contextx"
	"github.com/nagiek/rendr/model"
	"github.com/nagiek/rendr/registry"
	"github.com/nagiek/rendr/remote"
	"github.com/nagiek/rendr/retry"
)

// Header names sent with every request.
const (
	HeaderApplicationID = "X-Parse-Application-Id"
	HeaderRESTKey       = "X-Parse-REST-API-Key"
	HeaderSessionToken  = "X-Parse-Session-Token"
	HeaderRequestID     = "X-Request-Id"
)

// queryOptions are params passed through as query options instead of where
// constraints.
var queryOptions = []string{"limit", "skip", "order", "include", "keys"}

// maxErrorBody caps how much of a non-2xx response is read.
const maxErrorBody = 4 << 10

// ErrNoBaseURL is returned by New without a BaseURL.
var ErrNoBaseURL = errors.New("rest: base URL is required")

// Config configures a Client.
type Config struct {
	// BaseURL is the API root, for example https://api.example.com/parse.
	BaseURL       string
	ApplicationID string
	RESTKey       string

	// Timeout bounds each HTTP attempt. Zero means no per-attempt bound.
	Timeout time.Duration

	// Retry applies to transport errors, 429 and 5xx responses. The
	// default is a single attempt.
	Retry retry.Config

	// Breaker, when set, stops calling a failing backend.
	Breaker *breaker.Breaker

	HTTPClient *http.Client
	Registry   registry.Registry
	Logger     log.Interface
}

// Client implements remote.Remote over HTTP.
type Client struct {
	base    *url.URL
	appID   string
	restKey string
	timeout time.Duration
	retry   retry.Config
	breaker *breaker.Breaker
	http    *http.Client
	reg     registry.Registry
	log     log.Interface
}

// New creates a Client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, ErrNoBaseURL
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("rest: parsing base URL: %w", err)
	}
	c := &Client{
		base:    base,
		appID:   cfg.ApplicationID,
		restKey: cfg.RESTKey,
		timeout: cfg.Timeout,
		retry:   cfg.Retry,
		breaker: cfg.Breaker,
		http:    cfg.HTTPClient,
		reg:     cfg.Registry,
		log:     cfg.Logger,
	}
	if c.retry.Retryable == nil {
		c.retry.Retryable = Transient
	}
	if c.http == nil {
		c.http = http.DefaultClient
	}
	if c.log == nil {
		c.log = log.Log
	}
	return c, nil
}

// FetchEntity gets an object by id, or the first object matching the params.
func (c *Client) FetchEntity(ctx context.Context, s *model.EntitySpec) (*model.Entity, error) {
	if s.ID != "" {
		body, err := c.get(ctx, s, classPath(s.Type, s.ID), nil)
		if err != nil {
			return nil, err
		}
		return c.entity(s.Type, gjson.ParseBytes(body)), nil
	}

	q, err := query(s.Params, nil)
	if err != nil {
		return nil, remote.NewFetchError(s, 0, nil, err)
	}
	q.Set("limit", "1")
	body, err := c.get(ctx, s, classPath(s.Type, ""), q)
	if err != nil {
		return nil, err
	}
	first := gjson.GetBytes(body, "results.0")
	if !first.Exists() {
		return nil, remote.NotFound(s)
	}
	return c.entity(s.Type, first), nil
}

// FetchCollection queries the collection's entity type. Relation specs are
// answered with a $relatedTo constraint on the parent.
func (c *Client) FetchCollection(ctx context.Context, s *model.CollectionSpec) (*model.Collection, error) {
	typ := registry.EntityTypeOr(c.reg, s.Type)
	q, err := query(s.Params, s.Relation)
	if err != nil {
		return nil, remote.NewFetchError(s, 0, nil, err)
	}
	q.Set("count", "1")
	body, err := c.get(ctx, s, classPath(typ, ""), q)
	if err != nil {
		return nil, err
	}

	res := gjson.ParseBytes(body)
	rows := res.Get("results").Array()
	items := make([]*model.Entity, 0, len(rows))
	for _, row := range rows {
		items = append(items, c.entity(typ, row))
	}
	meta := map[string]any{}
	if n := res.Get("count"); n.Exists() {
		meta["count"] = n.Int()
	}
	return &model.Collection{Type: s.Type, Params: s.CacheParams(), Items: items, Meta: meta}, nil
}

func (c *Client) entity(typ string, obj gjson.Result) *model.Entity {
	attrs, _ := obj.Value().(map[string]any)
	id := obj.Get(gjson.Escape(registry.IDAttributeOr(c.reg, typ))).String()
	return model.NewEntity(typ, id, attrs)
}

// get performs a GET with retries, guarded by the breaker.
func (c *Client) get(ctx context.Context, s model.Spec, path string, q url.Values) ([]byte, error) {
	body, err := retry.Do(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		return breaker.Call(c.breaker, Transient, func() ([]byte, error) {
			return c.do(ctx, s, path, q)
		})
	})
	if errors.Is(err, breaker.ErrOpen) {
		return nil, remote.NewFetchError(s, http.StatusServiceUnavailable, nil, err)
	}
	return body, err
}

func (c *Client) do(ctx context.Context, s model.Spec, path string, q url.Values) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	u := *c.base
	u.Path += path
	u.RawQuery = q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, remote.NewFetchError(s, 0, nil, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.appID != "" {
		req.Header.Set(HeaderApplicationID, c.appID)
	}
	if c.restKey != "" {
		req.Header.Set(HeaderRESTKey, c.restKey)
	}
	if tok := contextx.SessionToken(ctx); tok != "" {
		req.Header.Set(HeaderSessionToken, tok)
	}
	if id := contextx.RequestIDFromContext(ctx); id != "" {
		req.Header.Set(HeaderRequestID, id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, remote.NewFetchError(s, 0, nil, err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, remote.NewFetchError(s, resp.StatusCode, nil, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.WithFields(log.Fields{
			"type":   s.TypeName(),
			"status": resp.StatusCode,
			"error":  gjson.GetBytes(body, "error").String(),
		}).Debug("upstream rejected request")
		return nil, remote.NewFetchError(s, resp.StatusCode, body, nil)
	}
	if !gjson.ValidBytes(body) {
		return nil, remote.NewFetchError(s, resp.StatusCode, body, errors.New("invalid JSON response"))
	}
	return body, nil
}

func readBody(resp *http.Response) ([]byte, error) {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	}
	return io.ReadAll(resp.Body)
}

// Transient reports whether err is worth retrying: the remote was not reached,
// it throttled the call, or it failed on its side.
func Transient(err error) bool {
	var fe *remote.FetchError
	if !errors.As(err, &fe) {
		return false
	}
	if fe.Status == 0 {
		return !errors.Is(fe.Err, context.Canceled)
	}
	return fe.Status == http.StatusTooManyRequests || fe.Status >= 500
}

func classPath(typ, id string) string {
	p := "/classes/" + url.PathEscape(typ)
	if id != "" {
		p += "/" + url.PathEscape(id)
	}
	return p
}

// query builds the where document and query options from params.
func query(params model.Params, rel *model.Relation) (url.Values, error) {
	q := url.Values{}
	where := map[string]any{}
	for _, f := range remote.Filters(params) {
		if isQueryOption(f.Key) {
			q.Set(f.Key, optionValue(f.Value))
			continue
		}
		if f.Op == remote.OpContainedIn {
			where[f.Key] = map[string]any{"$in": model.Sequence(f.Value)}
		} else {
			where[f.Key] = f.Value
		}
	}
	if rel != nil {
		where["$relatedTo"] = map[string]any{
			"object": map[string]any{
				"__type":    "Pointer",
				"className": rel.ParentType,
				"objectId":  rel.ParentID,
			},
			"key": rel.Key,
		}
	}
	if len(where) > 0 {
		raw, err := json.Marshal(where)
		if err != nil {
			return nil, err
		}
		q.Set("where", string(raw))
	}
	return q, nil
}

func isQueryOption(key string) bool {
	for _, k := range queryOptions {
		if k == key {
			return true
		}
	}
	return false
}

func optionValue(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	if model.IsSequence(v) {
		parts := make([]string, 0)
		for _, p := range model.Sequence(v) {
			parts = append(parts, optionValue(p))
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprint(v)
}
