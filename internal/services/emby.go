// Emby API implementation of [Service]
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/desertthunder/embyx/internal/cache"
	"github.com/desertthunder/embyx/internal/shared"
)

const (
	defaultEmbyBaseURL    = "http://localhost:8096"
	defaultAttempts       = 6
	defaultAttemptTimeout = 10 * time.Second
	defaultClient         = "other"
	defaultVersion        = "0.0.0"

	// DeviceName is reported as Device in the authorization header.
	DeviceName = "embyx"
	userAgent  = "embyx/" + defaultVersion
)

// EmbyOpts configures an [EmbyService]. Zero values fall back to defaults.
type EmbyOpts struct {
	BaseURL  string // scheme://host:port
	UserID   string
	Username string // used to resolve UserID when it is empty
	Token    string
	DeviceID string
	Client   string
	Version  string

	HTTPClient *http.Client
	Cache      cache.Cache
	Logger     *log.Logger
	Tracer     trace.Tracer

	RateLimit      float64 // requests per second, 0 disables throttling
	Attempts       int
	AttemptTimeout time.Duration
}

// OptsFromConfig builds [EmbyOpts] from the [emby] config section.
func OptsFromConfig(cfg shared.EmbyConfig) EmbyOpts {
	return EmbyOpts{
		BaseURL:        cfg.BaseURL(),
		UserID:         cfg.UserID,
		Username:       cfg.Username,
		Token:          cfg.Token,
		DeviceID:       cfg.DeviceID,
		Client:         cfg.Client,
		Version:        cfg.Version,
		RateLimit:      cfg.RateLimit,
		Attempts:       cfg.Attempts,
		AttemptTimeout: cfg.AttemptTimeout,
	}
}

// EmbyService implements [Service] against the Emby REST API.
//
// It is safe for concurrent use.
type EmbyService struct {
	baseURL        string
	username       string
	token          string
	deviceID       string
	client         string
	version        string
	httpClient     *http.Client
	cache          cache.Cache
	logger         *log.Logger
	tracer         trace.Tracer
	limiter        *rate.Limiter
	attempts       int
	attemptTimeout time.Duration

	mu     sync.RWMutex
	userID string
}

// NewEmbyService creates a new Emby service instance.
func NewEmbyService(opts EmbyOpts) *EmbyService {
	s := &EmbyService{
		baseURL:        strings.TrimRight(opts.BaseURL, "/"),
		userID:         opts.UserID,
		username:       opts.Username,
		token:          opts.Token,
		deviceID:       opts.DeviceID,
		client:         opts.Client,
		version:        opts.Version,
		httpClient:     opts.HTTPClient,
		cache:          opts.Cache,
		logger:         opts.Logger,
		tracer:         opts.Tracer,
		attempts:       opts.Attempts,
		attemptTimeout: opts.AttemptTimeout,
	}

	if s.baseURL == "" {
		s.baseURL = defaultEmbyBaseURL
	}
	if s.deviceID == "" {
		s.deviceID = shared.GenerateID()
	}
	if s.client == "" {
		s.client = defaultClient
	}
	if s.version == "" {
		s.version = defaultVersion
	}
	if s.httpClient == nil {
		s.httpClient = http.DefaultClient
	}
	if s.cache == nil {
		s.cache = cache.Noop{}
	}
	if s.logger == nil {
		s.logger = shared.NewLogger(os.Stderr)
	}
	s.logger = shared.WithLogger(s.logger, "component", "emby")
	if s.tracer == nil {
		s.tracer = otel.Tracer("github.com/desertthunder/embyx/internal/services")
	}
	if s.attempts <= 0 {
		s.attempts = defaultAttempts
	}
	if s.attemptTimeout <= 0 {
		s.attemptTimeout = defaultAttemptTimeout
	}
	if opts.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return s
}

// Name returns the service name.
func (s *EmbyService) Name() string {
	return "Emby"
}

// ResolveUser returns the configured user id, looking it up by user name in
// /Users/Public when none was configured.
func (s *EmbyService) ResolveUser(ctx context.Context) (string, error) {
	s.mu.RLock()
	id := s.userID
	s.mu.RUnlock()
	if id != "" {
		return id, nil
	}

	ctx, span := s.tracer.Start(ctx, "EmbyService.ResolveUser")
	defer span.End()

	users, err := cache.Memoize(ctx, s.cache, cache.Key("users"), func(ctx context.Context) (UserList, error) {
		return fetch[UserList](ctx, s, "/Users/Public", nil)
	})
	if err != nil {
		return "", record(span, err)
	}

	for _, u := range users {
		if u.Name == s.username {
			s.mu.Lock()
			s.userID = u.ID
			s.mu.Unlock()
			s.logger.Debug("resolved user", "name", u.Name, "id", u.ID)
			return u.ID, nil
		}
	}
	return "", record(span, fmt.Errorf("%w: %q", shared.ErrUserNotFound, s.username))
}

// MusicRoot returns the id of the first view whose collection type is "music".
func (s *EmbyService) MusicRoot(ctx context.Context) (string, error) {
	ctx, span := s.tracer.Start(ctx, "EmbyService.MusicRoot")
	defer span.End()

	user, err := s.ResolveUser(ctx)
	if err != nil {
		return "", record(span, err)
	}

	views, err := cache.Memoize(ctx, s.cache, cache.Key("views", user), func(ctx context.Context) (*ItemList, error) {
		views, err := fetch[ItemList](ctx, s, "/Users/"+url.PathEscape(user)+"/Views", nil)
		return &views, err
	})
	if err != nil {
		return "", record(span, err)
	}

	for _, v := range views.Items {
		if v.CollectionType == CollectionMusic {
			s.logger.Debug("found music root", "id", v.ID)
			return v.ID, nil
		}
	}

	types := make([]string, 0, len(views.Items))
	for _, v := range views.Items {
		types = append(types, v.CollectionType)
	}
	s.logger.Debug("no music view", "collection_types", types)
	return "", record(span, shared.ErrRootNotFound)
}

// Directory lists the direct children of id in ascending order.
func (s *EmbyService) Directory(ctx context.Context, id string) (*ItemList, error) {
	ctx, span := s.tracer.Start(ctx, "EmbyService.Directory", trace.WithAttributes(attribute.String("emby.parent_id", id)))
	defer span.End()

	user, err := s.ResolveUser(ctx)
	if err != nil {
		return nil, record(span, err)
	}

	list, err := cache.Memoize(ctx, s.cache, cache.Key("directory", user, id), func(ctx context.Context) (*ItemList, error) {
		q := url.Values{}
		q.Set("ParentId", id)
		q.Set("SortOrder", "Ascending")

		list, err := fetch[ItemList](ctx, s, "/Users/"+url.PathEscape(user)+"/Items", q)
		return &list, err
	})
	if err != nil {
		return nil, record(span, err)
	}
	return list, nil
}

// ItemsOfType lists every descendant of parentID whose type is itemType.
func (s *EmbyService) ItemsOfType(ctx context.Context, parentID, itemType string) (*ItemList, error) {
	ctx, span := s.tracer.Start(ctx, "EmbyService.ItemsOfType", trace.WithAttributes(
		attribute.String("emby.parent_id", parentID),
		attribute.String("emby.item_type", itemType),
	))
	defer span.End()

	user, err := s.ResolveUser(ctx)
	if err != nil {
		return nil, record(span, err)
	}

	key := cache.Key("items_of_type", user, parentID, itemType)
	list, err := cache.Memoize(ctx, s.cache, key, func(ctx context.Context) (*ItemList, error) {
		q := url.Values{}
		q.Set("Recursive", "true")
		q.Set("SortOrder", "Ascending")
		q.Set("ParentId", parentID)
		q.Set("IncludeItemTypes", itemType)

		list, err := fetch[ItemList](ctx, s, "/Users/"+url.PathEscape(user)+"/Items", q)
		return &list, err
	})
	if err != nil {
		return nil, record(span, err)
	}
	return list, nil
}

// Item fetches a single item.
func (s *EmbyService) Item(ctx context.Context, id string) (*Item, error) {
	ctx, span := s.tracer.Start(ctx, "EmbyService.Item", trace.WithAttributes(attribute.String("emby.item_id", id)))
	defer span.End()

	user, err := s.ResolveUser(ctx)
	if err != nil {
		return nil, record(span, err)
	}

	item, err := cache.Memoize(ctx, s.cache, cache.Key("item", user, id), func(ctx context.Context) (*Item, error) {
		item, err := fetch[Item](ctx, s, "/Users/"+url.PathEscape(user)+"/Items/"+url.PathEscape(id), nil)
		return &item, err
	})
	if err != nil {
		return nil, record(span, err)
	}
	return item, nil
}

// Search queries /Search/Hints for term limited to the item types of field.
func (s *EmbyService) Search(ctx context.Context, field, term string) ([]SearchHint, error) {
	ctx, span := s.tracer.Start(ctx, "EmbyService.Search", trace.WithAttributes(
		attribute.String("emby.search.field", field),
		attribute.String("emby.search.term", term),
	))
	defer span.End()

	types, err := SearchItemTypes(field)
	if err != nil {
		return nil, record(span, err)
	}

	user, err := s.ResolveUser(ctx)
	if err != nil {
		return nil, record(span, err)
	}

	hints, err := cache.Memoize(ctx, s.cache, cache.Key("search", user, types, term), func(ctx context.Context) ([]SearchHint, error) {
		q := url.Values{}
		q.Set("SearchTerm", term)
		q.Set("IncludeItemTypes", types)
		q.Set("UserId", user)

		res, err := fetch[SearchHintResult](ctx, s, "/Search/Hints", q)
		return res.SearchHints, err
	})
	if err != nil {
		return nil, record(span, err)
	}
	return hints, nil
}

// validator is implemented by every decoded response type.
type validator interface {
	Validate() error
}

// fetch performs a GET with retries. Exhaustion wraps [shared.ErrRemoteUnavailable].
//
// Every attempt decodes into a fresh T so a rejected body never leaks into a later one.
func fetch[T any, P interface {
	*T
	validator
}](ctx context.Context, s *EmbyService, path string, query url.Values) (T, error) {
	var zero T
	apiURL := s.endpoint(path, query)

	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		var result T
		err := s.doRequest(ctx, apiURL, P(&result))
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			return zero, err
		}
		if !retryable(err) {
			return zero, err
		}

		lastErr = err
		s.logger.Info("emby request failed", "attempt", attempt, "path", path, "err", err)
	}

	return zero, fmt.Errorf("%w: %d attempts to %s: %w", shared.ErrRemoteUnavailable, s.attempts, path, lastErr)
}

// doRequest performs a single authenticated attempt and decodes the body into result.
func (s *EmbyService) doRequest(ctx context.Context, apiURL string, result validator) error {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %w", shared.ErrAPIRequest, err)
	}
	s.setHeaders(req)

	s.logger.Debug("GET", "url", apiURL)
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch code := resp.StatusCode; {
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: %s", shared.ErrItemNotFound, req.URL.Path)
	case code >= 400 && code < 500:
		return fmt.Errorf("%w: status %d for %s", shared.ErrAPIRequest, code, req.URL.Path)
	case code < 200 || code >= 300:
		return fmt.Errorf("emby API error: status %d", code)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrDecode, err)
	}
	return result.Validate()
}

// endpoint joins the base url and path and appends format=json to the query.
func (s *EmbyService) endpoint(path string, query url.Values) string {
	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	q.Set("format", "json")
	return s.baseURL + path + "?" + q.Encode()
}

func (s *EmbyService) setHeaders(req *http.Request) {
	s.mu.RLock()
	user := s.userID
	s.mu.RUnlock()

	req.Header.Set("X-Emby-Authorization", fmt.Sprintf(
		`MediaBrowser UserId="%s", Client="%s", Device="%s", DeviceId="%s", Version="%s"`,
		user, s.client, DeviceName, s.deviceID, s.version,
	))
	if s.token != "" {
		req.Header.Set("X-Emby-Token", s.token)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
}

// retryable reports whether another attempt may succeed. Logical 4xx errors never do.
func retryable(err error) bool {
	return !errors.Is(err, shared.ErrItemNotFound) && !errors.Is(err, shared.ErrAPIRequest)
}

func record(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
