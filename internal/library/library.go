// package library resolves emby: uris into browse refs, tracks, search results and images
package library

import (
	"context"
	"errors"
	"os"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/desertthunder/embyx/internal/artwork"
	"github.com/desertthunder/embyx/internal/mapper"
	"github.com/desertthunder/embyx/internal/models"
	"github.com/desertthunder/embyx/internal/services"
	"github.com/desertthunder/embyx/internal/shared"
	"github.com/desertthunder/embyx/internal/uri"
)

// Sentinel is the search term that lists the whole catalog for the album or artist field.
const Sentinel = "_____"

// RootName is the display name of the root directory.
const RootName = "Emby"

const defaultConcurrency = 4

// Query maps a search field (any, artist, album, track_name) to its terms.
type Query map[string][]string

// Opts configures a [Library].
type Opts struct {
	Service     services.Service
	Mapper      mapper.Mapper
	Logger      *log.Logger
	Tracer      trace.Tracer
	Concurrency int // parallel remote calls per operation
}

// Library is the navigator over a remote Emby music library.
//
// It holds no mutable state of its own and is safe for concurrent use.
type Library struct {
	svc         services.Service
	mapper      mapper.Mapper
	logger      *log.Logger
	tracer      trace.Tracer
	concurrency int
}

func New(opts Opts) *Library {
	l := &Library{
		svc:         opts.Service,
		mapper:      opts.Mapper,
		logger:      opts.Logger,
		tracer:      opts.Tracer,
		concurrency: opts.Concurrency,
	}
	if l.logger == nil {
		l.logger = shared.NewLogger(os.Stderr)
	}
	l.logger = shared.WithLogger(l.logger, "component", "library")
	if l.tracer == nil {
		l.tracer = otel.Tracer("github.com/desertthunder/embyx/internal/library")
	}
	if l.concurrency <= 0 {
		l.concurrency = defaultConcurrency
	}
	return l
}

// RootRef is the top-level directory.
func (l *Library) RootRef() models.Ref {
	return models.Ref{URI: uri.Root, Kind: models.KindRoot, Name: RootName}
}

// Browse lists the children of a directory uri.
//
// The root lists distinct artists over the name-sorted album catalog, an artist lists
// the albums crediting it, and an album lists its tracks by track number. Any other
// uri yields an empty list.
func (l *Library) Browse(ctx context.Context, u string) ([]models.Ref, error) {
	ctx, span := l.tracer.Start(ctx, "Library.Browse", trace.WithAttributes(attribute.String("emby.uri", u)))
	defer span.End()

	kind, id, err := uri.Parse(u)
	if err != nil {
		l.logger.Info("unknown browse uri", "uri", u)
		return []models.Ref{}, nil
	}

	switch kind {
	case models.KindRoot:
		albums, err := l.albums(ctx)
		if err != nil {
			return nil, record(span, err)
		}
		return l.mapper.DistinctArtistRefs(mapper.SortAlbumsByName(albums)), nil

	case models.KindArtist:
		albums, err := l.albums(ctx)
		if err != nil {
			return nil, record(span, err)
		}
		refs := []models.Ref{}
		for _, album := range albums {
			if mapper.HasArtist(album, id) {
				refs = append(refs, l.mapper.AlbumRef(album))
			}
		}
		return refs, nil

	case models.KindAlbum:
		dir, err := l.svc.Directory(ctx, id)
		if err != nil {
			return nil, record(span, err)
		}
		refs := []models.Ref{}
		for _, track := range mapper.SortTracksByNumber(dir.Items) {
			refs = append(refs, l.mapper.TrackRef(track))
		}
		return refs, nil
	}

	l.logger.Info("uri is not browsable", "uri", u)
	return []models.Ref{}, nil
}

// Lookup resolves a uri to playable tracks.
//
// A track yields itself, an album its tracks sorted by track number, and an artist
// the tracks of every album crediting it. Unknown uris yield an empty list.
func (l *Library) Lookup(ctx context.Context, u string) ([]models.Track, error) {
	ctx, span := l.tracer.Start(ctx, "Library.Lookup", trace.WithAttributes(attribute.String("emby.uri", u)))
	defer span.End()

	kind, id, err := uri.Parse(u)
	if err != nil {
		l.logger.Info("unknown lookup uri", "uri", u)
		return []models.Track{}, nil
	}

	var tracks []models.Track
	switch kind {
	case models.KindTrack:
		item, err := l.svc.Item(ctx, id)
		if err != nil {
			return nil, record(span, err)
		}
		tracks = []models.Track{l.mapper.Track(*item)}
	case models.KindAlbum:
		tracks, err = l.albumTracks(ctx, id)
	case models.KindArtist:
		tracks, err = l.artistTracks(ctx, id)
	default:
		l.logger.Info("uri has no tracks", "uri", u)
		tracks = []models.Track{}
	}
	if err != nil {
		return nil, record(span, err)
	}
	return tracks, nil
}

// LookupMany looks up each uri independently and keys the results by uri.
func (l *Library) LookupMany(ctx context.Context, uris []string) (map[string][]models.Track, error) {
	ctx, span := l.tracer.Start(ctx, "Library.LookupMany", trace.WithAttributes(attribute.Int("emby.uri_count", len(uris))))
	defer span.End()

	type result struct {
		uri    string
		tracks []models.Track
	}

	p := pool.NewWithResults[result]().WithContext(ctx).WithCancelOnError().WithMaxGoroutines(l.concurrency)
	for _, u := range uris {
		p.Go(func(ctx context.Context) (result, error) {
			tracks, err := l.Lookup(ctx, u)
			return result{uri: u, tracks: tracks}, err
		})
	}

	results, err := p.Wait()
	if err != nil {
		return nil, record(span, err)
	}

	out := make(map[string][]models.Track, len(results))
	for _, r := range results {
		out[r.uri] = r.tracks
	}
	return out, nil
}

// Search answers a query.
//
// A leading [Sentinel] term under "album" or "artist" returns that catalog. Otherwise
// every (field, term) pair is searched remotely and the hits are concatenated with
// fields in sorted order and terms in the given order. Unknown fields and hits that
// no longer resolve contribute nothing.
func (l *Library) Search(ctx context.Context, q Query) (*models.SearchResult, error) {
	ctx, span := l.tracer.Start(ctx, "Library.Search")
	defer span.End()

	if terms := q["album"]; len(terms) > 0 && terms[0] == Sentinel {
		albums, err := l.albums(ctx)
		if err != nil {
			return nil, record(span, err)
		}
		res := newResult()
		for _, album := range mapper.SortAlbumsByName(albums) {
			res.Albums = append(res.Albums, l.mapper.Album(album))
		}
		return res, nil
	}

	if terms := q["artist"]; len(terms) > 0 && terms[0] == Sentinel {
		albums, err := l.albums(ctx)
		if err != nil {
			return nil, record(span, err)
		}
		res := newResult()
		res.Artists = l.mapper.ArtistCatalog(mapper.SortAlbumsByName(albums))
		return res, nil
	}

	type pair struct{ field, term string }
	var pairs []pair
	fields := make([]string, 0, len(q))
	for field := range q {
		fields = append(fields, field)
	}
	slices.Sort(fields)
	for _, field := range fields {
		for _, term := range q[field] {
			pairs = append(pairs, pair{field, term})
		}
	}

	type indexed struct {
		idx int
		res *models.SearchResult
	}
	p := pool.NewWithResults[indexed]().WithContext(ctx).WithCancelOnError().WithMaxGoroutines(l.concurrency)
	for i, pr := range pairs {
		p.Go(func(ctx context.Context) (indexed, error) {
			res, err := l.searchPair(ctx, pr.field, pr.term)
			return indexed{idx: i, res: res}, err
		})
	}
	parts, err := p.Wait()
	if err != nil {
		return nil, record(span, err)
	}
	slices.SortFunc(parts, func(a, b indexed) int { return a.idx - b.idx })

	res := newResult()
	for _, part := range parts {
		res.Tracks = append(res.Tracks, part.res.Tracks...)
		res.Artists = append(res.Artists, part.res.Artists...)
		res.Albums = append(res.Albums, part.res.Albums...)
	}
	return res, nil
}

func (l *Library) searchPair(ctx context.Context, field, term string) (*models.SearchResult, error) {
	res := newResult()

	hints, err := l.svc.Search(ctx, field, term)
	if errors.Is(err, shared.ErrUnknownField) {
		l.logger.Info("skipping unknown search field", "field", field)
		return res, nil
	}
	if err != nil {
		return nil, err
	}

	var catalog []services.Item
	catalogFn := func() ([]services.Item, error) {
		if catalog != nil {
			return catalog, nil
		}
		albums, err := l.albums(ctx)
		catalog = albums
		return albums, err
	}

	for _, hint := range hints {
		switch hint.Type {
		case services.TypeMusicArtist:
			albums, err := catalogFn()
			if err != nil {
				return nil, err
			}
			artist, matched := l.mapper.ArtistByName(albums, hint.Name)
			if artist != nil {
				res.Artists = append(res.Artists, *artist)
			}
			res.Albums = append(res.Albums, matched...)

		case services.TypeMusicAlbum:
			albums, err := catalogFn()
			if err != nil {
				return nil, err
			}
			if album, ok := l.mapper.AlbumByID(albums, hint.ID); ok {
				res.Albums = append(res.Albums, album)
			}

		case services.TypeAudio:
			item, err := l.svc.Item(ctx, hint.ID)
			if errors.Is(err, shared.ErrItemNotFound) {
				l.logger.Debug("search hit vanished", "id", hint.ID)
				continue
			}
			if err != nil {
				return nil, err
			}
			res.Tracks = append(res.Tracks, l.mapper.Track(*item))
		}
	}
	return res, nil
}

// Images returns artwork for each track uri, sized to [artwork.DefaultSize].
// Other uris and tracks without artwork are left out.
func (l *Library) Images(ctx context.Context, uris []string) (map[string][]models.Image, error) {
	ctx, span := l.tracer.Start(ctx, "Library.Images", trace.WithAttributes(attribute.Int("emby.uri_count", len(uris))))
	defer span.End()

	out := make(map[string][]models.Image)
	for _, u := range uris {
		kind, id, err := uri.Parse(u)
		if err != nil || kind != models.KindTrack {
			continue
		}

		item, err := l.svc.Item(ctx, id)
		if errors.Is(err, shared.ErrItemNotFound) {
			continue
		}
		if err != nil {
			return nil, record(span, err)
		}

		art := l.mapper.Track(*item).Artwork
		if art == "" {
			continue
		}
		out[u] = []models.Image{{URI: artwork.Sized(art, artwork.DefaultSize)}}
	}
	return out, nil
}

// Distinct lists album names ("album") or the names of the music root's children
// ("artist"). Other fields yield an empty list.
func (l *Library) Distinct(ctx context.Context, field string) ([]string, error) {
	ctx, span := l.tracer.Start(ctx, "Library.Distinct", trace.WithAttributes(attribute.String("emby.field", field)))
	defer span.End()

	var items []services.Item
	switch field {
	case "album":
		albums, err := l.albums(ctx)
		if err != nil {
			return nil, record(span, err)
		}
		items = albums
	case "artist":
		root, err := l.svc.MusicRoot(ctx)
		if err != nil {
			return nil, record(span, err)
		}
		dir, err := l.svc.Directory(ctx, root)
		if err != nil {
			return nil, record(span, err)
		}
		items = dir.Items
	default:
		l.logger.Info("no distinct values for field", "field", field)
	}

	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, it.Name)
	}
	return names, nil
}

// albums returns the recursive MusicAlbum listing under the music root.
func (l *Library) albums(ctx context.Context) ([]services.Item, error) {
	root, err := l.svc.MusicRoot(ctx)
	if err != nil {
		return nil, err
	}
	list, err := l.svc.ItemsOfType(ctx, root, services.TypeMusicAlbum)
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}

// albumTracks fetches each child of an album as a full item.
func (l *Library) albumTracks(ctx context.Context, albumID string) ([]models.Track, error) {
	dir, err := l.svc.Directory(ctx, albumID)
	if err != nil {
		return nil, err
	}

	type indexed struct {
		idx   int
		track models.Track
	}
	p := pool.NewWithResults[indexed]().WithContext(ctx).WithCancelOnError().WithMaxGoroutines(l.concurrency)
	for i, child := range dir.Items {
		p.Go(func(ctx context.Context) (indexed, error) {
			item, err := l.svc.Item(ctx, child.ID)
			if err != nil {
				return indexed{}, err
			}
			return indexed{idx: i, track: l.mapper.Track(*item)}, nil
		})
	}
	results, err := p.Wait()
	if err != nil {
		return nil, err
	}
	slices.SortFunc(results, func(a, b indexed) int { return a.idx - b.idx })

	tracks := make([]models.Track, 0, len(results))
	for _, r := range results {
		tracks = append(tracks, r.track)
	}
	mapper.SortByTrackNo(tracks)
	return tracks, nil
}

// artistTracks collects the tracks of every album whose artists include artistID.
func (l *Library) artistTracks(ctx context.Context, artistID string) ([]models.Track, error) {
	albums, err := l.albums(ctx)
	if err != nil {
		return nil, err
	}

	tracks := []models.Track{}
	for _, album := range albums {
		if !mapper.HasArtist(album, artistID) {
			continue
		}
		dir, err := l.svc.Directory(ctx, album.ID)
		if err != nil {
			return nil, err
		}
		for _, it := range mapper.SortTracksByNumber(dir.Items) {
			tracks = append(tracks, l.mapper.Track(it))
		}
	}
	return tracks, nil
}

func newResult() *models.SearchResult {
	return &models.SearchResult{
		URI:     uri.SearchURI,
		Tracks:  []models.Track{},
		Artists: []models.Artist{},
		Albums:  []models.Album{},
	}
}

func record(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
