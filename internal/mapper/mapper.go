// package mapper converts raw Emby items into player-facing models
//
// Every function is pure: inputs are never modified and slices are copied before
// sorting, so items shared through the response cache stay untouched.
package mapper

import (
	"cmp"
	"slices"

	"github.com/desertthunder/embyx/internal/artwork"
	"github.com/desertthunder/embyx/internal/models"
	"github.com/desertthunder/embyx/internal/services"
	"github.com/desertthunder/embyx/internal/uri"
)

// ticksPerMillisecond is the number of 100ns Emby ticks in a millisecond.
const ticksPerMillisecond = 10000

// Mapper builds models with artwork resolved against one server.
type Mapper struct {
	art artwork.Resolver
}

func New(art artwork.Resolver) Mapper {
	return Mapper{art: art}
}

// Track maps an audio item. Artists are name-only and the album is the
// denormalized {name, artists} shape carried on the item.
func (m Mapper) Track(it services.Item) models.Track {
	artists := ArtistNames(it)
	return models.Track{
		URI:     uri.Make(models.KindTrack, it.ID),
		Name:    it.Name,
		TrackNo: it.IndexNumber,
		Genre:   genre(it),
		Artists: artists,
		Album:   models.Album{Name: it.Album, Artists: artists},
		Artwork: m.art.Track(it),
		Length:  TicksToMilliseconds(it.RunTimeTicks),
	}
}

func (m Mapper) TrackRef(it services.Item) models.Ref {
	return models.Ref{
		URI:     uri.Make(models.KindTrack, it.ID),
		Kind:    models.KindTrack,
		Name:    it.Name,
		Artwork: m.art.Track(it),
	}
}

// Album maps an album item with its album artists.
func (m Mapper) Album(it services.Item) models.Album {
	return models.Album{
		URI:     uri.Make(models.KindAlbum, it.ID),
		Name:    it.Name,
		Artists: AlbumArtists(it),
		Artwork: m.art.Item(it),
	}
}

func (m Mapper) AlbumRef(it services.Item) models.Ref {
	return models.Ref{
		URI:     uri.Make(models.KindAlbum, it.ID),
		Kind:    models.KindAlbum,
		Name:    it.Name,
		Artwork: m.art.Item(it),
	}
}

// Artist maps an album artist, taking artwork from the album that names it.
func (m Mapper) Artist(a services.NameID, album services.Item) models.Artist {
	return models.Artist{
		URI:     uri.Make(models.KindArtist, a.ID),
		Name:    a.Name,
		Artwork: m.art.Item(album),
	}
}

func (m Mapper) ArtistRef(a services.NameID, album services.Item) models.Ref {
	return models.Ref{
		URI:     uri.Make(models.KindArtist, a.ID),
		Kind:    models.KindArtist,
		Name:    a.Name,
		Artwork: m.art.Item(album),
	}
}

// DistinctArtistRefs returns one ref per album artist name in first-seen order.
// Artwork comes from the first album naming the artist.
func (m Mapper) DistinctArtistRefs(albums []services.Item) []models.Ref {
	seen := make(map[string]struct{})
	refs := []models.Ref{}
	for _, album := range albums {
		for _, a := range album.AlbumArtists {
			if _, ok := seen[a.Name]; ok {
				continue
			}
			seen[a.Name] = struct{}{}
			refs = append(refs, m.ArtistRef(a, album))
		}
	}
	return refs
}

// ArtistCatalog returns one artist per (album, album artist) pair, without deduplication.
func (m Mapper) ArtistCatalog(albums []services.Item) []models.Artist {
	artists := []models.Artist{}
	for _, album := range albums {
		for _, a := range album.AlbumArtists {
			artists = append(artists, m.Artist(a, album))
		}
	}
	return artists
}

// ArtistByName finds the albums whose album artists include name.
//
// The artist is built from the first matching album and is nil when nothing matches.
func (m Mapper) ArtistByName(albums []services.Item, name string) (*models.Artist, []models.Album) {
	var artist *models.Artist
	matched := []models.Album{}
	for _, album := range albums {
		for _, a := range album.AlbumArtists {
			if a.Name != name {
				continue
			}
			matched = append(matched, m.Album(album))
			if artist == nil {
				found := m.Artist(a, album)
				artist = &found
			}
			break
		}
	}
	return artist, matched
}

// AlbumByID maps the album with the given id from albums.
func (m Mapper) AlbumByID(albums []services.Item, id string) (models.Album, bool) {
	for _, album := range albums {
		if album.ID == id {
			return m.Album(album), true
		}
	}
	return models.Album{}, false
}

// ArtistNames returns the name-only artists of an item's ArtistItems.
func ArtistNames(it services.Item) []models.Artist {
	artists := make([]models.Artist, 0, len(it.ArtistItems))
	for _, a := range it.ArtistItems {
		artists = append(artists, models.Artist{Name: a.Name})
	}
	return artists
}

// AlbumArtists returns the item's AlbumArtists with their uris.
func AlbumArtists(it services.Item) []models.Artist {
	artists := make([]models.Artist, 0, len(it.AlbumArtists))
	for _, a := range it.AlbumArtists {
		artists = append(artists, models.Artist{URI: uri.Make(models.KindArtist, a.ID), Name: a.Name})
	}
	return artists
}

// HasArtist reports whether id appears in the item's ArtistItems.
func HasArtist(it services.Item, id string) bool {
	return slices.ContainsFunc(it.ArtistItems, func(a services.NameID) bool { return a.ID == id })
}

// TicksToMilliseconds converts Emby run time ticks to milliseconds, truncating.
func TicksToMilliseconds(ticks int64) int64 {
	return ticks / ticksPerMillisecond
}

func MillisecondsToTicks(ms int64) int64 {
	return ms * ticksPerMillisecond
}

// SortAlbumsByName returns a copy of items stably sorted by name.
func SortAlbumsByName(items []services.Item) []services.Item {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b services.Item) int { return cmp.Compare(a.Name, b.Name) })
	return sorted
}

// SortTracksByNumber returns a copy of items stably sorted by IndexNumber.
func SortTracksByNumber(items []services.Item) []services.Item {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b services.Item) int { return cmp.Compare(a.IndexNumber, b.IndexNumber) })
	return sorted
}

// SortByTrackNo stably sorts mapped tracks by track number in place.
func SortByTrackNo(tracks []models.Track) {
	slices.SortStableFunc(tracks, func(a, b models.Track) int { return cmp.Compare(a.TrackNo, b.TrackNo) })
}

func genre(it services.Item) string {
	if it.Genre != "" {
		return it.Genre
	}
	if len(it.Genres) > 0 {
		return it.Genres[0]
	}
	return ""
}
