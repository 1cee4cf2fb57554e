package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/embyx/internal/artwork"
	"github.com/desertthunder/embyx/internal/models"
	"github.com/desertthunder/embyx/internal/services"
)

var m = New(artwork.NewResolver("h:8096"))

func album(id, name string, artists ...services.NameID) services.Item {
	return services.Item{
		ID:           id,
		Name:         name,
		Type:         services.TypeMusicAlbum,
		ImageTags:    map[string]string{"Primary": "tag-" + id},
		AlbumArtists: artists,
		ArtistItems:  artists,
	}
}

func TestTrack(t *testing.T) {
	it := services.Item{
		ID:           "t1",
		Name:         "Ceremony",
		IndexNumber:  3,
		Genres:       []string{"Post-Punk"},
		RunTimeTicks: 2_735_000_000,
		Album:        "Movement",
		AlbumID:      "al1",
		ArtistItems:  []services.NameID{{ID: "ar1", Name: "New Order"}},
		AlbumArtists: []services.NameID{{ID: "ar1", Name: "New Order"}},
		ImageTags:    map[string]string{"Primary": "P"},
	}

	got := m.Track(it)
	assert.Equal(t, models.Track{
		URI:     "emby:track:t1",
		Name:    "Ceremony",
		TrackNo: 3,
		Genre:   "Post-Punk",
		Artists: []models.Artist{{Name: "New Order"}},
		Album:   models.Album{Name: "Movement", Artists: []models.Artist{{Name: "New Order"}}},
		Artwork: "h:8096/emby/Items/t1/Images/Primary?maxHeight=%1&maxWidth=%2&tag=P",
		Length:  273500,
	}, got)

	t.Run("Genre field wins over Genres", func(t *testing.T) {
		it := it
		it.Genre = "Rock"
		assert.Equal(t, "Rock", m.Track(it).Genre)
	})

	t.Run("Ref", func(t *testing.T) {
		ref := m.TrackRef(it)
		assert.Equal(t, models.KindTrack, ref.Kind)
		assert.Equal(t, "emby:track:t1", ref.URI)
		assert.Equal(t, got.Artwork, ref.Artwork)
	})
}

func TestAlbum(t *testing.T) {
	it := album("al1", "Low-Life", services.NameID{ID: "ar1", Name: "New Order"}, services.NameID{ID: "ar2", Name: "Guest"})

	got := m.Album(it)
	assert.Equal(t, "emby:album:al1", got.URI)
	assert.Equal(t, []models.Artist{
		{URI: "emby:artist:ar1", Name: "New Order"},
		{URI: "emby:artist:ar2", Name: "Guest"},
	}, got.Artists)
	assert.Equal(t, "h:8096/emby/Items/al1/Images/Primary?maxHeight=%1&maxWidth=%2&tag=tag-al1", got.Artwork)

	ref := m.AlbumRef(it)
	assert.Equal(t, models.Ref{URI: got.URI, Kind: models.KindAlbum, Name: "Low-Life", Artwork: got.Artwork}, ref)
}

func TestDistinctArtistRefs(t *testing.T) {
	a := services.NameID{ID: "ar1", Name: "A"}
	b := services.NameID{ID: "ar2", Name: "B"}
	albums := []services.Item{album("x1", "First", a), album("x2", "Second", b, a), album("x3", "Third", b)}

	refs := m.DistinctArtistRefs(albums)
	require.Len(t, refs, 2)
	assert.Equal(t, "emby:artist:ar1", refs[0].URI)
	assert.Equal(t, "emby:artist:ar2", refs[1].URI)
	assert.Contains(t, refs[0].Artwork, "/Items/x1/")
	assert.Contains(t, refs[1].Artwork, "/Items/x2/")

	t.Run("Deduplicates by name", func(t *testing.T) {
		dup := services.NameID{ID: "other-id", Name: "A"}
		refs := m.DistinctArtistRefs([]services.Item{album("x1", "F", a), album("x2", "S", dup)})
		assert.Len(t, refs, 1)
	})

	t.Run("Empty catalog", func(t *testing.T) {
		assert.Empty(t, m.DistinctArtistRefs(nil))
	})

	t.Run("Catalog keeps duplicates", func(t *testing.T) {
		assert.Len(t, m.ArtistCatalog(albums), 4)
	})
}

func TestArtistByName(t *testing.T) {
	a := services.NameID{ID: "ar1", Name: "A"}
	b := services.NameID{ID: "ar2", Name: "B"}
	albums := []services.Item{album("x1", "One", b), album("x2", "Two", a), album("x3", "Three", a, b)}

	artist, matched := m.ArtistByName(albums, "A")
	require.NotNil(t, artist)
	assert.Equal(t, "emby:artist:ar1", artist.URI)
	assert.Contains(t, artist.Artwork, "/Items/x2/")
	require.Len(t, matched, 2)
	assert.Equal(t, "Two", matched[0].Name)
	assert.Equal(t, "Three", matched[1].Name)

	artist, matched = m.ArtistByName(albums, "Nobody")
	assert.Nil(t, artist)
	assert.Empty(t, matched)
}

func TestAlbumByID(t *testing.T) {
	albums := []services.Item{album("x1", "One"), album("x2", "Two")}

	got, ok := m.AlbumByID(albums, "x2")
	assert.True(t, ok)
	assert.Equal(t, "Two", got.Name)

	_, ok = m.AlbumByID(albums, "x9")
	assert.False(t, ok)
}

func TestHasArtist(t *testing.T) {
	it := album("x", "X", services.NameID{ID: "ar1", Name: "A"})
	assert.True(t, HasArtist(it, "ar1"))
	assert.False(t, HasArtist(it, "ar2"))
}

func TestTicks(t *testing.T) {
	assert.EqualValues(t, 0, TicksToMilliseconds(0))
	assert.EqualValues(t, 1, TicksToMilliseconds(19999))
	assert.EqualValues(t, 180000, TicksToMilliseconds(1_800_000_000))

	for _, ms := range []int64{0, 1, 999, 273500} {
		assert.Equal(t, ms, TicksToMilliseconds(MillisecondsToTicks(ms)))
	}
}

func TestSorting(t *testing.T) {
	t.Run("Albums by name, input untouched", func(t *testing.T) {
		in := []services.Item{{ID: "1", Name: "b"}, {ID: "2", Name: "a"}, {ID: "3", Name: "b"}}
		got := SortAlbumsByName(in)
		assert.Equal(t, []string{"2", "1", "3"}, ids(got))
		assert.Equal(t, []string{"1", "2", "3"}, ids(in))
	})

	t.Run("Tracks by number, stable", func(t *testing.T) {
		in := []services.Item{{ID: "a", IndexNumber: 2}, {ID: "b", IndexNumber: 1}, {ID: "c", IndexNumber: 2}}
		assert.Equal(t, []string{"b", "a", "c"}, ids(SortTracksByNumber(in)))
	})

	t.Run("Mapped tracks", func(t *testing.T) {
		tracks := []models.Track{{URI: "x", TrackNo: 3}, {URI: "y", TrackNo: 1}}
		SortByTrackNo(tracks)
		assert.Equal(t, "y", tracks[0].URI)
	})
}

func ids(items []services.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}
