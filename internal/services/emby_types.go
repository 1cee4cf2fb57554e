// Emby API response types
//
// Field names follow the PascalCase JSON of the Emby REST API.
package services

import (
	"fmt"

	"github.com/desertthunder/embyx/internal/shared"
)

// Emby item types used in queries.
const (
	TypeAudio       = "Audio"
	TypeMusicAlbum  = "MusicAlbum"
	TypeMusicArtist = "MusicArtist"
)

// CollectionMusic is the collection type of the music library view.
const CollectionMusic = "music"

// NameID is the {Id, Name} pair Emby uses for artist references.
type NameID struct {
	ID   string `json:"Id"`
	Name string `json:"Name"`
}

// Item is a single Emby library item: view, folder, album, artist or audio track.
type Item struct {
	ID                      string            `json:"Id"`
	Name                    string            `json:"Name"`
	Type                    string            `json:"Type"`
	CollectionType          string            `json:"CollectionType,omitempty"`
	IndexNumber             int               `json:"IndexNumber,omitempty"`
	Genre                   string            `json:"Genre,omitempty"`
	Genres                  []string          `json:"Genres,omitempty"`
	RunTimeTicks            int64             `json:"RunTimeTicks,omitempty"`
	Album                   string            `json:"Album,omitempty"`
	AlbumID                 string            `json:"AlbumId,omitempty"`
	AlbumPrimaryImageTag    string            `json:"AlbumPrimaryImageTag,omitempty"`
	ImageTags               map[string]string `json:"ImageTags,omitempty"`
	ParentBackdropItemID    string            `json:"ParentBackdropItemId,omitempty"`
	ParentBackdropImageTags []string          `json:"ParentBackdropImageTags,omitempty"`
	ArtistItems             []NameID          `json:"ArtistItems,omitempty"`
	AlbumArtists            []NameID          `json:"AlbumArtists,omitempty"`
}

// Validate rejects items the mapper cannot address.
func (i Item) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("%w: item %q has no Id", shared.ErrDecode, i.Name)
	}
	return nil
}

// PrimaryTag returns the item's own primary image tag, or "".
func (i Item) PrimaryTag() string {
	return i.ImageTags["Primary"]
}

// BackdropTag returns the first parent backdrop tag, or "".
func (i Item) BackdropTag() string {
	if i.ParentBackdropItemID == "" || len(i.ParentBackdropImageTags) == 0 {
		return ""
	}
	return i.ParentBackdropImageTags[0]
}

// ItemList is the envelope returned by item listings and the views endpoint.
type ItemList struct {
	Items            []Item `json:"Items"`
	TotalRecordCount int    `json:"TotalRecordCount"`
}

func (l ItemList) Validate() error {
	for _, it := range l.Items {
		if err := it.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// SearchHint is one hit of /Search/Hints.
type SearchHint struct {
	ID   string `json:"Id"`
	Name string `json:"Name"`
	Type string `json:"Type"`
}

// SearchHintResult is the envelope of /Search/Hints.
type SearchHintResult struct {
	SearchHints      []SearchHint `json:"SearchHints"`
	TotalRecordCount int          `json:"TotalRecordCount"`
}

func (r SearchHintResult) Validate() error {
	for _, h := range r.SearchHints {
		if h.ID == "" {
			return fmt.Errorf("%w: search hint %q has no Id", shared.ErrDecode, h.Name)
		}
	}
	return nil
}

// User is an entry of /Users/Public.
type User struct {
	ID   string `json:"Id"`
	Name string `json:"Name"`
}

// UserList is the array returned by /Users/Public.
type UserList []User

func (l UserList) Validate() error {
	for _, u := range l {
		if u.ID == "" {
			return fmt.Errorf("%w: user %q has no Id", shared.ErrDecode, u.Name)
		}
	}
	return nil
}

// SearchItemTypes maps a search field to the IncludeItemTypes filter.
func SearchItemTypes(field string) (string, error) {
	switch field {
	case "any":
		return TypeAudio + "," + TypeMusicAlbum + "," + TypeMusicArtist, nil
	case "artist":
		return TypeMusicArtist, nil
	case "album":
		return TypeMusicAlbum, nil
	case "track_name":
		return TypeAudio, nil
	}
	return "", fmt.Errorf("%w: %s", shared.ErrUnknownField, field)
}
