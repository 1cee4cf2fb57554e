// package models defines the data model for the emby library client
package models

// Kind is the type of node addressed by an emby uri.
type Kind string

const (
	KindRoot   Kind = "root"
	KindArtist Kind = "artist"
	KindAlbum  Kind = "album"
	KindTrack  Kind = "track"
)

// Ref is a browse pointer returned by directory listings.
type Ref struct {
	URI     string `json:"uri"`
	Kind    Kind   `json:"type"`
	Name    string `json:"name"`
	Artwork string `json:"artwork,omitempty"`
}

// Artist is a performer. URI is empty for the name-only form embedded in tracks and albums.
type Artist struct {
	URI     string `json:"uri,omitempty"`
	Name    string `json:"name"`
	Artwork string `json:"artwork,omitempty"`
}

type Album struct {
	URI     string   `json:"uri,omitempty"`
	Name    string   `json:"name"`
	Artists []Artist `json:"artists,omitempty"`
	Artwork string   `json:"artwork,omitempty"`
}

// Track is a playable item. Length is in milliseconds.
type Track struct {
	URI     string   `json:"uri"`
	Name    string   `json:"name"`
	TrackNo int      `json:"track_no"`
	Genre   string   `json:"genre,omitempty"`
	Artists []Artist `json:"artists"`
	Album   Album    `json:"album"`
	Artwork string   `json:"artwork,omitempty"`
	Length  int64    `json:"length"`
}

// SearchResult holds the concatenated matches of every (field, term) pair of a query.
type SearchResult struct {
	URI     string   `json:"uri"`
	Tracks  []Track  `json:"tracks"`
	Artists []Artist `json:"artists"`
	Albums  []Album  `json:"albums"`
}

// Image is an absolute artwork url.
type Image struct {
	URI string `json:"uri"`
}
