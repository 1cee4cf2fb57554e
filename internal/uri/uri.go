// package uri encodes and decodes the emby: uri scheme
//
// Uris take the form "emby:" for the root directory and "emby:<kind>:<id>" for
// artists, albums and tracks. Ids are opaque and are not percent-encoded.
package uri

import (
	"fmt"
	"strings"

	"github.com/desertthunder/embyx/internal/models"
	"github.com/desertthunder/embyx/internal/shared"
)

const (
	Scheme = "emby"
	// Root addresses the top-level directory.
	Root = Scheme + ":"
	// SearchURI is attached to every search result.
	SearchURI = Scheme + ":search"
)

// Make returns the uri of the node with the given kind and id.
//
// The id is ignored for [models.KindRoot].
func Make(kind models.Kind, id string) string {
	if kind == models.KindRoot {
		return Root
	}
	return Root + string(kind) + ":" + id
}

// Parse splits a uri into its kind and id.
//
// A uri matches a kind only when it starts with that kind's prefix and has exactly
// three colon-separated segments. Anything else wraps [shared.ErrUnrecognizedURI].
func Parse(s string) (models.Kind, string, error) {
	if s == Root {
		return models.KindRoot, "", nil
	}

	parts := strings.Split(s, ":")
	for _, kind := range []models.Kind{models.KindArtist, models.KindAlbum, models.KindTrack} {
		if strings.HasPrefix(s, Root+string(kind)+":") && len(parts) == 3 {
			return kind, parts[2], nil
		}
	}
	return "", "", fmt.Errorf("%w: %q", shared.ErrUnrecognizedURI, s)
}

// Is reports whether s parses as the given kind.
func Is(s string, kind models.Kind) bool {
	k, _, err := Parse(s)
	return err == nil && k == kind
}
