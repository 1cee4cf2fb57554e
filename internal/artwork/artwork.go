// package artwork builds Emby image urls for library items
//
// Urls are emitted as templates with literal %1 (max height) and %2 (max width)
// placeholders; [Sized] fills them in.
package artwork

import (
	"fmt"
	"strings"

	"github.com/desertthunder/embyx/internal/services"
	"github.com/desertthunder/embyx/internal/shared"
)

// DefaultSize is the dimension token used for player images.
const DefaultSize = "400x400"

const (
	imagePrimary  = "Primary"
	imageBackdrop = "Backdrop"
)

// Resolver synthesizes artwork urls against a fixed "{host}:{port}" base.
type Resolver struct {
	base string
}

// NewResolver creates a Resolver. base is the configured host and port, with or
// without a scheme (see [shared.EmbyConfig.Address]).
func NewResolver(base string) Resolver {
	return Resolver{base: strings.TrimRight(base, "/")}
}

// Base returns the "{host}:{port}" prefix of every url.
func (r Resolver) Base() string { return r.base }

// URL returns the template for image kind of item id with the given tag.
func (r Resolver) URL(id, kind, tag string) string {
	return fmt.Sprintf("%s/emby/Items/%s/Images/%s?maxHeight=%%1&maxWidth=%%2&tag=%s", r.base, id, kind, tag)
}

// Item returns artwork for an album or artist item: its primary image, else the
// parent backdrop, else "".
func (r Resolver) Item(it services.Item) string {
	if tag := it.PrimaryTag(); tag != "" {
		return r.URL(it.ID, imagePrimary, tag)
	}
	return r.backdrop(it)
}

// Track returns artwork for an audio item: its primary image, else the album's
// primary image, else the parent backdrop, else "".
func (r Resolver) Track(it services.Item) string {
	if tag := it.PrimaryTag(); tag != "" {
		return r.URL(it.ID, imagePrimary, tag)
	}
	if it.AlbumPrimaryImageTag != "" && it.AlbumID != "" {
		return r.URL(it.AlbumID, imagePrimary, it.AlbumPrimaryImageTag)
	}
	return r.backdrop(it)
}

func (r Resolver) backdrop(it services.Item) string {
	tag := it.BackdropTag()
	if tag == "" {
		return ""
	}
	return r.URL(it.ParentBackdropItemID, imageBackdrop, tag)
}

// Sized substitutes a "{height}x{width}" token into the placeholders of url and
// makes it absolute by adding http:// when it carries no scheme.
//
// A token without "x" is used for both dimensions. An empty url stays empty.
func Sized(url, token string) string {
	if url == "" {
		return ""
	}

	h, w, ok := strings.Cut(token, "x")
	if !ok {
		w = h
	}
	sized := strings.NewReplacer("%1", h, "%2", w).Replace(url)

	if !shared.HasScheme(sized) {
		sized = "http://" + sized
	}
	return sized
}
