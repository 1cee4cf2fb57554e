// package formatter renders library results as text, CSV, Markdown or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/desertthunder/embyx/internal/models"
)

// Format names accepted by [ExportTracks].
const (
	FormatText     = "text"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// FormatLength renders a duration in milliseconds as m:ss, or h:mm:ss past an hour.
func FormatLength(ms int64) string {
	secs := ms / 1000
	h, m, s := secs/3600, (secs%3600)/60, secs%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// ArtistNames joins artist names with ", ".
func ArtistNames(artists []models.Artist) string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

// ToJSON marshals v, indented when pretty is set.
func ToJSON(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

// RefsToText lists browse refs, one per line, with their kind and uri.
func RefsToText(title string, refs []models.Ref, p *Palette) []byte {
	var buf bytes.Buffer

	buf.WriteString(p.Title(title) + "\n")
	if len(refs) == 0 {
		buf.WriteString(p.Help("(empty)") + "\n")
		return buf.Bytes()
	}

	for i, ref := range refs {
		fmt.Fprintf(&buf, "%d. [%s] %s %s\n", i+1, ref.Kind, ref.Name, p.Help(ref.URI))
	}
	return buf.Bytes()
}

// TracksToText lists tracks as "n. Artists - Name (Album) [length]".
func TracksToText(title string, tracks []models.Track, p *Palette) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s\n", p.Title(fmt.Sprintf("%s (%d tracks)", title, len(tracks))))
	for i, t := range tracks {
		album := ""
		if t.Album.Name != "" {
			album = fmt.Sprintf(" (%s)", t.Album.Name)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s [%s] %s\n",
			i+1, ArtistNames(t.Artists), t.Name, album, FormatLength(t.Length), p.Help(t.URI))
	}
	return buf.Bytes()
}

// SearchToText renders the three sections of a search result.
func SearchToText(res *models.SearchResult, p *Palette) []byte {
	var buf bytes.Buffer

	buf.WriteString(p.Title(fmt.Sprintf("Artists (%d)", len(res.Artists))) + "\n")
	for _, a := range res.Artists {
		fmt.Fprintf(&buf, "  %s %s\n", a.Name, p.Help(a.URI))
	}

	buf.WriteString(p.Title(fmt.Sprintf("Albums (%d)", len(res.Albums))) + "\n")
	for _, a := range res.Albums {
		fmt.Fprintf(&buf, "  %s - %s %s\n", ArtistNames(a.Artists), a.Name, p.Help(a.URI))
	}

	buf.WriteString(p.Title(fmt.Sprintf("Tracks (%d)", len(res.Tracks))) + "\n")
	for _, t := range res.Tracks {
		fmt.Fprintf(&buf, "  %s - %s [%s] %s\n", ArtistNames(t.Artists), t.Name, FormatLength(t.Length), p.Help(t.URI))
	}
	return buf.Bytes()
}

// ImagesToText prints "uri: image" lines in uri order.
func ImagesToText(images map[string][]models.Image, p *Palette) []byte {
	var buf bytes.Buffer

	keys := make([]string, 0, len(images))
	for k := range images {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		for _, img := range images[k] {
			fmt.Fprintf(&buf, "%s: %s\n", p.Help(k), img.URI)
		}
	}
	return buf.Bytes()
}

// LinesToText writes one value per line.
func LinesToText(values []string) []byte {
	if len(values) == 0 {
		return nil
	}
	return []byte(strings.Join(values, "\n") + "\n")
}

// TracksToCSV converts tracks to CSV with columns: URI, TrackNo, Name, Artists, Album, Length, Genre
func TracksToCSV(tracks []models.Track) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"URI", "TrackNo", "Name", "Artists", "Album", "Length", "Genre"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, t := range tracks {
		record := []string{
			t.URI,
			strconv.Itoa(t.TrackNo),
			t.Name,
			ArtistNames(t.Artists),
			t.Album.Name,
			FormatLength(t.Length),
			t.Genre,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// TracksToMarkdown renders tracks as a numbered Markdown list under a heading.
func TracksToMarkdown(title string, tracks []models.Track) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", title)
	fmt.Fprintf(&buf, "**Tracks**: %d\n\n", len(tracks))

	for i, t := range tracks {
		album := ""
		if t.Album.Name != "" {
			album = fmt.Sprintf(" (%s)", t.Album.Name)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s [%s]\n", i+1, ArtistNames(t.Artists), t.Name, album, FormatLength(t.Length))
	}
	return buf.Bytes()
}

// ExportTracks renders tracks in the named format.
func ExportTracks(title string, tracks []models.Track, format string) ([]byte, error) {
	switch format {
	case FormatText, "":
		return TracksToText(title, tracks, PlainPalette()), nil
	case FormatCSV:
		return TracksToCSV(tracks)
	case FormatMarkdown, "md":
		return TracksToMarkdown(title, tracks), nil
	case FormatJSON:
		return ToJSON(tracks, true)
	}
	return nil, fmt.Errorf("unsupported format: %s", format)
}

// WriteTracksExport writes tracks to path in the named format.
func WriteTracksExport(title string, tracks []models.Track, format, path string) error {
	data, err := ExportTracks(title, tracks, format)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}
