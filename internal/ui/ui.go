package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/embyx/internal/formatter"
	"github.com/desertthunder/embyx/internal/models"
	"github.com/desertthunder/embyx/internal/uri"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	BrowseView ViewState = iota
	TrackView
)

// Navigator is the part of the library the browser reads from.
type Navigator interface {
	Browse(ctx context.Context, uri string) ([]models.Ref, error)
	LookupMany(ctx context.Context, uris []string) (map[string][]models.Track, error)
}

var _ list.Item = refItem{}

// refItem wraps [models.Ref] to implement [list.Item].
type refItem struct {
	ref models.Ref
}

func (i refItem) FilterValue() string { return i.ref.Name }
func (i refItem) Title() string       { return i.ref.Name }
func (i refItem) Description() string { return fmt.Sprintf("%s • %s", i.ref.Kind, i.ref.URI) }

// level is one directory on the browse stack.
type level struct {
	uri   string
	title string
	list  list.Model
}

type refsFetchedMsg struct {
	uri   string
	title string
	refs  []models.Ref
	err   error
}

type trackFetchedMsg struct {
	track *models.Track
	err   error
}

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	nav     Navigator
	view    ViewState
	stack   []level
	track   *models.Track
	loading bool
	err     error
	width   int
	height  int
	help    help.Model
	keys    keyMap
	palette *formatter.Palette
}

// NewModel creates a browser rooted at the library root.
func NewModel(ctx context.Context, nav Navigator, palette *formatter.Palette) *Model {
	if palette == nil {
		palette = formatter.DefaultPalette
	}
	return &Model{
		ctx:     ctx,
		nav:     nav,
		view:    BrowseView,
		help:    help.New(),
		keys:    newKeyMap(),
		palette: palette,
	}
}

// Init loads the root directory.
func (m *Model) Init() tea.Cmd {
	m.loading = true
	return m.fetchRefs(uri.Root, "Emby")
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for i := range m.stack {
			m.stack[i].list.SetSize(m.listSize())
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case BrowseView:
			return m.handleBrowseKeys(msg)
		case TrackView:
			return m.handleTrackKeys(msg)
		}

	case refsFetchedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.push(msg.uri, msg.title, msg.refs)
		return m, nil

	case trackFetchedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.track = msg.track
		m.view = TrackView
		return m, nil
	}

	return m.updateList(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch {
	case m.view == TrackView && m.track != nil:
		body = m.renderTrack()
	case len(m.stack) == 0 && m.loading:
		body = m.palette.Help("Loading library...")
	case len(m.stack) == 0:
		body = m.palette.Help("Nothing to show")
	default:
		body = m.current().list.View()
	}

	if m.err != nil {
		body = fmt.Sprintf("%s\n\n%s", body, m.palette.Err(fmt.Sprintf("Error: %v", m.err)))
	}
	return fmt.Sprintf("%s\n\n%s", body, m.help.View(m.keys))
}

// Path returns the uris of the open directories, root first.
func (m *Model) Path() []string {
	path := make([]string, 0, len(m.stack))
	for _, l := range m.stack {
		path = append(path, l.uri)
	}
	return path
}

func (m *Model) listSize() (int, int) {
	return max(m.width-4, 0), max(m.height-8, 0)
}

func (m *Model) current() *level {
	return &m.stack[len(m.stack)-1]
}

func (m *Model) push(u, title string, refs []models.Ref) {
	items := make([]list.Item, len(refs))
	for i, ref := range refs {
		items[i] = refItem{ref: ref}
	}

	w, h := m.listSize()
	l := list.New(items, list.NewDefaultDelegate(), w, h)
	l.Title = title
	l.SetShowHelp(false)

	// reload replaces the current level instead of nesting it
	if len(m.stack) > 0 && m.current().uri == u {
		m.stack[len(m.stack)-1] = level{uri: u, title: title, list: l}
		return
	}
	m.stack = append(m.stack, level{uri: u, title: title, list: l})
}

func (m *Model) handleBrowseKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if len(m.stack) > 0 && m.current().list.FilterState() == list.Filtering {
		return m.updateList(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		if len(m.stack) > 1 {
			m.stack = m.stack[:len(m.stack)-1]
			m.err = nil
		}
		return m, nil
	case key.Matches(msg, m.keys.reload):
		if len(m.stack) == 0 {
			return m, m.fetchRefs(uri.Root, "Emby")
		}
		cur := m.current()
		return m, m.fetchRefs(cur.uri, cur.title)
	case key.Matches(msg, m.keys.enter):
		if m.loading || len(m.stack) == 0 {
			return m, nil
		}
		selected, ok := m.current().list.SelectedItem().(refItem)
		if !ok {
			return m, nil
		}
		m.loading = true
		if selected.ref.Kind == models.KindTrack {
			return m, m.fetchTrack(selected.ref.URI)
		}
		return m, m.fetchRefs(selected.ref.URI, selected.ref.Name)
	}

	return m.updateList(msg)
}

func (m *Model) handleTrackKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = BrowseView
		m.track = nil
	}
	return m, nil
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.view != BrowseView || len(m.stack) == 0 {
		return m, nil
	}

	var cmd tea.Cmd
	cur := m.current()
	cur.list, cmd = cur.list.Update(msg)
	return m, cmd
}

func (m *Model) fetchRefs(u, title string) tea.Cmd {
	return func() tea.Msg {
		refs, err := m.nav.Browse(m.ctx, u)
		return refsFetchedMsg{uri: u, title: title, refs: refs, err: err}
	}
}

func (m *Model) fetchTrack(u string) tea.Cmd {
	return func() tea.Msg {
		byURI, err := m.nav.LookupMany(m.ctx, []string{u})
		if err != nil {
			return trackFetchedMsg{err: err}
		}
		tracks := byURI[u]
		if len(tracks) == 0 {
			return trackFetchedMsg{err: fmt.Errorf("no track found for %s", u)}
		}
		return trackFetchedMsg{track: &tracks[0]}
	}
}

func (m *Model) renderTrack() string {
	t := m.track
	var b strings.Builder

	b.WriteString(m.palette.Title(t.Name) + "\n\n")
	fmt.Fprintf(&b, "Artists: %s\n", formatter.ArtistNames(t.Artists))
	fmt.Fprintf(&b, "Album:   %s\n", t.Album.Name)
	fmt.Fprintf(&b, "Track:   %d\n", t.TrackNo)
	fmt.Fprintf(&b, "Length:  %s\n", formatter.FormatLength(t.Length))
	if t.Genre != "" {
		fmt.Fprintf(&b, "Genre:   %s\n", t.Genre)
	}
	fmt.Fprintf(&b, "URI:     %s\n", m.palette.Help(t.URI))
	if t.Artwork != "" {
		fmt.Fprintf(&b, "Artwork: %s\n", m.palette.Help(t.Artwork))
	}
	return b.String()
}
