package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/ncp/internal/models"
	"github.com/desertthunder/ncp/internal/player"
	"github.com/desertthunder/ncp/internal/shared"
)

const (
	seekStep      = 5.0
	chromeHeight  = 14
	emptyPlaylist = "No songs in this playlist"
)

// Store is the playlist cache the TUI reads from.
type Store interface {
	Get(ctx context.Context, id string) (*models.CacheEntry, error)
	Peek(id string) (*models.CacheEntry, bool)
	Clear()
}

// Player is the playback controller the TUI drives.
type Player interface {
	Load(ctx context.Context, track models.Track) error
	Toggle(ctx context.Context) error
	SeekBy(delta float64) error
	SetVisible(tracks []models.Track)
	Snapshot() player.Snapshot
	Subscribe(buffer int) (<-chan player.Snapshot, func())
}

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	store     Store
	player    Player
	logger    *log.Logger
	openPage  func(id string) error
	playlists []shared.PlaylistRef

	active   int
	entry    *models.CacheEntry
	loading  bool
	loadErr  error
	status   string
	scrolled int64

	snap      player.Snapshot
	updates   <-chan player.Snapshot
	unsub     func()
	trackList list.Model
	bar       progress.Model
	help      help.Model
	keys      keyMap
	width     int
	height    int
}

// NewModel creates a new TUI model. start selects the initial playlist by ID;
// when it is not among playlists it is added as an unnamed entry.
func NewModel(ctx context.Context, store Store, p Player, playlists []shared.PlaylistRef, start string, logger *log.Logger) *Model {
	active := -1
	for i, ref := range playlists {
		if ref.ID == start {
			active = i
			break
		}
	}
	if active < 0 && start != "" {
		playlists = append([]shared.PlaylistRef{{Name: start, ID: start}}, playlists...)
		active = 0
	}
	if active < 0 {
		active = 0
	}

	delegate := list.NewDefaultDelegate()
	tracks := list.New(nil, delegate, 0, 0)
	tracks.SetShowHelp(false)
	tracks.SetFilteringEnabled(false)
	tracks.SetShowStatusBar(true)
	tracks.DisableQuitKeybindings()
	tracks.Title = "Tracks"

	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	updates, unsub := p.Subscribe(32)

	return &Model{
		ctx:       ctx,
		store:     store,
		player:    p,
		logger:    logger,
		openPage:  shared.OpenPlaylistPage,
		playlists: playlists,
		active:    active,
		snap:      p.Snapshot(),
		updates:   updates,
		unsub:     unsub,
		trackList: tracks,
		bar:       progress.New(progress.WithSolidFill("#C20C0C"), progress.WithoutPercentage()),
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init selects the initial playlist and starts listening for playback updates.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.selectPlaylist(m.active), m.waitForSnapshot())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.trackList.SetSize(msg.Width-2, max(msg.Height-chromeHeight, 5))
		m.bar.Width = max(msg.Width-30, 10)
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		return m.handleKeys(msg)
	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgPlaylistLoaded:
		data := msg.data.(playlistLoaded)
		if data.id != m.activeID() {
			m.logger.Debug("dropping stale playlist result", "playlist", data.id)
			return m, nil
		}
		m.loading = false
		if data.err != nil {
			m.loadErr = data.err
			m.entry = nil
			m.player.SetVisible(nil)
			return m, m.trackList.SetItems(nil)
		}
		return m, m.showEntry(data.entry)

	case MsgSnapshot:
		m.snap = m.player.Snapshot()
		return m, tea.Batch(m.syncNowPlaying(), m.waitForSnapshot())

	case MsgSubscriptionClosed:
		return m, nil

	case MsgPlaybackResult:
		if err, _ := msg.data.(error); err != nil && !errors.Is(err, shared.ErrSuperseded) {
			m.logger.Warn("playback failed", "error", err)
		}
		m.snap = m.player.Snapshot()
		return m, m.syncNowPlaying()

	case MsgBrowserOpened:
		data := msg.data.(struct {
			url string
			err error
		})
		if data.err != nil {
			m.status = fmt.Sprintf("could not open %s: %v", data.url, data.err)
		} else {
			m.status = "opened " + data.url
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		if m.unsub != nil {
			m.unsub()
		}
		return m, tea.Quit
	case key.Matches(msg, m.keys.play):
		if item, ok := m.trackList.SelectedItem().(trackItem); ok {
			return m, m.load(item.track)
		}
		return m, nil
	case key.Matches(msg, m.keys.toggle):
		return m, m.toggle()
	case key.Matches(msg, m.keys.back):
		m.seek(-seekStep)
		return m, nil
	case key.Matches(msg, m.keys.forward):
		m.seek(seekStep)
		return m, nil
	case key.Matches(msg, m.keys.next):
		if len(m.playlists) == 0 {
			return m, nil
		}
		return m, m.selectPlaylist((m.active + 1) % len(m.playlists))
	case key.Matches(msg, m.keys.prev):
		if len(m.playlists) == 0 {
			return m, nil
		}
		return m, m.selectPlaylist((m.active - 1 + len(m.playlists)) % len(m.playlists))
	case key.Matches(msg, m.keys.playlist):
		i := int(msg.String()[0] - '1')
		if i < len(m.playlists) {
			return m, m.selectPlaylist(i)
		}
		return m, nil
	case key.Matches(msg, m.keys.clear):
		m.store.Clear()
		m.status = "cache cleared"
		return m, m.selectPlaylist(m.active)
	case key.Matches(msg, m.keys.open):
		return m, m.openBrowser()
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) activeID() string {
	if m.active < 0 || m.active >= len(m.playlists) {
		return ""
	}
	return m.playlists[m.active].ID
}

// selectPlaylist switches to playlist i. A cached playlist renders immediately;
// otherwise a loading state is shown while it is fetched.
func (m *Model) selectPlaylist(i int) tea.Cmd {
	m.active = i
	id := m.activeID()
	if id == "" {
		return nil
	}

	if entry, ok := m.store.Peek(id); ok {
		m.loading = false
		return m.showEntry(entry)
	}

	m.loading = true
	m.loadErr = nil
	m.entry = nil
	reset := m.trackList.SetItems(nil)
	return tea.Batch(reset, func() tea.Msg {
		entry, err := m.store.Get(m.ctx, id)
		return playlistLoadedMsg(id, entry, err)
	})
}

func (m *Model) showEntry(entry *models.CacheEntry) tea.Cmd {
	m.entry = entry
	m.loadErr = nil
	m.player.SetVisible(entry.Tracks)
	m.trackList.Title = entry.Detail.Name
	cmd := m.trackList.SetItems(trackItems(entry.Tracks, m.nowPlayingID()))
	m.trackList.ResetSelected()
	m.scrolled = 0
	return tea.Batch(cmd, m.syncNowPlaying())
}

func (m *Model) nowPlayingID() int64 {
	if m.snap.Track == nil {
		return 0
	}
	return m.snap.Track.ID
}

// syncNowPlaying re-marks the playing track and scrolls to it once it starts.
func (m *Model) syncNowPlaying() tea.Cmd {
	if m.entry == nil {
		return nil
	}
	id := m.nowPlayingID()
	selected := m.trackList.Index()
	cmd := m.trackList.SetItems(trackItems(m.entry.Tracks, id))
	m.trackList.Select(selected)

	if m.snap.State == player.Playing && id != 0 && id != m.scrolled {
		if idx := m.entry.IndexOf(id); idx >= 0 {
			m.trackList.Select(idx)
			m.scrolled = id
		}
	}
	return cmd
}

func (m *Model) load(track models.Track) tea.Cmd {
	m.status = ""
	return func() tea.Msg {
		return playbackResultMsg(m.player.Load(m.ctx, track))
	}
}

func (m *Model) toggle() tea.Cmd {
	return func() tea.Msg {
		return playbackResultMsg(m.player.Toggle(m.ctx))
	}
}

func (m *Model) seek(delta float64) {
	if err := m.player.SeekBy(delta); err != nil {
		m.status = "seek failed: " + err.Error()
	}
}

func (m *Model) openBrowser() tea.Cmd {
	id := m.activeID()
	if id == "" {
		return nil
	}
	open := m.openPage
	return func() tea.Msg {
		return browserOpenedMsg(shared.PlaylistPageURL(id), open(id))
	}
}

func (m *Model) waitForSnapshot() tea.Cmd {
	updates := m.updates
	return func() tea.Msg {
		if updates == nil {
			return subscriptionClosedMsg()
		}
		snap, ok := <-updates
		if !ok {
			return subscriptionClosedMsg()
		}
		return snapshotMsg(snap)
	}
}

// View renders the selector, detail panel, track list, and now-playing bar.
func (m *Model) View() string {
	sections := []string{
		m.renderTabs(),
		m.renderDetail(),
		m.renderTracks(),
		m.renderNowPlaying(),
		m.renderFooter(),
		m.help.View(m.keys),
	}
	return strings.Join(sections, "\n")
}

func (m *Model) renderTabs() string {
	tabs := make([]string, len(m.playlists))
	for i, ref := range m.playlists {
		label := fmt.Sprintf("%d %s", i+1, ref.Name)
		if i == m.active {
			tabs[i] = styles.active.Render(label)
		} else {
			tabs[i] = styles.tab.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m *Model) renderDetail() string {
	var body string
	switch {
	case m.loading:
		body = styles.help.Render("Loading playlist...")
	case m.loadErr != nil:
		body = styles.err.Render("Failed to load playlist: " + m.loadErr.Error())
	case m.entry == nil:
		body = styles.help.Render("No playlist selected")
	default:
		d := m.entry.Detail
		body = fmt.Sprintf("%s\n%s\n%s\n%s",
			styles.ok.Render(d.Name),
			"by "+d.Creator.Nickname,
			fmt.Sprintf("▶ %s plays · ♥ %s subscribers · %d tracks",
				shared.FormatNumber(d.PlayCount), shared.FormatNumber(d.SubscribedCount), d.TrackCount),
			styles.help.Render(truncate(d.DescriptionOrDefault(), max(m.width-6, 40))),
		)
	}

	if m.width > 4 {
		return styles.panel.Width(m.width - 4).Render(body)
	}
	return styles.panel.Render(body)
}

func (m *Model) renderTracks() string {
	switch {
	case m.loading:
		return styles.help.Render("Loading tracks...")
	case m.loadErr != nil:
		return styles.err.Render("Failed to load tracks: " + m.loadErr.Error())
	case m.entry != nil && len(m.entry.Tracks) == 0:
		return styles.warn.Render(emptyPlaylist)
	case m.entry == nil:
		return ""
	}
	return m.trackList.View()
}

func (m *Model) renderNowPlaying() string {
	snap := m.snap
	title := snap.Title
	if title == "" {
		title = "Nothing playing"
	}
	if snap.State == player.Error {
		title = styles.err.Render(title)
	}

	total := snap.Total
	if total == "" {
		total = "--:--"
	}

	return fmt.Sprintf("%s %s\n%s %s %s",
		snap.Icon, title,
		snap.Elapsed, m.bar.ViewAs(snap.Progress/100), total,
	)
}

func (m *Model) renderFooter() string {
	footer := styles.link.Render(shared.PlaylistPageURL(m.activeID()))
	if m.status != "" {
		footer += "  " + styles.help.Render(m.status)
	}
	return footer
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
