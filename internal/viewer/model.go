package viewer

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kbukum/convoview/internal/api"
	"github.com/kbukum/convoview/internal/client"
	"github.com/kbukum/convoview/internal/conversation"
	"github.com/kbukum/convoview/internal/media"
	"github.com/kbukum/convoview/internal/stats"
	"github.com/kbukum/convoview/internal/timeline"
	"github.com/kbukum/convoview/internal/transcript"
)

const (
	// TickInterval is the playback clock period.
	TickInterval = 100 * time.Millisecond
	// SeekStep is how far left and right move the playhead.
	SeekStep = 5 * time.Second

	pageSize = 100
)

// Source is what the viewer reads from. *client.Client implements it.
type Source interface {
	List(ctx context.Context, page, pageSize int) (client.Page, error)
	Get(ctx context.Context, id uint) (*conversation.Conversation, error)
	Stats(ctx context.Context, id uint) (*stats.Stats, error)
	Fragments(ctx context.Context, id uint, q transcript.Query) (*api.FragmentsResponse, error)
	Regions(ctx context.Context, id uint, mode timeline.Mode) (*api.RegionsResponse, error)
	AudioURL(ctx context.Context, id uint) (media.Link, error)
	Subscribe(ctx context.Context) (*client.Subscription, error)
}

var _ Source = (*client.Client)(nil)

type screen int

const (
	screenList screen = iota
	screenDetail
)

// Model is the root bubbletea model: a conversation list and a detail
// screen with the transcript, its stats and a playback timeline.
type Model struct {
	src Source
	ctx context.Context

	screen screen
	width  int
	height int

	// List
	items    []conversation.Conversation
	total    int64
	selected int
	loading  bool

	// Detail
	opening   uint // id of the last conversation opened from the list
	conv      *conversation.Conversation
	doc       *conversation.Document
	stats     *stats.Stats
	fragments *api.FragmentsResponse
	regions   *api.RegionsResponse
	audio     *AudioLinkMsg
	mode      timeline.Mode
	query     transcript.Query
	classIdx  int // -1 shows every class
	row       int
	follow    bool
	playback  *timeline.Playback
	tickGen   int

	// Search prompt
	searching bool
	input     string

	// Events
	sub  *client.Subscription
	live bool

	errMessage string
}

// New creates the model. ctx bounds every request and the event stream.
func New(ctx context.Context, src Source) Model {
	return Model{
		src:      src,
		ctx:      ctx,
		mode:     timeline.ModeSpeaker,
		classIdx: -1,
		follow:   true,
		loading:  true,
	}
}

// Init loads the list and opens the event stream.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.listCmd(), m.subscribeCmd())
}

func (m Model) listCmd() tea.Cmd {
	src, ctx := m.src, m.ctx
	return func() tea.Msg {
		page, err := src.List(ctx, 1, pageSize)
		if err != nil {
			return ErrMsg{Err: err}
		}
		return ListLoadedMsg{Page: page}
	}
}

func (m Model) detailCmd(id uint) tea.Cmd {
	src, ctx := m.src, m.ctx
	return func() tea.Msg {
		conv, err := src.Get(ctx, id)
		if err != nil {
			return ErrMsg{Err: err}
		}
		doc, err := conv.Document()
		if err != nil {
			return ErrMsg{Err: err}
		}
		msg := DetailLoadedMsg{ID: id, Conversation: conv, Document: doc}
		s, err := src.Stats(ctx, id)
		switch {
		case err == nil:
			msg.Stats = s
		case errors.Is(err, client.ErrNotFound):
			// No file_data: the header shows nothing.
		default:
			return ErrMsg{Err: err}
		}
		return msg
	}
}

func (m Model) fragmentsCmd() tea.Cmd {
	src, ctx, id, q := m.src, m.ctx, m.conv.ID, m.query
	return func() tea.Msg {
		resp, err := src.Fragments(ctx, id, q)
		if err != nil {
			return ErrMsg{Err: err}
		}
		return FragmentsLoadedMsg{ID: id, Response: resp}
	}
}

func (m Model) regionsCmd() tea.Cmd {
	src, ctx, id, mode := m.src, m.ctx, m.conv.ID, m.mode
	return func() tea.Msg {
		resp, err := src.Regions(ctx, id, mode)
		if err != nil {
			return ErrMsg{Err: err}
		}
		return RegionsLoadedMsg{ID: id, Response: resp}
	}
}

func (m Model) audioCmd() tea.Cmd {
	src, ctx, id := m.src, m.ctx, m.conv.ID
	return func() tea.Msg {
		link, err := src.AudioURL(ctx, id)
		return AudioLinkMsg{ID: id, Link: link, Err: err}
	}
}

func (m Model) subscribeCmd() tea.Cmd {
	src, ctx := m.src, m.ctx
	return func() tea.Msg {
		sub, err := src.Subscribe(ctx)
		if err != nil {
			return EventErrMsg{Err: err}
		}
		return SubscribedMsg{Sub: sub}
	}
}

func readEventCmd(sub *client.Subscription) tea.Cmd {
	return func() tea.Msg {
		ev, err := sub.Next()
		if err != nil {
			return EventErrMsg{Err: err}
		}
		return EventMsg{Event: ev}
	}
}

func tickCmd(gen int) tea.Cmd {
	return tea.Tick(TickInterval, func(t time.Time) tea.Msg {
		return TickMsg{Gen: gen, At: t}
	})
}

// Update handles a message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.searching {
			return m.handleSearchKey(msg)
		}
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case ListLoadedMsg:
		m.loading = false
		m.errMessage = ""
		m.items = msg.Page.Items
		m.total = msg.Page.Meta.Total
		if m.selected >= len(m.items) {
			m.selected = max(0, len(m.items)-1)
		}
		return m, nil

	case DetailLoadedMsg:
		if m.screen != screenDetail || msg.ID != m.opening {
			return m, nil
		}
		m.loading = false
		m.errMessage = ""
		m.conv = msg.Conversation
		m.doc = msg.Document
		m.stats = msg.Stats
		m.playback = timeline.NewPlayback(timeline.NewCursor(m.doc), 0)
		m.fragments = nil
		m.regions = nil
		m.audio = nil
		m.query = transcript.Query{}
		m.classIdx = -1
		m.row = 0
		m.follow = true
		m.tickGen++
		return m, tea.Batch(m.fragmentsCmd(), m.regionsCmd(), m.audioCmd(), tickCmd(m.tickGen))

	case FragmentsLoadedMsg:
		if m.conv == nil || msg.ID != m.conv.ID {
			return m, nil
		}
		m.fragments = msg.Response
		m.row = 0
		if m.follow {
			m.followActive()
		}
		return m, nil

	case RegionsLoadedMsg:
		if m.conv == nil || msg.ID != m.conv.ID {
			return m, nil
		}
		m.regions = msg.Response
		if m.playback != nil && msg.Response != nil {
			m.playback.SetDuration(msg.Response.Duration)
		}
		return m, nil

	case AudioLinkMsg:
		if m.conv == nil || msg.ID != m.conv.ID {
			return m, nil
		}
		m.audio = &msg
		return m, nil

	case TickMsg:
		if m.screen != screenDetail || msg.Gen != m.tickGen || m.playback == nil {
			return m, nil
		}
		if m.playback.Playing() {
			m.playback.Advance(TickInterval)
			if m.playback.Changed() && m.follow {
				m.followActive()
			}
		}
		return m, tickCmd(m.tickGen)

	case ErrMsg:
		m.loading = false
		m.errMessage = msg.Err.Error()
		return m, nil

	case SubscribedMsg:
		m.sub = msg.Sub
		m.live = true
		return m, readEventCmd(m.sub)

	case EventMsg:
		var cmd tea.Cmd
		if msg.Event.Type == conversation.EventCreated {
			cmd = m.listCmd()
		}
		return m, tea.Batch(cmd, readEventCmd(m.sub))

	case EventErrMsg:
		m.live = false
		if m.sub != nil {
			_ = m.sub.Close()
			m.sub = nil
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyQuit, KeyCtrlC:
		if m.sub != nil {
			_ = m.sub.Close()
		}
		return m, tea.Quit
	}
	if m.screen == screenDetail {
		return m.handleDetailKey(msg)
	}

	switch msg.String() {
	case KeyUp, KeyK:
		if m.selected > 0 {
			m.selected--
		}
	case KeyDown, KeyJ:
		if m.selected < len(m.items)-1 {
			m.selected++
		}
	case KeyReload:
		m.loading = true
		return m, m.listCmd()
	case KeyEnter:
		if m.selected >= len(m.items) {
			return m, nil
		}
		m.screen = screenDetail
		m.loading = true
		m.opening = m.items[m.selected].ID
		m.conv = nil
		m.doc = nil
		m.playback = nil
		return m, m.detailCmd(m.opening)
	}
	return m, nil
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == KeyEsc || key == KeyBackspace {
		m.screen = screenList
		m.tickGen++
		if m.playback != nil {
			m.playback.Pause()
		}
		return m, nil
	}
	if m.conv == nil || m.playback == nil {
		return m, nil
	}

	switch key {
	case KeyUp, KeyK:
		if m.row > 0 {
			m.row--
		}
		m.follow = false
	case KeyDown, KeyJ:
		if m.row < m.rowCount()-1 {
			m.row++
		}
		m.follow = false
	case KeyEnter:
		if match, ok := m.selectedMatch(); ok {
			m.playback.Select(match.Index)
			m.follow = true
		}
	case KeySpace, KeySpaceName:
		m.playback.Toggle()
		m.follow = true
	case KeyLeft:
		m.playback.Seek(m.playback.Position() - SeekStep.Seconds())
		m.follow = true
		m.followActive()
	case KeyRight:
		m.playback.Seek(m.playback.Position() + SeekStep.Seconds())
		m.follow = true
		m.followActive()
	case KeySearch:
		m.searching = true
		m.input = m.query.Text
	case KeyClass:
		m.cycleClass()
		return m, m.fragmentsCmd()
	case KeyMode:
		m.mode = m.mode.Next()
		return m, m.regionsCmd()
	}
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.searching = false
		m.query.Text = m.input
		return m, m.fragmentsCmd()
	case tea.KeyEsc:
		m.searching = false
		m.input = ""
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.input += " "
	case tea.KeyRunes:
		m.input += string(msg.Runes)
	}
	return m, nil
}

// cycleClass moves the class filter through every known class and back to
// no filter.
func (m *Model) cycleClass() {
	var classes []string
	if m.fragments != nil {
		classes = m.fragments.Classes
	}
	if len(classes) == 0 {
		m.classIdx = -1
		m.query.Class = ""
		return
	}
	m.classIdx++
	if m.classIdx >= len(classes) {
		m.classIdx = -1
		m.query.Class = ""
		return
	}
	m.query.Class = classes[m.classIdx]
}

func (m Model) rowCount() int {
	if m.fragments == nil {
		return 0
	}
	return len(m.fragments.Items)
}

func (m Model) selectedMatch() (transcript.Match, bool) {
	if m.row < 0 || m.row >= m.rowCount() {
		return transcript.Match{}, false
	}
	return m.fragments.Items[m.row], true
}

// followActive moves the selection to the fragment under the playhead when
// it is part of the filtered list.
func (m *Model) followActive() {
	if m.playback == nil || m.fragments == nil {
		return
	}
	active := m.playback.Active()
	for i, match := range m.fragments.Items {
		if match.Index == active {
			m.row = i
			return
		}
	}
}

// Status summarizes the model for the footer.
func (m Model) Status() string {
	if m.playback == nil {
		return ""
	}
	state := "paused"
	if m.playback.Playing() {
		state = "playing"
	}
	return fmt.Sprintf("%s %s / %s", state,
		stats.FormatClock(int64(m.playback.Position()*1000)),
		stats.FormatClock(int64(m.playback.Duration()*1000)))
}
