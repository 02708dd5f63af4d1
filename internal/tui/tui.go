// Package tui provides the interactive recipe browser.
package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"recipefinder/internal/mealdb"
	"recipefinder/internal/storage"
	"recipefinder/internal/utils"
	"recipefinder/internal/views"
)

// Status texts shown in the status line.
const (
	msgEmptySearch   = "Type something to search"
	msgLoading       = "Loading..."
	msgNoRecipes     = "No recipes found"
	msgSearchFailed  = "Search failed — try again"
	msgFilterFailed  = "Filter failed"
	msgRandomFailed  = "Random fetch failed"
	msgDetailFailed  = "Could not load recipe details"
	msgSaved         = "Saved to favorites"
	msgRemoved       = "Removed from favorites"
	msgSaveFailed    = "Could not save favorites"
	msgInitFailed    = "Initialization error — check network"
	msgNothingToClr  = "No favorites to clear"
	msgCleared       = "Favorites cleared"
	msgThemeFailed   = "Could not save theme"
	msgRandomPartial = "Some random recipes failed to load"
)

// Service is the subset of the query service the browser needs.
type Service interface {
	Search(ctx context.Context, term string) ([]mealdb.Recipe, error)
	Featured(ctx context.Context) ([]mealdb.Recipe, error)
	FilterByCategory(ctx context.Context, category string) ([]mealdb.Recipe, error)
	FilterByArea(ctx context.Context, area string) ([]mealdb.Recipe, error)
	Lookup(ctx context.Context, id string) (*mealdb.Recipe, error)
	LookupAll(ctx context.Context, ids []string) ([]mealdb.Recipe, error)
	RandomBatch(ctx context.Context, n int) ([]mealdb.Recipe, error)
	ListCategories(ctx context.Context) ([]string, error)
	ListAreas(ctx context.Context) ([]string, error)
}

// Favorites is the favorites store.
type Favorites interface {
	Toggle(ctx context.Context, id string) (bool, error)
	Remove(ctx context.Context, id string) error
	Clear(ctx context.Context) (bool, error)
	Contains(id string) bool
	IDs() []string
	Len() int
}

// ThemeStore persists the theme preference.
type ThemeStore interface {
	SetTheme(ctx context.Context, theme string) error
}

// Options holds the timing and sizing knobs of the browser.
type Options struct {
	SearchDebounce   time.Duration
	MinSearchChars   int
	StatusTimeout    time.Duration
	InitErrorTimeout time.Duration
	RefreshInterval  time.Duration
	RandomCount      int
	Theme            string
}

// DefaultOptions returns the stock timings.
func DefaultOptions() Options {
	return Options{
		SearchDebounce:   700 * time.Millisecond,
		MinSearchChars:   2,
		StatusTimeout:    2200 * time.Millisecond,
		InitErrorTimeout: 3500 * time.Millisecond,
		RefreshInterval:  1500 * time.Millisecond,
		RandomCount:      4,
		Theme:            storage.ThemeDark,
	}
}

// Mode indicates the current input mode
type Mode int

const (
	ModeBrowse Mode = iota
	ModeSearch
	ModeDetail
	ModeFavorites
	ModePicker
	ModeHelp
	ModeConfirmClear
)

// region is a part of the screen that receives asynchronous results.
type region int

const (
	regionGrid region = iota
	regionDetail
	regionFavorites
	regionCount
)

type pickerKind int

const (
	pickCategory pickerKind = iota
	pickArea
)

type status struct {
	id    string
	text  string
	isErr bool
}

type tickFunc func(time.Duration, func(time.Time) tea.Msg) tea.Cmd

// Model represents the TUI state
type Model struct {
	svc    Service
	favs   Favorites
	themes ThemeStore
	ctx    context.Context
	opts   Options
	tick   tickFunc

	// Data
	categories []string
	areas      []string
	grid       []views.Card
	heading    string
	detail     *views.Detail
	favCards   []views.Card

	// Selection
	cursor      int
	favCursor   int
	selCategory string
	selArea     string

	// Mode and input
	mode         Mode
	detailReturn Mode
	search       textinput.Model
	debounceSeq  int
	picker       pickerKind
	pickerCursor int

	// Async bookkeeping
	tokens  [regionCount]uint64
	loading [regionCount]bool
	status  status

	// UI
	theme   string
	palette *views.Palette
	width   int
	height  int
}

// New creates a new TUI model. themes may be nil, in which case theme
// changes are not persisted.
func New(svc Service, favs Favorites, themes ThemeStore, opts Options) *Model {
	def := DefaultOptions()
	if opts.SearchDebounce < 0 {
		opts.SearchDebounce = 0
	}
	if opts.MinSearchChars <= 0 {
		opts.MinSearchChars = def.MinSearchChars
	}
	if opts.StatusTimeout <= 0 {
		opts.StatusTimeout = def.StatusTimeout
	}
	if opts.InitErrorTimeout <= 0 {
		opts.InitErrorTimeout = def.InitErrorTimeout
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = def.RefreshInterval
	}
	if opts.RandomCount <= 0 {
		opts.RandomCount = def.RandomCount
	}
	if opts.Theme != storage.ThemeLight {
		opts.Theme = storage.ThemeDark
	}

	ti := textinput.New()
	ti.Placeholder = "Search recipes..."
	ti.CharLimit = 100
	ti.Prompt = "/ "
	_ = ti.Cursor.SetMode(cursor.CursorStatic)

	return &Model{
		svc:     svc,
		favs:    favs,
		themes:  themes,
		ctx:     context.Background(),
		opts:    opts,
		tick:    tea.Tick,
		search:  ti,
		mode:    ModeBrowse,
		heading: "Featured recipes",
		theme:   opts.Theme,
		palette: views.PaletteFor(opts.Theme),
	}
}

// WithContext makes every request use ctx, so cancelling it aborts
// in-flight loads.
func (m *Model) WithContext(ctx context.Context) *Model {
	m.ctx = ctx
	return m
}

// Init loads filter labels and the featured listing and starts the refresh tick.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadLabels(pickCategory),
		m.loadLabels(pickArea),
		m.loadGrid("Featured recipes", msgInitFailed, m.svc.Featured, true),
		m.scheduleRefresh(),
	)
}

func (m *Model) nextToken(r region) uint64 {
	m.tokens[r]++
	m.loading[r] = true
	return m.tokens[r]
}

// current reports whether token is the latest issued for r.
func (m *Model) current(r region, token uint64) bool {
	return m.tokens[r] == token
}

// setStatus shows text and schedules its removal after d. d == 0 keeps it
// until replaced.
func (m *Model) setStatus(text string, isErr bool, d time.Duration) tea.Cmd {
	id := uuid.NewString()
	m.status = status{id: id, text: text, isErr: isErr}
	if d <= 0 {
		return nil
	}
	return m.tick(d, func(time.Time) tea.Msg { return statusExpiredMsg{id: id} })
}

func (m *Model) info(text string) tea.Cmd {
	return m.setStatus(text, false, m.opts.StatusTimeout)
}

func (m *Model) fail(text string) tea.Cmd {
	return m.setStatus(text, true, m.opts.StatusTimeout)
}

func (m *Model) scheduleRefresh() tea.Cmd {
	return m.tick(m.opts.RefreshInterval, func(time.Time) tea.Msg { return refreshTickMsg{} })
}

// syncFavoriteStates re-reads membership for everything on screen.
func (m *Model) syncFavoriteStates() {
	if m.favs == nil {
		return
	}
	for i := range m.grid {
		m.grid[i].SetFavorite(m.favs.Contains(m.grid[i].ID))
	}
	if m.detail != nil {
		m.detail.SetFavorite(m.favs.Contains(m.detail.ID))
	}
}

func (m *Model) isFavorite(id string) bool {
	return m.favs != nil && m.favs.Contains(id)
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.search.Width = max(10, msg.Width/2)
		return m, nil

	case labelsLoadedMsg:
		if msg.err != nil {
			utils.Warnf("loading %s labels failed: %v", msg.kind, msg.err)
			return m, nil
		}
		if msg.kind == pickCategory {
			m.categories = msg.labels
		} else {
			m.areas = msg.labels
		}
		return m, nil

	case gridLoadedMsg:
		return m, m.applyGrid(msg)

	case detailLoadedMsg:
		return m, m.applyDetail(msg)

	case favoritesLoadedMsg:
		if !m.current(regionFavorites, msg.token) {
			return m, nil
		}
		m.loading[regionFavorites] = false
		if msg.err != nil {
			utils.Warnf("favorite lookups failed: %v", msg.err)
		}
		m.favCards = views.BuildCards(msg.recipes, m.isFavorite)
		m.favCursor = clamp(m.favCursor, len(m.favCards))
		return m, nil

	case debounceMsg:
		if msg.seq != m.debounceSeq {
			return m, nil
		}
		query := strings.TrimSpace(msg.query)
		if len([]rune(query)) < m.opts.MinSearchChars {
			return m, nil
		}
		return m, m.startSearch(query)

	case statusExpiredMsg:
		if m.status.id == msg.id {
			m.status = status{}
		}
		return m, nil

	case refreshTickMsg:
		m.syncFavoriteStates()
		return m, m.scheduleRefresh()

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.mode {
		case ModeSearch:
			return m.handleSearchMode(msg)
		case ModeDetail:
			return m.handleDetailMode(msg)
		case ModeFavorites:
			return m.handleFavoritesMode(msg)
		case ModePicker:
			return m.handlePickerMode(msg)
		case ModeHelp:
			m.mode = ModeBrowse
			return m, nil
		case ModeConfirmClear:
			return m.handleConfirmClearMode(msg)
		}
		return m.handleBrowseMode(msg)
	}

	return m, nil
}

func (m *Model) applyGrid(msg gridLoadedMsg) tea.Cmd {
	if !m.current(regionGrid, msg.token) {
		return nil
	}
	m.loading[regionGrid] = false

	if msg.err != nil && len(msg.recipes) == 0 {
		utils.Warnf("%s: %v", msg.heading, msg.err)
		if msg.initial {
			return m.setStatus(msgInitFailed, true, m.opts.InitErrorTimeout)
		}
		return m.fail(utils.UserMessage(msg.err, msg.failMsg))
	}

	m.heading = msg.heading
	m.grid = views.BuildCards(msg.recipes, m.isFavorite)
	m.cursor = clamp(m.cursor, len(m.grid))

	if msg.err != nil {
		utils.Warnf("%s: partial failure: %v", msg.heading, msg.err)
		return m.info(msgRandomPartial)
	}
	if len(m.grid) == 0 {
		return m.setStatus(msgNoRecipes, false, 2*time.Second)
	}
	if m.status.text == msgLoading {
		m.status = status{}
	}
	return nil
}

func (m *Model) applyDetail(msg detailLoadedMsg) tea.Cmd {
	if !m.current(regionDetail, msg.token) {
		return nil
	}
	m.loading[regionDetail] = false

	if msg.err != nil {
		utils.Warnf("lookup failed: %v", msg.err)
		if m.mode == ModeDetail && m.detail == nil {
			m.mode = m.detailReturn
		}
		return m.fail(utils.UserMessage(msg.err, msgDetailFailed))
	}
	d := views.BuildDetail(*msg.recipe, m.isFavorite(msg.recipe.ID))
	m.detail = &d
	return nil
}

func (m *Model) handleBrowseMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down", "j":
		if m.cursor < len(m.grid)-1 {
			m.cursor++
		}
		return m, nil

	case "/":
		m.mode = ModeSearch
		m.search.Focus()
		return m, nil

	case "enter":
		if c, ok := m.selected(); ok {
			return m, m.openDetail(c.ID, ModeBrowse)
		}
		return m, nil

	case "f":
		if c, ok := m.selected(); ok {
			return m, m.toggleFavorite(c.ID)
		}
		return m, nil

	case "F":
		return m, m.openFavorites()

	case "c":
		m.openPicker(pickCategory)
		return m, nil

	case "a":
		m.openPicker(pickArea)
		return m, nil

	case "r":
		return m, m.startRandom()

	case "t":
		return m, m.toggleTheme()

	case "?":
		m.mode = ModeHelp
		return m, nil
	}
	return m, nil
}

func (m *Model) handleSearchMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		query := strings.TrimSpace(m.search.Value())
		// Invalidate any pending debounce for the same text.
		m.debounceSeq++
		m.search.Blur()
		m.mode = ModeBrowse
		if query == "" {
			return m, m.info(msgEmptySearch)
		}
		return m, m.startSearch(query)

	case tea.KeyEsc:
		m.search.Blur()
		m.mode = ModeBrowse
		return m, nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() == before {
		return m, cmd
	}

	m.debounceSeq++
	seq, query := m.debounceSeq, m.search.Value()
	debounce := m.tick(m.opts.SearchDebounce, func(time.Time) tea.Msg {
		return debounceMsg{seq: seq, query: query}
	})
	return m, tea.Batch(cmd, debounce)
}

func (m *Model) handleDetailMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace", "q":
		m.mode = m.detailReturn
		m.detail = nil
		// Drop a lookup still in flight.
		m.tokens[regionDetail]++
		m.loading[regionDetail] = false
		return m, nil
	case "f":
		if m.detail != nil {
			return m, m.toggleFavorite(m.detail.ID)
		}
	case "t":
		return m, m.toggleTheme()
	}
	return m, nil
}

func (m *Model) handleFavoritesMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "F":
		m.mode = ModeBrowse
		m.tokens[regionFavorites]++
		m.loading[regionFavorites] = false
		return m, nil

	case "up", "k":
		if m.favCursor > 0 {
			m.favCursor--
		}
		return m, nil

	case "down", "j":
		if m.favCursor < len(m.favCards)-1 {
			m.favCursor++
		}
		return m, nil

	case "enter":
		if m.favCursor < len(m.favCards) {
			return m, m.openDetail(m.favCards[m.favCursor].ID, ModeFavorites)
		}
		return m, nil

	case "x":
		if m.favCursor < len(m.favCards) {
			return m, m.removeFavorite(m.favCards[m.favCursor].ID)
		}
		return m, nil

	case "C":
		return m, m.confirmClear()
	}
	return m, nil
}

func (m *Model) handlePickerMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.pickerItems()
	switch msg.String() {
	case "esc", "q":
		m.mode = ModeBrowse
		return m, nil
	case "up", "k":
		if m.pickerCursor > 0 {
			m.pickerCursor--
		}
		return m, nil
	case "down", "j":
		if m.pickerCursor < len(items)-1 {
			m.pickerCursor++
		}
		return m, nil
	case "enter":
		m.mode = ModeBrowse
		choice := ""
		if m.pickerCursor > 0 && m.pickerCursor < len(items) {
			choice = items[m.pickerCursor]
		}
		return m, m.selectFilter(m.picker, choice)
	}
	return m, nil
}

func (m *Model) handleConfirmClearMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.mode = ModeFavorites
		cleared, err := m.favs.Clear(m.ctx)
		if err != nil {
			utils.Errorf("clearing favorites failed: %v", err)
			return m, m.fail(msgSaveFailed)
		}
		m.favCards = nil
		m.favCursor = 0
		m.syncFavoriteStates()
		if !cleared {
			return m, m.info(msgNothingToClr)
		}
		return m, m.info(msgCleared)

	case "n", "N", "esc":
		m.mode = ModeFavorites
		return m, nil
	}
	return m, nil
}

func (m *Model) selected() (views.Card, bool) {
	if m.cursor < 0 || m.cursor >= len(m.grid) {
		return views.Card{}, false
	}
	return m.grid[m.cursor], true
}

// startSearch replaces the grid with search results; any category or area
// filter no longer describes the listing and is dropped.
func (m *Model) startSearch(query string) tea.Cmd {
	m.clearFilters()
	loading := m.setStatus(msgLoading, false, 0)
	load := m.loadGrid(`Results for "`+query+`"`, msgSearchFailed, func(ctx context.Context) ([]mealdb.Recipe, error) {
		return m.svc.Search(ctx, query)
	}, false)
	return tea.Batch(loading, load)
}

func (m *Model) startRandom() tea.Cmd {
	m.clearFilters()
	n := m.opts.RandomCount
	return m.loadGrid("Random picks", msgRandomFailed, func(ctx context.Context) ([]mealdb.Recipe, error) {
		return m.svc.RandomBatch(ctx, n)
	}, false)
}

func (m *Model) clearFilters() {
	m.selCategory = ""
	m.selArea = ""
}

func (m *Model) openPicker(kind pickerKind) {
	m.picker = kind
	m.pickerCursor = 0
	sel := m.selCategory
	if kind == pickArea {
		sel = m.selArea
	}
	for i, item := range m.pickerItems() {
		if i > 0 && item == sel {
			m.pickerCursor = i
		}
	}
	m.mode = ModePicker
}

// pickerItems lists the choices of the open picker; index 0 clears it.
func (m *Model) pickerItems() []string {
	labels := m.categories
	if m.picker == pickArea {
		labels = m.areas
	}
	return append([]string{"All"}, labels...)
}

// selectFilter applies a category or area. The two are mutually exclusive;
// clearing both returns to the featured listing.
func (m *Model) selectFilter(kind pickerKind, value string) tea.Cmd {
	if kind == pickCategory {
		m.selCategory = value
		if value != "" {
			m.selArea = ""
		}
	} else {
		m.selArea = value
		if value != "" {
			m.selCategory = ""
		}
	}

	switch {
	case m.selCategory != "":
		category := m.selCategory
		return m.loadGrid("Category: "+category, msgFilterFailed, func(ctx context.Context) ([]mealdb.Recipe, error) {
			return m.svc.FilterByCategory(ctx, category)
		}, false)
	case m.selArea != "":
		area := m.selArea
		return m.loadGrid("Area: "+area, msgFilterFailed, func(ctx context.Context) ([]mealdb.Recipe, error) {
			return m.svc.FilterByArea(ctx, area)
		}, false)
	default:
		return m.loadGrid("Featured recipes", msgFilterFailed, m.svc.Featured, false)
	}
}

func (m *Model) openDetail(id string, from Mode) tea.Cmd {
	m.detailReturn = from
	m.mode = ModeDetail
	m.detail = nil
	return m.loadDetail(id)
}

func (m *Model) openFavorites() tea.Cmd {
	m.mode = ModeFavorites
	m.favCursor = 0
	if m.favs == nil || m.favs.Len() == 0 {
		m.favCards = nil
		m.tokens[regionFavorites]++
		m.loading[regionFavorites] = false
		return nil
	}
	return m.loadFavorites(m.favs.IDs())
}

func (m *Model) toggleFavorite(id string) tea.Cmd {
	if m.favs == nil {
		return nil
	}
	now, err := m.favs.Toggle(m.ctx, id)
	if err != nil {
		utils.Errorf("toggling favorite %s failed: %v", id, err)
		return m.fail(msgSaveFailed)
	}
	m.syncFavoriteStates()
	if now {
		return m.info(msgSaved)
	}
	return m.info(msgRemoved)
}

func (m *Model) removeFavorite(id string) tea.Cmd {
	if err := m.favs.Remove(m.ctx, id); err != nil {
		utils.Errorf("removing favorite %s failed: %v", id, err)
		return m.fail(msgSaveFailed)
	}
	for i, c := range m.favCards {
		if c.ID == id {
			m.favCards = append(m.favCards[:i], m.favCards[i+1:]...)
			break
		}
	}
	m.favCursor = clamp(m.favCursor, len(m.favCards))
	m.syncFavoriteStates()
	return m.info(msgRemoved)
}

func (m *Model) confirmClear() tea.Cmd {
	if m.favs == nil || m.favs.Len() == 0 {
		return m.info(msgNothingToClr)
	}
	m.mode = ModeConfirmClear
	return nil
}

func (m *Model) toggleTheme() tea.Cmd {
	next := storage.ThemeLight
	if m.theme == storage.ThemeLight {
		next = storage.ThemeDark
	}
	m.theme = next
	m.palette = views.PaletteFor(next)
	if m.themes == nil {
		return nil
	}
	if err := m.themes.SetTheme(m.ctx, next); err != nil {
		utils.Errorf("saving theme failed: %v", err)
		return m.fail(msgThemeFailed)
	}
	return nil
}

// Theme returns the active theme name.
func (m *Model) Theme() string {
	return m.theme
}

func clamp(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
