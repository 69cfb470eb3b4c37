package ui

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/yash-srivastava19/notex/internal/editor"
	"github.com/yash-srivastava19/notex/internal/notes"
	"github.com/yash-srivastava19/notex/internal/persist"
	"github.com/yash-srivastava19/notex/internal/templates"
)

// statusLinger is how long "Saved" stays up before the idle status returns.
const statusLinger = time.Second

type appState int

const (
	stateBrowse appState = iota
	stateEdit
	stateFilter
	stateOpenLink
	stateTemplatePicker // N key: pick template
	stateTemplateTitle  // after template picked: enter title
	stateConfirmDelete
	stateHelp
)

// ── Messages ──────────────────────────────────────────────────────────────────

type externalChangeMsg struct {
	change persist.Change
}

type clearStatusMsg struct {
	gen int
}

// ── App struct ────────────────────────────────────────────────────────────────

// App is the main Bubble Tea model. All controller calls happen on the
// update loop.
type App struct {
	ctrl   *editor.Controller
	sched  *TickScheduler
	clip   func(string) error
	logger *slog.Logger

	state     appState
	prevState appState
	width     int
	height    int

	// Sidebar
	list       []*notes.Note
	filtered   []*notes.Note
	cursor     int
	listOffset int
	lastKey    string

	// Panes
	editor   textarea.Model
	viewport viewport.Model
	live     viewport.Model // rendered buffer under the editor

	// Inputs
	filterInput textinput.Model
	linkInput   textinput.Model
	titleInput  textinput.Model
	filterQuery string

	// Template picker
	templateCursor   int
	selectedTemplate string

	deleteTarget *notes.Note

	// Transient message that hides the controller status until the next key.
	flashMsg     string
	flashIsError bool
	statusGen    int

	mu     sync.Mutex
	events []editor.EventKind
}

type Option func(*App)

// WithClipboard replaces the system clipboard used by the copy key.
func WithClipboard(fn func(string) error) Option {
	return func(a *App) { a.clip = fn }
}

func WithLogger(l *slog.Logger) Option {
	return func(a *App) { a.logger = l }
}

// New builds the model. sched must be the scheduler the controller was
// created with so debounced commits arrive as messages.
func New(ctrl *editor.Controller, sched *TickScheduler, opts ...Option) *App {
	ta := textarea.New()
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.Prompt = ""
	ta.Placeholder = "start typing..."
	ta.Blur()

	fi := textinput.New()
	fi.Prompt = "/ "
	fi.Placeholder = "filter notes..."
	fi.CharLimit = 200

	li := textinput.New()
	li.Prompt = "link: "
	li.Placeholder = "paste a share link..."
	li.CharLimit = 0

	ti := textinput.New()
	ti.Placeholder = "note title..."
	ti.CharLimit = 200

	a := &App{
		ctrl:        ctrl,
		sched:       sched,
		clip:        clipboard.WriteAll,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		editor:      ta,
		viewport:    viewport.New(80, 20),
		live:        viewport.New(80, 10),
		filterInput: fi,
		linkInput:   li,
		titleInput:  ti,
	}
	for _, opt := range opts {
		opt(a)
	}

	ctrl.OnEvent(func(e editor.Event) {
		a.mu.Lock()
		a.events = append(a.events, e.Kind)
		a.mu.Unlock()
	})
	a.editor.SetValue(ctrl.Buffer())
	a.refreshList()
	a.followActive()
	return a
}

func (a *App) Init() tea.Cmd {
	return nil
}

// ── Update ────────────────────────────────────────────────────────────────────

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{a.handle(msg)}
	cmds = append(cmds, a.settle()...)
	return a, tea.Batch(cmds...)
}

func (a *App) handle(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.resize()
		a.renderPane()

	case commitTickMsg:
		a.sched.fire(msg.gen)

	case clearStatusMsg:
		if msg.gen == a.statusGen {
			if status, _ := a.ctrl.Status(); status == editor.StatusSaved {
				a.ctrl.ClearStatus()
			}
		}

	case externalChangeMsg:
		a.ctrl.ApplyExternal(msg.change)

	case tea.KeyMsg:
		a.flashMsg = ""

		switch a.state {
		case stateBrowse:
			return a.updateBrowse(msg)
		case stateEdit:
			return a.updateEdit(msg)
		case stateFilter:
			return a.updateFilter(msg)
		case stateOpenLink:
			return a.updateOpenLink(msg)
		case stateTemplatePicker:
			return a.updateTemplatePicker(msg)
		case stateTemplateTitle:
			return a.updateTemplateTitle(msg)
		case stateConfirmDelete:
			return a.updateConfirmDelete(msg)
		case stateHelp:
			return a.updateHelp(msg)
		}
	}
	return nil
}

// settle applies controller events raised while handling a message and
// collects the commands they need.
func (a *App) settle() []tea.Cmd {
	a.mu.Lock()
	kinds := a.events
	a.events = nil
	a.mu.Unlock()

	var cmds []tea.Cmd
	reload, list := false, false
	for _, k := range kinds {
		switch k {
		case editor.ActiveChanged, editor.BufferReplaced:
			reload = true
		case editor.ListChanged, editor.Committed:
			list = true
		case editor.StatusChanged:
			if status, _ := a.ctrl.Status(); status == editor.StatusSaved {
				a.statusGen++
				gen := a.statusGen
				cmds = append(cmds, tea.Tick(statusLinger, func(time.Time) tea.Msg {
					return clearStatusMsg{gen: gen}
				}))
			}
		}
	}
	if list || reload {
		a.refreshList()
	}
	if reload {
		a.editor.SetValue(a.ctrl.Buffer())
		a.followActive()
		a.viewport.GotoTop()
	}
	if len(kinds) > 0 {
		if a.state == stateEdit {
			a.renderLive()
		} else {
			a.renderPane()
		}
	}
	return append(cmds, a.sched.take()...)
}

// ── Browse ────────────────────────────────────────────────────────────────────

func (a *App) updateBrowse(msg tea.KeyMsg) tea.Cmd {
	prev := a.lastKey
	a.lastKey = msg.String()

	switch msg.String() {
	case "q", "ctrl+c":
		a.ctrl.Blur()
		return tea.Quit

	case "j", "down":
		if a.cursor < len(a.filtered)-1 {
			a.cursor++
			a.ensureVisible()
		}

	case "k", "up":
		if a.cursor > 0 {
			a.cursor--
			a.ensureVisible()
		}

	case "g":
		if prev == "g" {
			a.cursor = 0
			a.listOffset = 0
			a.lastKey = ""
		}

	case "G":
		if len(a.filtered) > 0 {
			a.cursor = len(a.filtered) - 1
			a.ensureVisible()
		}

	case "enter", "l":
		a.openSelected()

	case "n":
		if _, err := a.ctrl.NewNote(""); err != nil {
			a.flash("save failed: "+err.Error(), true)
		}
		return a.startEditing()

	case "N":
		a.state = stateTemplatePicker
		a.templateCursor = 0

	case "d":
		if len(a.filtered) > 0 {
			a.deleteTarget = a.filtered[a.cursor]
			a.state = stateConfirmDelete
		}

	case "tab":
		a.ctrl.ToggleMode()

	case "i", "e":
		return a.startEditing()

	case "ctrl+s":
		a.ctrl.Save()

	case "y":
		a.copyShareLink()

	case "o":
		a.state = stateOpenLink
		a.linkInput.SetValue("")
		return a.linkInput.Focus()

	case "/":
		a.state = stateFilter
		a.filterInput.SetValue("")
		a.filterQuery = ""
		a.runFilter()
		a.cursor = 0
		a.lastKey = ""
		return a.filterInput.Focus()

	case "ctrl+d", "pgdown":
		a.viewport.ScrollDown(a.viewport.Height / 2)

	case "ctrl+u", "pgup":
		a.viewport.ScrollUp(a.viewport.Height / 2)

	case "?":
		a.prevState = stateBrowse
		a.state = stateHelp
	}
	return nil
}

func (a *App) openSelected() {
	if len(a.filtered) == 0 {
		return
	}
	if err := a.ctrl.Open(a.filtered[a.cursor].ID); err != nil {
		a.flash("open failed: "+err.Error(), true)
	}
}

func (a *App) startEditing() tea.Cmd {
	a.ctrl.SetMode(editor.Raw)
	a.state = stateEdit
	a.renderLive()
	return a.editor.Focus()
}

func (a *App) copyShareLink() {
	link, err := a.ctrl.ShareLink(a.ctrl.ActiveID())
	if err != nil {
		a.flash("share failed: "+err.Error(), true)
		return
	}
	if err := a.clip(link); err != nil {
		a.logger.Warn("clipboard", "error", err)
		a.flash("clipboard unavailable: "+link, true)
		return
	}
	a.flash("share link copied", false)
}

// ── Edit ──────────────────────────────────────────────────────────────────────

func (a *App) updateEdit(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		a.editor.Blur()
		a.ctrl.Blur()
		a.state = stateBrowse
		a.renderPane()
		return nil

	case "ctrl+s":
		a.ctrl.Save()
		return nil

	case "ctrl+c":
		a.ctrl.Blur()
		return tea.Quit
	}

	var cmd tea.Cmd
	a.editor, cmd = a.editor.Update(msg)
	if v := a.editor.Value(); v != a.ctrl.Buffer() {
		a.ctrl.SetBuffer(v)
	}
	a.ctrl.SetCursor(a.editor.Line())
	a.renderLive()
	return cmd
}

// ── Filter ────────────────────────────────────────────────────────────────────

func (a *App) updateFilter(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		a.state = stateBrowse
		a.filterInput.Blur()
		a.filterQuery = ""
		a.runFilter()
		a.followActive()
		return nil

	case "enter":
		a.openSelected()
		a.state = stateBrowse
		a.filterInput.Blur()
		a.filterQuery = ""
		a.runFilter()
		a.followActive()
		return nil

	case "ctrl+n", "down":
		if a.cursor < len(a.filtered)-1 {
			a.cursor++
			a.ensureVisible()
		}
		return nil

	case "ctrl+p", "up":
		if a.cursor > 0 {
			a.cursor--
			a.ensureVisible()
		}
		return nil
	}

	var cmd tea.Cmd
	a.filterInput, cmd = a.filterInput.Update(msg)
	if q := a.filterInput.Value(); q != a.filterQuery {
		a.filterQuery = q
		a.cursor = 0
		a.listOffset = 0
		a.runFilter()
	}
	return cmd
}

func (a *App) runFilter() {
	if a.filterQuery == "" {
		a.filtered = a.list
		return
	}
	targets := make([]string, len(a.list))
	for i, n := range a.list {
		targets[i] = n.Name + " " + n.Content
	}
	matches := fuzzy.Find(a.filterQuery, targets)
	result := make([]*notes.Note, 0, len(matches))
	for _, m := range matches {
		result = append(result, a.list[m.Index])
	}
	a.filtered = result
}

// ── Open link ─────────────────────────────────────────────────────────────────

func (a *App) updateOpenLink(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		a.state = stateBrowse
		a.linkInput.Blur()
		return nil

	case "enter":
		link := strings.TrimSpace(a.linkInput.Value())
		a.linkInput.Blur()
		a.state = stateBrowse
		if link == "" {
			return nil
		}
		n, created, err := a.ctrl.ImportLink(link)
		switch {
		case errors.Is(err, editor.ErrNothingToImport):
			a.flash("nothing to import from that link", true)
		case err != nil:
			a.flash("import failed: "+err.Error(), true)
		case created:
			a.flash("imported "+n.Name, false)
		default:
			a.flash("opened "+n.Name, false)
		}
		return nil
	}

	var cmd tea.Cmd
	a.linkInput, cmd = a.linkInput.Update(msg)
	return cmd
}

// ── Template Picker ───────────────────────────────────────────────────────────

func (a *App) updateTemplatePicker(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc", "q":
		a.state = stateBrowse

	case "j", "down":
		if a.templateCursor < len(templates.Names)-1 {
			a.templateCursor++
		}

	case "k", "up":
		if a.templateCursor > 0 {
			a.templateCursor--
		}

	case "enter", "l":
		a.selectedTemplate = templates.Names[a.templateCursor]
		a.state = stateTemplateTitle
		a.titleInput.SetValue("")
		return a.titleInput.Focus()
	}
	return nil
}

func (a *App) updateTemplateTitle(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		a.state = stateTemplatePicker
		a.titleInput.Blur()
		return nil

	case "enter":
		title := strings.TrimSpace(a.titleInput.Value())
		a.titleInput.Blur()
		date := time.Now().Format("2006-01-02")
		if _, err := a.ctrl.NewNote(templates.Get(a.selectedTemplate, title, date)); err != nil {
			a.flash("save failed: "+err.Error(), true)
		}
		return a.startEditing()
	}

	var cmd tea.Cmd
	a.titleInput, cmd = a.titleInput.Update(msg)
	return cmd
}

// ── Confirm Delete ────────────────────────────────────────────────────────────

func (a *App) updateConfirmDelete(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y", "enter":
		if a.deleteTarget != nil {
			name := a.deleteTarget.Name
			if err := a.ctrl.Delete(a.deleteTarget.ID); err != nil {
				a.flash("delete failed: "+err.Error(), true)
			} else {
				a.flash("deleted "+name, false)
			}
			a.deleteTarget = nil
		}
		a.state = stateBrowse

	case "n", "N", "esc", "q":
		a.deleteTarget = nil
		a.state = stateBrowse
	}
	return nil
}

// ── Help ──────────────────────────────────────────────────────────────────────

func (a *App) updateHelp(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "esc", "?":
		a.state = a.prevState
	}
	return nil
}

// ── Views ─────────────────────────────────────────────────────────────────────

func (a *App) View() string {
	if a.width == 0 {
		return "loading..."
	}
	switch a.state {
	case stateTemplatePicker:
		return a.viewTemplatePicker()
	case stateTemplateTitle:
		return a.viewTemplateTitle()
	case stateConfirmDelete:
		return a.viewConfirmDelete()
	case stateHelp:
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a *App) viewMain() string {
	var b strings.Builder
	w := a.width

	mode := "[" + strings.ToLower(a.ctrl.Mode().String()) + "]"
	if a.state == stateEdit {
		mode = "[editing]"
	}
	title := styleTitle.Render("notex") + styleDivider.Render("  —  ") + styleSubtitle.Render(fmt.Sprintf("%d notes", len(a.list)))
	b.WriteString(spread(title, styleMode.Render(mode), w) + "\n")
	b.WriteString(styleDivider.Render(strings.Repeat("─", w)) + "\n")

	var pane string
	if a.state == stateEdit {
		pane = stylePaneFocused.Render(lipgloss.JoinVertical(lipgloss.Left,
			a.editor.View(),
			styleDivider.Render(strings.Repeat("─", a.paneWidth())),
			a.live.View(),
		))
	} else {
		pane = stylePane.Render(a.viewport.View())
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		styleSidebar.Height(a.bodyHeight()).Render(a.viewSidebar()),
		pane,
	)
	b.WriteString(body + "\n")

	b.WriteString(styleDivider.Render(strings.Repeat("─", w)) + "\n")
	b.WriteString(a.viewFooter())
	return b.String()
}

func (a *App) viewSidebar() string {
	w := a.sidebarWidth()
	h := a.bodyHeight()
	lines := make([]string, 0, h)

	if a.state == stateFilter {
		lines = append(lines, a.filterInput.View())
	} else {
		lines = append(lines, styleSubtitle.Render("notes"))
	}

	if len(a.filtered) == 0 {
		msg := "no notes"
		if a.filterQuery != "" {
			msg = "no results"
		}
		lines = append(lines, styleDimItem.Render(msg))
		return strings.Join(fit(lines, h), "\n")
	}

	active := a.ctrl.ActiveID()
	end := min(a.listOffset+a.listHeight(), len(a.filtered))
	for i := a.listOffset; i < end; i++ {
		n := a.filtered[i]
		age := humanTime(n.UpdatedAt)

		marker := "  "
		if n.ID == active {
			marker = styleActive.Render("● ")
		}
		name := truncate(n.Name, w-lipgloss.Width(age)-6)
		if i == a.cursor {
			name = styleSelectedItem.Render("▸ " + name)
		} else {
			name = styleNormalItem.Render("  " + name)
		}
		lines = append(lines, spread(marker+name, styleDimItem.Render(age), w))
	}
	return strings.Join(fit(lines, h), "\n")
}

func (a *App) viewFooter() string {
	if a.state == stateOpenLink {
		return "  " + a.linkInput.View()
	}
	if a.flashMsg != "" {
		sty := styleSuccess
		if a.flashIsError {
			sty = styleError
		}
		return sty.Render("  " + a.flashMsg)
	}

	status, isErr := a.ctrl.Status()
	sty := styleSuccess
	if isErr {
		sty = styleError
	}
	left := sty.Render("  "+status) +
		styleHint.Render(fmt.Sprintf("  ·  %d chars  ·  %d words", a.ctrl.CharCount(), wordCount(a.ctrl.Buffer())))

	hint := "enter open · n new · e edit · tab mode · / filter · y copy · o link · ? help · q"
	if a.state == stateEdit {
		hint = "esc done · ctrl+s save"
	}
	return spread(left, styleHint.Render(hint+"  "), a.width)
}

func (a *App) viewTemplatePicker() string {
	var b strings.Builder
	b.WriteString(styleTitle.Render("notex") + styleDivider.Render("  +  ") + styleSubtitle.Render("new note — choose template") + "\n")
	b.WriteString(styleDivider.Render(strings.Repeat("─", a.width)) + "\n\n")
	for i, name := range templates.Names {
		if i == a.templateCursor {
			b.WriteString("  " + styleSelectedItem.Render("▸ "+name) + "\n")
		} else {
			b.WriteString("    " + styleNormalItem.Render(name) + "\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(styleDivider.Render(strings.Repeat("─", a.width)) + "\n")
	b.WriteString(styleHint.Render("  j/k navigate  Enter select  Esc cancel"))
	return b.String()
}

func (a *App) viewTemplateTitle() string {
	var b strings.Builder
	b.WriteString(styleTitle.Render("notex") + styleDivider.Render("  +  ") + styleSubtitle.Render("new note — "+a.selectedTemplate+" template") + "\n")
	b.WriteString(styleDivider.Render(strings.Repeat("─", a.width)) + "\n\n")
	b.WriteString(styleHint.Render("  Note title:") + "\n")
	b.WriteString(styleInputActive.Width(a.width-4).Render(a.titleInput.View()) + "\n\n")
	b.WriteString(styleHint.Render("  Enter to create and start typing  ·  Esc to go back"))
	return b.String()
}

func (a *App) viewConfirmDelete() string {
	if a.deleteTarget == nil {
		return a.viewMain()
	}
	var b strings.Builder
	b.WriteString(styleTitle.Render("notex") + "\n")
	b.WriteString(styleDivider.Render(strings.Repeat("─", a.width)) + "\n\n")
	b.WriteString(styleConfirm.Render(fmt.Sprintf("  Delete \"%s\"?", a.deleteTarget.Name)) + "\n")
	if p := notePreview(a.deleteTarget.Content, a.width-6); p != "" {
		b.WriteString(styleDimItem.Render("    "+p) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(styleNormalItem.Render("  y") + styleHint.Render(" yes   ") + styleNormalItem.Render("n / Esc") + styleHint.Render(" cancel") + "\n")
	return b.String()
}

func (a *App) viewHelp() string {
	help := lipgloss.JoinVertical(lipgloss.Left,
		styleDivider.Render("  NOTES"),
		"    j/k          navigate",
		"    gg / G       top / bottom",
		"    Enter / l    open note",
		"    n            new note",
		"    N            new note from template",
		"    d            delete (with confirm)",
		"    /            fuzzy filter",
		"    q            quit",
		"",
		styleDivider.Render("  NOTE"),
		"    tab          preview / raw",
		"    i / e        edit",
		"    ctrl+d/u     scroll preview",
		"    ctrl+s       save now",
		"    y            copy share link",
		"    o            open a share link",
		"",
		styleDivider.Render("  EDITING"),
		"    type         changes save on their own",
		"    ctrl+s       save now",
		"    Esc          stop editing",
	)

	var b strings.Builder
	b.WriteString(styleTitle.Render("notex") + styleDivider.Render("  —  ") + styleSubtitle.Render("help") + "\n")
	b.WriteString(styleDivider.Render(strings.Repeat("─", a.width)) + "\n\n")
	b.WriteString(help + "\n\n")
	b.WriteString(styleDivider.Render(strings.Repeat("─", a.width)) + "\n")
	b.WriteString(styleHint.Render("  q / Esc / ? to close"))
	return b.String()
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func (a *App) bodyHeight() int {
	return max(1, a.height-4)
}

// listHeight leaves room for the sidebar title row.
func (a *App) listHeight() int {
	return max(1, a.bodyHeight()-1)
}

func (a *App) sidebarWidth() int {
	return max(16, min(32, a.width/3))
}

// editorHeight is the textarea's share of the pane while editing; the
// rendered buffer fills the rest below a divider.
func (a *App) editorHeight() int {
	return max(1, a.bodyHeight()/2)
}

func (a *App) paneWidth() int {
	return max(10, a.width-a.sidebarWidth()-3)
}

func (a *App) resize() {
	a.viewport.Width = a.paneWidth()
	a.viewport.Height = a.bodyHeight()
	a.editor.SetWidth(a.paneWidth())
	a.editor.SetHeight(a.editorHeight())
	a.live.Width = a.paneWidth()
	a.live.Height = max(1, a.bodyHeight()-a.editorHeight()-1)
	a.filterInput.Width = a.sidebarWidth() - 4
	a.linkInput.Width = a.width - 12
	a.ensureVisible()
}

// renderPane refreshes the read-only view of the buffer.
func (a *App) renderPane() {
	out, err := a.ctrl.View(a.paneWidth())
	if err != nil {
		a.logger.Warn("render", "mode", a.ctrl.Mode(), "error", err)
		out = a.ctrl.Buffer()
	}
	a.viewport.SetContent(out)
}

// renderLive refreshes the view under the editor, keeping the caret line
// in sight in the raw view.
func (a *App) renderLive() {
	out, err := a.ctrl.View(a.paneWidth())
	if err != nil {
		a.logger.Warn("render", "mode", a.ctrl.Mode(), "error", err)
		out = a.ctrl.Buffer()
	}
	a.live.SetContent(out)
	if a.ctrl.Mode() == editor.Raw {
		a.live.SetYOffset(max(0, a.editor.Line()-a.live.Height/2))
	}
}

// refreshList reloads the sidebar, keeping the cursor on the same note
// when it still exists.
func (a *App) refreshList() {
	var selected string
	if a.cursor < len(a.filtered) {
		selected = a.filtered[a.cursor].ID
	}
	a.list = a.ctrl.Notes()
	a.runFilter()
	for i, n := range a.filtered {
		if n.ID == selected {
			a.cursor = i
			break
		}
	}
	if a.cursor >= len(a.filtered) {
		a.cursor = max(0, len(a.filtered)-1)
	}
	a.ensureVisible()
}

// followActive moves the sidebar cursor to the active note.
func (a *App) followActive() {
	id := a.ctrl.ActiveID()
	for i, n := range a.filtered {
		if n.ID == id {
			a.cursor = i
			a.ensureVisible()
			return
		}
	}
}

func (a *App) ensureVisible() {
	listH := a.listHeight()
	if a.cursor < a.listOffset {
		a.listOffset = a.cursor
	}
	if a.cursor >= a.listOffset+listH {
		a.listOffset = a.cursor - listH + 1
	}
}

func (a *App) flash(msg string, isErr bool) {
	a.flashMsg = msg
	a.flashIsError = isErr
}
