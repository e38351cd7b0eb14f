package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/bitdegree/heirloom/pkg/canvas"
	"github.com/bitdegree/heirloom/pkg/geom"
	"github.com/bitdegree/heirloom/pkg/layout"
	"github.com/bitdegree/heirloom/pkg/palette"
	"github.com/bitdegree/heirloom/pkg/store"
	"github.com/bitdegree/heirloom/pkg/tree"
)

// Terminal cells are roughly twice as tall as wide, so canvas units map to
// cells with separate horizontal and vertical densities.
const (
	cellWidth  = 10.0 // canvas units per terminal column
	cellHeight = 20.0 // canvas units per terminal row
)

// panStep and zoomStep are the per-keystroke gesture sizes.
const (
	panStep  = 40.0
	zoomStep = 1.1
	moveStep = 25.0 // node nudge distance in canvas units
)

// canvasCommand creates the "canvas" command running the interactive TUI.
func (c *CLI) canvasCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "canvas",
		Short: "Open the interactive terminal canvas",
		Long: `Canvas opens a terminal view of the tree with pan, zoom, node
nudging, and the two-step connect mode for creating parent-child links.
Changes are saved to the configured store as you make them; external
changes to the store appear live where the backend supports watching.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			session, st, err := c.openSession(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			model := newCanvasModel(ctx, session, st, c.openPalette(ctx, st), c.layoutOptions())
			_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			return err
		},
	}
}

// =============================================================================
// Model
// =============================================================================

// inputAction says what the text input commits to when submitted.
type inputAction int

const (
	inputNone inputAction = iota
	inputAdd
	inputRename
)

// externalChangeMsg reports that the store changed under us.
type externalChangeMsg struct{}

// canvasModel is the bubbletea model for the interactive canvas.
type canvasModel struct {
	ctx     context.Context
	session *store.Session
	store   store.Store
	palette *palette.Palette
	layout  layout.Options

	vp  *canvas.Viewport
	ctl *canvas.Controller

	selected int // index into session.Tree.People(), -1 when empty
	detailID string

	input  textinput.Model
	action inputAction

	status string
	width  int
	height int

	watch <-chan struct{}
}

func newCanvasModel(ctx context.Context, session *store.Session, st store.Store, pal *palette.Palette, opts layout.Options) *canvasModel {
	input := textinput.New()
	input.Placeholder = "name"
	input.CharLimit = 80

	m := &canvasModel{
		ctx:     ctx,
		session: session,
		store:   st,
		palette: pal,
		layout:  opts,
		vp:      canvas.NewViewport(),
		ctl:     canvas.NewController(session.Tree, session, nil),
		input:   input,
		status:  "ready",
	}
	m.ctl.OpenDetail = func(id string) { m.detailID = id }
	if session.Tree.Len() == 0 {
		m.selected = -1
	}
	return m
}

func (m *canvasModel) Init() tea.Cmd {
	ch, err := m.store.Watch(m.ctx)
	if err != nil {
		return nil
	}
	m.watch = ch
	return m.waitForChange()
}

// waitForChange blocks on the store watch channel and emits a message when
// an external writer touches the store.
func (m *canvasModel) waitForChange() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.ctx.Done():
			return nil
		case _, ok := <-m.watch:
			if !ok {
				return nil
			}
			return externalChangeMsg{}
		}
	}
}

// =============================================================================
// Update
// =============================================================================

func (m *canvasModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case externalChangeMsg:
		if err := m.session.Reload(m.ctx); err != nil {
			m.status = "reload failed: " + err.Error()
		} else {
			m.status = "reloaded from store"
			m.clampSelection()
		}
		return m, m.waitForChange()

	case tea.KeyMsg:
		if m.action != inputNone {
			return m.updateInput(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

// updateInput routes keys to the active text input.
func (m *canvasModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.action = inputNone
		m.input.Blur()
		return m, nil
	case "enter":
		m.commitInput()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// commitInput applies the submitted text according to the pending action.
func (m *canvasModel) commitInput() {
	name := strings.TrimSpace(m.input.Value())
	defer func() {
		m.action = inputNone
		m.input.Blur()
		m.input.SetValue("")
	}()
	if name == "" {
		m.status = "cancelled"
		return
	}

	switch m.action {
	case inputAdd:
		p := tree.NewPerson(name)
		// New nodes appear at the unprojected screen center so they are
		// visible regardless of the current pan and zoom.
		center := m.vp.Unproject(geom.Point{
			X: float64(m.width) / 2 * cellWidth,
			Y: float64(m.height) / 2 * cellHeight,
		})
		p.Position = center
		if err := m.session.Tree.Add(p); err != nil {
			m.status = err.Error()
			return
		}
		m.save()
		m.selectPerson(p.ID)
		m.status = "added " + p.DisplayName()

	case inputRename:
		if p := m.selectedPerson(); p != nil {
			p.Name = name
			m.session.Tree.Touch()
			m.save()
			m.status = "renamed to " + name
		}
	}
}

// updateKeys handles normal-mode key bindings.
func (m *canvasModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "esc":
		if m.detailID != "" {
			m.detailID = ""
			return m, nil
		}
		if m.ctl.Mode() != canvas.ModeIdle {
			m.ctl.ToggleConnect()
			m.status = "connect mode off"
		}
		return m, nil

	// Pan. Each keystroke is one complete gesture.
	case "left", "h":
		m.pan(geom.Point{X: panStep})
	case "right", "l":
		m.pan(geom.Point{X: -panStep})
	case "up", "k":
		m.pan(geom.Point{Y: panStep})
	case "down", "j":
		m.pan(geom.Point{Y: -panStep})

	// Zoom.
	case "+", "=":
		m.vp.UpdateZoom(zoomStep)
		m.vp.EndZoom()
	case "-", "_":
		m.vp.UpdateZoom(1 / zoomStep)
		m.vp.EndZoom()
	case "0":
		m.vp.Reset()
		m.status = "view reset"

	// Selection.
	case "tab", "n":
		m.cycleSelection(1)
	case "shift+tab", "p":
		m.cycleSelection(-1)

	// Node nudging, one drag gesture per keystroke.
	case "H":
		m.nudge(geom.Point{X: -moveStep})
	case "L":
		m.nudge(geom.Point{X: moveStep})
	case "K":
		m.nudge(geom.Point{Y: -moveStep})
	case "J":
		m.nudge(geom.Point{Y: moveStep})

	// Interaction.
	case "enter", " ":
		if p := m.selectedPerson(); p != nil {
			m.ctl.Tap(m.ctx, p.ID)
			m.describeMode()
		}
	case "c":
		m.ctl.ToggleConnect()
		m.describeMode()

	// Editing.
	case "a":
		m.action = inputAdd
		m.input.Placeholder = "new person's name"
		m.input.Focus()
	case "r":
		if m.selectedPerson() != nil {
			m.action = inputRename
			m.input.Placeholder = "new name"
			m.input.Focus()
		}

	case "g":
		result := layout.Compute(m.session.Tree, m.layout)
		moved := layout.Apply(m.session.Tree, result)
		m.save()
		m.status = fmt.Sprintf("arranged %d people", moved)

	case "d":
		if p := m.selectedPerson(); p != nil {
			m.session.Tree.Remove(p.ID)
			m.save()
			m.clampSelection()
			m.status = "removed " + p.DisplayName()
		}
	}
	return m, nil
}

// pan applies a single-keystroke pan gesture.
func (m *canvasModel) pan(delta geom.Point) {
	m.vp.UpdatePan(delta)
	m.vp.EndPan()
}

// nudge moves the selected node by a canvas-space step through a complete
// drag gesture. The drag API takes screen-space deltas, so the step is
// scaled up by the zoom factor first.
func (m *canvasModel) nudge(delta geom.Point) {
	p := m.selectedPerson()
	if p == nil {
		return
	}
	m.ctl.BeginDrag(p.ID)
	m.ctl.UpdateDrag(delta.Scale(m.vp.Scale()))
	m.ctl.EndDrag(m.ctx, m.vp.Scale())
}

func (m *canvasModel) describeMode() {
	switch m.ctl.Mode() {
	case canvas.ModeAwaitingSource:
		m.status = "connect: pick the parent"
	case canvas.ModeAwaitingTarget:
		if p, ok := m.session.Tree.Person(m.ctl.SourceID()); ok {
			m.status = "connect: pick a child for " + p.DisplayName()
		}
	default:
		m.status = "ready"
	}
}

func (m *canvasModel) save() {
	if err := m.session.Save(m.ctx); err != nil {
		m.status = "save failed: " + err.Error()
	}
}

// =============================================================================
// Selection helpers
// =============================================================================

func (m *canvasModel) selectedPerson() *tree.Person {
	people := m.session.Tree.People()
	if m.selected < 0 || m.selected >= len(people) {
		return nil
	}
	return people[m.selected]
}

func (m *canvasModel) selectPerson(id string) {
	for i, p := range m.session.Tree.People() {
		if p.ID == id {
			m.selected = i
			return
		}
	}
}

func (m *canvasModel) cycleSelection(dir int) {
	n := m.session.Tree.Len()
	if n == 0 {
		m.selected = -1
		return
	}
	m.selected = ((m.selected+dir)%n + n) % n
}

func (m *canvasModel) clampSelection() {
	if m.selected >= m.session.Tree.Len() {
		m.selected = m.session.Tree.Len() - 1
	}
}

// =============================================================================
// View
// =============================================================================

var (
	canvasCurveStyle  = lipgloss.NewStyle().Foreground(colorGray)
	canvasSelectStyle = lipgloss.NewStyle().Bold(true).Reverse(true)
	canvasSourceStyle = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
	statusBarStyle    = lipgloss.NewStyle().Foreground(colorWhite).Background(lipgloss.Color("237"))
)

func (m *canvasModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "loading..."
	}

	rows := m.height - 2 // reserve status and hint lines
	if m.detailID != "" {
		return m.detailView() + "\n" + m.statusBar()
	}

	bounds := canvas.Bounds(m.session.Tree, exportMargin)
	scene := canvas.Compose(m.session.Tree, m.vp, m.palette.ColorFor, bounds, m.ctl)

	grid := newCellGrid(m.width, rows)

	// Connectors first, sampled along each curve so nodes draw on top.
	for _, conn := range scene.Connectors {
		glyph := "·"
		if conn.Kind == canvas.ConnectorPartner {
			glyph = "┈"
		}
		for i := 0; i <= 24; i++ {
			pt := m.vp.Project(conn.Curve.At(float64(i) / 24))
			grid.set(pt, glyph, canvasCurveStyle)
		}
	}

	selected := m.selectedPerson()
	for _, node := range scene.Nodes {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(node.Color))
		if node.Source {
			style = canvasSourceStyle
		}
		if selected != nil && node.ID == selected.ID {
			style = canvasSelectStyle
		}
		pt := m.vp.Project(node.Position)
		grid.set(pt, "●", style)
		grid.label(pt, " "+node.Name, style)
	}

	var b strings.Builder
	b.WriteString(grid.render())
	b.WriteString("\n")
	b.WriteString(m.statusBar())
	b.WriteString("\n")
	if m.action != inputNone {
		b.WriteString(m.input.View())
	} else {
		b.WriteString(StyleDim.Render("arrows pan · +/- zoom · tab select · HJKL move · c connect · enter tap · a add · r rename · g arrange · q quit"))
	}
	return b.String()
}

func (m *canvasModel) statusBar() string {
	left := fmt.Sprintf(" %s · %d people · zoom %.0f%% ", m.ctl.Mode(), m.session.Tree.Len(), m.vp.Scale()*100)
	if sel := m.selectedPerson(); sel != nil {
		left += "· " + sel.DisplayName() + " "
	}
	bar := left + "· " + m.status
	return statusBarStyle.Width(m.width).Render(bar)
}

// detailView shows a single person's record in place of the canvas.
func (m *canvasModel) detailView() string {
	p, ok := m.session.Tree.Person(m.detailID)
	if !ok {
		m.detailID = ""
		return ""
	}

	var b strings.Builder
	b.WriteString(StyleTitle.Render(p.DisplayName()))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("  %s %s\n", StyleDim.Render("ID:"), p.ID))
	b.WriteString(fmt.Sprintf("  %s %d\n", StyleDim.Render("Generation:"), p.Generation))
	if born, ok := p.BornOn(); ok {
		b.WriteString(fmt.Sprintf("  %s %s\n", StyleDim.Render("Born:"), born.Format("January 2, 2006")))
	}
	if p.Bio != "" {
		b.WriteString(fmt.Sprintf("  %s %s\n", StyleDim.Render("Bio:"), p.Bio))
	}
	writeRelatives := func(label string, people []*tree.Person) {
		if len(people) == 0 {
			return
		}
		names := make([]string, len(people))
		for i, q := range people {
			names[i] = q.DisplayName()
		}
		b.WriteString(fmt.Sprintf("  %s %s\n", StyleDim.Render(label), strings.Join(names, ", ")))
	}
	writeRelatives("Parents:", m.session.Tree.Parents(p.ID))
	writeRelatives("Partners:", m.session.Tree.Partners(p.ID))
	writeRelatives("Children:", m.session.Tree.Children(p.ID))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("  esc to return"))
	return b.String()
}

// =============================================================================
// Cell grid
// =============================================================================

// cellGrid is a styled character buffer addressed in screen-space canvas
// coordinates.
type cellGrid struct {
	w, h  int
	cells [][]string
}

func newCellGrid(w, h int) *cellGrid {
	cells := make([][]string, h)
	for y := range cells {
		row := make([]string, w)
		for x := range row {
			row[x] = " "
		}
		cells[y] = row
	}
	return &cellGrid{w: w, h: h, cells: cells}
}

// at maps a projected canvas point to a cell, reporting false off-screen.
func (g *cellGrid) at(pt geom.Point) (int, int, bool) {
	x := int(pt.X / cellWidth)
	y := int(pt.Y / cellHeight)
	if x < 0 || x >= g.w || y < 0 || y >= g.h {
		return 0, 0, false
	}
	return x, y, true
}

func (g *cellGrid) set(pt geom.Point, glyph string, style lipgloss.Style) {
	if x, y, ok := g.at(pt); ok {
		g.cells[y][x] = style.Render(glyph)
	}
}

// label writes text to the right of pt, clipped at the screen edge.
func (g *cellGrid) label(pt geom.Point, text string, style lipgloss.Style) {
	x, y, ok := g.at(pt)
	if !ok {
		return
	}
	for i, r := range text {
		cx := x + 1 + i
		if cx >= g.w {
			break
		}
		g.cells[y][cx] = style.Render(string(r))
	}
}

func (g *cellGrid) render() string {
	rows := make([]string, g.h)
	for y, row := range g.cells {
		rows[y] = strings.Join(row, "")
	}
	return strings.Join(rows, "\n")
}
