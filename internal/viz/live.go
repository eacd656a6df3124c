package viz

import (
	"errors"
	"fmt"
	"image"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/orbitsim/internal/analysis"
	"github.com/san-kum/orbitsim/internal/sim"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 600
	trailCapacity   = 400
	frameRate       = 60
	// scrubFrames is how many frames of clock steps one scrub key jumps.
	scrubFrames = 30
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// LookaheadFor is the scheduler lookahead, in clock steps, that keeps the
// current point covered when frames feed speed/frameRate seconds each.
func LookaheadFor(speed, timePerStep float64) int {
	if speed <= 0 || timePerStep <= 0 {
		return 1
	}
	return int(math.Ceil(speed/(frameRate*timePerStep))) + 1
}

// Options configures the live view.
type Options struct {
	Title string
	Plane analysis.Plane
	// Speed scales the wall time fed to the clock each frame.
	Speed float64
	// Track names the body whose distance from its centre is charted.
	Track         string
	Width, Height int
	GIFPath       string
}

type planePoint struct{ x, y float64 }

// Model drives a scheduler from frame ticks and renders its bodies.
type Model struct {
	sched  *sim.Scheduler
	opts   Options
	canvas *Canvas

	plane  analysis.Plane
	zoom   float64
	extent float64
	follow bool
	track  int

	samples  []sim.BodySample
	trails   [][]planePoint
	distance []float64
	speeds   []float64

	running    bool
	replaying  bool
	replayStep uint64

	recording bool
	frames    []*image.Paletted
	notice    string
	showHelp  bool
	err       error
}

// NewModel pre-fills the scheduler and reads the first samples.
func NewModel(sched *sim.Scheduler, opts Options) (Model, error) {
	if sched == nil {
		return Model{}, errors.New("viz: nil scheduler")
	}
	if opts.Speed <= 0 {
		opts.Speed = 1
	}
	if opts.Width <= 0 {
		opts.Width = width
	}
	if opts.Height <= 0 {
		opts.Height = height
	}
	if opts.GIFPath == "" {
		opts.GIFPath = "orbitsim.gif"
	}

	m := Model{
		sched:    sched,
		opts:     opts,
		canvas:   NewCanvas(opts.Width, opts.Height),
		plane:    opts.Plane,
		zoom:     1,
		trails:   make([][]planePoint, sched.World().Len()),
		distance: make([]float64, 0, historyCapacity),
		speeds:   make([]float64, 0, historyCapacity),
		running:  true,
	}
	if opts.Track != "" {
		b, ok := sched.World().Lookup(opts.Track)
		if !ok {
			return Model{}, fmt.Errorf("viz: unknown body %q", opts.Track)
		}
		m.track = b.ID
	} else {
		m.track = defaultTrack(sched.World())
	}

	if err := sched.Extend(); err != nil {
		return Model{}, err
	}
	samples, err := sched.Sample()
	if err != nil {
		return Model{}, err
	}
	m.observe(samples)
	return m, nil
}

// defaultTrack picks the first body that orbits something.
func defaultTrack(w *sim.World) int {
	for _, b := range w.Bodies() {
		if !b.IsRoot() {
			return b.ID
		}
	}
	return 0
}

// Err is the scheduler error that stopped the view, if any.
func (m Model) Err() error { return m.err }

func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles input events and advances the clock one frame per tick.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "[":
			m.scrub(-1)
		case "]":
			m.scrub(1)
		case "+", "=":
			m.zoom = math.Min(50, m.zoom*1.25)
		case "-", "_":
			m.zoom = math.Max(0.02, m.zoom/1.25)
		case "0":
			m.zoom = 1
		case "tab":
			if len(m.trails) == 0 {
				break
			}
			m.track = (m.track + 1) % len(m.trails)
			m.distance = m.distance[:0]
			m.speeds = m.speeds[:0]
			m.refit()
		case "f":
			m.follow = !m.follow
			m.refit()
		case "p":
			m.plane = (m.plane + 1) % 3
			for i := range m.trails {
				m.trails[i] = m.trails[i][:0]
			}
			m.refit()
		case ">", ".":
			if m.opts.Speed*2 <= m.maxSpeed() {
				m.opts.Speed *= 2
			}
		case "<", ",":
			m.opts.Speed = math.Max(1.0/64, m.opts.Speed/2)
		case "g":
			m.toggleRecording()
		case "t":
			NextTheme()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running && !m.replaying && m.err == nil {
			m.step()
		}
		if m.recording {
			m.draw(m.visible())
			m.captureFrame()
		}
		if m.err != nil {
			return m, tea.Quit
		}
		return m, tick()
	}
	return m, nil
}

// frameDelta is the wall time one frame feeds the clock.
func (m *Model) frameDelta() float64 {
	return m.opts.Speed / frameRate
}

// maxSpeed is the fastest speed the scheduler's lookahead keeps covered.
func (m *Model) maxSpeed() float64 {
	lookahead := m.sched.Options().Lookahead
	return float64(lookahead-1) * m.sched.Clock().TimePerStep * frameRate
}

func (m *Model) step() {
	if err := m.sched.Tick(m.frameDelta()); err != nil {
		m.err = err
		return
	}
	samples, err := m.sched.Sample()
	if err != nil {
		m.err = err
		return
	}
	m.observe(samples)
}

func (m *Model) observe(samples []sim.BodySample) {
	m.samples = samples
	for _, s := range samples {
		if s.ID >= len(m.trails) {
			continue
		}
		x, y := m.plane.Coords(s.Point.Position)
		trail := append(m.trails[s.ID], planePoint{x, y})
		if len(trail) > trailCapacity {
			trail = trail[1:]
		}
		m.trails[s.ID] = trail
		if s.ID == m.track {
			m.distance = append(m.distance, s.Distance())
			m.speeds = append(m.speeds, s.Speed())
			if len(m.distance) > historyCapacity {
				m.distance = m.distance[1:]
				m.speeds = m.speeds[1:]
			}
		}
	}
	m.fit(samples)
}

func (m *Model) centre(samples []sim.BodySample) (float64, float64) {
	if m.follow && m.track < len(samples) {
		return m.plane.Coords(samples[m.track].Point.Position)
	}
	return 0, 0
}

// fit grows the extent so every body stays on screen at zoom 1.
func (m *Model) fit(samples []sim.BodySample) {
	cx, cy := m.centre(samples)
	for _, s := range samples {
		x, y := m.plane.Coords(s.Point.Position)
		m.extent = math.Max(m.extent, math.Hypot(x-cx, y-cy)*1.1)
	}
}

func (m *Model) refit() {
	m.extent = 0
	m.fit(m.samples)
}

// scrub moves the replay head through already computed steps.
func (m *Model) scrub(dir int) {
	clock := m.sched.Clock()
	jump := clock.StepSize * scrubFrames
	if !m.replaying {
		if dir > 0 {
			return
		}
		m.replaying = true
		m.running = false
		m.replayStep = clock.Step
	}
	switch {
	case dir < 0 && m.replayStep >= jump:
		m.replayStep -= jump
	case dir < 0:
		m.replayStep = 0
	default:
		m.replayStep += jump
		if m.replayStep >= clock.Step {
			m.replaying = false
		}
	}
}

// visible returns the samples the canvas shows: live or replayed.
func (m *Model) visible() []sim.BodySample {
	if !m.replaying {
		return m.samples
	}
	samples, err := m.sched.SampleAt(m.replayStep)
	if err != nil {
		return m.samples
	}
	return samples
}

func (m *Model) viewport(samples []sim.BodySample) Viewport {
	w, h := m.canvas.Pixels()
	cx, cy := m.centre(samples)
	return FitViewport(cx, cy, m.extent, w, h).Zoom(m.zoom)
}

func (m *Model) draw(samples []sim.BodySample) {
	m.canvas.Clear()
	vp := m.viewport(samples)
	if !m.replaying {
		for _, trail := range m.trails {
			for _, p := range trail {
				if px, py, ok := vp.ToPixel(p.x, p.y); ok {
					m.canvas.Set(px, py)
				}
			}
		}
	}
	world := m.sched.World()
	for _, s := range samples {
		x, y := m.plane.Coords(s.Point.Position)
		px, py, ok := vp.ToPixel(x, y)
		if !ok {
			continue
		}
		r := 1
		if b := world.Body(s.ID); b != nil && b.IsRoot() {
			r = 2
		}
		m.canvas.Blob(px, py, r)
	}
}

// View renders the TUI interface.
func (m Model) View() string {
	samples := m.visible()
	m.draw(samples)

	step := m.sched.Clock().Step
	status := "RUNNING"
	switch {
	case m.err != nil:
		status = "HALTED"
	case m.replaying:
		status = fmt.Sprintf("REPLAY (%d steps back)", step-m.replayStep)
		step = m.replayStep
	case !m.running:
		status = "PAUSED"
	}
	if m.recording {
		status += " ● REC"
	}

	canvasView := canvasStyle.Foreground(CurrentTheme.Primary).Render(m.canvas.String())

	var s strings.Builder
	title := m.opts.Title
	if title == "" {
		title = "orbitsim"
	}
	s.WriteString(headerStyle().Render(strings.ToUpper(title)) + "\n")
	s.WriteString(statusStyle(!m.running, m.err != nil).Render(status) + "\n\n")

	dt := m.sched.Options().Dt
	s.WriteString(labelStyle.Render("Step") + valueStyle.Render(fmt.Sprintf("%d", step)) + "\n")
	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.2f", float64(step)*dt)) + "\n")
	s.WriteString(labelStyle.Render("Speed") + valueStyle.Render(fmt.Sprintf("%gx", m.opts.Speed)) + "\n")
	s.WriteString(labelStyle.Render("View") + valueStyle.Render(fmt.Sprintf("%s zoom %.2f", m.plane, m.zoom)) + "\n")

	if len(m.distance) > 1 {
		name := ""
		if b := m.sched.World().Body(m.track); b != nil {
			name = b.Name
		}
		chart := asciigraph.Plot(m.distance, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("distance: "+name))
		s.WriteString(graphStyle().Render(chart) + "\n")
		s.WriteString(labelStyle.Render("Rel speed") + SparklineChart(m.speeds, 30) + "\n")
	}

	s.WriteString("\nBODIES\n")
	for _, b := range samples {
		mark := "  "
		if b.ID == m.track {
			mark = "> "
		}
		dot := lipgloss.NewStyle().Foreground(CurrentTheme.BodyColor(b.ID)).Render("●")
		line := fmt.Sprintf("%-10s r=%.3f", b.Name, b.Distance())
		s.WriteString(mark + dot + " " + valueStyle.Render(line) + "\n")
	}

	if m.err != nil {
		s.WriteString("\n" + lipgloss.NewStyle().Foreground(CurrentTheme.Error).Render(m.err.Error()) + "\n")
	}
	if m.notice != "" {
		s.WriteString("\n" + valueStyle.Render(m.notice) + "\n")
	}
	s.WriteString(helpStyle.Render("─────────────────────\nSP:Pause Q:Quit ?:Help\nTab:Track F:Follow P:Plane\n+/-:Zoom </>:Speed [ ]:Replay"))
	statsView := statsStyle.Render(s.String())
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume clock       ║
║  Q        - Quit                     ║
║  Tab      - Track next body          ║
║  F        - Follow tracked body      ║
║  P        - Cycle projection plane   ║
║  +/-/0    - Zoom in/out/reset        ║
║  < >      - Halve/double speed       ║
║  [ ]      - Replay computed steps    ║
║  G        - Toggle GIF recording     ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}

// Run drives m in the terminal until the user quits or the scheduler fails.
func Run(m Model, opts ...tea.ProgramOption) error {
	final, err := tea.NewProgram(m, opts...).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(Model); ok && fm.err != nil {
		return fm.err
	}
	return nil
}
