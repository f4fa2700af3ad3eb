// Package progress renders a determinate progress bar for feed fetching.
package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"

	"github.com/raphi011/feedlog/internal/ui/styles"
)

// progressUpdate is sent to update the progress bar
type progressUpdate struct {
	done   int
	failed int
}

// ProgressBar wraps a Bubbletea progress bar for non-interactive use.
// The bar counts finished feeds out of a known total.
type ProgressBar struct {
	out       io.Writer
	program   *tea.Program
	updateCh  chan progressUpdate
	finished  chan struct{}
	mu        sync.Mutex
	isRunning bool
	total     int
	done      int
	failed    int
}

// progressBarModel is the internal Bubbletea model
type progressBarModel struct {
	progress progress.Model
	total    int
	done     int
	failed   int
	updateCh chan progressUpdate
}

func (m progressBarModel) Init() tea.Cmd {
	return m.waitForUpdate()
}

func (m progressBarModel) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		update, ok := <-m.updateCh
		if !ok {
			return tea.Quit()
		}
		return update
	}
}

func (m progressBarModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressUpdate:
		m.done = msg.done
		m.failed = msg.failed
		return m, m.waitForUpdate()
	default:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}
}

func (m progressBarModel) View() tea.View {
	percent := 0.0
	if m.total > 0 {
		percent = float64(m.done) / float64(m.total)
	}

	// [████████░░░░░░░░]  45% 9/20 feeds (1 failed)
	return tea.NewView(fmt.Sprintf("%s %3d%% %s",
		m.progress.ViewAs(percent), int(percent*100), Status(m.done, m.total, m.failed)))
}

// Status formats the counter shown next to the bar.
func Status(done, total, failed int) string {
	s := fmt.Sprintf("%d/%d feeds", done, total)
	if failed > 0 {
		s += " " + styles.ErrorStyle.Render(fmt.Sprintf("(%d failed)", failed))
	}
	return s
}

// NewProgressBar creates a progress bar for total feeds, drawn to out.
func NewProgressBar(out io.Writer, total int) *ProgressBar {
	return &ProgressBar{
		out:      out,
		updateCh: make(chan progressUpdate, 10),
		finished: make(chan struct{}),
		total:    total,
	}
}

// Start begins the progress bar display.
func (p *ProgressBar) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isRunning {
		return
	}

	bar := progress.New(
		progress.WithWidth(40),
		progress.WithoutPercentage(),
		progress.WithColors(styles.Primary, styles.Accent),
	)

	model := progressBarModel{
		progress: bar,
		total:    p.total,
		done:     p.done,
		failed:   p.failed,
		updateCh: p.updateCh,
	}

	// No input: URLs may be piped on stdin.
	p.program = tea.NewProgram(model,
		tea.WithoutSignalHandler(),
		tea.WithInput(nil),
		tea.WithOutput(p.out),
	)
	p.isRunning = true

	go func() {
		_, _ = p.program.Run()
		close(p.finished)
	}()
}

// SetProgress records done finished feeds, failed of which failed.
// Matches batch.ProgressFunc.
func (p *ProgressBar) SetProgress(done, total, failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done = done
	p.failed = failed
	if total > 0 {
		p.total = total
	}
	if !p.isRunning {
		return
	}

	// Drops updates if the channel is full; the next one carries the latest counts.
	// Channel close happens under the same mutex.
	select {
	case p.updateCh <- progressUpdate{done: done, failed: failed}:
	default:
	}
}

// Stop stops the progress bar and clears the line.
func (p *ProgressBar) Stop() {
	p.mu.Lock()
	if !p.isRunning {
		p.mu.Unlock()
		return
	}
	p.isRunning = false
	close(p.updateCh)
	p.mu.Unlock()

	if p.program != nil {
		p.program.Quit()
	}

	select {
	case <-p.finished:
	case <-time.After(500 * time.Millisecond):
	}

	fmt.Fprint(p.out, "\r\033[K")
}

// Total returns the total count for the progress bar.
func (p *ProgressBar) Total() int {
	return p.total
}

// Done returns the number of finished feeds recorded so far.
func (p *ProgressBar) Done() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}
