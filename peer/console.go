package peer

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"tarun-kavipurapu/lanshare/pkg/events"
)

// ANSI color codes for terminal output
const (
	Reset  = "\033[0m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Cyan   = "\033[36m"
	Gray   = "\033[90m"
	Bold   = "\033[1m"
)

const clearLine = "\r\033[K"

// Console drains event feeds on a fixed tick and writes them to a terminal:
// one line per log or peer event, and a single redrawn bar for progress.
type Console struct {
	mu          sync.Mutex
	out         io.Writer
	feeds       []*events.Queue
	refreshRate time.Duration
	useColors   bool
	width       int
	barActive   bool

	stopChan chan struct{}
	doneChan chan struct{}
}

func NewConsole(out io.Writer, useColors bool, feeds ...*events.Queue) *Console {
	return &Console{
		out:         out,
		feeds:       feeds,
		refreshRate: 100 * time.Millisecond,
		useColors:   useColors,
		width:       40, // Progress bar width
		stopChan:    make(chan struct{}),
		doneChan:    make(chan struct{}),
	}
}

// SetRefreshRate sets how often the feeds are polled
func (c *Console) SetRefreshRate(rate time.Duration) {
	c.refreshRate = rate
}

// Start polls until Stop is called.
func (c *Console) Start() {
	defer close(c.doneChan)

	ticker := time.NewTicker(c.refreshRate)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Poll()
		case <-c.stopChan:
			c.Poll()
			c.finishBar()
			return
		}
	}
}

// StopAndWait stops the loop after a final drain.
func (c *Console) StopAndWait() {
	close(c.stopChan)
	<-c.doneChan
}

// Poll drains every feed once, feed by feed, and renders what it found.
func (c *Console) Poll() {
	for _, q := range c.feeds {
		for _, ev := range q.Drain() {
			c.Render(ev)
		}
	}
}

// Println writes a line without tearing an active progress bar.
func (c *Console) Println(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.finishBarLocked()
	fmt.Fprintln(c.out, s)
}

func (c *Console) Render(ev events.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch ev.Kind {
	case events.KindProgress:
		c.renderBar(ev)
	case events.KindPeerDiscovered:
		c.finishBarLocked()
		fmt.Fprintln(c.out, c.paint(Cyan, fmt.Sprintf("🌐 Discovered device: %s (%s)", ev.DisplayName, ev.Address)))
	case events.KindPeerLost:
		c.finishBarLocked()
		fmt.Fprintln(c.out, c.paint(Gray, fmt.Sprintf("🌐 Device gone: %s (%s)", ev.DisplayName, ev.Address)))
	case events.KindLog:
		c.finishBarLocked()
		line := sourceIcon(ev.Source) + ev.Message
		if ev.IsError() {
			line = c.paint(Red, line)
		}
		fmt.Fprintln(c.out, line)
	}
}

func (c *Console) renderBar(ev events.Event) {
	filled := c.width * ev.Percent / 100
	if filled > c.width {
		filled = c.width
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", c.width-filled)

	var rate string
	if ev.Speed > 0 {
		rate = fmt.Sprintf(" | %s/s | ETA: %s", formatBytes(ev.Speed), formatETA(ev.ETA))
	}

	var line string
	if c.useColors {
		line = fmt.Sprintf("%s%s[%s]%s [%s] %s%d%%%s%s", clearLine, Cyan, ev.Source, Reset, Green+bar+Reset, Yellow, ev.Percent, Reset, rate)
	} else {
		line = fmt.Sprintf("%s[%s] [%s] %d%%%s", clearLine, ev.Source, bar, ev.Percent, rate)
	}
	fmt.Fprint(c.out, line)
	c.barActive = true
}

func (c *Console) finishBar() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.finishBarLocked()
}

func (c *Console) finishBarLocked() {
	if c.barActive {
		fmt.Fprintln(c.out)
		c.barActive = false
	}
}

func (c *Console) paint(color, s string) string {
	if !c.useColors {
		return s
	}
	return color + s + Reset
}

func sourceIcon(src events.Source) string {
	switch src {
	case events.SourceReceiver:
		return "📥 "
	case events.SourceSender:
		return "📤 "
	default:
		return ""
	}
}

// formatBytes formats a byte count into a human-readable string
func formatBytes(bytes float64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%.1f B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", bytes/float64(div), "KMGTPE"[exp])
}

func formatETA(eta time.Duration) string {
	switch {
	case eta <= 0:
		return "0s"
	case eta < time.Second:
		return "<1s"
	case eta < time.Minute:
		return fmt.Sprintf("%ds", eta/time.Second)
	case eta < time.Hour:
		return fmt.Sprintf("%dm%ds", eta/time.Minute, (eta%time.Minute)/time.Second)
	default:
		return fmt.Sprintf("%dh%dm", eta/time.Hour, (eta%time.Hour)/time.Minute)
	}
}
