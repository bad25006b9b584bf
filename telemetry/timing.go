package telemetry

import (
	"io"
	"sync"
	"time"

	"github.com/robinvdvleuten/statements/output"
)

// TimingCollector collects a tree of timers. It is safe for concurrent use,
// so timers started from parallel per-account workers land under their
// common parent.
type TimingCollector struct {
	mu    sync.Mutex
	roots []*timerNode
}

type timerNode struct {
	name     string
	start    time.Time
	end      time.Time
	children []*timerNode
}

// NewTimingCollector creates an empty timing collector.
func NewTimingCollector() *TimingCollector {
	return &TimingCollector{}
}

// Start begins a top-level timer.
func (c *TimingCollector) Start(name string) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	node := &timerNode{name: name, start: time.Now()}
	c.roots = append(c.roots, node)
	return &timingTimer{collector: c, node: node}
}

// Report writes every top-level timer and its children to w.
func (c *TimingCollector) Report(w io.Writer, styles *output.Styles) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, root := range c.roots {
		formatTimingTree(w, root, styles)
	}
}

type timingTimer struct {
	collector *TimingCollector
	node      *timerNode
}

func (t *timingTimer) End() {
	t.collector.mu.Lock()
	defer t.collector.mu.Unlock()

	if t.node.end.IsZero() {
		t.node.end = time.Now()
	}
}

func (t *timingTimer) Child(name string) Timer {
	t.collector.mu.Lock()
	defer t.collector.mu.Unlock()

	node := &timerNode{name: name, start: time.Now()}
	t.node.children = append(t.node.children, node)
	return &timingTimer{collector: t.collector, node: node}
}

// duration of the node. Timers still running are measured up to now.
func (n *timerNode) duration() time.Duration {
	if n.end.IsZero() {
		return time.Since(n.start)
	}
	return n.end.Sub(n.start)
}
