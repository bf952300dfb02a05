package builder

import "sync"

// Accumulator holds the page being drawn and the pages already finished.
// There is always a current page.
type Accumulator struct {
	mu        sync.Mutex
	current   *Page
	completed []*Page // newest first
}

// NewAccumulator returns an accumulator with one empty page of the given
// size.
func NewAccumulator(size PaperSize) *Accumulator {
	return &Accumulator{current: &Page{Size: size}}
}

// StartPage freezes the current page and starts a new one.
func (a *Accumulator) StartPage(size PaperSize) *Page {
	p := &Page{Size: size}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.completed = append([]*Page{a.current}, a.completed...)
	a.current = p
	return p
}

// Current returns the page drawing operations apply to.
func (a *Accumulator) Current() *Page {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// Mutate replaces the current page with fn's result. A nil result keeps the
// current page.
func (a *Accumulator) Mutate(fn func(*Page) *Page) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if next := fn(a.current); next != nil {
		a.current = next
	}
}

// Pages returns every page in the order it was started.
func (a *Accumulator) Pages() []*Page {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*Page, 0, len(a.completed)+1)
	for i := len(a.completed) - 1; i >= 0; i-- {
		out = append(out, a.completed[i])
	}
	return append(out, a.current)
}

func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.completed) + 1
}
