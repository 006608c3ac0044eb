package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// ProgressBar shows how many of the requested pages have loaded.
type ProgressBar struct {
	w     io.Writer
	title string
	total int
	pages int
	items int
	width int
	mu    sync.Mutex
}

// NewProgressBar creates a progress bar expecting total pages. A total of
// zero shows counts only.
func NewProgressBar(w io.Writer, title string, total int) *ProgressBar {
	return &ProgressBar{
		w:     w,
		title: title,
		total: total,
		width: 30,
	}
}

// Page records one more loaded page holding items items in total.
func (p *ProgressBar) Page(items int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pages++
	p.items = items
	p.render()
}

// Finish ends the line.
func (p *ProgressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.render()
	fmt.Fprintln(p.w)
}

func (p *ProgressBar) render() {
	if p.total <= 0 {
		fmt.Fprintf(p.w, "\r%s %s, %s", p.title, plural(p.pages, "page"), plural(p.items, "item"))
		return
	}

	ratio := float64(p.pages) / float64(p.total)
	if ratio > 1 {
		ratio = 1
	}
	filled := int(float64(p.width) * ratio)

	fmt.Fprintf(p.w, "\r%s [%s%s] %d/%d pages, %s",
		p.title,
		strings.Repeat("#", filled),
		strings.Repeat(".", p.width-filled),
		min(p.pages, p.total), p.total,
		plural(p.items, "item"),
	)
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
