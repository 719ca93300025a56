package bumper

import (
	"sort"
	"sync"
)

// HomeState reports whether the host UI has no panel, modal or overlay
// open. Either bumper may only appear in home state.
type HomeState interface {
	IsInHomeState() bool
	OpenOverlays() []string
}

// StaticHome is a fixed HomeState.
type StaticHome bool

func (h StaticHome) IsInHomeState() bool { return bool(h) }

func (h StaticHome) OpenOverlays() []string { return nil }

// Overlay names tracked by OverlaySet.
const (
	OverlayGuidedRankings   = "guided_rankings"
	OverlayComparisonReport = "comparison_report"
)

// OverlaySet tracks open overlays by name. It is in home state when empty.
type OverlaySet struct {
	mu   sync.RWMutex
	open map[string]struct{}
}

// NewOverlaySet returns an empty OverlaySet.
func NewOverlaySet() *OverlaySet {
	return &OverlaySet{open: make(map[string]struct{})}
}

// Open marks name as open.
func (o *OverlaySet) Open(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.open[name] = struct{}{}
}

// Close marks name as closed.
func (o *OverlaySet) Close(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.open, name)
}

// Clear closes every overlay.
func (o *OverlaySet) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	clear(o.open)
}

func (o *OverlaySet) IsInHomeState() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.open) == 0
}

func (o *OverlaySet) OpenOverlays() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]string, 0, len(o.open))
	for name := range o.open {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
