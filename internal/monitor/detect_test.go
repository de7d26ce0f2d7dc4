package monitor

import "testing"

func items(links ...string) []Item {
	out := make([]Item, 0, len(links))
	for _, l := range links {
		out = append(out, Item{Name: "item " + l, Link: l})
	}
	return out
}

func TestDetect(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		prev     State
		items    []Item
		deadline string
		commit   bool
		reason   string
	}{
		{
			name:     "initial observation commits",
			prev:     State{},
			items:    items("a", "b"),
			deadline: "until Oct 1",
			commit:   true,
			reason:   "new-items",
		},
		{
			name:     "identical sets suppress",
			prev:     State{Items: items("a", "b"), Deadline: "d1"},
			items:    items("a", "b"),
			deadline: "d1",
			commit:   false,
			reason:   "unchanged",
		},
		{
			name:     "shrink without additions or deadline change suppresses",
			prev:     State{Items: items("a", "b", "c"), Deadline: "d1"},
			items:    items("a", "b"),
			deadline: "d1",
			commit:   false,
			reason:   "shrink-only",
		},
		{
			name:     "shrink to empty with same deadline suppresses",
			prev:     State{Items: items("a", "b"), Deadline: "d1"},
			items:    nil,
			deadline: "d1",
			commit:   false,
			reason:   "shrink-only",
		},
		{
			name:     "addition commits",
			prev:     State{Items: items("a", "b"), Deadline: "d1"},
			items:    items("a", "b", "c"),
			deadline: "d1",
			commit:   true,
			reason:   "new-items",
		},
		{
			name:     "deadline-only change commits",
			prev:     State{Items: items("a", "b"), Deadline: "d1"},
			items:    items("a", "b"),
			deadline: "d2",
			commit:   true,
			reason:   "deadline-changed",
		},
		{
			name:     "shrink plus deadline change commits",
			prev:     State{Items: items("a", "b", "c"), Deadline: "d1"},
			items:    items("a"),
			deadline: "d2",
			commit:   true,
			reason:   "deadline-changed",
		},
		{
			name:     "name drift alone suppresses",
			prev:     State{Items: []Item{{Name: "Old Title", Link: "a"}}, Deadline: "d1"},
			items:    []Item{{Name: "New Title", Link: "a"}},
			deadline: "d1",
			commit:   false,
			reason:   "unchanged",
		},
		{
			name:   "both empty suppresses",
			prev:   State{},
			items:  nil,
			commit: false,
			reason: "unchanged",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dec := Detect(tt.prev, tt.items, tt.deadline)
			if dec.Commit != tt.commit {
				t.Fatalf("Commit = %v, want %v", dec.Commit, tt.commit)
			}
			if dec.Reason != tt.reason {
				t.Fatalf("Reason = %q, want %q", dec.Reason, tt.reason)
			}
		})
	}
}

func TestDetectIdempotentAfterCommit(t *testing.T) {
	t.Parallel()
	prev := State{Items: items("a"), Deadline: "d1"}
	next := items("a", "b")

	first := Detect(prev, next, "d1")
	if !first.Commit {
		t.Fatal("expected first detection to commit")
	}
	committed := State{Items: next, Deadline: "d1"}
	second := Detect(committed, next, "d1")
	if second.Commit {
		t.Fatal("expected second detection of identical state to suppress")
	}
}
