package monitor

// State is the committed observation: items in scrape order plus the
// promotion deadline text ("" when unknown).
type State struct {
	Items    []Item `json:"items"`
	Deadline string `json:"deadline"`
}

// Decision is the outcome of comparing a fresh scrape against the committed
// state.
type Decision struct {
	Commit bool
	// Reason is a short label for logs: "unchanged", "shrink-only",
	// "new-items", "deadline-changed".
	Reason string
}

// Detect decides whether (items, deadline) differs enough from prev to
// replace it and notify.
//
// Links are the only equality signal: names and image URLs drift across
// renders. The rules are asymmetric on purpose — the storefront is known to
// serve partial renders where listings vanish without anything replacing
// them, so a shrink with no additions and an unchanged deadline is treated
// as a scrape artifact, not a real removal. A legitimate rotation always
// adds items or moves the deadline.
func Detect(prev State, items []Item, deadline string) Decision {
	oldIDs := idSet(prev.Items)
	newIDs := idSet(items)

	added := 0
	for id := range newIDs {
		if _, ok := oldIDs[id]; !ok {
			added++
		}
	}

	if deadline == prev.Deadline && added == 0 {
		// added == 0 means newIDs is a subset of oldIDs.
		if len(newIDs) == len(oldIDs) {
			return Decision{Reason: "unchanged"}
		}
		return Decision{Reason: "shrink-only"}
	}

	reason := "new-items"
	if added == 0 {
		reason = "deadline-changed"
	}
	return Decision{Commit: true, Reason: reason}
}

func idSet(items []Item) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, it := range items {
		m[it.Link] = struct{}{}
	}
	return m
}
