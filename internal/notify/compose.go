// Package notify renders committed state into a notification and fans it
// out to registered recipients.
package notify

import (
	"strings"

	"assetbot/internal/monitor"
)

// Image is a fetch descriptor for one item's artwork. Composition never
// touches the network; downloading is the fan-out stage's problem.
type Image struct {
	Name string
	URL  string
}

// Notification is one composed announcement.
type Notification struct {
	Text   string
	Images []Image
}

// Compose renders the header and itemized body for a committed state. The
// output is deterministic: items appear in list order, one name+link pair
// each, and image descriptors follow the same order, skipping items without
// artwork.
func Compose(periodLabel string, st monitor.State) Notification {
	var b strings.Builder
	b.WriteString("🎁 ")
	b.WriteString(periodLabel)
	if st.Deadline != "" {
		b.WriteString(" — ")
		b.WriteString(st.Deadline)
	}
	for _, it := range st.Items {
		b.WriteString("\n\n")
		b.WriteString(it.Name)
		b.WriteString("\n")
		b.WriteString(it.Link)
	}
	if len(st.Items) == 0 {
		b.WriteString("\n\nNothing is free right now.")
	}

	n := Notification{Text: b.String()}
	for _, it := range st.Items {
		if it.Image == "" {
			continue
		}
		n.Images = append(n.Images, Image{Name: it.Name, URL: it.Image})
	}
	return n
}
