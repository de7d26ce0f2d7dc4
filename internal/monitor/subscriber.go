package monitor

// Kind distinguishes the two disjoint recipient namespaces.
type Kind string

const (
	KindChannel Kind = "channel"
	KindUser    Kind = "user"
)

// Subscriber is one registered recipient. Shown records whether this
// recipient has received the currently committed state; it is reset on every
// commit and set per-recipient on successful delivery.
type Subscriber struct {
	ID    int64 `json:"id"`
	Shown bool  `json:"shown"`
}

// Snapshot is the full durable state: both subscriber collections in
// registration order plus the committed observation.
type Snapshot struct {
	Channels []Subscriber
	Users    []Subscriber
	Items    []Item
	Deadline string
}
