package conversation

// Sender identifies who produced a log entry.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Kind distinguishes ordinary messages from system-generated notices.
type Kind string

const (
	// KindNormal is a regular user or bot message.
	KindNormal Kind = "normal"
	// KindNotice is a level-up announcement. Notice entries never reach
	// provider-facing history.
	KindNotice Kind = "notice"
)

// Entry is one message in the append-only conversation log. Entries are
// immutable once finalized; only the most recent bot entry mutates, and only
// while its stream is in flight.
type Entry struct {
	Text   string
	Sender Sender
	Kind   Kind
}
