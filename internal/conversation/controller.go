// Package conversation drives one companion conversation: the append-only
// message log, the streamed exchange state machine, and the friendship
// progression counters. At most one exchange is in flight at a time; the
// in-flight guard is the only synchronization the progression state needs,
// but it is enforced explicitly here.
package conversation

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"kindred/internal/catalog"
	"kindred/internal/logging"
	"kindred/internal/provider"
)

// apologyText replaces a bot reply whose stream failed mid-way. The exchange
// still counts toward progression; the user resends manually if they want a
// real answer.
const apologyText = "I'm sorry, I lost my train of thought for a moment. Could you say that again?"

// SessionSource is the slice of the session manager the controller needs.
type SessionSource interface {
	// Name is the companion's display name, used in level-up notices.
	Name() string
	// Current returns the live session handle, nil before the first create.
	Current() provider.Session
	// Create replaces the live session with one built for the given level,
	// seeded with prior history.
	Create(ctx context.Context, level int, history []provider.Turn) error
}

// Controller owns the message log and progression state for one active
// conversation. Construct exactly one per conversation; there is no ambient
// or global state.
type Controller struct {
	sessions SessionSource

	mu       sync.Mutex
	log      []Entry
	level    int
	progress int
	inFlight bool
	closed   bool
	// degraded is set when a post-level-up session rebuild failed: the
	// displayed level and the instruction the provider is honoring have
	// drifted until the next successful rebuild.
	degraded bool

	// notify coalesces change signals for the hosting surface.
	notify chan struct{}
}

// NewController returns a controller starting at friendship level 1 with an
// empty log.
func NewController(sessions SessionSource) *Controller {
	return &Controller{
		sessions: sessions,
		level:    1,
		notify:   make(chan struct{}, 1),
	}
}

// Send runs one full exchange: append the user entry and a bot placeholder,
// stream the reply into the placeholder, finalize, then update progression.
// It blocks until the exchange completes and reports whether an exchange
// actually ran. Empty input, an in-flight exchange, a closed controller, or a
// missing session all make it a silent no-op.
func (c *Controller) Send(ctx context.Context, text string) bool {
	text = strings.TrimSpace(text)

	c.mu.Lock()
	if text == "" || c.inFlight || c.closed || c.sessions.Current() == nil {
		c.mu.Unlock()
		return false
	}
	sess := c.sessions.Current()
	c.log = append(c.log, Entry{Text: text, Sender: SenderUser, Kind: KindNormal})
	c.log = append(c.log, Entry{Sender: SenderBot, Kind: KindNormal})
	botIdx := len(c.log) - 1
	c.inFlight = true
	c.mu.Unlock()
	c.signal()

	exchangeID := uuid.NewString()[:8]
	logging.Conversation("exchange %s: sending %d chars", exchangeID, len(text))

	streamErr := c.consumeStream(ctx, sess, text, botIdx)
	if streamErr != nil {
		// Partial text is discarded: the apology replaces whatever
		// accumulated, and the exchange still counts.
		logging.ConversationError("exchange %s: stream failed: %v", exchangeID, streamErr)
		c.replaceBotText(botIdx, apologyText)
	}

	c.mu.Lock()
	c.inFlight = false
	c.mu.Unlock()
	c.signal()

	c.checkLevelUp(ctx, exchangeID)
	return true
}

// consumeStream applies fragments to the placeholder entry in provider order
// until the stream completes or errors. This is the sole suspension point of
// the exchange.
func (c *Controller) consumeStream(ctx context.Context, sess provider.Session, text string, botIdx int) error {
	contentChan, errorChan := sess.SendStreaming(ctx, text)

	var streamErr error
	for contentChan != nil || errorChan != nil {
		select {
		case fragment, ok := <-contentChan:
			if !ok {
				contentChan = nil
				continue
			}
			c.appendBotText(botIdx, fragment)
		case err, ok := <-errorChan:
			if !ok {
				errorChan = nil
				continue
			}
			if err != nil {
				streamErr = err
			}
		}
	}
	return streamErr
}

// appendBotText grows the in-flight bot entry. A closed controller ignores
// fragments entirely: a zombie stream writing into a discarded log would
// corrupt displayed state.
func (c *Controller) appendBotText(botIdx int, fragment string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.log[botIdx].Text += fragment
	c.signal()
}

func (c *Controller) replaceBotText(botIdx int, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.log[botIdx].Text = text
	c.signal()
}

// checkLevelUp increments the progress counter and, when the threshold is
// crossed below the terminal level, advances the level, appends the notice
// entry, and rebuilds the session with the full non-notice history. Rebuild
// failures are logged and swallowed: the conversation continues on the old
// handle and committed state is not rolled back.
func (c *Controller) checkLevelUp(ctx context.Context, exchangeID string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.progress++

	current, err := catalog.LevelDescriptor(c.level)
	if err != nil {
		// Should never happen with a validated catalog; skip the advance
		// rather than crash the conversation.
		c.mu.Unlock()
		logging.ConversationError("exchange %s: level descriptor: %v", exchangeID, err)
		return
	}

	if c.level >= catalog.MaxLevel || c.progress < current.MessagesToAdvance {
		c.mu.Unlock()
		c.signal()
		return
	}

	c.level++
	c.progress = 0
	next, err := catalog.LevelDescriptor(c.level)
	if err != nil {
		c.mu.Unlock()
		logging.ConversationError("exchange %s: level descriptor: %v", exchangeID, err)
		return
	}

	c.log = append(c.log, Entry{
		Text:   fmt.Sprintf("Your friendship with %s deepened! Level %d: %s.", c.sessions.Name(), next.Level, next.DisplayName),
		Sender: SenderBot,
		Kind:   KindNotice,
	})
	newLevel := c.level
	history := c.historyLocked()
	c.mu.Unlock()
	c.signal()

	logging.Conversation("exchange %s: level up to %d (%s)", exchangeID, newLevel, next.DisplayName)

	// The rebuild is issued strictly after the notice entry, so the seeded
	// history reflects the just-completed exchange.
	if err := c.sessions.Create(ctx, newLevel, history); err != nil {
		logging.SessionError("exchange %s: session rebuild failed, continuing on previous handle: %v", exchangeID, err)
		c.setDegraded(true)
		return
	}
	c.setDegraded(false)
}

// historyLocked reconstructs provider-facing turns from the log: non-notice
// entries in original order, user entries as the user role, bot entries as
// the model role. Callers must hold c.mu.
func (c *Controller) historyLocked() []provider.Turn {
	turns := make([]provider.Turn, 0, len(c.log))
	for _, e := range c.log {
		if e.Kind == KindNotice {
			continue
		}
		role := provider.RoleUser
		if e.Sender == SenderBot {
			role = provider.RoleModel
		}
		turns = append(turns, provider.Turn{Role: role, Text: e.Text})
	}
	return turns
}

// Messages returns a snapshot copy of the log.
func (c *Controller) Messages() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.log))
	copy(out, c.log)
	return out
}

// Level returns the current friendship level.
func (c *Controller) Level() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.level
}

// Progress returns completed exchanges since the last level-up.
func (c *Controller) Progress() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progress
}

// InFlight reports whether an exchange is currently streaming.
func (c *Controller) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Degraded reports whether the displayed level and the provider's active
// instruction have drifted because a rebuild failed.
func (c *Controller) Degraded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.degraded
}

// Updates returns a coalesced change-notification channel for the hosting
// surface: one token is readable whenever state changed since the last read.
func (c *Controller) Updates() <-chan struct{} {
	return c.notify
}

// Close tears the conversation down. In-flight streams may keep draining but
// their fragments are ignored from this point on, and no new exchange starts.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *Controller) setDegraded(v bool) {
	c.mu.Lock()
	c.degraded = v
	c.mu.Unlock()
	c.signal()
}

// signal never blocks, so it is safe with or without c.mu held.
func (c *Controller) signal() {
	select {
	case c.notify <- struct{}{}:
	default:
	}
}
