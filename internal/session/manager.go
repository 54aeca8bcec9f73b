// Package session owns the single live provider session and the system
// instructions it is bound to. When the friendship level changes, the manager
// builds a fresh instruction and swaps in a replacement session seeded with
// prior history; the old handle is abandoned, never torn down.
package session

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

// SessionCreator is the slice of the provider client the manager needs.
type SessionCreator interface {
	CreateSession(ctx context.Context, model, instruction string, history []provider.Turn) (provider.Session, error)
}

// BuildInstruction derives the full system instruction for a personality at a
// friendship level: the personality template with the companion name
// substituted, the level's tone directive, and a directive pinning the reply
// language.
func BuildInstruction(level int, personalityKey, name, language string) (string, error) {
	p, err := catalog.LookupPersonality(personalityKey)
	if err != nil {
		return "", err
	}
	l, err := catalog.LevelDescriptor(level)
	if err != nil {
		return "", err
	}

	base := strings.ReplaceAll(p.InstructionTemplate, catalog.NamePlaceholder, name)
	return fmt.Sprintf("%s\n\n%s\n\nAlways respond in %s.", base, l.ToneDirective, language), nil
}

// Manager produces and holds the authoritative session handle for one
// companion. Exactly one handle is current at any time.
type Manager struct {
	creator        SessionCreator
	model          string
	language       string
	name           string
	personalityKey string

	mu       sync.RWMutex
	current  provider.Session
	handleID string
}

// NewManager validates the setup inputs and returns a manager with no session
// yet; call Create to open the first one.
func NewManager(creator SessionCreator, model, language, name, personalityKey string) (*Manager, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("companion name must not be empty")
	}
	if _, err := catalog.LookupPersonality(personalityKey); err != nil {
		return nil, err
	}
	return &Manager{
		creator:        creator,
		model:          model,
		language:       language,
		name:           name,
		personalityKey: personalityKey,
	}, nil
}

// Name returns the companion's display name.
func (m *Manager) Name() string { return m.name }

// PersonalityKey returns the configured personality key.
func (m *Manager) PersonalityKey() string { return m.personalityKey }

// Create builds the instruction for the given level and asks the provider for
// a new session seeded with history. On success the new handle atomically
// replaces the current one; on failure the current handle is left untouched.
func (m *Manager) Create(ctx context.Context, level int, history []provider.Turn) error {
	instruction, err := BuildInstruction(level, m.personalityKey, m.name, m.language)
	if err != nil {
		return err
	}

	sess, err := m.creator.CreateSession(ctx, m.model, instruction, history)
	if err != nil {
		return fmt.Errorf("session create failed: %w", err)
	}

	id := uuid.NewString()[:8]

	m.mu.Lock()
	old := m.handleID
	m.current = sess
	m.handleID = id
	m.mu.Unlock()

	if old != "" {
		logging.Session("session %s superseded by %s (level=%d, seeded_turns=%d)", old, id, level, len(history))
	} else {
		logging.Session("session %s created (level=%d)", id, level)
	}
	return nil
}

// Current returns the live session handle, or nil before the first Create.
func (m *Manager) Current() provider.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// HandleID returns a short identifier for the current handle, for logs.
func (m *Manager) HandleID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.handleID
}
