package session

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kindred/internal/catalog"
	"kindred/internal/provider"
)

// fakeCreator records CreateSession calls and returns canned sessions.
type fakeCreator struct {
	calls []createCall
	err   error
}

type createCall struct {
	model       string
	instruction string
	history     []provider.Turn
}

type fakeSession struct{ id int }

func (s *fakeSession) SendStreaming(ctx context.Context, text string) (<-chan string, <-chan error) {
	content := make(chan string)
	errs := make(chan error)
	close(content)
	close(errs)
	return content, errs
}

func (f *fakeCreator) CreateSession(ctx context.Context, model, instruction string, history []provider.Turn) (provider.Session, error) {
	f.calls = append(f.calls, createCall{model: model, instruction: instruction, history: history})
	if f.err != nil {
		return nil, f.err
	}
	return &fakeSession{id: len(f.calls)}, nil
}

func TestBuildInstruction(t *testing.T) {
	t.Parallel()

	got, err := BuildInstruction(1, "friend", "Nova", "English")
	require.NoError(t, err)

	assert.Contains(t, got, "Nova", "name must be substituted")
	assert.NotContains(t, got, catalog.NamePlaceholder, "placeholder must be gone")

	level, err := catalog.LevelDescriptor(1)
	require.NoError(t, err)
	assert.Contains(t, got, level.ToneDirective, "tone directive must be appended")
	assert.True(t, strings.HasSuffix(got, "Always respond in English."), "language directive must be last")
}

func TestBuildInstruction_DiffersByLevel(t *testing.T) {
	t.Parallel()

	one, err := BuildInstruction(1, "confidant", "Mira", "English")
	require.NoError(t, err)
	two, err := BuildInstruction(2, "confidant", "Mira", "English")
	require.NoError(t, err)
	assert.NotEqual(t, one, two)
}

func TestBuildInstruction_Errors(t *testing.T) {
	t.Parallel()

	_, err := BuildInstruction(1, "nonsense", "Nova", "English")
	assert.ErrorIs(t, err, catalog.ErrUnknownPersonality)

	_, err = BuildInstruction(0, "friend", "Nova", "English")
	assert.ErrorIs(t, err, catalog.ErrLevelOutOfRange)

	_, err = BuildInstruction(catalog.MaxLevel+1, "friend", "Nova", "English")
	assert.ErrorIs(t, err, catalog.ErrLevelOutOfRange)
}

func TestNewManager_Validation(t *testing.T) {
	t.Parallel()
	creator := &fakeCreator{}

	_, err := NewManager(creator, "gemini-2.5-flash", "English", "  ", "friend")
	assert.Error(t, err, "blank name must be rejected")

	_, err = NewManager(creator, "gemini-2.5-flash", "English", "Nova", "bogus")
	assert.ErrorIs(t, err, catalog.ErrUnknownPersonality)

	m, err := NewManager(creator, "gemini-2.5-flash", "English", " Nova ", "friend")
	require.NoError(t, err)
	assert.Equal(t, "Nova", m.Name(), "name must be trimmed")
	assert.Nil(t, m.Current(), "no session before first Create")
}

func TestManager_CreateSwapsHandle(t *testing.T) {
	t.Parallel()
	creator := &fakeCreator{}
	m, err := NewManager(creator, "gemini-2.5-flash", "English", "Nova", "friend")
	require.NoError(t, err)

	require.NoError(t, m.Create(context.Background(), 1, nil))
	first := m.Current()
	require.NotNil(t, first)
	firstID := m.HandleID()

	history := []provider.Turn{
		{Role: provider.RoleUser, Text: "hi"},
		{Role: provider.RoleModel, Text: "hello!"},
	}
	require.NoError(t, m.Create(context.Background(), 2, history))

	second := m.Current()
	assert.NotSame(t, first, second, "replacement must be a new handle")
	assert.NotEqual(t, firstID, m.HandleID())

	require.Len(t, creator.calls, 2)
	assert.Equal(t, history, creator.calls[1].history, "seed history passed through in order")
	assert.Contains(t, creator.calls[1].instruction, "Nova")
}

func TestManager_CreateFailureKeepsCurrent(t *testing.T) {
	t.Parallel()
	creator := &fakeCreator{}
	m, err := NewManager(creator, "gemini-2.5-flash", "English", "Nova", "friend")
	require.NoError(t, err)

	require.NoError(t, m.Create(context.Background(), 1, nil))
	current := m.Current()

	creator.err = errors.New("quota exceeded")
	err = m.Create(context.Background(), 2, nil)
	assert.Error(t, err)
	assert.Same(t, current, m.Current(), "failed rebuild must not disturb the live handle")
}
