package catalog

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestLookupPersonality_Known(t *testing.T) {
	t.Parallel()
	for _, key := range []string{"study-buddy", "friend", "confidant"} {
		info, err := LookupPersonality(key)
		if err != nil {
			t.Fatalf("LookupPersonality(%q) failed: %v", key, err)
		}
		if info.DisplayName == "" {
			t.Errorf("%q: empty display name", key)
		}
		if !strings.Contains(info.InstructionTemplate, NamePlaceholder) {
			t.Errorf("%q: template missing %s placeholder", key, NamePlaceholder)
		}
	}
}

func TestLookupPersonality_Unknown(t *testing.T) {
	t.Parallel()
	_, err := LookupPersonality("unknown")
	if !errors.Is(err, ErrUnknownPersonality) {
		t.Errorf("expected ErrUnknownPersonality, got %v", err)
	}
}

func TestLevelDescriptor_Range(t *testing.T) {
	t.Parallel()
	for l := 1; l <= MaxLevel; l++ {
		info, err := LevelDescriptor(l)
		if err != nil {
			t.Fatalf("LevelDescriptor(%d) failed: %v", l, err)
		}
		if info.Level != l {
			t.Errorf("descriptor for %d reports level %d", l, info.Level)
		}
		if info.MessagesToAdvance <= 0 {
			t.Errorf("level %d: non-positive threshold", l)
		}
		if info.ToneDirective == "" {
			t.Errorf("level %d: empty tone directive", l)
		}
	}

	for _, l := range []int{0, -1, MaxLevel + 1} {
		if _, err := LevelDescriptor(l); !errors.Is(err, ErrLevelOutOfRange) {
			t.Errorf("LevelDescriptor(%d): expected ErrLevelOutOfRange, got %v", l, err)
		}
	}
}

func TestLevels_OrderedAscending(t *testing.T) {
	t.Parallel()
	for i := 1; i < len(levels); i++ {
		if levels[i].Level != levels[i-1].Level+1 {
			t.Errorf("levels not consecutive at index %d", i)
		}
	}
	if levels[0].Level != 1 {
		t.Errorf("ladder must start at level 1, starts at %d", levels[0].Level)
	}
}

func TestLevel1_ThresholdIsFive(t *testing.T) {
	t.Parallel()
	info, err := LevelDescriptor(1)
	if err != nil {
		t.Fatal(err)
	}
	if info.MessagesToAdvance != 5 {
		t.Errorf("level 1 threshold = %d, want 5", info.MessagesToAdvance)
	}
}

func TestTerminalLevel_Unreachable(t *testing.T) {
	t.Parallel()
	info, err := LevelDescriptor(MaxLevel)
	if err != nil {
		t.Fatal(err)
	}
	if info.MessagesToAdvance != math.MaxInt {
		t.Errorf("terminal level threshold must be unreachable, got %d", info.MessagesToAdvance)
	}
}

func TestPersonalities_StableOrder(t *testing.T) {
	t.Parallel()
	all := Personalities()
	if len(all) != 3 {
		t.Fatalf("expected 3 personalities, got %d", len(all))
	}
	want := []Personality{PersonalityStudyBuddy, PersonalityFriend, PersonalityConfidant}
	for i, p := range all {
		if p.Key != want[i] {
			t.Errorf("position %d: got %s, want %s", i, p.Key, want[i])
		}
	}
}
