// Package catalog holds the static personality and friendship-level tables.
// Pure lookup data: no mutation, no side effects, safe for concurrent reads.
package catalog

import (
	"errors"
	"fmt"
	"math"
)

// Sentinel errors for the two fallible lookups. Both indicate a programmer
// or configuration error once setup has been validated.
var (
	ErrUnknownPersonality = errors.New("unknown personality")
	ErrLevelOutOfRange    = errors.New("friendship level out of range")
)

// Personality identifies one of the fixed companion personalities.
type Personality string

const (
	PersonalityStudyBuddy Personality = "study-buddy"
	PersonalityFriend     Personality = "friend"
	PersonalityConfidant  Personality = "confidant"
)

// NamePlaceholder is the token in instruction templates that gets replaced
// with the companion's display name.
const NamePlaceholder = "{name}"

// PersonalityInfo describes a personality for display and instruction building.
type PersonalityInfo struct {
	Key              Personality
	DisplayName      string
	ShortDescription string
	// InstructionTemplate contains NamePlaceholder exactly once.
	InstructionTemplate string
}

// LevelInfo describes one rung of the friendship ladder.
type LevelInfo struct {
	Level       int
	DisplayName string
	// MessagesToAdvance is the number of completed exchanges at this level
	// before advancing. The terminal level carries an unreachable sentinel.
	MessagesToAdvance int
	// ToneDirective is appended to the system instruction at this level.
	ToneDirective string
}

var personalities = map[Personality]PersonalityInfo{
	PersonalityStudyBuddy: {
		Key:              PersonalityStudyBuddy,
		DisplayName:      "Study Buddy",
		ShortDescription: "Keeps you on track and celebrates small wins.",
		InstructionTemplate: "You are {name}, a supportive study companion. " +
			"You help the user stay focused, break work into small steps, and " +
			"you cheer genuine progress without being saccharine.",
	},
	PersonalityFriend: {
		Key:              PersonalityFriend,
		DisplayName:      "Friend",
		ShortDescription: "Easygoing company for everyday conversation.",
		InstructionTemplate: "You are {name}, an easygoing friend. You chat " +
			"about whatever is on the user's mind, share opinions when asked, " +
			"and keep the mood light without dodging real topics.",
	},
	PersonalityConfidant: {
		Key:              PersonalityConfidant,
		DisplayName:      "Confidant",
		ShortDescription: "A calm listener for the heavier stuff.",
		InstructionTemplate: "You are {name}, a calm and discreet confidant. " +
			"You listen more than you talk, never judge, and offer perspective " +
			"only when the user seems to want it.",
	},
}

// levels is ordered by Level ascending starting at 1. The final entry's
// threshold is unreachable, which marks it terminal.
var levels = []LevelInfo{
	{
		Level:             1,
		DisplayName:       "Acquaintance",
		MessagesToAdvance: 5,
		ToneDirective: "You have only just met the user. Be polite and a " +
			"little reserved; do not assume familiarity.",
	},
	{
		Level:             2,
		DisplayName:       "Buddy",
		MessagesToAdvance: 8,
		ToneDirective: "You are getting to know the user. Be warmer and " +
			"reference things they have told you.",
	},
	{
		Level:             3,
		DisplayName:       "Friend",
		MessagesToAdvance: 12,
		ToneDirective: "You are friends now. Be casual, joke around, and " +
			"speak like someone who knows the user well.",
	},
	{
		Level:             4,
		DisplayName:       "Close Friend",
		MessagesToAdvance: 20,
		ToneDirective: "You are close friends. Be candid and affectionate; " +
			"gentle teasing is fine.",
	},
	{
		Level:             5,
		DisplayName:       "Best Friend",
		MessagesToAdvance: math.MaxInt,
		ToneDirective: "You are the user's best friend. Talk with complete " +
			"ease and shared history, like you have known each other for years.",
	},
}

// MaxLevel is the highest friendship level in the ladder.
var MaxLevel = levels[len(levels)-1].Level

// LookupPersonality resolves an externally supplied personality key.
func LookupPersonality(key string) (PersonalityInfo, error) {
	info, ok := personalities[Personality(key)]
	if !ok {
		return PersonalityInfo{}, fmt.Errorf("%w: %q", ErrUnknownPersonality, key)
	}
	return info, nil
}

// Personalities returns all personalities in a stable display order.
func Personalities() []PersonalityInfo {
	return []PersonalityInfo{
		personalities[PersonalityStudyBuddy],
		personalities[PersonalityFriend],
		personalities[PersonalityConfidant],
	}
}

// LevelDescriptor returns the descriptor for a friendship level.
func LevelDescriptor(level int) (LevelInfo, error) {
	if level < 1 || level > MaxLevel {
		return LevelInfo{}, fmt.Errorf("%w: %d (valid 1..%d)", ErrLevelOutOfRange, level, MaxLevel)
	}
	return levels[level-1], nil
}
