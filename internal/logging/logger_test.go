package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func resetState() {
	CloseAll()
	loggers = make(map[Category]*Logger)
	logsDir = ""
	workspace = ""
	config = loggingConfig{}
}

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	configDir := filepath.Join(dir, ".kindred")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("Failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
}

// TestCategoriesLog tests that categories create log files when debug_mode is true.
func TestCategoriesLog(t *testing.T) {
	tempDir := t.TempDir()

	writeConfig(t, tempDir, `
logging:
  debug_mode: true
  level: debug
  categories:
    boot: true
    session: true
    conversation: true
    api: true
`)

	resetState()
	defer resetState()

	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}

	if !IsDebugMode() {
		t.Error("Expected debug mode to be enabled")
	}

	categories := []Category{CategoryBoot, CategorySession, CategoryConversation, CategoryAPI}
	for _, cat := range categories {
		Get(cat).Info("test message for %s", cat)
	}
	CloseAll()

	entries, err := os.ReadDir(filepath.Join(tempDir, ".kindred", "logs"))
	if err != nil {
		t.Fatalf("Failed to read logs dir: %v", err)
	}

	for _, cat := range categories {
		found := false
		for _, e := range entries {
			if strings.Contains(e.Name(), string(cat)) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("No log file created for category %s", cat)
		}
	}
}

// TestProductionMode verifies no logs are written without debug_mode.
func TestProductionMode(t *testing.T) {
	tempDir := t.TempDir()

	resetState()
	defer resetState()

	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	if IsDebugMode() {
		t.Error("Expected production mode without config")
	}

	// Should be a silent no-op
	Boot("this should go nowhere")
	Conversation("this too")

	if _, err := os.Stat(filepath.Join(tempDir, ".kindred", "logs")); !os.IsNotExist(err) {
		t.Error("Logs directory should not exist in production mode")
	}
}

// TestCategoryFilter verifies disabled categories produce no-op loggers.
func TestCategoryFilter(t *testing.T) {
	tempDir := t.TempDir()

	writeConfig(t, tempDir, `
logging:
  debug_mode: true
  level: debug
  categories:
    boot: true
    api: false
`)

	resetState()
	defer resetState()

	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	if !IsCategoryEnabled(CategoryBoot) {
		t.Error("boot should be enabled")
	}
	if IsCategoryEnabled(CategoryAPI) {
		t.Error("api should be disabled")
	}
	// Unlisted categories default to enabled in debug mode
	if !IsCategoryEnabled(CategoryConversation) {
		t.Error("conversation should default to enabled")
	}

	l := Get(CategoryAPI)
	if l.logger != nil {
		t.Error("disabled category should return a no-op logger")
	}
}

// TestInitializeRequiresWorkspace verifies empty workspace is rejected.
func TestInitializeRequiresWorkspace(t *testing.T) {
	resetState()
	defer resetState()

	if err := Initialize(""); err == nil {
		t.Error("expected error for empty workspace")
	}
}
