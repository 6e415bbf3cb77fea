package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/example/studio/internal/history"
	"github.com/example/studio/internal/imageio"
	"github.com/example/studio/internal/theme"
)

// Notify holds notification settings.
type Notify struct {
	Export   bool
	Generate bool
}

// History tunes undo history.
type History struct {
	DebounceMS int
	Limit      int
}

// Export holds the defaults of the export dialog.
type Export struct {
	Format  imageio.Format
	Quality float64
}

// AI configures the generation service.
type AI struct {
	Model          string
	ImageModel     string
	APIKeyEnv      string
	BaseURL        string
	TimeoutSeconds int
}

// Config holds the application configuration.
type Config struct {
	Theme   string
	SaveDir string
	History History
	Export  Export
	AI      AI
	Notify  Notify
	Themes  map[string]*theme.Theme
}

// DefaultAPIKeyEnv names the variable read for the service key.
const DefaultAPIKeyEnv = "OPENAI_API_KEY"

// New creates a new Config with defaults.
func New() *Config {
	return &Config{
		Theme: "", // Default to empty to allow fallback to Env/Default
		History: History{
			DebounceMS: int(history.DefaultWindow / time.Millisecond),
			Limit:      history.DefaultLimit,
		},
		Export: Export{Format: imageio.PNG, Quality: 0.92},
		AI:     AI{APIKeyEnv: DefaultAPIKeyEnv, TimeoutSeconds: 120},
		Notify: Notify{},
		Themes: make(map[string]*theme.Theme),
	}
}

// DebounceWindow returns the slider commit window.
func (c *Config) DebounceWindow() time.Duration {
	if c.History.DebounceMS <= 0 {
		return history.DefaultWindow
	}
	return time.Duration(c.History.DebounceMS) * time.Millisecond
}

// Timeout returns the per-request timeout of the generation service.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.AI.TimeoutSeconds) * time.Second
}

// APIKey reads the service key from the configured environment variable.
func (c *Config) APIKey() string {
	name := c.AI.APIKeyEnv
	if name == "" {
		name = DefaultAPIKeyEnv
	}
	return os.Getenv(name)
}

// String implements fmt.Stringer and returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	// Root section
	if c.Theme != "" {
		fmt.Fprintf(&sb, "theme = %s\n", c.Theme)
	}
	if c.SaveDir != "" {
		fmt.Fprintf(&sb, "save_dir = %s\n", c.SaveDir)
	}
	sb.WriteString("\n")

	sb.WriteString("[history]\n")
	fmt.Fprintf(&sb, "debounce_ms = %d\n", c.History.DebounceMS)
	fmt.Fprintf(&sb, "limit = %d\n", c.History.Limit)
	sb.WriteString("\n")

	sb.WriteString("[export]\n")
	fmt.Fprintf(&sb, "format = %s\n", c.Export.Format)
	fmt.Fprintf(&sb, "quality = %g\n", c.Export.Quality)
	sb.WriteString("\n")

	sb.WriteString("[ai]\n")
	if c.AI.Model != "" {
		fmt.Fprintf(&sb, "model = %s\n", c.AI.Model)
	}
	if c.AI.ImageModel != "" {
		fmt.Fprintf(&sb, "image_model = %s\n", c.AI.ImageModel)
	}
	if c.AI.BaseURL != "" {
		fmt.Fprintf(&sb, "base_url = %s\n", c.AI.BaseURL)
	}
	fmt.Fprintf(&sb, "api_key_env = %s\n", c.AI.APIKeyEnv)
	fmt.Fprintf(&sb, "timeout_seconds = %d\n", c.AI.TimeoutSeconds)
	sb.WriteString("\n")

	// Notify section
	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "export = %v\n", c.Notify.Export)
	fmt.Fprintf(&sb, "generate = %v\n", c.Notify.Generate)
	sb.WriteString("\n")

	// Themes sections
	// Sort keys for deterministic output
	var themeNames []string
	for name := range c.Themes {
		themeNames = append(themeNames, name)
	}
	sort.Strings(themeNames)

	for _, name := range themeNames {
		t := c.Themes[name]
		fmt.Fprintf(&sb, "[theme.%s]\n", name)
		fmt.Fprintf(&sb, "Name: %s\n", t.Name)
		for _, f := range theme.Fields(t) {
			fmt.Fprintf(&sb, "%s: %s\n", f.Name, f.Color.Hex())
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
