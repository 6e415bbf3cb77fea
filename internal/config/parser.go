package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/example/studio/internal/imageio"
	"github.com/example/studio/internal/theme"
)

// Parse reads configuration from an io.Reader.
func Parse(r io.Reader) (*Config, error) {
	cfg := New()
	scanner := bufio.NewScanner(r)

	// Context for parsing
	var currentSection string
	var currentTheme *theme.Theme

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		// Handle Sections
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			currentSection = strings.ToLower(strings.TrimSuffix(strings.TrimPrefix(line, "["), "]"))
			currentTheme = nil

			if strings.HasPrefix(currentSection, "theme.") {
				themeName := strings.TrimPrefix(currentSection, "theme.")
				// Start with defaults so missing keys are fine
				currentTheme = theme.Default()
				currentTheme.Name = themeName
				cfg.Themes[themeName] = currentTheme
			}
			continue
		}

		// Parse Key = Value or Key: Value
		var parts []string
		if strings.Contains(line, "=") {
			parts = strings.SplitN(line, "=", 2)
		} else if strings.Contains(line, ":") {
			parts = strings.SplitN(line, ":", 2)
		} else {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		// Remove quotes if present
		if len(value) >= 2 && strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"") {
			value = value[1 : len(value)-1]
		}

		var err error
		switch {
		case currentTheme != nil:
			err = theme.SetField(currentTheme, key, value)
		case currentSection == "":
			err = setRootField(cfg, key, value)
		case currentSection == "history":
			err = setHistoryField(&cfg.History, key, value)
		case currentSection == "export":
			err = setExportField(&cfg.Export, key, value)
		case currentSection == "ai":
			err = setAIField(&cfg.AI, key, value)
		case currentSection == "notify":
			err = setNotifyField(&cfg.Notify, key, value)
		}
		if err != nil {
			if currentSection == "" {
				return nil, fmt.Errorf("error in root section: %w", err)
			}
			return nil, fmt.Errorf("error in section [%s]: %w", currentSection, err)
		}
	}

	return cfg, scanner.Err()
}

func setRootField(cfg *Config, key, value string) error {
	switch strings.ToLower(key) {
	case "theme":
		cfg.Theme = value
	case "save_dir":
		cfg.SaveDir = value
	}
	return nil
}

func parseInt(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for key %s: %w", key, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative value for key %s", key)
	}
	return n, nil
}

func setHistoryField(h *History, key, value string) error {
	switch strings.ToLower(key) {
	case "debounce_ms":
		n, err := parseInt(key, value)
		if err != nil {
			return err
		}
		h.DebounceMS = n
	case "limit":
		n, err := parseInt(key, value)
		if err != nil {
			return err
		}
		h.Limit = n
	}
	return nil
}

func setExportField(e *Export, key, value string) error {
	switch strings.ToLower(key) {
	case "format":
		f, err := imageio.ParseFormat(value)
		if err != nil {
			return err
		}
		e.Format = f
	case "quality":
		q, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number for key %s: %w", key, err)
		}
		e.Quality = min(max(q, imageio.MinQuality), imageio.MaxQuality)
	}
	return nil
}

func setAIField(a *AI, key, value string) error {
	switch strings.ToLower(key) {
	case "model":
		a.Model = value
	case "image_model":
		a.ImageModel = value
	case "api_key_env":
		a.APIKeyEnv = value
	case "base_url":
		a.BaseURL = value
	case "timeout_seconds":
		n, err := parseInt(key, value)
		if err != nil {
			return err
		}
		a.TimeoutSeconds = n
	}
	return nil
}

func setNotifyField(n *Notify, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid boolean for key %s: %w", key, err)
	}
	switch strings.ToLower(key) {
	case "export":
		n.Export = b
	case "generate":
		n.Generate = b
	}
	return nil
}
