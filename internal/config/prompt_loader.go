package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// loadSystemPrompt replaces AI.SystemPrompt with the content of
// AI.SystemPromptFile when a file is configured.
func (c *Config) loadSystemPrompt() error {
	if c.AI.SystemPromptFile == "" {
		if c.AI.SystemPrompt != "" {
			log.Println("[CONFIG] Using inline system prompt from configuration")
		}
		return nil
	}

	content, err := loadPromptFromFile(c.AI.SystemPromptFile)
	if err != nil {
		return err
	}
	c.AI.SystemPrompt = content
	return nil
}

// loadPromptFromFile reads a prompt file and rejects empty content
func loadPromptFromFile(filePath string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for system prompt file '%s': %w", filePath, err)
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return "", fmt.Errorf("system prompt file not found: %s", absPath)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read system prompt file '%s': %w", absPath, err)
	}

	trimmedContent := strings.TrimSpace(string(content))
	if trimmedContent == "" {
		return "", fmt.Errorf("system prompt file '%s' is empty", absPath)
	}

	log.Printf("[CONFIG] Successfully loaded system prompt from file: %s (%d characters)",
		absPath, len(trimmedContent))

	return trimmedContent, nil
}
