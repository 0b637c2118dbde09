package service

import (
	"fmt"
	"os"
	"strings"
)

// Batch mode reads a plain-text list of book titles, one per line. Finished
// titles are rewritten in place with a "PROCESSED:" prefix so the file
// doubles as the batch's progress record.

const processedPrefix = "PROCESSED:"

// NextUnprocessed returns the first title in the books file that has not
// been processed yet. Returns "" when every title is done.
func NextUnprocessed(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read books file: %w", err)
	}

	processed := make(map[string]bool)
	var pending []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, processedPrefix) {
			processed[strings.TrimSpace(strings.TrimPrefix(line, processedPrefix))] = true
			continue
		}
		pending = append(pending, line)
	}

	for _, title := range pending {
		if !processed[title] {
			return title, nil
		}
	}
	return "", nil
}

// MarkProcessed rewrites the first unprocessed occurrence of title with the
// PROCESSED prefix.
func MarkProcessed(path, title string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read books file: %w", err)
	}

	lines := strings.Split(string(data), "\n")
	marked := false
	for i, line := range lines {
		if !marked && strings.TrimSpace(line) == title {
			lines[i] = processedPrefix + " " + title
			marked = true
		}
	}
	if !marked {
		return fmt.Errorf("title %q not found in %s", title, path)
	}

	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		return fmt.Errorf("failed to update books file: %w", err)
	}
	return nil
}
