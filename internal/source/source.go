// Package source loads programs from plain source files or from fenced code
// blocks inside Markdown documents.
package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrNoCode is returned when a Markdown document has no code block.
var ErrNoCode = errors.New("no code block found")

var (
	// Patterns for extracting code from markdown code blocks
	codeBlockPython = regexp.MustCompile("(?s)```(?:python|py)[ \t]*\r?\n(.*?)```")
	codeBlockPlain  = regexp.MustCompile("(?s)```[ \t]*\r?\n(.*?)```")
)

// ExtractCode returns the first ```python block of a Markdown document, or
// the first unlabelled block when there is none.
func ExtractCode(text string) (string, error) {
	for _, pattern := range []*regexp.Regexp{codeBlockPython, codeBlockPlain} {
		if match := pattern.FindStringSubmatch(text); len(match) >= 2 {
			code := strings.TrimRight(match[1], " \t\r\n")
			if code == "" {
				return "", nil
			}
			return code + "\n", nil
		}
	}
	return "", ErrNoCode
}

// IsMarkdown reports whether path names a Markdown document.
func IsMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// Read reads a program from r. Markdown documents, recognised by name, are
// reduced to their code block.
func Read(r io.Reader, name string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	if !IsMarkdown(name) {
		return text, nil
	}
	code, err := ExtractCode(text)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return code, nil
}

// Load reads the program at path; "-" reads standard input.
func Load(path string) (string, error) {
	if path == "-" {
		return Read(os.Stdin, "<stdin>")
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open program: %w", err)
	}
	defer f.Close()
	return Read(f, path)
}
