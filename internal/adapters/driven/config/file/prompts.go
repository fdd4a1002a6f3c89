package file

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

var _ driven.PromptStore = (*PromptStore)(nil)

const promptReadme = `# docqa prompts

answer.txt is the prompt used to answer each question. It must contain
both placeholders:

  {context}   passages retrieved from the document
  {question}  the question being answered

A prompt missing either placeholder is ignored in favour of the built-in one.
Restart the server after editing.
`

// PromptStore serves prompt templates from <dir>/<name>.txt. The first Load
// seeds the directory with the built-in templates; files the user already
// edited are left alone.
type PromptStore struct {
	dir      string
	builtins map[string]string

	seedOnce sync.Once
	seedErr  error

	mu     sync.RWMutex
	loaded map[string]string
}

// NewPromptStore does no I/O. An empty dir means ~/.docqa/prompts.
func NewPromptStore(dir string, builtins map[string]string) (*PromptStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(home, ".docqa", "prompts")
	}
	return &PromptStore{
		dir:      dir,
		builtins: maps.Clone(builtins),
		loaded:   map[string]string{},
	}, nil
}

// Load returns the named template. An unreadable directory or file falls
// back to the built-in template; a name with neither is an error.
func (s *PromptStore) Load(name string) (string, error) {
	s.seedOnce.Do(func() { s.seedErr = s.seed() })

	s.mu.RLock()
	prompt, ok := s.loaded[name]
	s.mu.RUnlock()
	if ok {
		return prompt, nil
	}

	prompt, err := s.read(name)
	if err != nil {
		if builtin, ok := s.builtins[name]; ok {
			return builtin, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, errors.Join(err, s.seedErr))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if first, ok := s.loaded[name]; ok {
		return first, nil
	}
	s.loaded[name] = prompt
	return prompt, nil
}

// Reload forgets every loaded template.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.loaded = map[string]string{}
	s.mu.Unlock()
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

func (s *PromptStore) path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *PromptStore) read(name string) (string, error) {
	data, err := os.ReadFile(s.path(name + ".txt"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *PromptStore) seed() error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("create prompt directory: %w", err)
	}
	files := map[string]string{"README.md": promptReadme}
	for name, content := range s.builtins {
		files[name+".txt"] = content
	}
	for file, content := range files {
		if err := writeIfAbsent(s.path(file), content); err != nil {
			return fmt.Errorf("seed %s: %w", file, err)
		}
	}
	return nil
}

func writeIfAbsent(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if errors.Is(err, os.ErrExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
