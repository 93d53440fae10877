// Package session persists replay sessions so a program that waits for
// input can be continued across separate CLI invocations.
package session

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/itsmostafa/steptrace/internal/runner"
)

// ErrNoSession is returned when no session has been started in the directory.
var ErrNoSession = errors.New("no active session (run `steptrace session start FILE`)")

const (
	stateFile   = "session.json"
	traceFile   = "trace.json"
	historyFile = "history.jsonl"
)

// State is the persisted description of a session.
type State struct {
	SessionID   string    `json:"session_id"`
	SourcePath  string    `json:"source_path"`
	Inputs      []string  `json:"inputs"`
	StartedAt   time.Time `json:"started_at"`
	LastUpdated time.Time `json:"last_updated"`
}

// HistoryEntry records one input given to a session.
type HistoryEntry struct {
	Value         string    `json:"value"`
	Steps         int       `json:"steps"`
	AwaitingInput bool      `json:"awaiting_input"`
	Timestamp     time.Time `json:"timestamp"`
}

// StateManager handles session persistence under a base directory
type StateManager struct {
	baseDir string
}

// NewStateManager creates a new StateManager
func NewStateManager(baseDir string) *StateManager {
	return &StateManager{baseDir: baseDir}
}

// Dir returns the base directory.
func (sm *StateManager) Dir() string { return sm.baseDir }

// Start begins a new session for the program at sourcePath, discarding any
// previous one.
func (sm *StateManager) Start(sourcePath string) (*State, error) {
	if err := sm.Reset(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(sm.baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create session directory %s: %w", sm.baseDir, err)
	}

	abs, err := filepath.Abs(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", sourcePath, err)
	}
	now := time.Now()
	state := &State{
		SessionID:   uuid.New().String(),
		SourcePath:  abs,
		Inputs:      []string{},
		StartedAt:   now,
		LastUpdated: now,
	}
	if err := sm.Save(state); err != nil {
		return nil, err
	}
	return state, nil
}

// Load loads the current session state
func (sm *StateManager) Load() (*State, error) {
	data, err := os.ReadFile(filepath.Join(sm.baseDir, stateFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to read session state: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse session state: %w", err)
	}
	return &state, nil
}

// Save saves the session state
func (sm *StateManager) Save(state *State) error {
	state.LastUpdated = time.Now()
	return sm.writeJSON(stateFile, state)
}

// SaveTrace stores the most recent replay result.
func (sm *StateManager) SaveTrace(res *runner.Result) error {
	return sm.writeJSON(traceFile, res)
}

// LoadTrace returns the most recent replay result, or nil if none was saved.
func (sm *StateManager) LoadTrace() (*runner.Result, error) {
	data, err := os.ReadFile(filepath.Join(sm.baseDir, traceFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}
	var res runner.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("failed to parse trace: %w", err)
	}
	return &res, nil
}

func (sm *StateManager) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(sm.baseDir, name), data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// Record appends an input to the session and its history file, and stores
// the replay it produced.
func (sm *StateManager) Record(state *State, value string, res *runner.Result) error {
	state.Inputs = append(state.Inputs, value)
	if err := sm.Save(state); err != nil {
		return err
	}
	if err := sm.SaveTrace(res); err != nil {
		return err
	}
	return sm.AppendHistory(HistoryEntry{
		Value:         value,
		Steps:         len(res.Steps),
		AwaitingInput: res.AwaitingInput,
	})
}

// AppendHistory appends a history entry to the history file
func (sm *StateManager) AppendHistory(entry HistoryEntry) error {
	entry.Timestamp = time.Now()
	path := filepath.Join(sm.baseDir, historyFile)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open history file: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write history entry: %w", err)
	}
	return nil
}

// History reads all history entries
func (sm *StateManager) History() ([]HistoryEntry, error) {
	f, err := os.Open(filepath.Join(sm.baseDir, historyFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []HistoryEntry{}, nil
		}
		return nil, fmt.Errorf("failed to open history file: %w", err)
	}
	defer f.Close()

	entries := []HistoryEntry{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry HistoryEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue // Skip malformed entries
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}
	return entries, nil
}

// Reset removes the session directory.
func (sm *StateManager) Reset() error {
	if err := os.RemoveAll(sm.baseDir); err != nil {
		return fmt.Errorf("failed to clean previous session: %w", err)
	}
	return nil
}
