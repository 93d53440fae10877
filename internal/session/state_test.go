package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"github.com/itsmostafa/steptrace/internal/runner"
)

func newManager(t *testing.T) *StateManager {
	t.Helper()
	return NewStateManager(filepath.Join(t.TempDir(), ".steptrace"))
}

func TestLoadWithoutSession(t *testing.T) {
	sm := newManager(t)
	if _, err := sm.Load(); !errors.Is(err, ErrNoSession) {
		t.Errorf("Load() error = %v, want ErrNoSession", err)
	}
	res, err := sm.LoadTrace()
	if err != nil || res != nil {
		t.Errorf("LoadTrace() = %v, %v; want nil, nil", res, err)
	}
}

func TestStartAndLoad(t *testing.T) {
	sm := newManager(t)
	state, err := sm.Start("prog.py")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := uuid.Parse(state.SessionID); err != nil {
		t.Errorf("SessionID %q is not a UUID: %v", state.SessionID, err)
	}
	if !filepath.IsAbs(state.SourcePath) {
		t.Errorf("SourcePath %q should be absolute", state.SourcePath)
	}

	loaded, err := sm.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.SessionID != state.SessionID || loaded.SourcePath != state.SourcePath {
		t.Errorf("Load() = %+v, want %+v", loaded, state)
	}
	if len(loaded.Inputs) != 0 {
		t.Errorf("new session has inputs: %v", loaded.Inputs)
	}
}

func TestStartDiscardsPreviousSession(t *testing.T) {
	sm := newManager(t)
	first, err := sm.Start("a.py")
	if err != nil {
		t.Fatal(err)
	}
	if err := sm.AppendHistory(HistoryEntry{Value: "x"}); err != nil {
		t.Fatal(err)
	}
	second, err := sm.Start("b.py")
	if err != nil {
		t.Fatal(err)
	}
	if first.SessionID == second.SessionID {
		t.Error("a new session should get a new id")
	}
	history, err := sm.History()
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 0 {
		t.Errorf("history should be cleared, got %v", history)
	}
}

func TestRecordPersistsInputsAndTrace(t *testing.T) {
	sm := newManager(t)
	state, err := sm.Start("prog.py")
	if err != nil {
		t.Fatal(err)
	}

	src := "a = input()\nb = input()\n"
	res, err := runner.Interpreter{}.Run(context.Background(), src, []string{"1"})
	if err != nil {
		t.Fatal(err)
	}
	if err := sm.Record(state, "1", res); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	loaded, err := sm.Load()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(loaded.Inputs, []string{"1"}) {
		t.Errorf("Inputs = %v", loaded.Inputs)
	}

	saved, err := sm.LoadTrace()
	if err != nil {
		t.Fatalf("LoadTrace() error = %v", err)
	}
	if !saved.AwaitingInput || len(saved.Steps) != len(res.Steps) {
		t.Errorf("saved trace = %+v", saved)
	}
	if saved.Steps[0].Line != 1 || saved.Steps[0].Annotation != res.Steps[0].Annotation {
		t.Errorf("first step = %+v, want %+v", saved.Steps[0], res.Steps[0])
	}

	history, err := sm.History()
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 || history[0].Value != "1" || !history[0].AwaitingInput {
		t.Errorf("History() = %+v", history)
	}
}

func TestHistorySkipsMalformedLines(t *testing.T) {
	sm := newManager(t)
	if _, err := sm.Start("prog.py"); err != nil {
		t.Fatal(err)
	}
	if err := sm.AppendHistory(HistoryEntry{Value: "a"}); err != nil {
		t.Fatal(err)
	}
	f, err := os.OpenFile(filepath.Join(sm.Dir(), historyFile), os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString("not json\n")
	f.Close()
	if err := sm.AppendHistory(HistoryEntry{Value: "b"}); err != nil {
		t.Fatal(err)
	}

	history, err := sm.History()
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 || history[0].Value != "a" || history[1].Value != "b" {
		t.Errorf("History() = %+v", history)
	}
}

func TestReset(t *testing.T) {
	sm := newManager(t)
	if _, err := sm.Start("prog.py"); err != nil {
		t.Fatal(err)
	}
	if err := sm.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if _, err := sm.Load(); !errors.Is(err, ErrNoSession) {
		t.Errorf("Load() after Reset error = %v, want ErrNoSession", err)
	}
}
