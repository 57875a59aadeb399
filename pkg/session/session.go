package session

import (
	"fmt"
	"slices"

	"github.com/aretw0/ironflow/pkg/flow"
)

// Script is a named flow.
type Script struct {
	Title string
	Flow  *flow.Flow
}

// Session is an ordered set of scripts.
type Session struct {
	Title   string
	Scripts []*Script

	flowOpts []flow.Option
}

// New creates a session without scripts. flowOpts are applied to the flow of
// every script it creates.
func New(title string, flowOpts ...flow.Option) *Session {
	return &Session{Title: title, flowOpts: flowOpts}
}

// CreateScript appends a script with an empty flow.
func (s *Session) CreateScript(title string) *Script {
	sc := &Script{Title: title, Flow: flow.New(s.flowOpts...)}
	s.Scripts = append(s.Scripts, sc)
	return sc
}

// Script returns the script at index i.
func (s *Session) Script(i int) (*Script, error) {
	if i < 0 || i >= len(s.Scripts) {
		return nil, fmt.Errorf("%w: %d of %d", ErrScriptIndex, i, len(s.Scripts))
	}
	return s.Scripts[i], nil
}

// ScriptIndex returns the index of the script with the given title, or -1.
func (s *Session) ScriptIndex(title string) int {
	return slices.IndexFunc(s.Scripts, func(sc *Script) bool { return sc.Title == title })
}

// DeleteScript removes the script at index i.
func (s *Session) DeleteScript(i int) error {
	if _, err := s.Script(i); err != nil {
		return err
	}
	s.Scripts = slices.Delete(s.Scripts, i, i+1)
	return nil
}

// RenameScript renames the script at index i. It refuses empty names and
// names already taken by a script.
func (s *Session) RenameScript(i int, name string) bool {
	if name == "" || s.ScriptIndex(name) >= 0 {
		return false
	}
	sc, err := s.Script(i)
	if err != nil {
		return false
	}
	sc.Title = name
	return true
}

// Clear removes every script.
func (s *Session) Clear() { s.Scripts = nil }
