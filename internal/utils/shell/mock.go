package shell

import (
	"fmt"
	"strings"
)

// MockCommand maps a command substring to a canned result.
type MockCommand struct {
	Pattern string
	Output  string
	Error   error
}

// MockExecutor matches executed commands against registered patterns and
// records every call, so tests never spawn real subprocesses.
type MockExecutor struct {
	Commands []MockCommand
	Calls    []string
}

// NewMockExecutor creates a mock executor from a list of expected commands.
func NewMockExecutor(commands []MockCommand) *MockExecutor {
	return &MockExecutor{Commands: commands}
}

func (m *MockExecutor) Exec(cmdStr string, sudo bool, workDir string, envVal []string) (string, error) {
	m.Calls = append(m.Calls, cmdStr)
	for _, mc := range m.Commands {
		if strings.Contains(cmdStr, mc.Pattern) {
			return mc.Output, mc.Error
		}
	}
	return "", fmt.Errorf("unexpected command: %s", cmdStr)
}

// CalledWith reports whether any executed command contained the substring.
func (m *MockExecutor) CalledWith(substr string) bool {
	for _, call := range m.Calls {
		if strings.Contains(call, substr) {
			return true
		}
	}
	return false
}
