package tiles

import (
	"os/exec"
)

// CommandExecutor runs a prepared command.
type CommandExecutor interface {
	// Run executes the command and returns the combined output (stdout+stderr).
	Run() ([]byte, error)
}

// CommandBuilder builds executors so gdal2tiles invocations can be tested
// without the binary installed.
type CommandBuilder interface {
	BuildCommand(name string, args ...string) CommandExecutor
}

// RealCommandExecutor wraps exec.Cmd.
type RealCommandExecutor struct {
	cmd *exec.Cmd
}

// Run executes the command and returns combined output.
func (r *RealCommandExecutor) Run() ([]byte, error) {
	return r.cmd.CombinedOutput()
}

// RealCommandBuilder implements CommandBuilder using exec.Command.
type RealCommandBuilder struct{}

// BuildCommand creates a CommandExecutor for the given command and arguments.
func (RealCommandBuilder) BuildCommand(name string, args ...string) CommandExecutor {
	return &RealCommandExecutor{cmd: exec.Command(name, args...)}
}

// MockCommandExecutor implements CommandExecutor for testing.
type MockCommandExecutor struct {
	Output    []byte
	Err       error
	RunCalled bool
	// OnRun, when set, runs before Run returns.
	OnRun func()
}

// Run returns the configured output and error.
func (m *MockCommandExecutor) Run() ([]byte, error) {
	m.RunCalled = true
	if m.OnRun != nil {
		m.OnRun()
	}
	return m.Output, m.Err
}

// MockBuiltCommand records details of a built command.
type MockBuiltCommand struct {
	Name string
	Args []string
}

// MockCommandBuilder records built commands and hands out Executor.
type MockCommandBuilder struct {
	Commands []MockBuiltCommand
	Executor *MockCommandExecutor
}

// BuildCommand records the command and returns the mock executor.
func (b *MockCommandBuilder) BuildCommand(name string, args ...string) CommandExecutor {
	b.Commands = append(b.Commands, MockBuiltCommand{Name: name, Args: args})
	if b.Executor == nil {
		b.Executor = &MockCommandExecutor{}
	}
	return b.Executor
}
