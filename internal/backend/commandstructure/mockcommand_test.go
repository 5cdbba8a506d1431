package commandstructure

// mockCommand is a simple mock implementation of the Command interface for testing
type mockCommand struct {
	name        string
	executeFunc func(*Frame) (*Frame, error)
}

func (m *mockCommand) Name() string {
	return m.name
}

func (m *mockCommand) Execute(frame *Frame) (*Frame, error) {
	if m.executeFunc != nil {
		return m.executeFunc(frame)
	}
	return frame, nil
}

// newMockCommand creates a mock command with default behavior (pass-through)
func newMockCommand(name string) *mockCommand {
	return &mockCommand{
		name: name,
		executeFunc: func(frame *Frame) (*Frame, error) {
			return frame, nil
		},
	}
}

// newMockCommandWithError creates a mock command that returns an error
func newMockCommandWithError(name string, err error) *mockCommand {
	return &mockCommand{
		name: name,
		executeFunc: func(frame *Frame) (*Frame, error) {
			return nil, err
		},
	}
}
