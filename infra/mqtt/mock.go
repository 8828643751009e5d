package mqtt

import (
	"fmt"
	"sync"
)

// MockPublisher records published messages for tests.
type MockPublisher struct {
	Messages []ScheduleMessage
	Fail     bool
	mu       sync.Mutex
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

// PublishSchedule stores the message or returns an error if configured to
// fail.
func (m *MockPublisher) PublishSchedule(msg ScheduleMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return fmt.Errorf("publish failed")
	}
	m.Messages = append(m.Messages, msg)
	return nil
}

// Close implements Publisher.
func (m *MockPublisher) Close() {}

// Published returns a copy of the recorded messages.
func (m *MockPublisher) Published() []ScheduleMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ScheduleMessage, len(m.Messages))
	copy(out, m.Messages)
	return out
}
