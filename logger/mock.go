package logger

import (
	"github.com/stretchr/testify/mock"
)

// MockLogger records logger calls through testify's mock package.
//
// Log methods are recorded under their own names with two arguments, the message
// and the key/value slice, so expectations are usually written as
//
//	m.On("Warn", "t8 timeout", mock.Anything).Return()
//
// Use AllowAll when a test only asserts on a few calls and doesn't care about the rest.
type MockLogger struct {
	mock.Mock
}

var _ Logger = (*MockLogger)(nil)

func NewMockLogger() *MockLogger {
	return &MockLogger{}
}

// AllowAll registers catch-all expectations for every log level and returns m.
func (m *MockLogger) AllowAll() *MockLogger {
	for _, method := range []string{"Debug", "Info", "Warn", "Error", "Fatal"} {
		m.On(method, mock.Anything, mock.Anything).Return()
	}

	return m
}

func (m *MockLogger) Debug(msg string, keysAndValues ...any) { m.record("Debug", msg, keysAndValues) }
func (m *MockLogger) Info(msg string, keysAndValues ...any)  { m.record("Info", msg, keysAndValues) }
func (m *MockLogger) Warn(msg string, keysAndValues ...any)  { m.record("Warn", msg, keysAndValues) }
func (m *MockLogger) Error(msg string, keysAndValues ...any) { m.record("Error", msg, keysAndValues) }
func (m *MockLogger) Fatal(msg string, keysAndValues ...any) { m.record("Fatal", msg, keysAndValues) }

func (m *MockLogger) record(method string, msg string, keysAndValues []any) {
	m.MethodCalled(method, msg, keysAndValues)
}

func (m *MockLogger) SetLevel(level LogLevel) {
	m.Called(level)
}

func (m *MockLogger) Level() LogLevel {
	level, _ := m.Called().Get(0).(LogLevel)
	return level
}

// With returns the Logger given to Return, or the mock itself when Return(nil) is used.
func (m *MockLogger) With(keyValues ...any) Logger {
	if l, ok := m.Called(keyValues).Get(0).(Logger); ok {
		return l
	}

	return m
}
