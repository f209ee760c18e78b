package maintenance

import (
	"errors"
	"fmt"
)

// Diagnostic test messages, in severity order.
var hostTestMessages = [6]string{
	"TEST 1/6: debug message",
	"TEST 2/6: info message",
	"TEST 3/6: warning message",
	"TEST 4/6: error message",
	"TEST 5/6: critical message",
	"TEST 6/6: alert message",
}

// SystemTestMessage is sent to the system error channel.
const SystemTestMessage = "TEST system error message"

// ErrNoDiagnostics is returned by Test when the name is a diagnostic log
// but no logger is configured for it.
var ErrNoDiagnostics = errors.New("no diagnostic logger configured")

// Test writes diagnostic messages for the named log so the view and trim
// pipeline can be exercised end to end. The host diagnostic log receives one
// message per severity; the system diagnostic log receives one message on
// the system error channel. Any other name is a no-op.
func (s *Service) Test(name string) error {
	switch {
	case name != "" && name == s.hostLog:
		if s.host == nil {
			return fmt.Errorf("%s: %w", name, ErrNoDiagnostics)
		}
		s.host.Debug(hostTestMessages[0])
		s.host.Info(hostTestMessages[1])
		s.host.Warn(hostTestMessages[2])
		s.host.Error(hostTestMessages[3])
		s.host.Critical(hostTestMessages[4])
		s.host.Alert(hostTestMessages[5])
	case name != "" && name == s.systemLog:
		if s.system == nil {
			return fmt.Errorf("%s: %w", name, ErrNoDiagnostics)
		}
		s.system.SystemError(SystemTestMessage)
	default:
		return nil
	}
	s.logger.Info("diagnostic messages written", "name", name)
	return nil
}
