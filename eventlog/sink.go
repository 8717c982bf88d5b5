// Package eventlog defines the event-storage collaborator contract and
// the serialized form of a reboot event. The tracking engine hands sinks
// fully serialized buffers; a sink never needs to understand the payload,
// though implementations that index events (see sqlitelog) may decode it.
package eventlog

// Sink accepts serialized events for storage. Implementations must treat
// the buffer as read-only and copy it if they retain it past the call.
// The engine guarantees every buffer is at most WorstCaseEventSize bytes.
type Sink interface {
	Append(data []byte) error
}

// MemorySink is an in-process Sink that retains every appended event.
// Useful for tests and for staging events before a transport drains them.
type MemorySink struct {
	Events [][]byte
}

// Append stores a copy of the event.
func (s *MemorySink) Append(data []byte) error {
	buf := make([]byte, len(data))
	copy(buf, data)
	s.Events = append(s.Events, buf)
	return nil
}

// Len returns the number of stored events.
func (s *MemorySink) Len() int {
	return len(s.Events)
}
