package session

import (
	"sync"

	"go.uber.org/zap"
)

// Status is the outward state of the fill workflow.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusWarning    Status = "warning"
	StatusError      Status = "error"
)

// Event is emitted after every phase transition. Error carries the longer
// explanation shown below Message.
type Event struct {
	Status  Status `json:"status" mapstructure:"status"`
	Message string `json:"message" mapstructure:"message"`
	Error   string `json:"error,omitempty" mapstructure:"error"`
}

// Sink receives status events.
type Sink interface {
	Publish(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Publish(ev Event) { f(ev) }

// MultiSink fans an event out to every sink in order.
type MultiSink []Sink

func (m MultiSink) Publish(ev Event) {
	for _, s := range m {
		if s != nil {
			s.Publish(ev)
		}
	}
}

// LogSink writes events to a zap logger.
type LogSink struct {
	Logger *zap.Logger
}

func (s LogSink) Publish(ev Event) {
	if s.Logger == nil {
		return
	}

	fields := []zap.Field{zap.String("status", string(ev.Status))}
	if ev.Error != "" {
		fields = append(fields, zap.String("detail", ev.Error))
	}

	switch ev.Status {
	case StatusError:
		s.Logger.Error(ev.Message, fields...)
	case StatusWarning:
		s.Logger.Warn(ev.Message, fields...)
	default:
		s.Logger.Info(ev.Message, fields...)
	}
}

// Recorder keeps every published event. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Last returns the most recent event, if any.
func (r *Recorder) Last() (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return Event{}, false
	}
	return r.events[len(r.events)-1], true
}
