package session

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/autofiller/internal/form"
)

func TestStateReplaceCopies(t *testing.T) {
	t.Parallel()

	doc := parse(t, scenarioPage)
	root := doc.Forms()[0]

	var s State
	if _, _, _, ok := s.Current(); ok {
		t.Fatalf("fresh state must be empty")
	}

	fields := []form.Descriptor{{ID: "name"}}
	mapping := form.Mapping{"name": "Jane"}
	s.Replace(root, form.Snapshot{Fields: fields}, mapping, "c-1")

	fields[0].ID = "changed"
	mapping["name"] = "changed"

	snapshot, got, id, ok := s.Current()
	if !ok || id != "c-1" {
		t.Fatalf("expected capture c-1, got %q ok=%v", id, ok)
	}
	if snapshot.Fields[0].ID != "name" || got["name"] != "Jane" {
		t.Fatalf("state must not alias caller data: %+v %v", snapshot, got)
	}
	if !s.Root().Equal(root) {
		t.Fatalf("unexpected root")
	}
}

func TestStateCommitAndClear(t *testing.T) {
	t.Parallel()

	doc := parse(t, scenarioPage)
	container := doc.GetElementByID("empty")

	var s State
	s.Replace(doc.Forms()[0], form.Snapshot{}, form.Mapping{}, "c-1")
	s.Commit(container)

	if _, _, _, ok := s.Current(); ok {
		t.Fatalf("commit must drop the snapshot")
	}
	if s.Root() != nil {
		t.Fatalf("commit must drop the capture root")
	}
	if !s.Container().Equal(container) {
		t.Fatalf("expected committed container")
	}

	container.Remove()
	if s.Container() != nil {
		t.Fatalf("detached container must not be returned")
	}

	s.Commit(doc.Forms()[0])
	s.Clear()
	if s.Container() != nil {
		t.Fatalf("clear must drop the container")
	}
}

func TestSinks(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	rec := &Recorder{}
	var seen []Status

	sink := MultiSink{
		rec,
		nil,
		LogSink{Logger: zap.New(core)},
		LogSink{},
		SinkFunc(func(ev Event) { seen = append(seen, ev.Status) }),
	}

	sink.Publish(Event{Status: StatusProcessing, Message: "working"})
	sink.Publish(Event{Status: StatusWarning, Message: "partial", Error: "1 failed"})
	sink.Publish(Event{Status: StatusError, Message: "failed"})

	if len(rec.Events()) != 3 || len(seen) != 3 {
		t.Fatalf("expected every sink to see 3 events")
	}

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("expected 3 log entries, got %d", len(entries))
	}
	wantLevels := []zapcore.Level{zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel}
	for i, e := range entries {
		if e.Level != wantLevels[i] {
			t.Fatalf("entry %d: expected %s, got %s", i, wantLevels[i], e.Level)
		}
	}
	if entries[1].ContextMap()["detail"] != "1 failed" {
		t.Fatalf("expected detail field, got %v", entries[1].ContextMap())
	}
}
