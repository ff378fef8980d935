package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/spigell/autofiller/internal/dom"
	"github.com/spigell/autofiller/internal/form"
	"github.com/spigell/autofiller/internal/selection"
	"github.com/spigell/autofiller/internal/session"
)

// Router answers messages addressed to one component.
type Router interface {
	Dispatch(ctx context.Context, msg Message) (Reply, error)
}

// Sender delivers a message without waiting for its answer.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Local sends messages to an in-process router.
type Local struct {
	Router Router
}

func (l Local) Send(ctx context.Context, msg Message) error {
	if l.Router == nil {
		return nil
	}
	_, err := l.Router.Dispatch(ctx, msg)
	return err
}

// Page is the page-side workflow driven by the content router.
type Page interface {
	Capture(ctx context.Context) error
	Fill(ctx context.Context) (form.Report, error)
	UseContainer(el *dom.Element)
	Reset()
}

// ContentRouter handles the messages a page script receives. Page work is
// serialized; DOM events must be dispatched from the goroutine that owns the page.
type ContentRouter struct {
	mu       sync.Mutex
	page     Page
	selector *selection.Selector
	sink     session.Sink
	out      Sender
	logger   *zap.Logger

	// selectCtx governs the capture that follows a container click.
	selectCtx context.Context
}

// NewContentRouter wires page and a container selector for doc. sink receives the
// selection feedback; out receives notifications for the background component.
func NewContentRouter(doc *dom.Document, page Page, sink session.Sink, out Sender, logger *zap.Logger) *ContentRouter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sink == nil {
		sink = session.LogSink{Logger: logger}
	}

	r := &ContentRouter{page: page, sink: sink, out: out, logger: logger, selectCtx: context.Background()}
	r.selector = selection.New(doc, logger, selection.Callbacks{
		OnApplied:   r.onContainerApplied,
		OnCancelled: r.onSelectionCancelled,
	})

	return r
}

// Selector exposes the container selector, e.g. to feed it page events.
func (r *ContentRouter) Selector() *selection.Selector {
	return r.selector
}

func (r *ContentRouter) Dispatch(ctx context.Context, msg Message) (Reply, error) {
	switch msg.Type {
	case CaptureForm:
		return Deferred(func() Response {
			r.mu.Lock()
			defer r.mu.Unlock()
			return r.capture(ctx)
		}), nil

	case FillForm:
		return Deferred(func() Response {
			r.mu.Lock()
			defer r.mu.Unlock()

			report, err := r.page.Fill(ctx)
			if err != nil {
				return Response{Report: &report, Error: err.Error()}
			}
			return Response{Success: true, Report: &report}
		}), nil

	case StartContainerSelection:
		r.mu.Lock()
		defer r.mu.Unlock()

		r.selectCtx = ctx
		if err := r.selector.Start(); err != nil && !errors.Is(err, selection.ErrActive) {
			r.sink.Publish(session.Event{Status: session.StatusError, Message: "Could not start container selection.", Error: err.Error()})
			return Immediate(Failure("Could not start container selection.", err.Error())), nil
		}
		return Immediate(Response{Success: true, IsSelecting: true}), nil

	case CancelContainerSelection:
		r.mu.Lock()
		defer r.mu.Unlock()
		return Immediate(Response{Success: r.selector.Cancel()}), nil

	case CheckSelectionStatus:
		r.mu.Lock()
		defer r.mu.Unlock()
		return Immediate(Response{Success: true, IsSelecting: r.selector.Active()}), nil

	case ResetCaptureState:
		r.mu.Lock()
		defer r.mu.Unlock()
		r.selector.Cancel()
		r.page.Reset()
		return Immediate(Response{Success: true}), nil

	case StatusUpdate, ProcessForm, UpdateResume, UpdateAPIKey, OpenPopup:
		return Reply{}, fmt.Errorf("content: %w: %s", ErrUnhandled, msg.Type)

	default:
		return Reply{}, fmt.Errorf("content: %w: %q", ErrUnknownKind, msg.Type)
	}
}

func (r *ContentRouter) capture(ctx context.Context) Response {
	err := r.page.Capture(ctx)
	if err == nil {
		return Response{Success: true}
	}

	if errors.Is(err, session.ErrNoContainer) && r.out != nil {
		if sendErr := r.out.Send(ctx, Message{Type: ResetCaptureState}); sendErr != nil {
			r.logger.Debug("reset notification not delivered", zap.Error(sendErr))
		}
	}

	return Response{Error: err.Error()}
}

// onContainerApplied runs inside the click dispatch: the selector has already
// removed its decorations.
func (r *ContentRouter) onContainerApplied(el *dom.Element) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.page.UseContainer(el)

	if resp := r.capture(r.selectCtx); !resp.Success {
		r.logger.Debug("capture after selection failed", zap.String("error", resp.Error))
	}
}

func (r *ContentRouter) onSelectionCancelled() {
	r.sink.Publish(session.Event{Status: session.StatusIdle, Message: "Container selection cancelled."})
}

// StatusForwarder publishes status events as STATUS_UPDATE messages.
type StatusForwarder struct {
	Out    Sender
	Logger *zap.Logger
}

func (f StatusForwarder) Publish(ev session.Event) {
	if f.Out == nil {
		return
	}

	if err := f.Out.Send(context.Background(), Message{Type: StatusUpdate, Payload: ev}); err != nil && f.Logger != nil {
		f.Logger.Debug("status update not delivered", zap.Error(err))
	}
}
