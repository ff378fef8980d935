package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/spigell/autofiller/internal/ai"
	"github.com/spigell/autofiller/internal/form"
	"github.com/spigell/autofiller/internal/profile"
	"github.com/spigell/autofiller/internal/session"
)

// ProfileStore is the persisted applicant profile.
type ProfileStore interface {
	profile.Source
	SetResume(text string) error
	SetAPIKey(key string) error
}

// BackgroundDeps wires a BackgroundRouter. Popup receives status updates meant for
// the user interface.
type BackgroundDeps struct {
	Resolver ai.Resolver
	Profiles ProfileStore
	Popup    session.Sink
	Logger   *zap.Logger
}

// BackgroundRouter owns the profile and talks to the value resolver on behalf of
// pages.
type BackgroundRouter struct {
	resolver ai.Resolver
	profiles ProfileStore
	popup    session.Sink
	logger   *zap.Logger

	mu    sync.Mutex
	badge string
}

func NewBackgroundRouter(deps BackgroundDeps) *BackgroundRouter {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	popup := deps.Popup
	if popup == nil {
		popup = session.LogSink{Logger: log}
	}

	return &BackgroundRouter{resolver: deps.Resolver, profiles: deps.Profiles, popup: popup, logger: log}
}

// Badge returns the indicator set by OPEN_POPUP.
func (b *BackgroundRouter) Badge() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.badge
}

func (b *BackgroundRouter) Dispatch(ctx context.Context, msg Message) (Reply, error) {
	switch msg.Type {
	case ProcessForm:
		var req ai.Request
		if err := msg.DecodePayload(&req); err != nil {
			return Reply{}, err
		}
		return Deferred(func() Response { return b.processForm(ctx, req) }), nil

	case UpdateResume:
		var p ResumePayload
		if err := msg.DecodePayload(&p); err != nil {
			return Reply{}, err
		}
		if err := b.profiles.SetResume(p.Resume); err != nil {
			b.logger.Error("resume not saved", zap.Error(err))
			return Immediate(Failure("Failed to save resume.", err.Error())), nil
		}
		b.logger.Info("resume updated")
		return Immediate(Response{Success: true}), nil

	case UpdateAPIKey:
		var p APIKeyPayload
		if err := msg.DecodePayload(&p); err != nil {
			return Reply{}, err
		}
		if err := b.profiles.SetAPIKey(p.APIKey); err != nil {
			b.logger.Error("API key not saved", zap.Error(err))
			return Immediate(Failure("Failed to save API key.", err.Error())), nil
		}
		b.logger.Info("API key updated")
		return Immediate(Response{Success: true}), nil

	case OpenPopup:
		b.mu.Lock()
		b.badge = "✓"
		b.mu.Unlock()
		b.logger.Info("popup requested")
		return Immediate(Response{Success: true}), nil

	case StatusUpdate:
		var ev session.Event
		if err := msg.DecodePayload(&ev); err != nil {
			return Reply{}, err
		}
		b.popup.Publish(ev)
		return Immediate(Response{Success: true}), nil

	case ResetCaptureState:
		b.popup.Publish(session.Event{Status: session.StatusIdle, Message: "Capture state reset."})
		return Immediate(Response{Success: true}), nil

	case CaptureForm, StartContainerSelection, CancelContainerSelection, CheckSelectionStatus, FillForm:
		return Reply{}, fmt.Errorf("background: %w: %s", ErrUnhandled, msg.Type)

	default:
		return Reply{}, fmt.Errorf("background: %w: %q", ErrUnknownKind, msg.Type)
	}
}

func (b *BackgroundRouter) processForm(ctx context.Context, req ai.Request) Response {
	p, err := b.profiles.Load(ctx)
	if err != nil {
		return Failure("Failed to load profile.", err.Error())
	}

	switch err := p.Validate(); {
	case errors.Is(err, profile.ErrMissingResume):
		return Failure("Missing resume. Please add your resume to your profile.", "")
	case errors.Is(err, profile.ErrMissingAPIKey):
		return Failure("Missing API key. Please add your API key to your profile.", "")
	}

	req.UserResume = p.Resume
	req.APIKey = p.APIKey
	if req.Instructions == "" {
		req.Instructions = p.Instructions
	}

	values, err := b.resolver.Resolve(ctx, req)
	if err != nil {
		b.logger.Warn("form processing failed", zap.String("url", req.URL), zap.Error(err))

		var re *ai.ResolveError
		if errors.As(err, &re) && re.Message != "" {
			return Failure(re.Message, re.Detail)
		}
		return Failure("Failed to process form with AI. Please try again.", err.Error())
	}

	return Response{Success: true, Data: values}
}

// Bridge is an ai.Resolver that goes through the PROCESS_FORM handler of a
// background router.
type Bridge struct {
	Router Router
}

func (b Bridge) Resolve(ctx context.Context, req ai.Request) (form.Mapping, error) {
	reply, err := b.Router.Dispatch(ctx, Message{Type: ProcessForm, Payload: req})
	if err != nil {
		return nil, err
	}

	resp, err := reply.Wait(ctx)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &ai.ResolveError{Message: resp.Message, Detail: resp.Error}
	}

	return resp.Data, nil
}
