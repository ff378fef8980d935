package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/autofiller/internal/ai"
	"github.com/spigell/autofiller/internal/dom"
	"github.com/spigell/autofiller/internal/form"
	"github.com/spigell/autofiller/internal/logger"
	"github.com/spigell/autofiller/internal/profile"
)

var (
	ErrNoContainer   = errors.New("no form container on page")
	ErrNoSnapshot    = errors.New("no captured form")
	ErrContainerGone = errors.New("captured container is no longer attached")
	ErrNothingFilled = errors.New("no fields were filled")
)

// Deps wires an Orchestrator. Document, Resolver and Profiles are required.
type Deps struct {
	Document   *dom.Document
	Resolver   ai.Resolver
	Profiles   profile.Source
	Sink       Sink
	Logger     *zap.Logger
	Categories []form.Category
	// NewID labels captures. Defaults to random UUIDs.
	NewID func() string
}

// Orchestrator runs the capture and fill phases for one page and reports every
// transition to its sink. It is not meant for concurrent Capture/Fill calls.
type Orchestrator struct {
	doc      *dom.Document
	resolver ai.Resolver
	profiles profile.Source
	sink     Sink
	logger   *zap.Logger
	filler   *form.Filler
	newID    func() string
	state    State
}

func New(deps Deps) (*Orchestrator, error) {
	switch {
	case deps.Document == nil:
		return nil, errors.New("session: document is required")
	case deps.Resolver == nil:
		return nil, errors.New("session: resolver is required")
	case deps.Profiles == nil:
		return nil, errors.New("session: profile source is required")
	}

	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	sink := deps.Sink
	if sink == nil {
		sink = LogSink{Logger: log}
	}
	newID := deps.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	return &Orchestrator{
		doc:      deps.Document,
		resolver: deps.Resolver,
		profiles: deps.Profiles,
		sink:     sink,
		logger:   log,
		filler:   form.NewFiller(log, form.NewMatcher(log), form.NewBinder(deps.Document), deps.Categories),
		newID:    newID,
	}, nil
}

// UseContainer commits el as the capture root and drops the previous snapshot.
func (o *Orchestrator) UseContainer(el *dom.Element) {
	o.state.Commit(el)
	o.logger.Info("container committed", zap.String(logger.FieldContainer, el.Describe()))
}

// Reset forgets the container, snapshot and mapping.
func (o *Orchestrator) Reset() {
	o.state.Clear()
}

// Container returns the committed container, if it is still attached.
func (o *Orchestrator) Container() *dom.Element {
	return o.state.Container()
}

// Snapshot returns the last capture and the values resolved for it.
func (o *Orchestrator) Snapshot() (form.Snapshot, form.Mapping, bool) {
	snapshot, mapping, _, ok := o.state.Current()
	return snapshot, mapping, ok
}

// Capture extracts the fields of the committed container (or the first form), asks
// the resolver for values and stores both as the current snapshot.
func (o *Orchestrator) Capture(ctx context.Context) error {
	root, selected := o.state.Container(), true
	if root == nil {
		selected = false
		if forms := o.doc.Forms(); len(forms) > 0 {
			root = forms[0]
		}
	}

	if selected {
		o.emit(StatusProcessing, "Analyzing fields in selected container...", "")
	} else {
		o.emit(StatusProcessing, "Analyzing form fields...", "")
	}

	p, err := o.profiles.Load(ctx)
	if err != nil {
		o.emit(StatusError, "Failed to load profile.", err.Error())
		return fmt.Errorf("load profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		switch {
		case errors.Is(err, profile.ErrMissingResume):
			o.emit(StatusError, "Missing resume. Please add your resume to your profile.", "")
		default:
			o.emit(StatusError, "Missing API key. Please add your API key to your profile.", "")
		}
		return err
	}

	if root == nil {
		o.emit(StatusError,
			"No forms detected on this page. Please select a container with form fields.",
			`Use "Select Container" to choose the container that has the form fields.`)
		return ErrNoContainer
	}

	fields, err := form.Extract(root)
	switch {
	case errors.Is(err, form.ErrNoInputFields):
		if selected {
			o.emit(StatusError, "No input fields found in the selected container.",
				"The container you selected does not contain any input fields that can be filled.")
		} else {
			o.emit(StatusError, "No input fields found in the form.",
				"The form on this page does not contain any input fields that can be filled.")
		}
		return err
	case errors.Is(err, form.ErrNoIdentifiableFields):
		o.emit(StatusError, "No identifiable fields found.",
			"Could not identify any fields with labels, names, or IDs. This may not work with this form.")
		return err
	case err != nil:
		o.emit(StatusError, "Failed to analyze form fields.", err.Error())
		return fmt.Errorf("extract fields: %w", err)
	}

	snapshot := form.Snapshot{
		URL:    o.doc.URL(),
		Title:  o.doc.Title(),
		Fields: form.Identifiable(fields),
	}

	captureID := o.newID()
	log := logger.WithCaptureFields(o.logger, captureID, snapshot.URL, root.Describe())
	log.Debug("fields extracted", zap.Int("eligible", len(fields)), zap.Int("identifiable", len(snapshot.Fields)))

	mapping, err := o.resolver.Resolve(ctx, ai.Request{
		Fields:       snapshot.Fields,
		UserResume:   p.Resume,
		APIKey:       p.APIKey,
		URL:          snapshot.URL,
		Title:        snapshot.Title,
		Instructions: p.Instructions,
	})
	if err != nil {
		var re *ai.ResolveError
		if errors.As(err, &re) && re.Message != "" {
			o.emit(StatusError, re.Message, re.Detail)
		} else {
			o.emit(StatusError, "Failed to process form data.",
				"The server could not process this form. Please try again or check your API key and resume.")
		}
		log.Warn("resolve failed", zap.Error(err))
		return fmt.Errorf("resolve values: %w", err)
	}

	o.state.Replace(root, snapshot, mapping, captureID)
	log.Info("form captured", zap.Int("fields", len(snapshot.Fields)), zap.Int("values", len(mapping)))
	o.emit(StatusSuccess, "Form analyzed successfully! Ready to fill.", "")

	return nil
}

// Fill writes the current mapping into the captured container. The returned report
// is empty when the fill never started.
func (o *Orchestrator) Fill(ctx context.Context) (form.Report, error) {
	snapshot, mapping, captureID, ok := o.state.Current()
	if !ok {
		o.emit(StatusError, "No processed form data available. Please capture form first.",
			"You need to capture the form before filling it.")
		return form.Report{}, ErrNoSnapshot
	}

	root := o.state.Root()
	if root == nil || !root.Attached() {
		o.emit(StatusError, "Form container no longer available on this page.",
			"The form that was previously captured is no longer available on this page.")
		return form.Report{}, ErrContainerGone
	}

	o.emit(StatusProcessing, "Filling form fields...", "")

	log := logger.WithCaptureFields(o.logger, captureID, snapshot.URL, root.Describe())
	report := o.filler.Fill(ctx, root, snapshot.Fields, mapping)
	log.Info("fill finished",
		zap.Int("attempted", report.Attempted),
		zap.Int("filled", report.Filled),
		zap.Int("errors", len(report.Errors)),
	)

	switch {
	case report.Filled == 0:
		o.emit(StatusError, "No fields were filled. Data may not match the form.",
			"The generated data could not be matched to any fields in the form. This form might have a complex structure or custom fields.")
		return report, ErrNothingFilled
	case report.HasErrors():
		for _, fe := range report.Errors {
			log.Warn("field not filled", zap.String("field", fe.Field), zap.String("reason", fe.Message))
		}
		o.emit(StatusWarning, "Some fields were not filled due to errors.",
			fmt.Sprintf("Filled %d of %d field(s). Please check the log for details on the rest.", report.Filled, report.Attempted))
	default:
		o.emit(StatusSuccess, fmt.Sprintf("Successfully filled %d field(s).", report.Filled), "")
	}

	return report, nil
}

func (o *Orchestrator) emit(status Status, message, detail string) {
	o.sink.Publish(Event{Status: status, Message: message, Error: detail})
}
