package selection

import (
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/autofiller/internal/dom"
	"github.com/spigell/autofiller/internal/form"
)

// InstructionID is the id of the banner shown while a selection is running.
const InstructionID = "form-selector-instruction"

const (
	highlightStyle = "position: absolute; pointer-events: none; z-index: 10000; " +
		"border: 2px solid #4285f4; background-color: rgba(66, 133, 244, 0.1);"
	instructionStyle = "position: fixed; top: 10px; left: 50%; transform: translateX(-50%); " +
		"z-index: 10001; padding: 10px 20px; border-radius: 4px; " +
		"background-color: rgba(0, 0, 0, 0.8); color: white; font-family: Arial, sans-serif;"
	crosshair = "cursor: crosshair"

	highlightTargetAttr = "data-highlight-target"
)

var (
	ErrActive = errors.New("container selection already in progress")
	ErrNoBody = errors.New("document has no body")
)

// State is the phase of a container selection.
type State int

const (
	Inactive State = iota
	Selecting
	Applied
	Cancelled
)

func (s State) String() string {
	switch s {
	case Selecting:
		return "selecting"
	case Applied:
		return "applied"
	case Cancelled:
		return "cancelled"
	default:
		return "inactive"
	}
}

// Callbacks are invoked after the page decorations are gone.
type Callbacks struct {
	OnApplied   func(container *dom.Element)
	OnCancelled func()
}

// Selector lets the user point at the element that holds a form. While selecting it
// decorates the page with a highlight box and an instruction banner and listens for
// mouse and keyboard events; every way out of the selection removes them again.
type Selector struct {
	doc    *dom.Document
	logger *zap.Logger
	cb     Callbacks

	state     State
	hovered   *dom.Element
	highlight *dom.Element
	banner    *dom.Element
	handles   []dom.ListenerHandle

	bodyStyle    string
	hadBodyStyle bool
}

func New(doc *dom.Document, logger *zap.Logger, cb Callbacks) *Selector {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Selector{doc: doc, logger: logger, cb: cb}
}

// State returns the current phase.
func (s *Selector) State() State {
	return s.state
}

// Active reports whether a selection is running.
func (s *Selector) Active() bool {
	return s.state == Selecting
}

// Hovered returns the element under the pointer, if any.
func (s *Selector) Hovered() *dom.Element {
	return s.hovered
}

// Start enters the selecting phase.
func (s *Selector) Start() (err error) {
	if s.state == Selecting {
		return ErrActive
	}

	body := s.doc.Body()
	if body == nil {
		return ErrNoBody
	}

	s.state = Selecting
	s.hovered = nil
	s.bodyStyle, s.hadBodyStyle = body.Attr("style")
	defer func() {
		if r := recover(); r != nil {
			s.teardown()
			s.state = Inactive
			err = errors.New("start container selection: setup failed")
			s.logger.Error("container selection setup failed", zap.Any("panic", r))
		}
	}()

	s.highlight = s.doc.CreateElement("div")
	s.highlight.SetAttr("style", highlightStyle+" display: none;")
	body.AppendChild(s.highlight)

	s.banner = s.doc.CreateElement("div")
	s.banner.SetAttr("id", InstructionID)
	s.banner.SetAttr("style", instructionStyle)
	s.banner.SetText("Click on the container with form fields. ")
	hint := s.doc.CreateElement("span")
	hint.SetAttr("style", "color: #aaa")
	hint.SetText("Press ESC to cancel")
	s.banner.AppendChild(hint)
	body.AppendChild(s.banner)

	s.handles = append(s.handles,
		s.doc.AddEventListener(dom.EventMouseMove, s.onMouseMove),
		s.doc.AddEventListener(dom.EventClick, s.onClick),
		s.doc.AddEventListener(dom.EventKeyDown, s.onKeyDown),
	)

	body.SetAttr("style", appendStyle(s.bodyStyle, crosshair))

	s.logger.Debug("container selection started")

	return nil
}

// Cancel aborts a running selection. It reports whether one was running.
func (s *Selector) Cancel() bool {
	if s.state != Selecting {
		return false
	}

	s.finish(Cancelled)
	s.logger.Info("container selection cancelled")
	if s.cb.OnCancelled != nil {
		s.cb.OnCancelled()
	}

	return true
}

// Choose commits el as if the user clicked it.
func (s *Selector) Choose(el *dom.Element) bool {
	if s.state != Selecting || s.ignored(el) {
		return false
	}

	s.finish(Applied)
	s.logger.Info("container selected", zap.String("container", el.Describe()))
	if s.cb.OnApplied != nil {
		s.cb.OnApplied(el)
	}

	return true
}

func (s *Selector) onMouseMove(ev *dom.Event) {
	if s.ignored(ev.Target) {
		return
	}

	s.hovered = ev.Target
	s.highlight.SetAttr("style", highlightStyle+" display: block;")
	s.highlight.SetAttr(highlightTargetAttr, ev.Target.Describe())
}

func (s *Selector) onClick(ev *dom.Event) {
	ev.PreventDefault()
	s.Choose(ev.Target)
}

func (s *Selector) onKeyDown(ev *dom.Event) {
	if ev.Key == "Escape" {
		s.Cancel()
	}
}

func (s *Selector) ignored(el *dom.Element) bool {
	if el == nil {
		return true
	}

	switch el.Tag() {
	case "html", "body":
		return true
	}

	for _, deco := range []*dom.Element{s.banner, s.highlight} {
		if deco != nil && deco.Contains(el) {
			return true
		}
	}

	return false
}

func (s *Selector) finish(final State) {
	s.teardown()
	s.state = final
}

// teardown removes every trace of the selection from the page. It is safe to call
// on a partially set up selection.
func (s *Selector) teardown() {
	for _, h := range s.handles {
		s.doc.RemoveEventListener(h)
	}
	s.handles = nil

	if s.highlight != nil {
		s.highlight.Remove()
		s.highlight = nil
	}
	if s.banner != nil {
		s.banner.Remove()
		s.banner = nil
	}

	if body := s.doc.Body(); body != nil {
		if s.hadBodyStyle {
			body.SetAttr("style", s.bodyStyle)
		} else {
			body.RemoveAttr("style")
		}
	}
	s.bodyStyle, s.hadBodyStyle = "", false
}

func appendStyle(style, decl string) string {
	style = strings.TrimSpace(style)
	if style == "" {
		return decl + ";"
	}
	if !strings.HasSuffix(style, ";") {
		style += ";"
	}

	return style + " " + decl + ";"
}

// Candidates lists elements a user could pick as a form container: forms, fieldsets
// and identified sections that hold at least one fillable control. Document order.
func Candidates(doc *dom.Document) []*dom.Element {
	body := doc.Body()
	if body == nil {
		return nil
	}

	var out []*dom.Element
	for _, el := range body.Descendants("form", "fieldset", "section", "div", "main", "article") {
		switch el.Tag() {
		case "form", "fieldset":
		default:
			if el.ID() == "" {
				continue
			}
		}

		if len(form.Eligible(el)) > 0 {
			out = append(out, el)
		}
	}

	return out
}
