package messaging

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/autofiller/internal/form"
)

// Kind is the type tag of a message exchanged between the page, background and
// popup components.
type Kind string

const (
	CaptureForm              Kind = "CAPTURE_FORM"
	StartContainerSelection  Kind = "START_CONTAINER_SELECTION"
	CancelContainerSelection Kind = "CANCEL_CONTAINER_SELECTION"
	CheckSelectionStatus     Kind = "CHECK_SELECTION_STATUS"
	FillForm                 Kind = "FILL_FORM"
	StatusUpdate             Kind = "STATUS_UPDATE"
	ProcessForm              Kind = "PROCESS_FORM"
	UpdateResume             Kind = "UPDATE_RESUME"
	UpdateAPIKey             Kind = "UPDATE_API_KEY"
	OpenPopup                Kind = "OPEN_POPUP"
	ResetCaptureState        Kind = "RESET_CAPTURE_STATE"
)

// Kinds lists every message kind.
var Kinds = []Kind{
	CaptureForm, StartContainerSelection, CancelContainerSelection, CheckSelectionStatus,
	FillForm, StatusUpdate, ProcessForm, UpdateResume, UpdateAPIKey, OpenPopup, ResetCaptureState,
}

var (
	ErrUnknownKind    = errors.New("unknown message kind")
	ErrUnhandled      = errors.New("message kind is not handled here")
	ErrMissingPayload = errors.New("message payload is required")
)

// Message is the envelope {type, payload}. Payload is either a typed value or the
// generic map produced by decoding JSON.
type Message struct {
	Type    Kind `json:"type" mapstructure:"type"`
	Payload any  `json:"payload,omitempty" mapstructure:"payload"`
}

// Decode converts a generic envelope into a Message and checks its kind.
func Decode(raw map[string]any) (Message, error) {
	var msg Message
	if err := mapstructure.Decode(raw, &msg); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}
	if !msg.Type.Valid() {
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownKind, msg.Type)
	}

	return msg, nil
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}

	return false
}

// DecodePayload fills out, a pointer, from the payload. Payloads already of the
// target type are copied as is; maps are decoded by their json field names.
func (m Message) DecodePayload(out any) error {
	if m.Payload == nil {
		return fmt.Errorf("%s: %w", m.Type, ErrMissingPayload)
	}

	target := reflect.ValueOf(out)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		return fmt.Errorf("%s: payload target must be a non-nil pointer", m.Type)
	}

	src := reflect.ValueOf(m.Payload)
	if src.Type() == target.Elem().Type() {
		target.Elem().Set(src)
		return nil
	}
	if src.Kind() == reflect.Pointer && !src.IsNil() && src.Elem().Type() == target.Elem().Type() {
		target.Elem().Set(src.Elem())
		return nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("%s: build payload decoder: %w", m.Type, err)
	}
	if err := dec.Decode(m.Payload); err != nil {
		return fmt.Errorf("%s: decode payload: %w", m.Type, err)
	}

	return nil
}

// ResumePayload is the UPDATE_RESUME payload.
type ResumePayload struct {
	Resume string `json:"resume"`
}

// APIKeyPayload is the UPDATE_API_KEY payload.
type APIKeyPayload struct {
	APIKey string `json:"apiKey"`
}

// Response answers a message. Only the fields relevant to the message kind are set.
type Response struct {
	Success     bool         `json:"success"`
	Data        form.Mapping `json:"data,omitempty"`
	Report      *form.Report `json:"report,omitempty"`
	IsSelecting bool         `json:"isSelecting,omitempty"`
	Message     string       `json:"message,omitempty"`
	Error       string       `json:"error,omitempty"`
}

// Failure builds an unsuccessful response.
func Failure(message, detail string) Response {
	return Response{Message: message, Error: detail}
}
