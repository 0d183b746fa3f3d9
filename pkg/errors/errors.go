// Package errors provides the error taxonomy shared by all profgnn packages.
//
// Every constructor attaches a stack trace via cockroachdb/errors so failures
// surfaced at the training-loop level can be traced back to the tensor
// operation that produced them. The concrete error types implement
// zerolog.LogObjectMarshaler so structured sinks receive fields, not just a
// formatted string.
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		log.Printf("profgnn-warning: %v\n", w)
	}
)

// SetWarningHandler replaces the process-wide warning handler. Warnings are
// non-fatal conditions (for example a degenerate interquartile range during
// scaler fitting) that the caller may want to escalate or silence.
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// Warn reports a non-fatal condition through the configured handler.
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	if warningHandler != nil {
		warningHandler(w)
	}
}

// NotFittedError is returned when a transform is used before Fit.
type NotFittedError struct {
	TransformName string
	Method        string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("profgnn: %s: not fitted yet. Call Fit() before %s()", e.TransformName, e.Method)
}

// MarshalZerologObject adds the structured fields of the error to a zerolog event.
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("transform", e.TransformName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError creates a NotFittedError with a stack trace.
func NewNotFittedError(transform, method string) error {
	err := &NotFittedError{TransformName: transform, Method: method}
	return errors.WithStack(err)
}

// ShapeError reports a tensor whose shape disagrees with what an operation
// requires: non-uniform node counts inside a graph batch, a feature-dimension
// mismatch, and so on.
type ShapeError struct {
	Op       string
	Expected []int
	Got      []int
	Detail   string
}

func (e *ShapeError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("profgnn: %s: shape mismatch: %s (expected %v, got %v)", e.Op, e.Detail, e.Expected, e.Got)
	}
	return fmt.Sprintf("profgnn: %s: shape mismatch: expected %v, got %v", e.Op, e.Expected, e.Got)
}

// MarshalZerologObject adds the structured fields of the error to a zerolog event.
func (e *ShapeError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Ints("expected", e.Expected).
		Ints("got", e.Got).
		Str("detail", e.Detail).
		Str("type", "ShapeError")
}

// NewShapeError creates a ShapeError with a stack trace.
func NewShapeError(op string, expected, got []int, detail string) error {
	err := &ShapeError{Op: op, Expected: expected, Got: got, Detail: detail}
	return errors.WithStack(err)
}

// DeviceMismatchError reports tensors on different devices participating in
// one operation. Placement is a configuration concern, but mixing devices in
// a single op is fatal.
type DeviceMismatchError struct {
	Op   string
	Want string
	Got  string
}

func (e *DeviceMismatchError) Error() string {
	return fmt.Sprintf("profgnn: %s: device mismatch: operation expects %q, tensor is on %q", e.Op, e.Want, e.Got)
}

// MarshalZerologObject adds the structured fields of the error to a zerolog event.
func (e *DeviceMismatchError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("want", e.Want).
		Str("got", e.Got).
		Str("type", "DeviceMismatchError")
}

// NewDeviceMismatchError creates a DeviceMismatchError with a stack trace.
func NewDeviceMismatchError(op, want, got string) error {
	err := &DeviceMismatchError{Op: op, Want: want, Got: got}
	return errors.WithStack(err)
}

// NormalizationMethodError reports a normalization descriptor whose method
// string is not one of the supported regimes. This is a configuration error
// and aborts the run rather than silently passing the variable through.
type NormalizationMethodError struct {
	Variable int
	Method   string
}

func (e *NormalizationMethodError) Error() string {
	return fmt.Sprintf("profgnn: variable %d: unknown normalization method %q", e.Variable, e.Method)
}

// MarshalZerologObject adds the structured fields of the error to a zerolog event.
func (e *NormalizationMethodError) MarshalZerologObject(event *zerolog.Event) {
	event.Int("variable", e.Variable).
		Str("method", e.Method).
		Str("type", "NormalizationMethodError")
}

// NewNormalizationMethodError creates a NormalizationMethodError with a stack trace.
func NewNormalizationMethodError(variable int, method string) error {
	err := &NormalizationMethodError{Variable: variable, Method: method}
	return errors.WithStack(err)
}

// NumericalInstabilityError reports a NaN or Inf produced during optimization.
// Training halts immediately so a corrupt state is never checkpointed.
type NumericalInstabilityError struct {
	Operation string
	Epoch     int
	Minibatch int
	Value     float64
}

func (e *NumericalInstabilityError) Error() string {
	return fmt.Sprintf("profgnn: numerical instability in %s at epoch %d minibatch %d: %v",
		e.Operation, e.Epoch, e.Minibatch, e.Value)
}

// MarshalZerologObject adds the structured fields of the error to a zerolog event.
func (e *NumericalInstabilityError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Operation).
		Int("epoch", e.Epoch).
		Int("minibatch", e.Minibatch).
		Float64("value", e.Value).
		Str("type", "NumericalInstabilityError")
}

// NewNumericalInstabilityError creates a NumericalInstabilityError with a stack trace.
func NewNumericalInstabilityError(operation string, epoch, minibatch int, value float64) error {
	err := &NumericalInstabilityError{Operation: operation, Epoch: epoch, Minibatch: minibatch, Value: value}
	return errors.WithStack(err)
}

// ValueError reports an argument whose value is unusable for the operation.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("profgnn: %s: %s", e.Op, e.Message)
}

// NewValueError creates a ValueError with a stack trace.
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// Wrappers around cockroachdb/errors so callers depend on one errors package.

// Is reports whether err matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap annotates err with a message, preserving the chain.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf annotates err with a formatted message, preserving the chain.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates an error with a stack trace.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a formatted error with a stack trace.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack annotates err with a stack trace at the point of the call.
func WithStack(err error) error {
	return errors.WithStack(err)
}
