// Package errcode gives every fatal and reported failure in the controller
// core a stable, comparable identity instead of an ad-hoc error string.
package errcode

import (
	"os"

	"github.com/rs/zerolog"
)

// Code is a stable, comparable error identifier. It is a string newtype,
// allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes. Construction-time failures in memspec/addr/controller use
// these; runtime code never invents new ones ad hoc.
const (
	OK                   Code = "ok"
	UnknownStandard      Code = "unknown_standard"
	UnsupportedRefresh   Code = "unsupported_refresh_variant"
	UnsupportedMaskedWr  Code = "unsupported_masked_write"
	BadAddressBudget     Code = "address_decoder_budget_mismatch"
	BadConfig            Code = "invalid_configuration"
	UnknownPagePolicy    Code = "unknown_page_policy"
	UnknownScheduler     Code = "unknown_scheduler"
	UnknownSchedulerBuf  Code = "unknown_scheduler_buffer"
	UnknownCmdMux        Code = "unknown_cmdmux"
	UnknownRefreshPolicy Code = "unknown_refresh_policy"
	UnknownPowerDown     Code = "unknown_power_down_policy"
	UnknownRespQueue     Code = "unknown_resp_queue"
	Error                Code = "error"
)

// E wraps a Code with an operation name, message and optional cause — the
// same shape the teacher's errcode.E uses, generalised with an Op field for
// the subsystem that raised it.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	if e.Msg != "" {
		return e.Op + ": " + string(e.C) + ": " + e.Msg
	}
	return e.Op + ": " + string(e.C)
}

func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Error
}

// New builds a wrapped construction-time error.
func New(op string, c Code, msg string) error {
	return &E{Op: op, C: c, Msg: msg}
}

// Wrap attaches a Code and operation name to an underlying cause.
func Wrap(op string, c Code, err error) error {
	if err == nil {
		return nil
	}
	return &E{Op: op, C: c, Err: err, Msg: err.Error()}
}

// Fatal prints the subsystem name and a one-line reason and terminates the
// process with a non-zero exit code — the single path spec.md §7 requires
// for every construction-time failure (malformed configuration, unknown
// standard, decoder budget mismatch, unsupported standard feature).
//
// Uses zerolog's Error level rather than Fatal so the exit is explicit and
// stubbable from tests, instead of relying on zerolog's own os.Exit hook.
var Fatal = func(log zerolog.Logger, subsystem string, err error) {
	log.Error().Str("subsystem", subsystem).Err(err).Msg(string(Of(err)))
	os.Exit(1)
}

// Assert panics on an internal impossibility. Per Design Note 9 this is
// never used for control flow — only for states the timing tables and
// construction-time validation should have already ruled out.
func Assert(cond bool, msg string) {
	if !cond {
		panic("assertion failed: " + msg)
	}
}
