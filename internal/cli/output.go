package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/skshohagmiah/flinbase/pkg/fetcher"
	"github.com/skshohagmiah/flinbase/pkg/flin"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // The backend answered with errors
	ExitCommandError = 2 // Bad flags, invalid query, unreadable config
)

// ExitError carries the process exit code of a failed command
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// WrapExitError wraps an existing error with an exit code
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Builder validation errors map to ExitCommandError, anything else to
// ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	var flinErr *flin.Error
	if errors.As(err, &flinErr) {
		return ExitCommandError
	}
	return ExitFailure
}

// printer writes results in the selected format
type printer struct {
	format string
	w      io.Writer
}

// dryRunCall is how a recorded request is shown with --dry-run
type dryRunCall struct {
	Method    string          `json:"method"`
	Path      string          `json:"path"`
	Operation string          `json:"operation,omitempty"`
	Body      json.RawMessage `json:"body,omitempty"`
}

// Calls prints what a dry run would have sent
func (p *printer) Calls(calls []fetcher.Call) error {
	if p.format == "json" {
		out := make([]dryRunCall, 0, len(calls))
		for _, c := range calls {
			out = append(out, dryRunCall{Method: c.Method, Path: c.Path, Operation: c.Options.Operation, Body: c.Body})
		}
		return p.json(out)
	}
	for _, c := range calls {
		fmt.Fprintf(p.w, "%s %s\n", c.Method, c.Path)
		if len(c.Body) > 0 {
			var buf bytes.Buffer
			if err := json.Indent(&buf, c.Body, "", "  "); err != nil {
				return err
			}
			fmt.Fprintln(p.w, buf.String())
		}
	}
	return nil
}

// Result prints a query result and turns backend errors into an exit code
func (p *printer) Result(res flin.Result) error {
	if p.format == "json" {
		if err := p.json(res); err != nil {
			return err
		}
	} else if res.Errors == nil {
		if err := p.text(res.Data); err != nil {
			return err
		}
	}
	if res.Errors != nil {
		return WrapExitError(ExitFailure, "request failed", res.Errors)
	}
	return nil
}

// Delete prints a delete result
func (p *printer) Delete(res flin.DeleteResult) error {
	if res.Errors != nil {
		return p.Result(flin.Result{Errors: res.Errors})
	}
	if p.format == "json" {
		return p.json(map[string]interface{}{"deleted": res.Info})
	}
	if res.Info == nil || res.Info.Count == nil {
		fmt.Fprintln(p.w, "deleted")
		return nil
	}
	fmt.Fprintf(p.w, "deleted %d\n", *res.Info.Count)
	return nil
}

func (p *printer) json(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(p.w, string(data))
	return nil
}

// text prints one record per line for arrays, indented JSON otherwise
func (p *printer) text(data json.RawMessage) error {
	if len(data) == 0 || string(data) == "null" {
		fmt.Fprintln(p.w, "ok")
		return nil
	}

	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err == nil {
		for _, r := range records {
			var buf bytes.Buffer
			if err := json.Compact(&buf, r); err != nil {
				return err
			}
			fmt.Fprintln(p.w, buf.String())
		}
		fmt.Fprintf(p.w, "(%d records)\n", len(records))
		return nil
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return err
	}
	fmt.Fprintln(p.w, buf.String())
	return nil
}
