package cli

import (
	"encoding/json"
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"

	"github.com/getmockd/stubrouter/pkg/form"
)

// errNotInteractive is returned when a prompt is needed without a terminal.
var errNotInteractive = errors.New("path is required when stdin is not a terminal")

func isInteractive() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

// promptStub asks for the fields of a stub, starting from v.
func promptStub(target string, v form.Values) (form.Values, error) {
	if !isInteractive() {
		return v, errNotInteractive
	}

	f := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Path of the stub for " + target).
				Placeholder("/api/v1/users").
				Value(&v.Path).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("path is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Response status code").
				Value(&v.Code).
				Validate(validateCode),
			huh.NewText().
				Title("Response headers (JSON object)").
				Placeholder(`{"Content-Type": "application/json"}`).
				Value(&v.Headers).
				Validate(validateHeaders),
			huh.NewText().
				Title("Response body").
				Value(&v.Data),
			huh.NewInput().
				Title("Delay in milliseconds").
				Value(&v.Timeout).
				Validate(validateTimeout),
		),
	)
	if err := f.Run(); err != nil {
		return v, err
	}
	v.Path = strings.TrimSpace(v.Path)
	return v, nil
}

func validateCode(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 100 || n > 599 {
		return errors.New("status code must be a number between 100 and 599")
	}
	return nil
}

func validateHeaders(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var h map[string]string
	if err := json.Unmarshal([]byte(s), &h); err != nil {
		return errors.New("headers must be a JSON object of strings")
	}
	return nil
}

func validateTimeout(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return errors.New("delay must be a non-negative number")
	}
	return nil
}
