package cli

import (
	"errors"
	"fmt"

	"github.com/cloudfm/cloudfm/internal/models"
)

// reportedError wraps a failure the user has already been shown as a signal,
// so Execute exits non-zero without printing it again.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return &reportedError{err: err}
}

// IsReported reports whether err was already shown to the user.
func IsReported(err error) bool {
	var re *reportedError
	return errors.As(err, &re)
}

// parseProvider converts a command argument into a provider.
func parseProvider(arg string) (models.Provider, error) {
	p, err := models.ParseProvider(arg)
	if err != nil {
		return "", fmt.Errorf("invalid provider: %w", err)
	}
	return p, nil
}

// providerArgs returns the providers named by args, or all of them when
// args is empty.
func providerArgs(args []string) ([]models.Provider, error) {
	if len(args) == 0 {
		return models.Providers(), nil
	}
	out := make([]models.Provider, 0, len(args))
	for _, a := range args {
		p, err := parseProvider(a)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// providerNames lists provider names for shell completion.
func providerNames() []string {
	var names []string
	for _, p := range models.Providers() {
		names = append(names, p.String())
	}
	return names
}
