package picker

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
)

// RunSettings are the knobs offered before an interactive run.
type RunSettings struct {
	Parallel int
	Timeout  time.Duration
}

// settingsFields holds the form's string values.
type settingsFields struct {
	parallel string
	timeout  string
	confirm  bool
}

func newSettingsFields(s RunSettings) *settingsFields {
	return &settingsFields{
		parallel: strconv.Itoa(s.Parallel),
		timeout:  s.Timeout.String(),
		confirm:  true,
	}
}

func (f *settingsFields) settings() (RunSettings, error) {
	var s RunSettings
	if err := validateParallel(f.parallel); err != nil {
		return s, err
	}
	if err := validateTimeout(f.timeout); err != nil {
		return s, err
	}
	s.Parallel, _ = strconv.Atoi(strings.TrimSpace(f.parallel))
	s.Timeout, _ = time.ParseDuration(strings.TrimSpace(f.timeout))
	return s, nil
}

func validateParallel(v string) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		return errors.New("must be a positive integer")
	}
	return nil
}

func validateTimeout(v string) error {
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil || d <= 0 {
		return errors.New("must be a positive duration such as 30s")
	}
	return nil
}

// Confirm asks for the run settings of count tests, starting from defaults.
// It returns ErrCanceled when the user declines or aborts.
func Confirm(count int, defaults RunSettings) (RunSettings, error) {
	f := newSettingsFields(defaults)
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("parallel").
				Title("Parallel").
				Description("Concurrent tests on thread-safe backends").
				Validate(validateParallel).
				Value(&f.parallel),

			huh.NewInput().
				Key("timeout").
				Title("Timeout").
				Description("Per-test timeout").
				Validate(validateTimeout).
				Value(&f.timeout),

			huh.NewConfirm().
				Key("confirm").
				Title(fmt.Sprintf("Run %d tests?", count)).
				Affirmative("Run").
				Negative("Cancel").
				Value(&f.confirm),
		),
	).WithShowHelp(true).WithShowErrors(true)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return RunSettings{}, ErrCanceled
		}
		return RunSettings{}, err
	}
	if !f.confirm {
		return RunSettings{}, ErrCanceled
	}
	return f.settings()
}
