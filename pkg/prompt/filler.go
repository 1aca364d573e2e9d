// Package prompt fills a built form from the terminal. Controls are asked in
// document order; visibility is re-evaluated after every answer so fields
// revealed by a rule are asked and hidden ones are skipped.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-blocks/pkg/form"
)

// Option configures a Filler.
type Option func(*Filler)

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(f *Filler) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithPageSize limits the number of select options shown at once.
func WithPageSize(size int) Option {
	return func(f *Filler) {
		f.pageSize = size
	}
}

// Filler drives a form.Form through a Driver.
type Filler struct {
	driver   Driver
	pageSize int
	logger   *zap.Logger
}

// NewFiller constructs a Filler over driver.
func NewFiller(driver Driver, options ...Option) *Filler {
	f := &Filler{driver: driver, logger: zap.NewNop()}
	for _, opt := range options {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Fill asks for every visible control until none is left unanswered.
func (fl *Filler) Fill(ctx context.Context, f *form.Form) error {
	if fl.driver == nil {
		return errors.New("prompt: driver is required")
	}
	asked := make(map[string]bool)
	for {
		ctrl, ok := next(f.Controls(), asked)
		if !ok {
			return nil
		}
		asked[ctrl.ID] = true
		if err := fl.ask(ctx, f, ctrl); err != nil {
			return fmt.Errorf("prompt: field %q: %w", ctrl.ID, err)
		}
	}
}

// Run fills f and submits it, reporting the outcome through the driver. A
// driver failure while reporting success is returned with the result.
func (fl *Filler) Run(ctx context.Context, f *form.Form) (form.Result, error) {
	if err := fl.Fill(ctx, f); err != nil {
		return form.Result{}, err
	}
	for {
		result, err := f.Submit(ctx)
		var invalid *form.ValidationError
		if !errors.As(err, &invalid) {
			if err != nil {
				return result, err
			}
			// The submission happened; the result is kept with the error.
			if err := fl.driver.Info(ctx, "Submitted to "+result.Action); err != nil {
				return result, err
			}
			return result, nil
		}
		fl.logger.Debug("form invalid", zap.Strings("fields", invalid.IDs()))
		if err := fl.driver.Info(ctx, "Please fix: "+strings.Join(invalid.IDs(), ", ")); err != nil {
			return form.Result{}, err
		}
		if err := fl.retry(ctx, f, invalid.IDs()); err != nil {
			return form.Result{}, err
		}
	}
}

func (fl *Filler) retry(ctx context.Context, f *form.Form, ids []string) error {
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	for _, ctrl := range f.Controls() {
		if !wanted[ctrl.ID] || ctrl.Hidden {
			continue
		}
		if err := fl.ask(ctx, f, ctrl); err != nil {
			return fmt.Errorf("prompt: field %q: %w", ctrl.ID, err)
		}
	}
	return nil
}

func next(controls []form.Control, asked map[string]bool) (form.Control, bool) {
	for _, ctrl := range controls {
		if ctrl.Hidden || ctrl.Kind == form.KindSubmit || asked[ctrl.ID] {
			continue
		}
		return ctrl, true
	}
	return form.Control{}, false
}

func (fl *Filler) ask(ctx context.Context, f *form.Form, ctrl form.Control) error {
	message := ctrl.Label
	if message == "" {
		message = ctrl.ID
	}
	help := ctrl.Placeholder

	switch ctrl.Kind {
	case form.KindCheckbox:
		checked, err := fl.driver.Confirm(ctx, ConfirmConfig{Message: message, Default: ctrl.Checked, Help: help})
		if err != nil {
			return err
		}
		return f.Toggle(ctrl.ID, checked)
	case form.KindSelect:
		if len(ctrl.Options) == 0 {
			return ErrNoOptions
		}
		idx, err := fl.driver.Select(ctx, SelectConfig{
			Message:      message,
			Options:      ctrl.Options,
			DefaultIndex: indexOf(ctrl.Options, ctrl.Value),
			Help:         help,
			PageSize:     fl.pageSize,
		})
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(ctrl.Options) {
			return fmt.Errorf("prompt: option %d out of range", idx)
		}
		return f.Change(ctrl.ID, ctrl.Options[idx])
	case form.KindTextArea:
		value, err := fl.driver.TextArea(ctx, TextAreaConfig{Message: message, Default: ctrl.Value, Help: help})
		if err != nil {
			return err
		}
		return f.Change(ctrl.ID, value)
	default:
		cfg := InputConfig{Message: message, Default: ctrl.Value, Help: help}
		if ctrl.Required {
			cfg.Validator = requiredValue
		}
		ask := fl.driver.Input
		if ctrl.InputType == "password" {
			cfg.Default = ""
			ask = fl.driver.Password
		}
		value, err := ask(ctx, cfg)
		if err != nil {
			return err
		}
		return f.Change(ctrl.ID, value)
	}
}

func requiredValue(value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New("value is required")
	}
	return nil
}
