package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/formrules/pkg/schema"
	"github.com/dmitrymomot/formrules/pkg/validator"
)

type failureView struct {
	Field   string         `json:"field"`
	Rule    string         `json:"rule"`
	Message string         `json:"message"`
	Key     string         `json:"key"`
	Params  map[string]any `json:"params,omitempty"`
}

type reportView struct {
	Valid    bool                `json:"valid"`
	Messages map[string][]string `json:"messages,omitempty"`
	Errors   []failureView       `json:"errors,omitempty"`
}

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <definition> <data>",
		Short: "Validate a JSON or YAML data file against a form definition",
		Long: `Validate loads the definition, fills the form with the data file and
validates every available field. The report is printed as JSON; the command
fails when the data is invalid.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), a.timeout)
			defer cancel()

			s, err := schema.LoadFile(args[0])
			if err != nil {
				return err
			}
			data, err := loadData(args[1])
			if err != nil {
				return err
			}
			opts, cleanup, err := a.formOptions(ctx, s)
			if err != nil {
				return err
			}
			defer cleanup()

			f, err := s.NewForm(data, opts...)
			if err != nil {
				return err
			}
			defer f.Close()

			err = f.ValidateAll(ctx)
			if err != nil && !validator.IsValidationError(err) {
				return err
			}
			errs := validator.ExtractValidationErrors(err)

			report := reportView{Valid: errs.IsEmpty()}
			if !report.Valid {
				report.Messages = make(map[string][]string)
				for _, field := range errs.Fields() {
					report.Messages[field] = errs.Get(field)
				}
			}
			for _, e := range errs {
				report.Errors = append(report.Errors, failureView{
					Field:   e.Field,
					Rule:    e.Rule,
					Message: e.Message,
					Key:     e.TranslationKey,
					Params:  e.TranslationValues,
				})
			}
			if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if !report.Valid {
				return errInvalidData
			}
			return nil
		},
	}
}

func loadData(path string) (map[string]any, error) {
	format, err := schema.FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	data := make(map[string]any)
	switch format {
	case schema.FormatYAML:
		err = yaml.Unmarshal(raw, &data)
	default:
		err = json.Unmarshal(raw, &data)
	}
	if err != nil {
		return nil, errors.Join(fmt.Errorf("read data %s", path), err)
	}
	return data, nil
}
