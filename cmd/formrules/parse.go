package main

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/formrules/pkg/rule"
	"github.com/dmitrymomot/formrules/pkg/validator"
)

type attrView struct {
	Key   string `json:"key,omitempty"`
	Index int    `json:"index"`
	Named bool   `json:"named,omitempty"`
	Value any    `json:"value"`
}

type specView struct {
	Name           string     `json:"name"`
	Rule           string     `json:"rule"`
	Known          bool       `json:"known"`
	Attributes     []attrView `json:"attributes"`
	Conditional    bool       `json:"conditional"`
	DependentPaths []string   `json:"dependent_paths,omitempty"`
}

func newParseCmd() *cobra.Command {
	var field string
	cmd := &cobra.Command{
		Use:   "parse <rule>...",
		Short: "Print the parsed form of rule strings or conditional rule objects",
		Long: `Parse prints each rule as JSON. Arguments are rule strings such as
"between:5,10" or conditional objects such as '{"required": ["country", "US"]}'.
Condition paths are resolved against --field.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := validator.NewRegistry()
			out := make([]specView, 0, len(args))
			for _, raw := range args {
				spec, err := parseArg(raw, field)
				if err != nil {
					return err
				}
				out = append(out, view(spec, registry))
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&field, "field", "", "field path conditional rules belong to")
	return cmd
}

func parseArg(raw, field string) (rule.Spec, error) {
	if !strings.HasPrefix(strings.TrimSpace(raw), "{") {
		return rule.Parse(raw)
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return rule.Spec{}, fmt.Errorf("invalid rule object %q: %w", raw, err)
	}
	return rule.ParseConditional(obj, field)
}

func view(spec rule.Spec, registry *validator.Registry) specView {
	_, known := registry.Lookup(spec.Name)
	attrs := make([]attrView, len(spec.Attributes))
	for i, a := range spec.Attributes {
		attrs[i] = attrView{Key: a.Key, Index: a.Index, Named: a.Named, Value: a.Value}
	}
	return specView{
		Name:           spec.Name,
		Rule:           spec.String(),
		Known:          known,
		Attributes:     attrs,
		Conditional:    spec.Condition != nil,
		DependentPaths: spec.DependentPaths,
	}
}
