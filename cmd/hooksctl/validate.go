package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/devesharp/statehooks/pkg/validation"
)

var errInvalidRecord = errors.New("record is invalid")

func newValidateCmd(a *app) *cobra.Command {
	var rulesPath string

	cmd := &cobra.Command{
		Use:   "validate --rules rules.yaml record.yaml",
		Short: "Validate a YAML record against validator tag rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := readYAMLMap(rulesPath)
			if err != nil {
				return err
			}
			record, err := readYAMLMap(args[0])
			if err != nil {
				return err
			}

			errs, err := validation.Validate(cmd.Context(), validation.Rules(rules), record, a.cfg.ValidationOptions()...)
			if err != nil {
				return err
			}
			if errs.Empty() {
				fmt.Fprintln(cmd.OutOrStdout(), "valid")
				return nil
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			defer enc.Close()
			if err := enc.Encode(map[string]any(errs)); err != nil {
				return fmt.Errorf("writing errors: %w", err)
			}
			a.logger.Debug().Int("errors", errs.Len()).Msg("validation failed")
			return errInvalidRecord
		},
	}

	cmd.Flags().StringVar(&rulesPath, "rules", "", "YAML validation rules")
	_ = cmd.MarkFlagRequired("rules")

	return cmd
}
