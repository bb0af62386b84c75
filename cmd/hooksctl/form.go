package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/devesharp/statehooks/form"
	"github.com/devesharp/statehooks/pkg/validation"
)

func newFormCmd(a *app) *cobra.Command {
	var (
		fixturePath string
		rulesPath   string
		id          string
		sets        []string
		submit      bool
		reload      bool
	)

	cmd := &cobra.Command{
		Use:   "form",
		Short: "Edit a fixture record through a form tracker and optionally submit it",
		RunE: func(cmd *cobra.Command, args []string) error {
			fx, err := loadFixture(fixturePath)
			if err != nil {
				return err
			}
			changes, err := parseAssignments(sets)
			if err != nil {
				return err
			}

			opts := append(a.cfg.FormOptions(),
				form.WithLogger(a.logger),
				form.WithEngineOptions(a.engineOptions()...),
				form.WithResolvers(fixtureResolvers(fx)),
			)
			if id != "" {
				opts = append(opts, form.WithID(id))
			}
			if rulesPath != "" {
				rules, err := readYAMLMap(rulesPath)
				if err != nil {
					return err
				}
				opts = append(opts, form.WithValidation(validation.Rules(rules), a.cfg.ValidationOptions()...))
			}

			tr := form.New(opts...)
			ctx := cmd.Context()
			if err := tr.Mount(ctx); err != nil {
				return err
			}
			st := tr.State()
			if st.LoadErr != nil {
				return st.LoadErr
			}

			for path, v := range changes {
				tr.Set(path, v)
			}

			out := map[string]any{"dirty": tr.IsDirty()}
			if submit {
				res := tr.Submit(ctx, nil)
				out["success"] = res.Success
				out["action"] = string(res.Action)
				if res.Err != nil {
					out["error"] = res.Err.Error()
				}
				if !res.FieldErrors.Empty() {
					out["field_errors"] = res.FieldErrors.Flatten()
				}
			}
			if reload {
				if err := tr.Reload(ctx); err != nil {
					return fmt.Errorf("reloading record: %w", err)
				}
				out["dirty_after_reload"] = tr.IsDirty()
			}
			out["data"] = tr.Data()
			out["id"] = tr.ID()

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			defer enc.Close()
			if err := enc.Encode(out); err != nil {
				return fmt.Errorf("writing form: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&fixturePath, "fixture", "", "YAML file holding a list of records")
	cmd.Flags().StringVar(&rulesPath, "rules", "", "YAML validation rules")
	cmd.Flags().StringVar(&id, "id", "", "Id of the record to edit; empty creates a record")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Field change as path=value (repeatable)")
	cmd.Flags().BoolVar(&submit, "submit", false, "Submit the record after applying changes")
	cmd.Flags().BoolVar(&reload, "reload", false, "Reload the record from the fixture before printing")
	_ = cmd.MarkFlagRequired("fixture")

	return cmd
}

type notFoundError struct {
	id any
}

func (e *notFoundError) Error() string   { return fmt.Sprintf("record %v not found", e.id) }
func (e *notFoundError) StatusCode() int { return 404 }

func fixtureResolvers(fx *fixture) form.Resolvers {
	return form.Resolvers{
		Get: func(ctx context.Context, id any) (form.Record, error) {
			r, ok := fx.find(id)
			if !ok {
				return nil, &notFoundError{id: id}
			}
			return r, nil
		},
		Create: func(ctx context.Context, data form.Record) (form.Record, error) {
			return fx.insert(data), nil
		},
		Update: func(ctx context.Context, id any, data form.Record) (form.Record, error) {
			r, ok := fx.replace(id, data)
			if !ok {
				return nil, &notFoundError{id: id}
			}
			return r, nil
		},
	}
}
