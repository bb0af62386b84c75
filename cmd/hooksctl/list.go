package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/devesharp/statehooks/list"
	"github.com/devesharp/statehooks/pkg/config"
)

func newListCmd(a *app) *cobra.Command {
	var (
		fixturePath string
		search      []string
		page        int
		more        int
		sortBy      string
		desc        bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Load a fixture through a list accumulator and print the visible items",
		RunE: func(cmd *cobra.Command, args []string) error {
			fx, err := loadFixture(fixturePath)
			if err != nil {
				return err
			}
			fields, err := parseAssignments(search)
			if err != nil {
				return err
			}

			opts := append(config.ListOptions[map[string]any](a.cfg),
				list.WithLogger[map[string]any](a.logger),
				list.WithEngineOptions[map[string]any](a.engineOptions()...),
			)
			acc := list.New(fx.search, opts...)
			ctx := cmd.Context()

			if err := acc.Mount(ctx); err != nil {
				return err
			}
			if sortBy != "" {
				dir := list.Asc
				if desc {
					dir = list.Desc
				}
				if err := acc.SetSort(ctx, &list.Sort{Column: sortBy, Direction: dir}); err != nil {
					return err
				}
			}
			if len(fields) > 0 {
				if err := acc.Search(ctx, fields); err != nil {
					return err
				}
			}
			if page > 0 {
				if err := acc.SetPage(ctx, page); err != nil {
					return err
				}
			}
			for i := 0; i < more; i++ {
				if err := acc.LoadMore(ctx); err != nil {
					return err
				}
			}

			st := acc.State()
			out := map[string]any{
				"items":        st.Items,
				"total":        st.Total,
				"offset":       st.Filters.Offset,
				"current_page": st.CurrentPage,
				"total_pages":  st.TotalPages,
				"last_page":    st.IsLastPage,
				"reached_end":  st.HasReachedEnd,
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			defer enc.Close()
			if err := enc.Encode(out); err != nil {
				return fmt.Errorf("writing list: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&fixturePath, "fixture", "", "YAML file holding a list of records")
	cmd.Flags().StringArrayVar(&search, "search", nil, "Filter field as key=value (repeatable)")
	cmd.Flags().IntVar(&page, "page", 0, "Zero-based page to show")
	cmd.Flags().IntVar(&more, "more", 0, "Pages to append in infinite mode")
	cmd.Flags().StringVar(&sortBy, "sort", "", "Column to sort by")
	cmd.Flags().BoolVar(&desc, "desc", false, "Sort descending")
	_ = cmd.MarkFlagRequired("fixture")

	return cmd
}
