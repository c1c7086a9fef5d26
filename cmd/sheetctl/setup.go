package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/janisto/subscriber-pipeline/internal/service/store"
)

func newSetupCmd(open opener) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Clear the store and write the header row",
		Long:  "Clears every row, writes the header row and formats it. Existing subscribers are lost.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("setup clears every subscriber; pass --yes to confirm")
			}
			return withStore(cmd.Context(), open, func(s store.RecordStore) error {
				initializer, ok := s.(store.Initializer)
				if !ok {
					return fmt.Errorf("%T cannot be initialized", s)
				}
				if err := initializer.Initialize(cmd.Context()); err != nil {
					return err
				}
				cmd.Printf("store initialized with header %v\n", store.Header)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm that existing rows are deleted")
	return cmd
}
