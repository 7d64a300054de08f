package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/minderhq/minder/internal/version"
	"github.com/minderhq/minder/update"
)

func updateCmd() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update minder to the latest release",
		RunE: func(cmd *cobra.Command, args []string) error {
			u := update.New(version.Version)
			rel, err := u.CheckForUpdate(cmd.Context())
			if err != nil {
				return err
			}
			if rel == nil {
				fmt.Println("minder is up to date")
				return nil
			}
			if check {
				fmt.Printf("update available: %s\n", rel.Version)
				return nil
			}
			if err := u.ApplyUpdate(cmd.Context(), rel); err != nil {
				return err
			}
			fmt.Printf("updated to %s\n", rel.Version)
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "only check for a new release")
	return cmd
}
