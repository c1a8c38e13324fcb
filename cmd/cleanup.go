/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"time"

	"github.com/coursekit/apiserver/config"
	"github.com/coursekit/apiserver/internal/db"
	"github.com/coursekit/apiserver/internal/store"
	"github.com/spf13/cobra"
)

// cleanupCmd sweeps expired session rows. Validation already filters them
// out, so this is storage hygiene, not a correctness requirement.
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete expired session rows",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		dbConn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		if err := db.EnsureSchema(cmd.Context(), dbConn); err != nil {
			return err
		}

		sessions := store.NewSessionRepository(dbConn)
		removed, err := sessions.DeleteExpired(cmd.Context(), time.Now().UTC())
		if err != nil {
			return err
		}

		fmt.Printf("removed %d expired sessions\n", removed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}
