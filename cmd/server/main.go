package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "projectflow",
	Short: "Project management backend with milestone-weighted progress",
	Long: `ProjectFlow serves the project dashboard API: projects with kanban boards,
weighted milestone timelines, history, files and team accounts.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		return a.serve(cmd.Context())
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		return a.migrate(cmd.Context())
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load sample members and projects",
	Long: `Load sample members and projects into the database.

Without --file the built-in sample data is used. Members are added when their
email is not registered yet; projects only when the database has none.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		file, _ := cmd.Flags().GetString("file")
		if file == "" {
			file = a.cfg.SeedFile
		}
		return a.seed(cmd.Context(), file)
	},
}

var recalcCmd = &cobra.Command{
	Use:   "recalc",
	Short: "Recompute stored progress for every project",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		changed, err := a.projects.RecalculateAll(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Recalculated progress: %d project(s) changed\n", changed)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringP("file", "f", "", "YAML seed file (defaults to SEED_FILE or built-in data)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(recalcCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
