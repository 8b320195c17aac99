package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"till-go/internal/app"
	"till-go/internal/config"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer a.Close().
// operation identifies the CLI command being run (e.g. "Sync", "Import").
func newApp(ctx context.Context, operation string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewApp(ctx, cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

var rootCmd = &cobra.Command{
	Use:   "till",
	Short: "Offline-first point-of-sale data core",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		companyKey, _ := cmd.Flags().GetString("company-key")
		if companyKey == "" {
			companyKey = uuid.New().String()
		}

		cfg := config.NewConfig(companyKey, defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Company Key: %s\n", companyKey)
		fmt.Printf("Base Dir:    %s\n", defaults["base_dir"])
		return nil
	},
}

// sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push the local dataset and pull the shared snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, "Sync")
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.SyncNow(ctx)
		if err != nil {
			return err
		}
		if !res.Ran {
			fmt.Println("Sync already in progress.")
			return nil
		}
		fmt.Printf("Pushed at %s\n", res.PushedAt.Format("2006-01-02 15:04:05"))
		if res.Pulled {
			fmt.Printf("Pulled newer snapshot from %s\n", res.PulledAt.Format("2006-01-02 15:04:05"))
		} else {
			fmt.Println("Local data already current.")
		}
		return nil
	},
}

// backup commands
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage database backups",
}

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a backup of the live database",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		external, _ := cmd.Flags().GetBool("external")

		a, err := newApp(ctx, "CreateBackup")
		if err != nil {
			return err
		}
		defer a.Close()

		rec, err := a.CreateBackup(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Backup created: %s (%d bytes)\n", rec.Name, rec.Size)

		if external {
			uri, err := a.SaveBackupExternal(ctx, rec)
			if err != nil {
				return fmt.Errorf("saving to external directory: %w", err)
			}
			fmt.Printf("Saved external copy: %s\n", uri)
		}
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backups, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, "ListBackups")
		if err != nil {
			return err
		}
		defer a.Close()

		records, err := a.ListBackups()
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No backups found.")
			return nil
		}
		for _, rec := range records {
			fmt.Printf("%s  %10d  %s\n", rec.CreatedAt.Format("2006-01-02 15:04:05"), rec.Size, rec.Name)
		}
		return nil
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore <file>",
	Short: "Restore the live database from a backup file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, "RestoreBackup")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.RestoreBackup(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("Restored from %s\n", args[0])
		return nil
	},
}

var backupPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete all but the newest backups",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		keep, _ := cmd.Flags().GetInt("keep")

		a, err := newApp(ctx, "PruneBackups")
		if err != nil {
			return err
		}
		defer a.Close()

		pruned, err := a.PruneBackups(keep)
		if err != nil {
			return err
		}
		fmt.Printf("Pruned %d backup(s), kept %d.\n", pruned, keep)
		return nil
	},
}

var backupClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every backup",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, "DeleteAllBackups")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.DeleteAllBackups(); err != nil {
			return err
		}
		fmt.Println("All backups deleted.")
		return nil
	},
}

var backupScheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Enable or disable automated backups",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		disable, _ := cmd.Flags().GetBool("disable")
		interval, _ := cmd.Flags().GetInt("interval-hours")

		a, err := newApp(ctx, "SetBackupSchedule")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.SetBackupSchedule(ctx, !disable, interval); err != nil {
			return err
		}
		if disable {
			fmt.Println("Automated backups disabled.")
		} else {
			fmt.Printf("Automated backups enabled every %d hour(s).\n", interval)
		}
		return nil
	},
}

// import command
var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import an inventory file (JSON or CSV)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, "Import")
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Import(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d product(s) from %s\n", res.Imported, res.FileName)
		return nil
	},
}

// export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export an inventory snapshot file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		name, _ := cmd.Flags().GetString("name")

		a, err := newApp(ctx, "Export")
		if err != nil {
			return err
		}
		defer a.Close()

		receipt, err := a.Export(ctx, name)
		if err != nil {
			return err
		}
		fmt.Printf("Exported %s to %s storage: %s\n", receipt.FileName, receipt.Location, receipt.URI)
		return nil
	},
}

// serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduled backup and sync tasks until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, "Serve")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.StartSchedulers(ctx); err != nil {
			return err
		}

		fmt.Println("Schedulers running. Ctrl-C to stop.")
		<-ctx.Done()
		fmt.Println("Shutting down.")
		return nil
	},
}

func init() {
	configInitCmd.Flags().String("company-key", "", "tenant key for the shared snapshot (generated if empty)")
	configCmd.AddCommand(configInitCmd)

	backupCreateCmd.Flags().Bool("external", false, "also save a copy to the user-granted external directory")
	backupPruneCmd.Flags().Int("keep", 5, "number of backups to keep")
	backupScheduleCmd.Flags().Bool("disable", false, "disable automated backups")
	backupScheduleCmd.Flags().Int("interval-hours", 24, "hours between automated backups")
	backupCmd.AddCommand(backupCreateCmd, backupListCmd, backupRestoreCmd, backupPruneCmd, backupClearCmd, backupScheduleCmd)

	exportCmd.Flags().String("name", "", "file name for the snapshot document (timestamped if empty)")

	rootCmd.AddCommand(configCmd, syncCmd, backupCmd, importCmd, exportCmd, serveCmd)
}
