package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"lycheesync/internal/app"
	"lycheesync/internal/config"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// readConfig reads the config file named by the defaults.
func readConfig() (*config.Config, error) {
	defaults, err := app.LoadDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return cfg, nil
}

// newApp reads the config and creates a SyncApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "run", "repair").
func newApp(operation string) (*app.SyncApp, error) {
	cfg, err := readConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.NewSyncApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

var rootCmd = &cobra.Command{
	Use:          "lycheesync",
	Short:        "Mirror a photo directory tree into a Lychee gallery",
	SilenceUsage: true,
}

// run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Watch the source tree and keep the gallery in sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("run")
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Watching (run %s); press Ctrl-C to stop\n", a.RunID())
		return a.Run(ctx)
	},
}

// scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Ingest every uncatalogued photo once and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("scan")
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.Scan()
		fmt.Printf("Added %d photo(s)\n", n)
		return err
	},
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
		source, _ := cmd.Flags().GetString("source")
		lychee, _ := cmd.Flags().GetString("lychee")

		defaults, err := app.LoadDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults.BaseDir, source, lychee)
		if err := cfg.Validate(); err != nil {
			return err
		}

		if err := config.Init(defaults.ConfigPath, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults.ConfigPath)
		fmt.Printf("Base Dir: %s\n", defaults.BaseDir)
		fmt.Printf("Log Dir: %s\n", defaults.LogDir())
		fmt.Println("Run 'lycheesync db migrate' before the first sync.")
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.LoadDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults.ConfigPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults.ConfigPath)
		m := &config.Manager{}
		return m.Write(os.Stdout, cfg)
	},
}

// db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the catalog schema",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}
		if err := app.MigrateDatabase(cfg); err != nil {
			return err
		}
		fmt.Println("Catalog schema is up to date.")
		return nil
	},
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the catalog schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}
		status, err := app.DatabaseStatus(cfg)
		if err != nil {
			return err
		}
		fmt.Printf("Catalog schema: %s\n", status)
		return nil
	},
}

// maintenance command
var maintenanceCmd = &cobra.Command{
	Use:   "maintenance",
	Short: "One-off catalog maintenance",
}

var reorderCmd = &cobra.Command{
	Use:   "reorder",
	Short: "Renumber album ids in name order",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("reorder")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.ReorderAlbums(); err != nil {
			return fmt.Errorf("reorder failed: %w", err)
		}
		fmt.Println("Albums reordered.")
		return nil
	},
}

var datesCmd = &cobra.Command{
	Use:   "dates",
	Short: "Set album dates from their newest photo",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("dates")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.RefreshAlbumDates(); err != nil {
			return fmt.Errorf("updating album dates failed: %w", err)
		}
		fmt.Println("Album dates updated.")
		return nil
	},
}

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Reconcile the catalog with the source and managed trees",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("repair")
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.Repair()
		if err != nil {
			return fmt.Errorf("repair failed: %w", err)
		}
		fmt.Printf("Stale rows removed:    %d\n", report.StaleRows)
		fmt.Printf("Photos ingested:       %d\n", report.Ingested)
		fmt.Printf("Orphan files removed:  %d\n", report.OrphanFiles)
		fmt.Printf("Empty albums removed:  %d\n", report.EmptyAlbums)
		return nil
	},
}

var wipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Delete every managed file and catalog row",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			ok, err := confirm("This removes every photo and album from the gallery. Type 'yes' to continue: ")
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Aborted.")
				return nil
			}
		}

		a, err := newApp("wipe")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Wipe(); err != nil {
			return fmt.Errorf("wipe failed: %w", err)
		}
		fmt.Println("Gallery wiped.")
		return nil
	},
}

// confirm asks a yes/no question on the terminal.
func confirm(prompt string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, errors.New("stdin is not a terminal; pass --yes to confirm")
	}
	fmt.Print(prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("reading answer: %w", err)
	}
	return strings.TrimSpace(strings.ToLower(line)) == "yes", nil
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View sync operation history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("history")
		if err != nil {
			return err
		}
		defer a.Close()

		ops, err := a.History(limit)
		if err != nil {
			return err
		}

		if len(ops) == 0 {
			fmt.Println("No operations recorded.")
			return nil
		}

		for _, op := range ops {
			duration := ""
			if op.FinishedAt.Valid {
				d := op.FinishedAt.Time.Sub(op.StartedAt)
				duration = d.Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %-12s  %s  %-8s  %-10s  %s\n",
				op.ID,
				op.Operation,
				op.StartedAt.Format("2006-01-02 15:04:05"),
				op.Status,
				duration,
				op.Parameters,
			)
		}
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configInitCmd.Flags().String("source", "", "Directory tree to watch")
	configInitCmd.Flags().String("lychee", "", "Lychee installation directory")
	configInitCmd.MarkFlagRequired("source")
	configInitCmd.MarkFlagRequired("lychee")

	// db subcommands
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbStatusCmd)

	// maintenance subcommands
	maintenanceCmd.AddCommand(reorderCmd)
	maintenanceCmd.AddCommand(datesCmd)
	maintenanceCmd.AddCommand(repairCmd)
	maintenanceCmd.AddCommand(wipeCmd)
	wipeCmd.Flags().Bool("yes", false, "Skip the confirmation prompt")

	// root commands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(maintenanceCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of operations to show")
}
