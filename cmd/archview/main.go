package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"archview/internal/app"
	"archview/internal/archive"
	"archview/internal/config"
	"archview/internal/database"

	"github.com/spf13/cobra"
)

// Exit codes beyond the generic failure.
const (
	exitError     = 1
	exitBusy      = 2
	exitLockedOut = 3
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch app.StatusOf(err) {
	case app.StatusBusy:
		return exitBusy
	case app.StatusLockedOut:
		return exitLockedOut
	default:
		return exitError
	}
}

// newApp reads the config and creates an App. The caller must finish it with
// a.Finish.
func newApp(cmd *cobra.Command, command string, skipMigrationCheck bool) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	level := slog.LevelWarn
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}

	a, err := app.New(cmd.Context(), cfg, command, app.Options{
		Stderr:             cmd.ErrOrStderr(),
		StderrLevel:        level,
		SkipMigrationCheck: skipMigrationCheck,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// withApp runs fn against a fresh App and records its outcome.
func withApp(cmd *cobra.Command, command string, fn func(a *app.App) error) error {
	a, err := newApp(cmd, command, false)
	if err != nil {
		return err
	}
	err = fn(a)
	return errors.Join(err, a.Finish(err))
}

var rootCmd = &cobra.Command{
	Use:           "archview",
	Short:         "Browse a document archive by date",
	SilenceUsage:  true,
	SilenceErrors: false,
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

		cfg := config.NewConfig(defaults.BaseDir)
		if err := config.Init(defaults.ConfigPath, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Configuration initialized at %s\n", defaults.ConfigPath)
		fmt.Fprintf(cmd.OutOrStdout(), "Base Dir: %s\n", defaults.BaseDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults.ConfigPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Configuration from %s:\n\n", defaults.ConfigPath)
		fmt.Fprintf(out, "Base Dir:    %s\n", cfg.BaseDir)
		fmt.Fprintf(out, "Log Dir:     %s\n", cfg.LogDir)
		fmt.Fprintf(out, "Sessions:    %s (%s)\n", cfg.Session.BasePath, cfg.Session.AppSubdir)
		fmt.Fprintf(out, "Catalog:     %s %s\n", cfg.Catalog.Type, cfg.Catalog.DataDir)
		fmt.Fprintf(out, "Blobs:       %s\n", cfg.Blobs.Type)
		fmt.Fprintf(out, "Encryption:  %s\n", cfg.Encryption.Type)
		fmt.Fprintf(out, "Login tries: %d\n", cfg.Auth.AttemptLimit)
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(out, "\nProblems:\n%v\n", err)
		}
		return nil
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage blob encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the age identity and recipient",
	RunE: func(cmd *cobra.Command, args []string) error {
		protect, _ := cmd.Flags().GetBool("passphrase")
		return withApp(cmd, "InitKeys", func(a *app.App) error {
			var passphrase string
			if protect {
				p, err := promptNewSecret(cmd, "Passphrase")
				if err != nil {
					return err
				}
				passphrase = p
			}
			if err := a.InitKeys(passphrase); err != nil {
				return err
			}
			cfg := a.Config().Encryption
			fmt.Fprintf(cmd.OutOrStdout(), "Identity:  %s\nRecipient: %s\n", cfg.IdentityPath, cfg.RecipientPath)
			return nil
		})
	},
}

// db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the catalog database",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply catalog migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "Migrate", true)
		if err != nil {
			return err
		}
		err = a.Migrate()
		if err == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Catalog is up to date")
		}
		return errors.Join(err, a.Finish(err))
	},
}

// user command
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add LOGIN",
	Short: "Create a user account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		role, _ := cmd.Flags().GetString("role")
		fullName, _ := cmd.Flags().GetString("full-name")
		changePassword, _ := cmd.Flags().GetBool("change-password")

		return withApp(cmd, "AddUser", func(a *app.App) error {
			secretText, err := promptNewSecret(cmd, "Password for "+args[0])
			if err != nil {
				return err
			}
			id, err := a.AddUser(cmd.Context(), args[0], secretText, role, fullName, changePassword)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %s created (id %d)\n", args[0], id)
			return nil
		})
	},
}

// doc command
var docCmd = &cobra.Command{
	Use:   "doc",
	Short: "Manage catalog documents",
}

var docAddCmd = &cobra.Command{
	Use:   "add FILE_NAME",
	Short: "File a document in the catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		designation, _ := flags.GetString("designation")
		name, _ := flags.GetString("name")
		imageID, _ := flags.GetInt("image")
		rank, _ := flags.GetInt("rank")
		dir, _ := flags.GetString("dir")
		at, _ := flags.GetString("recorded-at")

		recordedAt, err := time.Parse(time.DateTime, at)
		if err != nil {
			return fmt.Errorf("--recorded-at must look like %q: %w", time.DateTime, err)
		}

		return withApp(cmd, "AddDocument", func(a *app.App) error {
			id, err := a.AddDocument(cmd.Context(), database.NewDocument{
				Designation: designation,
				Name:        name,
				ImageID:     imageID,
				RecordedAt:  recordedAt,
				Rank:        rank,
				Directory:   dir,
				FileName:    args[0],
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Document %d filed under %s\n", id, archive.DocumentID(id))
			return nil
		})
	},
}

// blob command
var blobCmd = &cobra.Command{
	Use:   "blob",
	Short: "Store document bodies and images",
}

var blobPutDocumentCmd = &cobra.Command{
	Use:   "put-document DOC_ID FILE",
	Short: "Store the body of a document",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		docID, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid document id %q", args[0])
		}
		return withApp(cmd, "PutDocument", func(a *app.App) error {
			if err := a.PutDocument(cmd.Context(), docID, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored %s as document %d\n", args[1], docID)
			return nil
		})
	},
}

var blobPutImageCmd = &cobra.Command{
	Use:   "put-image KEY FILE",
	Short: "Store a node image",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid image key %q", args[0])
		}
		level, _ := cmd.Flags().GetString("level")
		if level != "" && !archive.Table(level).IsBucket() {
			return fmt.Errorf("--level must be one of YEAR, MONTH, DAY, HOUR")
		}
		return withApp(cmd, "PutImage", func(a *app.App) error {
			if err := a.PutImage(cmd.Context(), key, args[1], archive.Table(level)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored %s as image %d\n", args[1], key)
			return nil
		})
	},
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List recent viewer sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return withApp(cmd, "Sessions", func(a *app.App) error {
			records, err := a.Sessions(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sessions.")
				return nil
			}
			for _, r := range records {
				finished := "-"
				if !r.Finished.IsZero() {
					finished = r.Finished.Format(time.DateTime)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\tuser %d\t%s\t%s\t%s\t%s\t%s\n",
					r.ID, r.Started.Format(time.DateTime), r.UserID, r.Host, r.Command, finished, r.Status, r.SessionID)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug output to stderr")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	keysCmd.AddCommand(keysInitCmd)
	keysInitCmd.Flags().Bool("passphrase", false, "Protect the identity with a passphrase")

	dbCmd.AddCommand(dbMigrateCmd)

	userCmd.AddCommand(userAddCmd)
	userAddCmd.Flags().String("role", "viewer", "Role of the user")
	userAddCmd.Flags().String("full-name", "", "Display name of the user")
	userAddCmd.Flags().Bool("change-password", false, "Require a password change on first login")

	docCmd.AddCommand(docAddCmd)
	docAddCmd.Flags().String("designation", "", "Document designation")
	docAddCmd.Flags().String("name", "", "Document display name")
	docAddCmd.Flags().Int("image", 0, "Image key shown for the document")
	docAddCmd.Flags().Int("rank", 0, "Position among documents of the same hour")
	docAddCmd.Flags().String("dir", "", "Local directory the document is cached in")
	docAddCmd.Flags().String("recorded-at", "", "Timestamp, e.g. 2024-03-15 09:00:00")
	for _, f := range []string{"designation", "dir", "recorded-at"} {
		docAddCmd.MarkFlagRequired(f)
	}

	blobCmd.AddCommand(blobPutDocumentCmd)
	blobCmd.AddCommand(blobPutImageCmd)
	blobPutImageCmd.Flags().String("level", "", "Also use the image for every bucket of this level")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(docCmd)
	rootCmd.AddCommand(blobCmd)

	sessionsCmd.Flags().Int("limit", 20, "Number of sessions to show")
	rootCmd.AddCommand(sessionsCmd)

	addSessionCommands(rootCmd)
}
