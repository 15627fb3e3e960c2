package main

import (
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/checkin/internal/cli"
	"github.com/julianstephens/checkin/internal/cli/backups"
	"github.com/julianstephens/checkin/internal/cli/checkins"
	"github.com/julianstephens/checkin/internal/cli/schedules"
	"github.com/julianstephens/checkin/internal/cli/system"
	"github.com/julianstephens/checkin/internal/constants"
	"github.com/julianstephens/checkin/internal/debounce"
	"github.com/julianstephens/checkin/internal/errors"
	"github.com/julianstephens/checkin/internal/logger"
	"github.com/julianstephens/checkin/internal/scheduler"
	"github.com/julianstephens/checkin/internal/tracker"
	"github.com/julianstephens/checkin/internal/utils"
)

var CLI struct {
	Version      kong.VersionFlag
	Config       string        `help:"Storage file path, PostgreSQL connection string or keyring[:profile]. PostgreSQL connection strings must NOT embed credentials; use the OS keyring, CHECKIN_DB_CONNECTION or .pgpass instead." type:"string" default:"${default_config}" env:"CHECKIN_CONFIG"`
	DBConnection string        `help:"PostgreSQL connection string (may carry credentials)." env:"CHECKIN_DB_CONNECTION" hidden:""`
	Timezone     string        `help:"Default IANA timezone for schedules without one." env:"CHECKIN_TIMEZONE"`
	LateGrace    time.Duration `help:"How long after close a missed check-in still accepts a submission." default:"0s"`
	Debug        bool          `help:"Mirror debug logs to stderr." env:"CHECKIN_DEBUG"`

	Init     system.InitCmd     `cmd:"" help:"Initialize checkin storage."`
	Migrate  system.MigrateCmd  `cmd:"" help:"Run database migrations."`
	Doctor   system.DoctorCmd   `cmd:"" help:"Run health checks and diagnostics."`
	Schedule struct {
		Validate schedules.ValidateCmd `cmd:"" help:"Validate a template's schedule."`
		Windows  schedules.WindowsCmd  `cmd:"" help:"List upcoming windows of a template."`
	} `cmd:"" help:"Inspect template schedules."`
	Status schedules.StatusCmd `cmd:"" help:"Show a client's current check-in."`
	Fill   checkins.FillCmd    `cmd:"" help:"Fill in the current check-in interactively."`
	Draft  struct {
		Show  checkins.DraftShowCmd  `cmd:"" help:"Show a saved draft and its validation report."`
		Clear checkins.DraftClearCmd `cmd:"" help:"Delete a saved draft."`
	} `cmd:"" help:"Manage saved drafts."`
	Review struct {
		Add checkins.ReviewAddCmd `cmd:"" help:"Record a review of a submitted check-in."`
	} `cmd:"" help:"Manage reviews."`
	Backup struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Snapshot the SQLite database." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available snapshots."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore the database from a snapshot."`
	} `cmd:"" help:"Manage SQLite database backups."`
	Keyring struct {
		Set    system.KeyringSetCmd    `cmd:"" help:"Store a PostgreSQL connection string in the OS keyring."`
		Delete system.KeyringDeleteCmd `cmd:"" help:"Remove a stored connection string."`
		Status system.KeyringStatusCmd `cmd:"" help:"Show the stored connection string with the password masked."`
	} `cmd:"" help:"Manage keyring credentials."`
}

// skipLoad lists commands that open (or never touch) the store themselves.
var skipLoad = []string{"init", "migrate", "doctor", "keyring", "schedule"}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Recurring coach check-ins with scheduled windows, drafts and reviews"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Configuration(kong.JSON, constants.DefaultConfigFile),
		kong.Vars{
			"version":        constants.Version,
			"default_config": constants.DefaultConfigPath,
		},
	)

	opts := cli.StoreOptions{Config: CLI.Config, DBConnection: CLI.DBConnection}
	configDir := cli.ConfigDir(opts, "~/.config/"+constants.AppName)
	if err := logger.Init(logger.Config{Debug: CLI.Debug, ConfigDir: configDir}); err != nil {
		errors.Fatal(err)
	}

	loc, err := utils.LoadLocation(CLI.Timezone)
	if err != nil {
		errors.Fatal(err)
	}
	calc := scheduler.NewInLocation(loc)

	store, err := cli.NewStore(opts)
	if err != nil {
		errors.Fatal(err)
	}

	command := ctx.Command()
	load := true
	for _, name := range skipLoad {
		if command == name || strings.HasPrefix(command, name+" ") {
			load = false
			break
		}
	}
	if load {
		if err := store.Load(); err != nil {
			errors.Fatal(err)
		}
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close storage", "error", err)
		}
	}()

	appCtx := &cli.Context{
		Store:      store,
		Calculator: calc,
		Tracker:    tracker.New(calc, CLI.LateGrace),
		ConfigDir:  configDir,
		Clock:      debounce.RealClock{},
		Out:        os.Stdout,
	}

	logger.Debug("Running command", "command", command, "storage", store.GetConfigPath())
	if err := ctx.Run(appCtx); err != nil {
		store.Close()
		errors.Fatal(err)
	}
}
