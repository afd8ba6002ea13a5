package commands

import (
	"fmt"

	"trade-lab/evolution"
	"trade-lab/repositories"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/kelseyhightower/envconfig"
	"github.com/mama165/sdk-go/logs"
	"github.com/spf13/cobra"
)

type Config struct {
	BadgerFilepath string `envconfig:"BADGER_FILEPATH" default:"./data/badger"`
	SpeciesCatalog string `envconfig:"SPECIES_CATALOG"`
	// LEDGERCTL_COLOURS enables colorized output
	Colours  bool   `envconfig:"LEDGERCTL_COLOURS" default:"true"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"ERROR"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}

// app is built once per invocation by the root command.
type app struct {
	config  Config
	catalog *evolution.Catalog
	db      *badger.DB
	ledger  *repositories.LedgerRepository
	history repositories.SettlementRepository
}

var (
	current   *app
	dbPath    string
	historyOf int
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Seed and inspect the trading ledger",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig()
			if err != nil {
				return err
			}
			if dbPath != "" {
				cfg.BadgerFilepath = dbPath
			}
			color.Enable = cfg.Colours

			catalog, err := loadCatalog(cfg.SpeciesCatalog)
			if err != nil {
				return err
			}
			db, err := openDB(cfg.BadgerFilepath, isReadOnly(cmd))
			if err != nil {
				return fmt.Errorf("error while opening Badger: %w", err)
			}
			log := logs.GetLoggerFromString(cfg.LogLevel)
			current = &app{
				config:  cfg,
				catalog: catalog,
				db:      db,
				ledger:  repositories.NewLedgerRepository(db, log),
				history: repositories.NewSettlementRepository(db, log, &historyOf),
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if current == nil {
				return nil
			}
			return current.db.Close()
		},
	}

	root.PersistentFlags().StringVar(&dbPath, "db", "", "path to badger DB (default $BADGER_FILEPATH)")

	root.AddCommand(
		membersCmd(), assetsCmd(), historyCmd(),
		seedCmd(), grantCmd(), balanceCmd(), favoriteCmd(), selectCmd(),
	)
	return root
}

const readOnlyAnnotation = "read-only"

func isReadOnly(cmd *cobra.Command) bool {
	_, ok := cmd.Annotations[readOnlyAnnotation]
	return ok
}

func readOnly() map[string]string {
	return map[string]string{readOnlyAnnotation: "true"}
}

func openDB(path string, readOnly bool) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).WithLoggingLevel(badger.ERROR)
	if readOnly {
		// Lets the inspection run while the server holds the lock
		opts = opts.WithReadOnly(true).WithBypassLockGuard(true)
	}
	return badger.Open(opts)
}

func loadCatalog(path string) (*evolution.Catalog, error) {
	if path == "" {
		return evolution.LoadDefaultCatalog()
	}
	return evolution.LoadCatalogFile(path)
}
