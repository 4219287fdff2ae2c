package main

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"quiz-night/internal/config"
	"quiz-night/internal/db"
	"quiz-night/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type options struct {
	bind    string
	port    int
	dotenv  string
	migrate bool
}

func (o *options) validate() error {
	if o.port < 1 || o.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", o.port)
	}
	return nil
}

func newCmd(opts *options) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("QUIZNIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "quiz-night",
		Short:         "Party quiz server: icebreaker rounds, then a trivia quiz about the players.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			return run(opts)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&opts.bind, "bind", "b", "0.0.0.0", "address to bind to (env: QUIZNIGHT_BIND)")
	fs.IntVarP(&opts.port, "port", "p", 8080, "port to listen on (env: QUIZNIGHT_PORT)")
	fs.StringVar(&opts.dotenv, "dotenv", ".env", "path to dotenv file (env: QUIZNIGHT_DOTENV)")
	fs.BoolVar(&opts.migrate, "migrate", true, "run schema auto-migration on startup (env: QUIZNIGHT_MIGRATE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})

	return cmd
}

func run(opts *options) error {
	if err := config.LoadDotEnv(opts.dotenv); err != nil {
		log.Printf("failed to load %s: %v", opts.dotenv, err)
	}
	cfg := config.Load()

	conn, err := db.Open(cfg)
	if err != nil {
		// Sessions live in memory only; fine for local play, not for prod.
		log.Printf("running without a database: %v", err)
		conn = nil
	} else if opts.migrate {
		if err := db.Migrate(conn); err != nil {
			return fmt.Errorf("schema migration failed: %w", err)
		}
	}

	srv := server.New(conn, cfg)
	addr := fmt.Sprintf("%s:%d", opts.bind, opts.port)
	log.Printf("listening addr=%s base_url=%s", addr, cfg.BaseURL)
	return http.ListenAndServe(addr, srv.Handler())
}

func main() {
	log.SetFlags(0)
	opts := &options{}
	cobra.CheckErr(newCmd(opts).Execute())
}
