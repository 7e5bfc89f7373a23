// Command pgdrift reconciles a live Postgres schema with a desired SQL
// file: connect, diff, apply (or preview, or export).
package main

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"syscall"

	"github.com/jessevdk/go-flags"
	"golang.org/x/term"

	"github.com/schemadrift/schemadrift/dialect"
	"github.com/schemadrift/schemadrift/dialect/postgres"
	"github.com/schemadrift/schemadrift/diffcfg"
	"github.com/schemadrift/schemadrift/orchestrator"
	"github.com/schemadrift/schemadrift/util"
)

var version = "dev"
var revision = "HEAD"

type cliOptions struct {
	User       string `short:"U" long:"user" description:"Postgres user name" value-name:"user_name" default:"postgres"`
	Password   string `long:"password" description:"Postgres user password, overridden by $PGPASSWORD" value-name:"password"`
	Host       string `short:"h" long:"host" description:"Host to connect to the Postgres server" value-name:"host_name" default:"127.0.0.1"`
	Port       uint   `short:"p" long:"port" description:"Port used for the connection" value-name:"port_num" default:"5432"`
	Prompt     bool   `long:"password-prompt" description:"Force Postgres user password prompt"`
	File       string `long:"file" description:"Read desired SQL from the file, rather than stdin" value-name:"sql_file" default:"-"`
	DryRun     bool   `long:"dry-run" description:"Don't run DDLs but just show them"`
	Export     bool   `long:"export" description:"Just dump the current schema to stdout"`
	EnableDrop bool   `long:"enable-drop" description:"Enable destructive changes such as DROP for TABLE, INDEX, VIEW"`
	Config     []string `long:"config" description:"YAML file to specify: target_tables, skip_tables (can be specified multiple times)" value-name:"config_file"`
	ConfigInline []string `long:"config-inline" description:"YAML object to specify: target_tables, skip_tables (can be specified multiple times)" value-name:"yaml"`
	Debug      bool   `long:"debug" description:"Show the computed diff operations before rendering"`
	Help       bool   `long:"help" description:"Show this help"`
	Version    bool   `long:"version" description:"Show this version"`
}

func main() {
	util.InitSlog()

	var opts cliOptions
	parser := flags.NewParser(&opts, flags.None)
	parser.Usage = "[OPTIONS] database < desired.sql"
	args, err := parser.ParseArgs(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	if opts.Help {
		parser.WriteHelp(os.Stdout)
		os.Exit(0)
	}
	if opts.Version {
		fmt.Printf("%s (%s)\n", version, revision)
		os.Exit(0)
	}
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "exactly one database name must be given")
		parser.WriteHelp(os.Stdout)
		os.Exit(1)
	}

	password, ok := os.LookupEnv("PGPASSWORD")
	if !ok {
		password = opts.Password
	}
	if opts.Prompt {
		fmt.Print("Enter Password: ")
		pass, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			log.Fatal(err)
		}
		password = string(pass)
	}

	var desiredSQL string
	if !opts.Export {
		desiredSQL, err = readDesiredSQL(opts.File)
		if err != nil {
			log.Fatalf("failed to read desired SQL: %s", err)
		}
	}

	host := opts.Host
	port := uint16(opts.Port)
	user := opts.User
	connectionConfig := dialect.ConnectionConfig{
		Host:     &host,
		Port:     &port,
		User:     &user,
		Password: &password,
		Database: args[0],
	}

	mode := orchestrator.ModeApply
	if opts.DryRun {
		mode = orchestrator.ModeDryRun
	} else if opts.Export {
		mode = orchestrator.ModeExport
	}

	genConfig, err := diffcfg.LoadConfigs(opts.Config, opts.ConfigInline)
	if err != nil {
		log.Fatal(err)
	}

	o := orchestrator.New(postgres.New())
	output, err := o.Run(connectionConfig, desiredSQL, orchestrator.Options{
		Mode:       mode,
		EnableDrop: opts.EnableDrop,
		Config:     genConfig,
		Debug:      opts.Debug,
	})
	if err != nil {
		slog.Error("run failed", "error", err)
		log.Fatal(err)
	}

	switch out := output.(type) {
	case orchestrator.DryRunSQLOutput:
		fmt.Print(out.SQL)
	case orchestrator.ExportSQLOutput:
		fmt.Print(out.SQL)
	case orchestrator.AppliedOutput:
		slog.Info("schema applied")
	}
}

func readDesiredSQL(path string) (string, error) {
	if path == "-" || path == "" {
		bytes, err := io.ReadAll(os.Stdin)
		return string(bytes), err
	}
	bytes, err := os.ReadFile(path)
	return string(bytes), err
}
