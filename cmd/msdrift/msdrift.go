// Command msdrift reconciles a live SQL Server schema with a desired SQL
// file.
package main

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/schemadrift/schemadrift/dialect"
	"github.com/schemadrift/schemadrift/dialect/mssql"
	"github.com/schemadrift/schemadrift/diffcfg"
	"github.com/schemadrift/schemadrift/orchestrator"
	"github.com/schemadrift/schemadrift/util"
)

var version = "dev"
var revision = "HEAD"

type cliOptions struct {
	User       string `short:"U" long:"user" description:"SQL Server user name" value-name:"user_name" default:"sa"`
	Password   string `long:"password" description:"SQL Server user password, overridden by $MSSQL_PWD" value-name:"password"`
	Host       string `short:"h" long:"host" description:"Host to connect to the SQL Server instance" value-name:"host_name" default:"127.0.0.1"`
	Port       uint   `short:"P" long:"port" description:"Port used for the connection" value-name:"port_num" default:"1433"`
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

	password, ok := os.LookupEnv("MSSQL_PWD")
	if !ok {
		password = opts.Password
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

	o := orchestrator.New(mssql.New())
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
