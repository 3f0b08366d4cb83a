// Package main is the operator CLI for the account directory.
//
// Subcommands:
//
//	seed            — ensure the bootstrap admin exists
//	create          — create an account
//	list            — list accounts, optionally filtered by role
//	reset-attempts  — clear an account's lockout state
//	rename          — rename an account
//	change-password — set a new password for an account
//	delete          — delete an account
//	reset-defaults  — wipe all collections back to the bootstrap state
//
// Configuration comes from a TOML file (default examauth.toml):
//
//	[store]
//	backend = "file"        # "file" or "sqlite"
//	dir = "./data"          # file backend: directory of JSON collections
//	path = "./examauth.db"  # sqlite backend: database file
//
//	[lockout]
//	threshold = 3
//
//	[bootstrap]
//	admin_username = "admin"
//	admin_password = "admin123"
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	examauth "github.com/exametric/examauth"
	"github.com/exametric/examauth/store"
)

type fileConfig struct {
	Store struct {
		Backend string `toml:"backend"`
		Dir     string `toml:"dir"`
		Path    string `toml:"path"`
	} `toml:"store"`
	Lockout struct {
		Threshold int `toml:"threshold"`
	} `toml:"lockout"`
	Bootstrap struct {
		AdminUsername string `toml:"admin_username"`
		AdminPassword string `toml:"admin_password"`
	} `toml:"bootstrap"`
}

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "examauth.toml", "path to TOML configuration")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	engine, cleanup, err := buildEngine(configPath)
	if err != nil {
		fail(err)
	}
	defer cleanup()

	ctx := context.Background()
	if err := run(ctx, engine, args[0], args[1:]); err != nil {
		fail(err)
	}
}

func run(ctx context.Context, engine *examauth.Engine, cmd string, args []string) error {
	switch cmd {
	case "seed":
		// Build already seeds the bootstrap admin; nothing further needed.
		fmt.Println("bootstrap admin ensured")
		return nil

	case "create":
		fs := flag.NewFlagSet("create", flag.ExitOnError)
		username := fs.String("username", "", "account username")
		pass := fs.String("password", "", "account password")
		role := fs.String("role", "", "admin, lecturer, or exam_personnel")
		name := fs.String("name", "", "display name")
		_ = fs.Parse(args)
		err := engine.CreateAccount(ctx, examauth.CreateAccountRequest{
			Username:    *username,
			Password:    *pass,
			Role:        examauth.Role(*role),
			DisplayName: *name,
		})
		if err != nil {
			return err
		}
		fmt.Printf("created %s (%s)\n", *username, *role)
		return nil

	case "list":
		fs := flag.NewFlagSet("list", flag.ExitOnError)
		role := fs.String("role", "", "filter by role (empty for all)")
		_ = fs.Parse(args)
		accounts, err := engine.ListAccounts(ctx, examauth.Role(*role))
		if err != nil {
			return err
		}
		for _, a := range accounts {
			status := "ok"
			if a.Blocked {
				status = "BLOCKED"
			}
			fmt.Printf("%-20s %-15s %-20s attempts=%d %s\n",
				a.Username, a.Role, a.DisplayName, a.Attempts, status)
		}
		return nil

	case "reset-attempts":
		fs := flag.NewFlagSet("reset-attempts", flag.ExitOnError)
		username := fs.String("username", "", "account username")
		_ = fs.Parse(args)
		if err := engine.ResetAttempts(ctx, *username); err != nil {
			return err
		}
		fmt.Printf("unlocked %s\n", *username)
		return nil

	case "rename":
		fs := flag.NewFlagSet("rename", flag.ExitOnError)
		from := fs.String("from", "", "current username")
		to := fs.String("to", "", "new username")
		_ = fs.Parse(args)
		if err := engine.RenameAccount(ctx, *from, *to); err != nil {
			return err
		}
		fmt.Printf("renamed %s to %s\n", *from, *to)
		return nil

	case "change-password":
		fs := flag.NewFlagSet("change-password", flag.ExitOnError)
		username := fs.String("username", "", "account username")
		pass := fs.String("password", "", "new password")
		_ = fs.Parse(args)
		if err := engine.ChangePassword(ctx, *username, *pass); err != nil {
			return err
		}
		fmt.Printf("password changed for %s\n", *username)
		return nil

	case "delete":
		fs := flag.NewFlagSet("delete", flag.ExitOnError)
		username := fs.String("username", "", "account username")
		_ = fs.Parse(args)
		if err := engine.DeleteAccount(ctx, *username); err != nil {
			return err
		}
		fmt.Printf("deleted %s\n", *username)
		return nil

	case "reset-defaults":
		if err := engine.ResetToDefaults(ctx); err != nil {
			return err
		}
		fmt.Println("all collections reset to bootstrap state")
		return nil

	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func buildEngine(configPath string) (*examauth.Engine, func(), error) {
	var fc fileConfig
	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, &fc); err != nil {
			return nil, nil, fmt.Errorf("decode %s: %w", configPath, err)
		}
	}

	cfg := examauth.DefaultConfig()
	if fc.Lockout.Threshold > 0 {
		cfg.Lockout.Threshold = fc.Lockout.Threshold
	}
	if fc.Bootstrap.AdminUsername != "" {
		cfg.Bootstrap.AdminUsername = fc.Bootstrap.AdminUsername
	}
	if fc.Bootstrap.AdminPassword != "" {
		cfg.Bootstrap.AdminPassword = fc.Bootstrap.AdminPassword
	}

	builder := examauth.New().WithConfig(cfg)
	cleanup := func() {}

	switch fc.Store.Backend {
	case "sqlite":
		path := fc.Store.Path
		if path == "" {
			path = "examauth.db"
		}
		db, err := store.OpenSQLite(path)
		if err != nil {
			return nil, nil, err
		}
		cleanup = func() { _ = db.Close() }
		builder = builder.WithStores(
			db.Collection(store.CollectionUsers),
			db.Collection(store.CollectionLecturers),
			db.Collection(store.CollectionExamPersonnel),
		)
	case "file", "":
		dir := fc.Store.Dir
		if dir == "" {
			dir = "data"
		}
		builder = builder.WithDataDir(dir)
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", fc.Store.Backend)
	}

	engine, err := builder.Build(context.Background())
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	wrapped := func() {
		engine.Close()
		cleanup()
	}
	return engine, wrapped, nil
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: examauth-admin [-config examauth.toml] <command> [flags]

commands:
  seed            ensure the bootstrap admin exists
  create          -username -password -role [-name]
  list            [-role]
  reset-attempts  -username
  rename          -from -to
  change-password -username -password
  delete          -username
  reset-defaults`)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
