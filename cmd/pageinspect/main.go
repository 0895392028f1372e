package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/tuannm99/novakv/internal"
	"github.com/tuannm99/novakv/internal/page"
	"github.com/tuannm99/novakv/internal/storage"
)

var errUsage = errors.New("usage: pageinspect [--config FILE] [--db FILE] [--page ID] [--freelist]")

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "pageinspect:", err)
		os.Exit(1)
	}
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("pageinspect", pflag.ContinueOnError)
	fs.String("config", "", "Path to a yaml config file")
	fs.String("db", "", "Database file (overrides storage.path)")
	fs.Int64("page", -1, "Dump the page with this id")
	fs.Bool("freelist", false, "Print the free page ids")
	fs.String("log-level", "", "Log level (overrides log.level)")
	return fs
}

// loadConfig layers flags over the config file over defaults.
func loadConfig(fs *pflag.FlagSet) (*internal.NovaKVConfig, error) {
	v := internal.NewViper()

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	if fs.Changed("db") {
		if err := v.BindPFlag("storage.path", fs.Lookup("db")); err != nil {
			return nil, err
		}
	}
	if fs.Changed("log-level") {
		if err := v.BindPFlag("log.level", fs.Lookup("log-level")); err != nil {
			return nil, err
		}
	}
	return internal.Decode(v)
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet()
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return errUsage
	}

	cfg, err := loadConfig(fs)
	if err != nil {
		return err
	}
	log, err := internal.NewLogger(cfg, stderr)
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfg.Storage.Path); err != nil {
		// inspecting must never create a file
		return fmt.Errorf("open %s: %w", cfg.Storage.Path, err)
	}
	pager, err := storage.Open(cfg.Storage.Path, &storage.Options{
		PageSize:       cfg.Storage.PageSize,
		StrictFreelist: cfg.Storage.StrictFreelist,
		Logger:         log,
	})
	if err != nil {
		return err
	}
	defer pager.Close()

	m, err := pager.Meta()
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "file=%s pageSize=%d pages=%d\n", pager.Path(), pager.PageSize(), pager.PageCount())
	fmt.Fprintf(stdout, "meta txid=%d root=%d freelist=%d checksum=0x%016x\n", m.TxID, m.Root, m.Freelist, m.Checksum)

	if id, _ := fs.GetInt64("page"); id >= 0 {
		pg, err := pager.Page(page.PageID(id))
		if err != nil {
			return err
		}
		if err := pg.Debug(stdout); err != nil {
			return err
		}
	}

	if ok, _ := fs.GetBool("freelist"); ok {
		fl, err := pager.Freelist()
		if err != nil {
			return err
		}
		ids := fl.IDs()
		fmt.Fprintf(stdout, "freelist count=%d\n", len(ids))
		for _, id := range ids {
			fmt.Fprintln(stdout, id)
		}
	}
	return nil
}
