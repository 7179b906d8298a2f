package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"slices"

	"github.com/goliatone/go-datamapper/cache"
	"github.com/goliatone/go-datamapper/config"
	"github.com/goliatone/go-datamapper/pkg/di"
	"github.com/goliatone/go-datamapper/record"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

type containerKey struct{}

func newApp(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "datamapper",
		Usage:     "inspect entities and their cache entries",
		Writer:    out,
		ErrWriter: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "dotenv file loaded before reading the environment",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:    "session",
				Aliases: []string{"s"},
				Usage:   "session ID used for private entities and the session cache",
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "read straight from the store",
			},
		},
		Before: setup,
		After:  teardown,
		Commands: []*cli.Command{
			describeCommand(),
			getCommand(),
			listCommand(),
			cacheCommand(),
		},
	}
}

// setup loads the configuration and opens the container shared by every
// subcommand.
func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if err := godotenv.Load(cmd.String("env-file")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return ctx, fmt.Errorf("load %s: %w", cmd.String("env-file"), err)
	}

	cfg, err := config.Load()
	if err != nil {
		return ctx, err
	}
	logger, err := cfg.Log.NewLogger()
	if err != nil {
		return ctx, err
	}
	zap.ReplaceGlobals(logger)

	container, err := di.NewContainer(ctx, cfg, di.WithLogger(logger))
	if err != nil {
		return ctx, err
	}

	ctx = context.WithValue(ctx, containerKey{}, container)
	if sid := cmd.String("session"); sid != "" {
		ctx = cache.WithSession(ctx, sid)
	}
	if cmd.Bool("no-cache") {
		ctx = record.WithoutCache(ctx)
	}
	return ctx, nil
}

func teardown(ctx context.Context, _ *cli.Command) error {
	container, ok := ctx.Value(containerKey{}).(*di.Container)
	if !ok {
		return nil
	}
	_ = container.Logger().Sync()
	return container.Close()
}

func containerFrom(ctx context.Context) *di.Container {
	return ctx.Value(containerKey{}).(*di.Container)
}

func describeCommand() *cli.Command {
	return &cli.Command{
		Name:      "describe",
		Usage:     "print the fields of an entity type",
		ArgsUsage: "TYPE",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("describe expects TYPE")
			}
			desc, err := containerFrom(ctx).Mapper().Describe(ctx, cmd.Args().First())
			if err != nil {
				return err
			}
			for _, f := range desc.Fields {
				unique := ""
				if f.Unique {
					unique = " unique"
				}
				fmt.Fprintf(cmd.Root().Writer, "%s\t%s\t%s%s\n", f.Name, f.Bind, f.Native, unique)
			}
			return nil
		},
	}
}

func getCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "load one entity by a unique field",
		ArgsUsage: "TYPE FIELD VALUE",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args := cmd.Args()
			if args.Len() != 3 {
				return fmt.Errorf("get expects TYPE FIELD VALUE")
			}
			e, err := containerFrom(ctx).Mapper().FindUnique(ctx, args.Get(0), args.Get(1), args.Get(2))
			if err != nil {
				return err
			}
			return printJSON(cmd.Root().Writer, e.Snapshot())
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Usage:     "list the entities of a type, optionally filtered by one field",
		ArgsUsage: "TYPE [FIELD VALUE]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			m := containerFrom(ctx).Mapper()
			args := cmd.Args()

			var (
				entities []*record.Entity
				err      error
			)
			switch args.Len() {
			case 1:
				entities, err = m.GetAll(ctx, args.First())
			case 3:
				entities, err = m.GetAllBy(ctx, args.Get(0), args.Get(1), args.Get(2))
			default:
				return fmt.Errorf("list expects TYPE [FIELD VALUE]")
			}
			if err != nil {
				return err
			}

			rows := make([]map[string]any, 0, len(entities))
			for _, e := range entities {
				rows = append(rows, e.Snapshot())
			}
			return printJSON(cmd.Root().Writer, rows)
		},
	}
}

func cacheCommand() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "inspect the active cache backend",
		Commands: []*cli.Command{
			{
				Name:  "backend",
				Usage: "print the active backend",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					name := containerFrom(ctx).Aside().Active()
					if name == "" {
						name = "none"
					}
					fmt.Fprintln(cmd.Root().Writer, name)
					return nil
				},
			},
			{
				Name:  "keys",
				Usage: "list the cached keys",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					keys, err := containerFrom(ctx).Aside().Keys(ctx)
					if err != nil {
						return err
					}
					slices.Sort(keys)
					for _, key := range keys {
						fmt.Fprintln(cmd.Root().Writer, key)
					}
					return nil
				},
			},
			{
				Name:      "flush",
				Usage:     "remove one cached key",
				ArgsUsage: "KEY",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() != 1 {
						return fmt.Errorf("flush expects KEY")
					}
					return containerFrom(ctx).Aside().Flush(ctx, cmd.Args().First())
				},
			},
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
