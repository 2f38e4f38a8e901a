package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/schemabind/schemabind/cmd/dev"
	"github.com/schemabind/schemabind/compiler"
)

// Execute runs the schemabind CLI with the given version string.
func Execute(version string) {
	cmd := &cli.Command{
		Name:                   "schemabind",
		Usage:                  "Generate native and sandboxed bindings from a reflection schema",
		Version:                version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to schemabind.toml",
				Value:   "schemabind.toml",
			},
			&cli.BoolFlag{
				Name:    "no-color",
				Aliases: []string{"C"},
				Usage:   "Disable ANSI color output",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "generate",
				Usage: "Run the full pipeline and write all three backends",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "strict",
						Usage: "Treat any skipped entity as a failure",
					},
					&cli.StringFlag{
						Name:  "schema",
						Usage: "Schema input directory (overrides config)",
					},
					&cli.StringFlag{
						Name:  "native-out",
						Usage: "Native bindings output directory (overrides config)",
					},
					&cli.StringFlag{
						Name:  "sandbox-out",
						Usage: "Sandbox guest/host output directory (overrides config)",
					},
				},
				Action: generateAction,
			},
			{
				Name:   "inspect",
				Usage:  "Print the function table a generation run would produce",
				Action: inspectAction,
			},
			{
				Name:   "deps",
				Usage:  "Print the host package dependency manifest",
				Action: depsAction,
			},
			dev.Command(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the TOML config named by the root flag and applies
// the color policy. SCHEMABIND_FORCE_COLOR is set by parent processes
// that know the terminal supports color (children with piped stderr
// can't detect a TTY themselves).
func loadConfig(cmd *cli.Command) (*compiler.Config, error) {
	if cmd.Bool("no-color") || os.Getenv("NO_COLOR") != "" {
		os.Setenv("NO_COLOR", "1")
	} else if !term.IsTerminal(int(os.Stderr.Fd())) && os.Getenv("SCHEMABIND_FORCE_COLOR") == "" {
		os.Setenv("NO_COLOR", "1")
	} else {
		os.Setenv("SCHEMABIND_FORCE_COLOR", "1")
	}
	return compiler.LoadConfig(cmd.String("config"))
}

func generateAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if v := cmd.String("schema"); v != "" {
		cfg.Paths.SchemaInput = v
	}
	if v := cmd.String("native-out"); v != "" {
		cfg.Paths.NativeOut = v
	}
	if v := cmd.String("sandbox-out"); v != "" {
		cfg.Paths.SandboxOut = v
	}
	if cmd.Bool("strict") {
		cfg.Strict = true
	}

	diag := compiler.NewDiagnostics()
	res, err := compiler.Compile(cfg, diag)
	if err != nil {
		return err
	}
	if err := res.Write(cfg.Paths); err != nil {
		return err
	}
	diag.Infof("generated %d functions across %d modules",
		len(res.Context.FuncTable), len(res.Context.ModuleNames()))
	return nil
}

func inspectAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	res, err := compiler.Compile(cfg, compiler.Quiet())
	if err != nil {
		return err
	}
	for i := range res.Context.FuncTable {
		e := &res.Context.FuncTable[i]
		fmt.Printf("%5d  %-16s %s.%s\n", e.FuncID, e.Module, e.Class, e.Name)
	}
	return nil
}

func depsAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	res, err := compiler.Compile(cfg, compiler.Quiet())
	if err != nil {
		return err
	}
	for _, d := range res.Context.ModuleDeps() {
		fmt.Println(d)
	}
	return nil
}
