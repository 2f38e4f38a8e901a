// Package dev implements developer tooling subcommands for schemabind.
package dev

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/urfave/cli/v3"
)

// Command returns the "dev" CLI command group.
func Command() *cli.Command {
	return &cli.Command{
		Name:  "dev",
		Usage: "Developer tools for schemabind",
		Commands: []*cli.Command{
			configgenCommand(),
			schemagenCommand(),
		},
	}
}

func configgenCommand() *cli.Command {
	return &cli.Command{
		Name:      "configgen",
		Usage:     "Scaffold a schemabind.toml in the given directory",
		ArgsUsage: "[dir]",
		Action:    configgenAction,
	}
}

const configTemplate = `# schemabind build configuration.

features = ["core"]
strict = false

[paths]
schema_input = "{{.Schema}}"
native_out = "{{.Native}}"
sandbox_out = "{{.Sandbox}}"

[modules.CoreUObject]
module = "core"
feature = "core"

[blocklist]
classes = []
structs = []
functions = []

[present]
classes = []
functions = []
`

func configgenAction(ctx context.Context, cmd *cli.Command) error {
	dir := "."
	if cmd.NArg() > 0 {
		dir = cmd.Args().First()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, "schemabind.toml")
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	tmpl := template.Must(template.New("config").Parse(configTemplate))
	data := struct{ Schema, Native, Sandbox string }{
		Schema:  "schema",
		Native:  "bindings",
		Sandbox: "sandbox",
	}
	if err := tmpl.Execute(f, data); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

func schemagenCommand() *cli.Command {
	return &cli.Command{
		Name:      "schemagen",
		Usage:     "Scaffold a minimal schema directory for experimenting",
		ArgsUsage: "[dir]",
		Action:    schemagenAction,
	}
}

// A one-class, one-enum schema: just enough for a first generate run.
var schemaSeeds = map[string]string{
	"bind_classes.json": `{
  "classes": [
    {
      "name": "Counter",
      "native_name": "UCounter",
      "package": "CoreUObject",
      "header": "Counter.h",
      "super": "Object",
      "props": [
        {"name": "Value", "type": "IntProperty"}
      ],
      "funcs": [
        {
          "name": "Increment",
          "params": [
            {"name": "Amount", "type": "IntProperty"}
          ]
        }
      ]
    }
  ]
}
`,
	"bind_structs.json": `{
  "structs": []
}
`,
	"bind_enums.json": `{
  "enums": [
    {
      "name": "ECounterMode",
      "package": "CoreUObject",
      "underlying_type": "uint8",
      "pairs": [["Manual", 0], ["Automatic", 1]]
    }
  ]
}
`,
}

func schemagenAction(ctx context.Context, cmd *cli.Command) error {
	dir := "schema"
	if cmd.NArg() > 0 {
		dir = cmd.Args().First()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for name, content := range schemaSeeds {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", path)
	}
	return nil
}
