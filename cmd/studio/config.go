package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/example/studio/internal/config"
)

type configCmd struct {
	*root
	fs  *flag.FlagSet
	out io.Writer
}

func (c *configCmd) Program() string        { return c.root.subcommand("config") }
func (c *configCmd) FlagSet() *flag.FlagSet { return c.fs }

func parseConfigCmd(args []string, r *root) (*configCmd, error) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	c := &configCmd{root: r, fs: fs, out: os.Stdout}
	fs.Usage = usageFunc(c)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *configCmd) Run() error {
	args := c.fs.Args()
	if len(args) < 1 {
		return &UsageError{of: c}
	}

	switch args[0] {
	case "print":
		fmt.Fprint(c.out, c.root.config.String())
		return nil
	case "save":
		return c.runSave()
	case "path":
		path := config.NewLoader(version, configPathOverride).GetConfigPath()
		if path == "" {
			path = config.DefaultPath() + " (not present)"
		}
		fmt.Fprintln(c.out, path)
		return nil
	default:
		return fmt.Errorf("unknown config command: %s", args[0])
	}
}

func (c *configCmd) runSave() error {
	// Save over the file in use, or create the default one.
	path := config.NewLoader(version, configPathOverride).GetConfigPath()
	if path == "" {
		path = config.DefaultPath()
	}
	if err := config.Save(c.root.config, path); err != nil {
		return fmt.Errorf("failed to save config to %s: %w", path, err)
	}
	fmt.Fprintf(os.Stderr, "Configuration saved to %s\n", path)
	return nil
}
