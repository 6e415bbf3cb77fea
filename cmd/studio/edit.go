package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/example/studio/internal/studio"
	"github.com/example/studio/internal/viewer"
)

type editCmd struct {
	*root
	fs            *flag.FlagSet
	file          string
	fromClipboard bool
	prompt        string
	exportFlags
}

func (e *editCmd) Program() string        { return e.root.subcommand("edit") }
func (e *editCmd) FlagSet() *flag.FlagSet { return e.fs }

func parseEditCmd(args []string, r *root) (*editCmd, error) {
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	cmd := &editCmd{root: r, fs: fs}
	fs.Usage = usageFunc(cmd)
	fs.StringVar(&cmd.file, "file", "", "image to open")
	fs.BoolVar(&cmd.fromClipboard, "from-clipboard", false, "open the image on the clipboard")
	fs.StringVar(&cmd.output, "output", "edited.png", "file written by the export shortcut")
	fs.StringVar(&cmd.format, "format", string(r.config.Export.Format), "export format (png or jpeg)")
	fs.Float64Var(&cmd.quality, "quality", r.config.Export.Quality, "jpeg quality between 0.1 and 1")
	fs.StringVar(&cmd.prompt, "analyze-prompt", "Describe this image.", "question asked by the analyze shortcut")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if cmd.file == "" && fs.NArg() > 0 {
		cmd.file = fs.Arg(0)
	}
	if cmd.file == "" && !cmd.fromClipboard {
		return nil, &UsageError{of: cmd}
	}
	return cmd, nil
}

func (e *editCmd) Run() error {
	enc, err := loadInput(e.file, e.fromClipboard)
	if err != nil {
		return err
	}
	out, format, err := e.exportFlags.resolve(e.root)
	if err != nil {
		return err
	}

	var v *viewer.Viewer
	sess := e.root.newSession(studio.WithOnChange(func() { v.NotifyChanged() }))
	if err := sess.Load(enc); err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	v = viewer.New(sess,
		viewer.WithTheme(e.root.activeTheme),
		viewer.WithOutput(out, format, e.quality),
		viewer.WithNotifier(e.root.notifier),
		viewer.WithAnalyzePrompt(e.prompt),
		viewer.WithRequestTimeout(e.root.config.Timeout()),
		viewer.WithOnClose(func() { log.Printf("edit: window closed") }),
	)
	v.Run()
	return nil
}
