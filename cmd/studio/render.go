package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/example/studio/internal/editstate"
	"github.com/example/studio/internal/geom"
	"github.com/example/studio/internal/tool"
)

// script is an edit state applied headlessly, with an optional crop
// applied after it.
type script struct {
	editstate.State `yaml:",inline"`
	Crop            *geom.Rect `yaml:"crop,omitempty"`
}

type renderCmd struct {
	*root
	fs            *flag.FlagSet
	file          string
	fromClipboard bool
	scriptPath    string
	stdin         io.Reader
	exportFlags
}

func (c *renderCmd) Program() string        { return c.root.subcommand("render") }
func (c *renderCmd) FlagSet() *flag.FlagSet { return c.fs }

func parseRenderCmd(args []string, r *root) (*renderCmd, error) {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	c := &renderCmd{root: r, fs: fs, stdin: os.Stdin}
	fs.Usage = usageFunc(c)
	fs.StringVar(&c.file, "file", "", "source image")
	fs.BoolVar(&c.fromClipboard, "from-clipboard", false, "use the image on the clipboard as source")
	fs.StringVar(&c.scriptPath, "script", "", "YAML edit script, or - for stdin")
	fs.StringVar(&c.output, "output", "rendered.png", "output file")
	fs.StringVar(&c.format, "format", string(r.config.Export.Format), "output format (png or jpeg)")
	fs.Float64Var(&c.quality, "quality", r.config.Export.Quality, "jpeg quality between 0.1 and 1")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if c.file == "" && fs.NArg() > 0 {
		c.file = fs.Arg(0)
	}
	if c.file == "" && !c.fromClipboard {
		return nil, &UsageError{of: c}
	}
	return c, nil
}

func (c *renderCmd) loadScript() (script, error) {
	sc := script{State: editstate.Initial()}
	if c.scriptPath == "" {
		return sc, nil
	}
	var (
		data []byte
		err  error
	)
	if c.scriptPath == "-" {
		data, err = io.ReadAll(c.stdin)
	} else {
		data, err = os.ReadFile(c.scriptPath)
	}
	if err != nil {
		return sc, fmt.Errorf("failed to read script: %w", err)
	}
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return sc, fmt.Errorf("failed to parse script: %w", err)
	}
	for i := range sc.Paths {
		if sc.Paths[i].ID == "" {
			sc.Paths[i].ID = editstate.NewID()
		}
	}
	for i := range sc.Texts {
		if sc.Texts[i].ID == "" {
			sc.Texts[i].ID = editstate.NewID()
		}
	}
	for i := range sc.Shapes {
		if sc.Shapes[i].ID == "" {
			sc.Shapes[i].ID = editstate.NewID()
		}
		if !sc.Shapes[i].Kind.Valid() {
			return sc, fmt.Errorf("shape %d: unknown kind %q", i, sc.Shapes[i].Kind)
		}
	}
	sc.Adjustments = sc.Adjustments.Clamped()
	return sc, nil
}

func (c *renderCmd) Run() error {
	sc, err := c.loadScript()
	if err != nil {
		return err
	}
	enc, err := loadInput(c.file, c.fromClipboard)
	if err != nil {
		return err
	}
	out, format, err := c.exportFlags.resolve(c.root)
	if err != nil {
		return err
	}

	sess := c.root.newSession()
	defer sess.Close()
	if err := sess.Load(enc); err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	sess.Apply(sc.State)
	if sc.Crop != nil {
		sess.SetTool(tool.Crop)
		sess.SetCropRect(*sc.Crop)
		if !sess.ApplyCrop() {
			return fmt.Errorf("crop %v is outside the image", *sc.Crop)
		}
	}

	res, err := sess.Export(format, c.quality)
	if err != nil {
		return fmt.Errorf("failed to export: %w", err)
	}
	if err := c.root.writeOutput(out, res); err != nil {
		return err
	}
	log.Printf("render: wrote %s", out)
	return nil
}
