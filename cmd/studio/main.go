package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/example/studio/internal/config"
	"github.com/example/studio/internal/genai"
	"github.com/example/studio/internal/notify"
	"github.com/example/studio/internal/studio"
	"github.com/example/studio/internal/theme"
)

var (
	version            = "dev"
	commit             = ""
	date               = ""
	configPathOverride = ""
)

type runnable interface{ Run() error }

type root struct {
	fs             *flag.FlagSet
	program        string
	notifier       *notify.Notifier
	config         *config.Config
	exportAlerts   bool
	generateAlerts bool
	themeName      string
	activeTheme    *theme.Theme
}

func (r *root) Program() string {
	return r.program
}

func (r *root) FlagSet() *flag.FlagSet {
	return r.fs
}

func newRoot() *root {
	prefs := notify.LoadPreferences()
	loader := config.NewLoader(version, configPathOverride)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load config: %v\n", err)
		cfg = config.New()
	}

	r := &root{
		fs:       flag.NewFlagSet("studio", flag.ExitOnError),
		program:  "studio",
		notifier: notify.New(prefs),
		config:   cfg,
	}
	r.fs.BoolVar(&r.exportAlerts, "notify-export", cfg.Notify.Export, "show a desktop notification after exporting an image")
	r.fs.BoolVar(&r.generateAlerts, "notify-generate", cfg.Notify.Generate, "show a desktop notification when a generation request finishes")

	// Precedence: CLI > Env > Config > Default
	r.fs.StringVar(&r.themeName, "theme", "", "color theme to use (default, dark, high_contrast or a .theme file)")
	r.fs.Usage = usageFunc(r)
	return r
}

func (r *root) Run(args []string) error {
	if err := r.fs.Parse(args); err != nil {
		return err
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}
	if r.notifier != nil {
		r.notifier.Enable(notify.EventExport, r.exportAlerts)
		r.notifier.Enable(notify.EventGenerate, r.generateAlerts)
	}
	r.activeTheme = r.resolveTheme()

	cmdName := r.fs.Arg(0)
	subArgs := r.fs.Args()[1:]

	var (
		cmd runnable
		err error
	)
	switch cmdName {
	case "edit":
		cmd, err = parseEditCmd(subArgs, r)
	case "render":
		cmd, err = parseRenderCmd(subArgs, r)
	case "ai":
		cmd, err = parseAICmd(subArgs, r)
	case "config":
		cmd, err = parseConfigCmd(subArgs, r)
	case "version":
		cmd = &versionCmd{r: r}
	default:
		err = &UsageError{of: r}
	}
	if err != nil {
		return err
	}
	return cmd.Run()
}

func (r *root) resolveTheme() *theme.Theme {
	name := r.themeName
	if name == "" {
		name = os.Getenv("STUDIO_THEME")
	}
	if name == "" {
		name = r.config.Theme
	}
	t, err := r.config.ResolveTheme(theme.NewLoader(), name)
	if err != nil {
		if name != "" && name != "default" {
			fmt.Fprintf(os.Stderr, "warning: failed to load theme '%s': %v. using default.\n", name, err)
		}
		t = theme.Default()
	}
	return t
}

// newServiceFn builds the generation backend. Tests swap it for a mock.
var newServiceFn = func(cfg *config.Config) (genai.Service, error) {
	return genai.NewOpenAI(genai.Config{
		APIKey:     cfg.APIKey(),
		BaseURL:    cfg.AI.BaseURL,
		Model:      cfg.AI.Model,
		ImageModel: cfg.AI.ImageModel,
		Timeout:    cfg.Timeout(),
	})
}

// newSession creates a session configured from the loaded settings. A
// missing API key leaves the session without a generation service.
func (r *root) newSession(opts ...studio.Option) *studio.Session {
	cfg := r.config
	if cfg == nil {
		cfg = config.New()
	}
	base := []studio.Option{
		studio.WithDebounceWindow(cfg.DebounceWindow()),
		studio.WithHistoryLimit(cfg.History.Limit),
		studio.WithTheme(r.activeTheme),
	}
	if svc, err := newServiceFn(cfg); err == nil {
		base = append(base, studio.WithService(svc))
	} else if !errors.Is(err, genai.ErrNoAPIKey) {
		fmt.Fprintf(os.Stderr, "warning: generation service unavailable: %v\n", err)
	}
	return studio.New(append(base, opts...)...)
}

func (r *root) subcommand(name string) string {
	return strings.TrimSpace(strings.Join([]string{r.program, name}, " "))
}

func main() {
	r := newRoot()
	if err := r.Run(os.Args[1:]); err != nil {
		var uerr *UsageError
		if errors.As(err, &uerr) {
			fmt.Fprintln(os.Stderr, uerr.Error())
		} else {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}

func (r *root) notifyExport(path string) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.Export(path)
}

func (r *root) notifyGenerate(action string, img image.Image, err error) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.Generate(action, img, err)
}
