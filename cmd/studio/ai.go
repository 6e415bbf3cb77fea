package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"os"
	"strings"

	"github.com/example/studio/internal/aitools"
	"github.com/example/studio/internal/imageio"
	"github.com/example/studio/internal/studio"
)

type refList []*imageio.Encoded

func (l *refList) String() string { return fmt.Sprintf("%d images", len(*l)) }

func (l *refList) Set(path string) error {
	enc, err := imageio.ReadFile(path)
	if err != nil {
		return err
	}
	*l = append(*l, enc)
	return nil
}

type aiCmd struct {
	*root
	fs            *flag.FlagSet
	op            string
	file          string
	fromClipboard bool
	prompt        string
	refs          refList
	out           io.Writer
	exportFlags
}

func (a *aiCmd) Program() string        { return a.root.subcommand("ai") }
func (a *aiCmd) FlagSet() *flag.FlagSet { return a.fs }

func parseAICmd(args []string, r *root) (*aiCmd, error) {
	fs := flag.NewFlagSet("ai", flag.ExitOnError)
	a := &aiCmd{root: r, fs: fs, out: os.Stdout}
	fs.Usage = usageFunc(a)
	fs.StringVar(&a.file, "file", "", "source image")
	fs.BoolVar(&a.fromClipboard, "from-clipboard", false, "use the image on the clipboard as source")
	fs.StringVar(&a.prompt, "prompt", "", "instruction for generate, edit, text and analyze")
	fs.Var(&a.refs, "ref", "extra reference image for edit (repeatable)")
	fs.StringVar(&a.output, "output", "generated.png", "output file")
	fs.StringVar(&a.format, "format", string(r.config.Export.Format), "output format (png or jpeg)")
	fs.Float64Var(&a.quality, "quality", r.config.Export.Quality, "jpeg quality between 0.1 and 1")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() < 1 {
		return nil, &UsageError{of: a}
	}
	a.op = fs.Arg(0)
	if a.prompt == "" && fs.NArg() > 1 {
		a.prompt = strings.Join(fs.Args()[1:], " ")
	}
	return a, nil
}

func (a *aiCmd) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.root.config.Timeout())
	defer cancel()

	switch a.op {
	case "generate":
		return a.runGenerate(ctx)
	case "text":
		return a.runText(ctx)
	case "edit", "upscale", "remove-bg", "analyze":
	default:
		return fmt.Errorf("unknown ai command: %s", a.op)
	}

	enc, err := loadInput(a.file, a.fromClipboard)
	if err != nil {
		return err
	}
	sess := a.root.newSession()
	defer sess.Close()
	if err := sess.Load(enc); err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}

	switch a.op {
	case "analyze":
		return a.stream(sess.Analyze(ctx, a.prompt, a.fragment))
	case "edit":
		err = sess.Submit(ctx, a.prompt, a.refs...)
	case "upscale":
		err = sess.Upscale(ctx)
	case "remove-bg":
		if err = sess.SelectSubject(ctx); err == nil {
			err = sess.RemoveBackground(ctx)
		}
	}
	if err != nil {
		a.root.notifyGenerate(a.op, nil, err)
		return err
	}
	sess.AcceptCandidate()
	return a.save(sess.Export)
}

// runGenerate creates an image from the prompt and references alone.
func (a *aiCmd) runGenerate(ctx context.Context) error {
	svc, err := newServiceFn(a.root.config)
	if err != nil {
		return err
	}
	enc, err := aitools.New(svc).Submit(ctx, a.prompt, a.refs)
	if err != nil {
		a.root.notifyGenerate(a.op, nil, err)
		return err
	}
	img, err := enc.DecodeRGBA()
	if err != nil {
		return fmt.Errorf("result: %w", err)
	}
	return a.save(func(f imageio.Format, q float64) (*imageio.Encoded, error) {
		return imageio.Encode(img, f, q)
	})
}

func (a *aiCmd) runText(ctx context.Context) error {
	sess := a.root.newSession()
	defer sess.Close()
	return a.stream(sess.GenerateText(ctx, a.prompt, a.fragment))
}

func (a *aiCmd) fragment(s string) { fmt.Fprint(a.out, s) }

func (a *aiCmd) stream(err error) error {
	if err != nil {
		if errors.Is(err, studio.ErrNoService) {
			return fmt.Errorf("%w: set %s", err, a.root.config.AI.APIKeyEnv)
		}
		return err
	}
	fmt.Fprintln(a.out)
	return nil
}

func (a *aiCmd) save(export func(imageio.Format, float64) (*imageio.Encoded, error)) error {
	out, format, err := a.exportFlags.resolve(a.root)
	if err != nil {
		return err
	}
	enc, err := export(format, a.quality)
	if err != nil {
		return fmt.Errorf("failed to export: %w", err)
	}
	if err := a.root.writeOutput(out, enc); err != nil {
		return err
	}
	var preview image.Image
	if img, derr := enc.Decode(); derr == nil {
		preview = img
	}
	a.root.notifyGenerate(a.op, preview, nil)
	fmt.Fprintln(a.out, out)
	return nil
}
