package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/example/studio/internal/imageio"
)

const (
	DefaultModel      = "gpt-4o-mini"
	DefaultImageModel = "gpt-image-1"
	DefaultTimeout    = 120 * time.Second
)

// ErrNoAPIKey is returned by NewOpenAI when no key is configured.
var ErrNoAPIKey = errors.New("no API key configured")

// Config selects the endpoint and models of the OpenAI backend.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	ImageModel string
	Timeout    time.Duration
}

// OpenAI implements Service on the OpenAI image and chat APIs.
type OpenAI struct {
	client     *openai.Client
	model      string
	imageModel string
}

var _ Service = (*OpenAI)(nil)

// NewOpenAI returns a backend for cfg. Empty fields take the defaults.
func NewOpenAI(cfg Config) (*OpenAI, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNoAPIKey
	}
	cc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		cc.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	cc.HTTPClient = &http.Client{Timeout: timeout}
	o := &OpenAI{
		client:     openai.NewClientWithConfig(cc),
		model:      cfg.Model,
		imageModel: cfg.ImageModel,
	}
	if o.model == "" {
		o.model = DefaultModel
	}
	if o.imageModel == "" {
		o.imageModel = DefaultImageModel
	}
	return o, nil
}

// dall-e models default to URL responses; gpt-image models only return
// base64 and reject the parameter.
func (o *OpenAI) responseFormat() string {
	if strings.HasPrefix(o.imageModel, "dall-e") {
		return openai.CreateImageResponseFormatB64JSON
	}
	return ""
}

// EditOrCreate generates an image from the prompt alone, or edits the
// references when any are given. Several references are laid out left to
// right on one sheet since the edit endpoint takes a single image.
func (o *OpenAI) EditOrCreate(ctx context.Context, prompt string, images []*imageio.Encoded) (*imageio.Encoded, error) {
	images = compact(images)
	if len(images) == 0 {
		resp, err := o.client.CreateImage(ctx, openai.ImageRequest{
			Prompt:         prompt,
			Model:          o.imageModel,
			N:              1,
			ResponseFormat: o.responseFormat(),
		})
		if err != nil {
			return nil, serviceError("create image", err)
		}
		return firstImage(resp)
	}

	sheet, err := referenceSheet(images)
	if err != nil {
		return nil, err
	}
	f, err := tempPNG(sheet)
	if err != nil {
		return nil, err
	}
	defer func() {
		f.Close()
		if err := os.Remove(f.Name()); err != nil {
			log.Printf("genai: remove temp: %v", err)
		}
	}()

	resp, err := o.client.CreateEditImage(ctx, openai.ImageEditRequest{
		Image:          f,
		Prompt:         prompt,
		Model:          o.imageModel,
		N:              1,
		ResponseFormat: o.responseFormat(),
	})
	if err != nil {
		return nil, serviceError("edit image", err)
	}
	return firstImage(resp)
}

// GenerateTextStream streams a chat completion for prompt.
func (o *OpenAI) GenerateTextStream(ctx context.Context, prompt string, onFragment func(string)) error {
	msgs := []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: prompt}}
	return o.stream(ctx, "generate text", msgs, onFragment)
}

// AnalyzeImageStream streams a chat completion about image.
func (o *OpenAI) AnalyzeImageStream(ctx context.Context, prompt string, image *imageio.Encoded, onFragment func(string)) error {
	parts := []openai.ChatMessagePart{}
	if image != nil {
		parts = append(parts, openai.ChatMessagePart{
			Type:     openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{URL: image.String(), Detail: openai.ImageURLDetailAuto},
		})
	}
	parts = append(parts, openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: prompt})
	msgs := []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, MultiContent: parts}}
	return o.stream(ctx, "analyze image", msgs, onFragment)
}

func (o *OpenAI) stream(ctx context.Context, op string, msgs []openai.ChatCompletionMessage, onFragment func(string)) error {
	stream, err := o.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: msgs,
		Stream:   true,
	})
	if err != nil {
		return serviceError(op, err)
	}
	defer stream.Close()
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return serviceError(op, err)
		}
		for _, ch := range resp.Choices {
			if ch.Delta.Content != "" && onFragment != nil {
				onFragment(ch.Delta.Content)
			}
		}
	}
}

func serviceError(op string, err error) error {
	se := &ServiceError{Op: op, Err: err}
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		se.Status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		se.Status = reqErr.HTTPStatusCode
	}
	return se
}

func firstImage(resp openai.ImageResponse) (*imageio.Encoded, error) {
	for _, d := range resp.Data {
		if d.B64JSON == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(d.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoImageInResponse, err)
		}
		return imageio.Read(bytes.NewReader(data))
	}
	return nil, ErrNoImageInResponse
}

// referenceSheet places the images side by side, top aligned, on a
// transparent canvas. A single image is returned unchanged.
func referenceSheet(images []*imageio.Encoded) (image.Image, error) {
	decoded := make([]image.Image, 0, len(images))
	w, h := 0, 0
	for _, e := range images {
		img, err := e.Decode()
		if err != nil {
			return nil, err
		}
		decoded = append(decoded, img)
		w += img.Bounds().Dx()
		h = max(h, img.Bounds().Dy())
	}
	if len(decoded) == 1 {
		return decoded[0], nil
	}
	sheet := image.NewRGBA(image.Rect(0, 0, w, h))
	x := 0
	for _, img := range decoded {
		b := img.Bounds()
		draw.Draw(sheet, image.Rect(x, 0, x+b.Dx(), b.Dy()), img, b.Min, draw.Src)
		x += b.Dx()
	}
	return sheet, nil
}

func tempPNG(img image.Image) (*os.File, error) {
	enc, err := imageio.EncodePNG(img)
	if err != nil {
		return nil, err
	}
	f, err := os.CreateTemp("", "studio-edit-*.png")
	if err != nil {
		return nil, fmt.Errorf("temp file: %w", err)
	}
	if _, err := f.Write(enc.Data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("temp file: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("temp file: %w", err)
	}
	return f, nil
}
