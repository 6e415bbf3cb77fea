package notify

import (
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/studio/internal/imageio"
	"github.com/example/studio/internal/platform"
)

// Event identifies a notification trigger.
type Event string

const (
	// EventExport emits a notification when an edit is written to disk.
	EventExport Event = "export"
	// EventGenerate emits a notification when a generation request finishes.
	EventGenerate Event = "generate"
)

// EventPreference describes formatting for a notification event.
type EventPreference struct {
	Template string
}

// Preferences describes notification behaviour loaded from configuration.
type Preferences struct {
	Title  string
	Events map[Event]EventPreference
}

// DefaultPreferences returns the default notification settings.
func DefaultPreferences() Preferences {
	return Preferences{
		Title: platform.AppName,
		Events: map[Event]EventPreference{
			EventExport:   {Template: "Exported %s"},
			EventGenerate: {Template: "%s finished"},
		},
	}
}

// LoadPreferences reads configuration from environment variables.
func LoadPreferences() Preferences {
	prefs := DefaultPreferences()
	if v := strings.TrimSpace(os.Getenv("STUDIO_NOTIFY_TITLE")); v != "" {
		prefs.Title = v
	}
	apply := func(key string, event Event) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			eventPrefs := prefs.Events[event]
			eventPrefs.Template = v
			prefs.Events[event] = eventPrefs
		}
	}
	apply("STUDIO_NOTIFY_EXPORT_TEXT", EventExport)
	apply("STUDIO_NOTIFY_GENERATE_TEXT", EventGenerate)
	return prefs
}

// Sender delivers a rendered notification.
type Sender func(title, body string, opts platform.Options) error

// Notifier sends OS-level notifications based on the configured preferences.
type Notifier struct {
	prefs   Preferences
	enabled map[Event]bool
	send    Sender
}

// New creates a new Notifier using the provided preferences.
func New(prefs Preferences) *Notifier {
	cloned := Preferences{Title: prefs.Title, Events: make(map[Event]EventPreference, len(prefs.Events))}
	for k, v := range prefs.Events {
		cloned.Events[k] = v
	}
	return &Notifier{prefs: cloned, enabled: make(map[Event]bool), send: platform.Notify}
}

// WithSender replaces the platform delivery, mainly for tests.
func (n *Notifier) WithSender(s Sender) *Notifier {
	n.send = s
	return n
}

// Enable toggles the notifier for the provided event.
func (n *Notifier) Enable(event Event, enabled bool) {
	if n == nil {
		return
	}
	if n.enabled == nil {
		n.enabled = make(map[Event]bool)
	}
	n.enabled[event] = enabled
}

// Export sends an export notification including the written filename.
func (n *Notifier) Export(path string) {
	if !n.enabledFor(EventExport) {
		return
	}
	detail := strings.TrimSpace(path)
	opts := platform.Options{}
	if abs, err := filepath.Abs(path); err == nil {
		detail = abs
		if _, statErr := os.Stat(abs); statErr == nil {
			opts.IconPath = abs
		}
	}
	n.dispatch(EventExport, detail, opts)
}

// Generate reports a finished generation request. A nil err with a result
// image attaches a preview; a failure is sent with critical urgency.
func (n *Notifier) Generate(action string, result image.Image, err error) {
	if !n.enabledFor(EventGenerate) {
		return
	}
	if strings.TrimSpace(action) == "" {
		action = "generation"
	}
	opts := platform.Options{}
	if err != nil {
		opts.Urgency = platform.Critical
		n.dispatch(EventGenerate, fmt.Sprintf("%s failed: %v", action, err), opts)
		return
	}
	if result != nil {
		if path, cleanup, perr := createPreview(result); perr != nil {
			log.Printf("notification preview: %v", perr)
		} else {
			defer cleanup()
			opts.IconPath = path
		}
	}
	n.dispatch(EventGenerate, action, opts)
}

func (n *Notifier) enabledFor(event Event) bool {
	if n == nil {
		return false
	}
	if n.enabled == nil {
		return false
	}
	return n.enabled[event]
}

func (n *Notifier) dispatch(event Event, detail string, opts platform.Options) {
	template := strings.TrimSpace(n.template(event))
	if template == "" {
		return
	}
	body := strings.TrimSpace(fmt.Sprintf(template, strings.TrimSpace(detail)))
	if body == "" {
		return
	}
	send := n.send
	if send == nil {
		send = platform.Notify
	}
	if err := send(n.prefs.Title, body, opts); err != nil {
		log.Printf("notification %s: %v", event, err)
	}
}

func (n *Notifier) template(event Event) string {
	if pref, ok := n.prefs.Events[event]; ok {
		return pref.Template
	}
	return ""
}

func createPreview(img image.Image) (string, func(), error) {
	enc, err := imageio.EncodePNG(img)
	if err != nil {
		return "", nil, err
	}
	f, err := os.CreateTemp("", "studio-preview-*.png")
	if err != nil {
		return "", nil, err
	}
	path := f.Name()
	if _, err := f.Write(enc.Data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", nil, err
	}
	cleanup := func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("remove preview: %v", err)
		}
	}
	return path, cleanup, nil
}
