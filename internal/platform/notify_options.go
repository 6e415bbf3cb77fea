package platform

// AppName is reported to the notification service as the sending application.
const AppName = "Studio"

// Urgency ranks a notification for platforms that support it.
type Urgency byte

const (
	Low Urgency = iota
	Normal
	Critical
)

// Options configures how a notification is displayed on the host platform.
type Options struct {
	// IconPath, when non-empty, points to an image file the notification center
	// should display with the notification if supported by the platform.
	IconPath string
	// ExpireMS is the display time in milliseconds. Zero uses 5000.
	ExpireMS int32
	Urgency  Urgency
}

func (o Options) expire() int32 {
	if o.ExpireMS <= 0 {
		return 5000
	}
	return o.ExpireMS
}
