package messenger

// Level classifies a notification, mirroring log severity levels.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelSuccess
	LevelError
)

// Variant returns the UI variant string for the level.
func (l Level) Variant() string {
	switch l {
	case LevelDebug:
		return "default"
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "default"
	}
}

// Notification is a single human-readable message. Immutable once constructed.
type Notification struct {
	Text  string
	Level Level
}

// AnchorOrigin positions the snackbar on the client.
type AnchorOrigin struct {
	Vertical   string `json:"vertical"`
	Horizontal string `json:"horizontal"`
}

// WireMessage is the transport form of a Notification, one JSON object per
// message. The display hints are fixed functions of the level.
type WireMessage struct {
	Message          string       `json:"message"`
	Variant          string       `json:"variant"`
	Persist          bool         `json:"persist"`
	PreventDuplicate bool         `json:"preventDuplicate"`
	AutoHideDuration int          `json:"autoHideDuration"`
	AnchorOrigin     AnchorOrigin `json:"anchorOrigin"`
}

// Wire converts the notification to its transport form. Errors persist until
// dismissed and are never deduplicated; warnings linger twice as long.
func (n Notification) Wire() WireMessage {
	m := WireMessage{
		Message:          n.Text,
		Variant:          n.Level.Variant(),
		Persist:          false,
		PreventDuplicate: true,
		AutoHideDuration: 5000,
		AnchorOrigin:     AnchorOrigin{Vertical: "bottom", Horizontal: "left"},
	}
	switch n.Level {
	case LevelError:
		m.Persist = true
		m.PreventDuplicate = false
	case LevelWarning:
		m.AutoHideDuration = 10000
	}
	return m
}
