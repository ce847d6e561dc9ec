package domain

const (
	DefaultLimit = 50
	MaxLimit     = 100
)

// Window describes which slice of the feed to fetch.
type Window struct {
	Limit  int `validate:"min=1,max=100"`
	Offset int `validate:"min=0"`
}

func DefaultWindow() Window {
	return Window{Limit: DefaultLimit, Offset: 0}
}

// FullHistoryWindow is the window the controller starts from: the oldest
// MaxLimit messages, which is the whole history while it still fits.
func FullHistoryWindow() Window {
	return Window{Limit: MaxLimit, Offset: 0}
}

// TailWindow is the widest window holding the newest of total messages.
func TailWindow(total int) Window {
	return Window{Limit: MaxLimit, Offset: max(0, total-MaxLimit)}
}
