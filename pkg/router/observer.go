package router

// Command names a navigation command.
type Command string

const (
	CommandNavigate Command = "navigate"
	CommandRedirect Command = "redirect"
	CommandGo       Command = "go"
)

// Observer is told about every navigation decision a router makes. It is
// called synchronously on the router's goroutine.
type Observer interface {
	// NavigationIssued is called before the backend is asked to move.
	NavigationIssued(cmd Command)

	// NavigationSkipped is called when a navigate or redirect is dropped
	// because the target matches the current location.
	NavigationSkipped(cmd Command)
}

type nopObserver struct{}

func (nopObserver) NavigationIssued(Command)  {}
func (nopObserver) NavigationSkipped(Command) {}
