package clip

// headlessBackend is a no-op clipboard backend for environments without a
// display server. It never produces Watch events and silently discards
// writes.
type headlessBackend struct {
	watchCh chan struct{}
}

// Headless returns the no-op backend.
func Headless() Backend {
	return &headlessBackend{watchCh: make(chan struct{})}
}

func (b *headlessBackend) Name() string           { return "headless (no-op)" }
func (b *headlessBackend) Read() (Content, error) { return Content{}, nil }
func (b *headlessBackend) Write(Content) error    { return nil }
func (b *headlessBackend) Watch() <-chan struct{} { return b.watchCh }
func (b *headlessBackend) Close()                 {}
