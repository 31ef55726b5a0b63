package clip

// headlessBackend is a no-op clipboard backend for environments without a
// display server (headless Linux servers, containers, CI).
// It never produces Watch events, every read fails and writes are discarded.
type headlessBackend struct {
	watchCh chan struct{}
}

// NewHeadless returns the no-op backend.
func NewHeadless() Backend {
	return &headlessBackend{watchCh: make(chan struct{})}
}

func (b *headlessBackend) Name() string              { return "headless (no-op)" }
func (b *headlessBackend) ReadText() (string, error) { return "", ErrUnavailable }
func (b *headlessBackend) WriteText(_ string) error  { return nil }
func (b *headlessBackend) Watch() <-chan struct{}    { return b.watchCh }
func (b *headlessBackend) Close()                    {}
