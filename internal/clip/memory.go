package clip

import "sync"

// Memory is an in-process clipboard. WriteText immediately signals Watch.
type Memory struct {
	mu      sync.Mutex
	text    string
	has     bool
	err     error
	watchCh chan struct{}
	closed  bool
}

// NewMemory returns an empty in-process clipboard.
func NewMemory() *Memory {
	m := &Memory{watchCh: make(chan struct{}, 1)}
	notify(m.watchCh)
	return m
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) ReadText() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	if !m.has {
		return "", ErrNoText
	}
	return m.text, nil
}

func (m *Memory) WriteText(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	m.has = true
	if !m.closed {
		notify(m.watchCh)
	}
	return nil
}

// Clear empties the clipboard so that reads return ErrNoText.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = ""
	m.has = false
	if !m.closed {
		notify(m.watchCh)
	}
}

// FailReads makes every ReadText return err until called again with nil.
func (m *Memory) FailReads(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

func (m *Memory) Watch() <-chan struct{} { return m.watchCh }

func (m *Memory) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.watchCh)
	}
}
