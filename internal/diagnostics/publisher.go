// Package diagnostics pushes catalog activity to a socket.io hub so external
// tools (a diagnostic UI, a test harness) can follow module loading live.
package diagnostics

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/vk/modkit/internal/ctxlog"
	"github.com/vk/modkit/internal/modularity"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Event names emitted to the hub.
const (
	EventModuleAdded = "module_added"
	EventModuleState = "module_state"
)

// DefaultConnectTimeout bounds how long Connect waits for the handshake.
const DefaultConnectTimeout = 15 * time.Second

// Emitter is the part of a socket.io client the publisher uses.
type Emitter interface {
	Emit(ev string, args ...any) error
}

// ModuleAdded is the payload of EventModuleAdded.
type ModuleAdded struct {
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Mode      string   `json:"mode"`
	Group     string   `json:"group,omitempty"`
	DependsOn []string `json:"depends_on"`
	Index     int      `json:"index"`
}

// ModuleState is the payload of EventModuleState.
type ModuleState struct {
	Name  string `json:"name"`
	State string `json:"state"`
}

// Publisher forwards catalog changes and state transitions to an Emitter.
type Publisher struct {
	mu      sync.Mutex
	emitter Emitter
	onError func(event string, err error)
	close   func()
}

// NewPublisher creates a publisher on top of emitter. onError, when set, is
// called for emit failures; publishing never blocks module loading.
func NewPublisher(emitter Emitter, onError func(event string, err error)) *Publisher {
	if onError == nil {
		onError = func(string, error) {}
	}
	return &Publisher{emitter: emitter, onError: onError, close: func() {}}
}

// Connect dials a socket.io hub over websocket and returns a publisher bound
// to the connection.
func Connect(ctx context.Context, rawURL, namespace string) (*Publisher, error) {
	logger := ctxlog.FromContext(ctx).With("component", "diagnostics", "url", rawURL)
	logger.Debug("Connecting to diagnostics hub...")

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse diagnostics URL: %w", err)
	}
	if namespace == "" {
		namespace = "/"
	}

	opts := socket.DefaultOptions()
	if parsedURL.Path != "" {
		opts.SetPath(parsedURL.Path)
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Connected to diagnostics hub", "sid", io.Id())
		signal(connectChan, nil)
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		signal(connectChan, err)
	})
	io.Connect()

	timeout := time.NewTimer(DefaultConnectTimeout)
	defer timeout.Stop()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("diagnostics hub connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("diagnostics hub connection cancelled: %w", ctx.Err())
	case <-timeout.C:
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for diagnostics hub", DefaultConnectTimeout)
	}

	p := NewPublisher(io, func(event string, err error) {
		logger.Warn("Failed to publish diagnostics event", "event", event, "error", err)
	})
	p.close = func() { io.Disconnect() }
	return p, nil
}

// Attach subscribes the publisher to catalog insertions. The returned function
// detaches it again.
func (p *Publisher) Attach(catalog *modularity.Catalog) (detach func()) {
	return catalog.Subscribe(func(ev modularity.ChangeEvent) {
		if ev.Action != modularity.ActionAdd || ev.Item == nil {
			return
		}
		p.emit(EventModuleAdded, ModuleAdded{
			Name:      ev.Item.Name(),
			Type:      modularity.TypeName(ev.Item.Type()),
			Mode:      ev.Item.Mode.String(),
			Group:     ev.Item.Group,
			DependsOn: append([]string{}, ev.Item.DependsOn...),
			Index:     ev.Index,
		})
	})
}

// StateChanged publishes a state transition. Its signature matches
// modularity.StateListener.
func (p *Publisher) StateChanged(d *modularity.Descriptor, state modularity.ModuleState) {
	p.emit(EventModuleState, ModuleState{Name: d.Name(), State: state.String()})
}

// Close disconnects from the hub when the publisher owns the connection.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.close()
	p.close = func() {}
}

func (p *Publisher) emit(event string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.emitter.Emit(event, payload); err != nil {
		p.onError(event, err)
	}
}

// signal delivers the first connection outcome and drops later ones.
func signal(ch chan<- error, err error) {
	select {
	case ch <- err:
	default:
	}
}
