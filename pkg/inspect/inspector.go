package inspect

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"

	"github.com/lattice-dev/lattice/pkg/lattice"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Inspector holds named observable roots and serves them over HTTP.
type Inspector struct {
	mu       sync.RWMutex
	roots    map[string]any
	logger   *slog.Logger
	upgrader websocket.Upgrader
	seq      atomic.Uint64
}

// Option configures an Inspector.
type Option func(*Inspector)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(i *Inspector) {
		i.logger = logger
	}
}

// WithCheckOrigin sets the WebSocket origin check. The default accepts
// every origin, which suits the development tooling this package targets.
func WithCheckOrigin(check func(*http.Request) bool) Option {
	return func(i *Inspector) {
		i.upgrader.CheckOrigin = check
	}
}

// New creates an Inspector.
func New(opts ...Option) *Inspector {
	ins := &Inspector{
		roots: make(map[string]any),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(ins)
	}
	if ins.logger == nil {
		ins.logger = slog.Default().With("component", "inspect")
	}
	return ins
}

// Register exposes a wrapped root under name, replacing any previous root
// with that name. The root must be a wrapped value.
func (i *Inspector) Register(name string, root any) error {
	if name == "" {
		return fmt.Errorf("%w: root name must not be empty", lattice.ErrInvalidArgument)
	}
	if !lattice.IsWrapped(root) {
		return lattice.ErrNotWrapped
	}
	i.mu.Lock()
	i.roots[name] = root
	i.mu.Unlock()
	i.logger.Info("root registered", "name", name, "shape", lattice.ShapeOf(root))
	return nil
}

// Deregister removes a named root. Removing an unknown name is a no-op.
func (i *Inspector) Deregister(name string) {
	i.mu.Lock()
	delete(i.roots, name)
	i.mu.Unlock()
}

func (i *Inspector) root(name string) (any, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	v, ok := i.roots[name]
	return v, ok
}

// Handler returns the inspector's HTTP routes:
//
//	GET /roots              → list of registered roots
//	GET /roots/{name}       → plain snapshot of the root
//	GET /roots/{name}/meta  → wrapper metadata
//	GET /roots/{name}/events → WebSocket stream of change events
func (i *Inspector) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/roots", i.handleList)
	r.Get("/roots/{name}", i.handleSnapshot)
	r.Get("/roots/{name}/meta", i.handleMeta)
	r.Get("/roots/{name}/events", i.handleEvents)
	return r
}

type rootInfo struct {
	Name      string `json:"name"`
	Shape     string `json:"shape"`
	Listeners int    `json:"listeners"`
	Parents   int    `json:"parents"`
	Paused    bool   `json:"paused"`
}

func (i *Inspector) handleList(w http.ResponseWriter, r *http.Request) {
	i.mu.RLock()
	infos := make([]rootInfo, 0, len(i.roots))
	for name, root := range i.roots {
		n := lattice.Meta(root)
		infos = append(infos, rootInfo{
			Name:      name,
			Shape:     lattice.ShapeOf(root),
			Listeners: n.ListenerCount(),
			Parents:   n.ParentCount(),
			Paused:    n.Paused(),
		})
	}
	i.mu.RUnlock()

	sort.Slice(infos, func(a, b int) bool { return infos[a].Name < infos[b].Name })
	writeJSON(w, http.StatusOK, infos)
}

func (i *Inspector) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	root, ok := i.root(chi.URLParam(r, "name"))
	if !ok {
		http.Error(w, "unknown root", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, jsonSafe(lattice.Snapshot(root)))
}

type metaInfo struct {
	SchemaVersion int    `json:"schema_version"`
	Shape         string `json:"shape"`
	Listeners     int    `json:"listeners"`
	Parents       int    `json:"parents"`
	Paused        bool   `json:"paused"`
}

func (i *Inspector) handleMeta(w http.ResponseWriter, r *http.Request) {
	root, ok := i.root(chi.URLParam(r, "name"))
	if !ok {
		http.Error(w, "unknown root", http.StatusNotFound)
		return
	}
	n := lattice.Meta(root)
	writeJSON(w, http.StatusOK, metaInfo{
		SchemaVersion: n.SchemaVersion(),
		Shape:         lattice.ShapeOf(root),
		Listeners:     n.ListenerCount(),
		Parents:       n.ParentCount(),
		Paused:        n.Paused(),
	})
}

// changeEvent is one frame on the event stream. Seq orders frames within
// the process; the first frame of every stream carries the snapshot taken
// at subscription time.
type changeEvent struct {
	Seq      uint64 `json:"seq"`
	Name     string `json:"name"`
	Source   string `json:"source"`
	Snapshot any    `json:"snapshot"`
}

func (i *Inspector) handleEvents(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	root, ok := i.root(name)
	if !ok {
		http.Error(w, "unknown root", http.StatusNotFound)
		return
	}

	conn, err := i.upgrader.Upgrade(w, r, nil)
	if err != nil {
		i.logger.Error("websocket upgrade failed", "name", name, "error", err)
		return
	}
	defer conn.Close()

	// Buffered so a slow client drops frames instead of blocking the
	// mutating goroutine inside a listener callback.
	events := make(chan changeEvent, 64)

	listener := lattice.NewListener(func(value, source any) {
		ev := changeEvent{
			Seq:      i.seq.Add(1),
			Name:     name,
			Source:   lattice.ShapeOf(source),
			Snapshot: jsonSafe(lattice.Snapshot(value)),
		}
		select {
		case events <- ev:
		default:
			i.logger.Warn("event stream backlogged, frame dropped", "name", name)
		}
	})

	if _, err := lattice.Watch(root, listener); err != nil {
		i.logger.Error("watch failed", "name", name, "error", err)
		return
	}
	defer lattice.Unwatch(root, listener)

	// Initial frame: the state as of subscription.
	events <- changeEvent{
		Seq:      i.seq.Add(1),
		Name:     name,
		Source:   "subscribe",
		Snapshot: jsonSafe(lattice.Snapshot(root)),
	}

	// Reader detects the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case ev := <-events:
			if err := conn.WriteJSON(ev); err != nil {
				if websocket.IsUnexpectedCloseError(err,
					websocket.CloseGoingAway,
					websocket.CloseNormalClosure) {
					i.logger.Error("write error", "name", name, "error", err)
				}
				return
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// jsonSafe rewrites snapshot values so they survive JSON encoding: maps
// keyed by arbitrary types become string-keyed.
func jsonSafe(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = jsonSafe(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprintf("%v", k)] = jsonSafe(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for idx, el := range t {
			out[idx] = jsonSafe(el)
		}
		return out
	}
	return v
}
