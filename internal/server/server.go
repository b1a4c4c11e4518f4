package server

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hit2hat/rigpanel/internal/display"
)

const (
	// streamWriteTimeout bounds a single SSE or WebSocket write so a stalled
	// client cannot pin its handler goroutine. Must be <= shutdown timeout.
	streamWriteTimeout = 5 * time.Second

	// shutdownTimeout is how long in-flight requests get on shutdown.
	shutdownTimeout = 5 * time.Second

	wsPingInterval = 30 * time.Second
	wsPongWait     = 60 * time.Second
	wsReadLimit    = 512

	defaultTitle = "rigpanel"

	titlePlaceholder    = "{{.Title}}"
	elementsPlaceholder = "{{.Elements}}"
)

// Elements is the element registry the server exposes.
//
// *display.Memory implements Elements.
type Elements interface {
	Elements() []display.Update
	Subscribe() <-chan display.Update
	Unsubscribe(ch <-chan display.Update)
}

// Action is a device command the dashboard can fire.
type Action interface {
	Name() string
	Fire(ctx context.Context)
}

// Server serves the rigpanel dashboard and its HTTP API.
//
// Routes:
//   - GET /: the embedded dashboard page, one element per declared id
//   - GET /api/elements: current element texts as JSON
//   - GET /api/sse: Server-Sent Events stream of element updates
//   - GET /ws: WebSocket stream of element updates
//   - POST /api/actions/{name}: fire a device action, 202 Accepted
type Server struct {
	elements   Elements
	actions    map[string]Action
	port       int
	httpServer *http.Server
	assets     fs.FS
	title      string
	logger     *slog.Logger
	upgrader   websocket.Upgrader
}

// NewServer creates a new HTTP [Server].
//
// assets may be nil, in which case "/" answers 500. The server is not
// started until [Server.Start] is called.
func NewServer(el Elements, actions []Action, port int, assets fs.FS, title string, logger *slog.Logger) *Server {
	byName := make(map[string]Action, len(actions))
	for _, a := range actions {
		byName[a.Name()] = a
	}
	return &Server{
		elements: el,
		actions:  byName,
		port:     port,
		assets:   assets,
		title:    title,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// the panel is served on the local network next to the device
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the router with every route registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/elements", s.handleElements)
	mux.HandleFunc("/api/sse", s.handleSSE)
	mux.HandleFunc("/api/actions/", s.handleAction)
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/", s.handleDashboard)
	return mux
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start returns once the listener is bound. When ctx is cancelled the server
// shuts down gracefully with a 5-second timeout. Returns an error if the
// port cannot be bound.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// request contexts end with ctx, which also stops streaming handlers
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

// handleDashboard serves the main dashboard page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	if s.assets == nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	content, err := fs.ReadFile(s.assets, "assets/index.html")
	if err != nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	title := s.title
	if title == "" {
		title = defaultTitle
	}

	rendered := strings.ReplaceAll(string(content), titlePlaceholder, html.EscapeString(title))
	rendered = strings.ReplaceAll(rendered, elementsPlaceholder, s.elementsHTML())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err = w.Write([]byte(rendered)); err != nil {
		s.logger.Error("failed to write dashboard response", "error", err)
	}
}

// elementsHTML renders one labelled slot per element. The slot id equals
// the element id so the page script can address it directly.
func (s *Server) elementsHTML() string {
	var b strings.Builder
	for _, el := range s.elements.Elements() {
		id := html.EscapeString(el.ID)
		fmt.Fprintf(&b, `<div class="metric"><span class="label">%s</span><span class="value" id="%s">%s</span></div>`,
			id, id, html.EscapeString(el.Text))
		b.WriteByte('\n')
	}
	return b.String()
}

// handleElements returns all current element texts as JSON.
func (s *Server) handleElements(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")

	if err := json.NewEncoder(w).Encode(s.elements.Elements()); err != nil {
		s.logger.Error("failed to encode elements response", "error", err)
	}
}

// handleAction fires the named device action without waiting for it.
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/api/actions/")
	action, ok := s.actions[name]
	if !ok {
		http.NotFound(w, r)
		return
	}

	action.Fire(r.Context())
	w.WriteHeader(http.StatusAccepted)
}

// handleSSE streams element updates via Server-Sent Events.
//
// Writes carry a deadline so a slow or vanished client cannot block the
// handler past shutdown.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)
	deadlinesSupported := true

	writeAndFlush := func(data []byte) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
				s.logger.Debug("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	ch := s.elements.Subscribe()
	defer s.elements.Unsubscribe(ch)

	for _, el := range s.elements.Elements() {
		data, err := json.Marshal(el)
		if err != nil {
			continue
		}
		if err := writeAndFlush(data); err != nil {
			return
		}
	}

	for {
		select {
		case u, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(u)
			if err != nil {
				continue
			}
			if err := writeAndFlush(data); err != nil {
				return
			}

		case <-r.Context().Done():
			// fires on client disconnect and on server shutdown (BaseContext)
			return
		}
	}
}

// handleWebSocket streams element updates as JSON text frames.
//
// The initial state is sent first, then every update. The client is pinged
// every 30 seconds and dropped when it stops answering.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	ch := s.elements.Subscribe()
	defer s.elements.Unsubscribe(ch)

	// the reader only exists to process pongs and notice the peer leaving
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		conn.SetReadLimit(wsReadLimit)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.logger.Debug("websocket read error", "error", err)
				}
				return
			}
		}
	}()

	send := func(u display.Update) error {
		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		return conn.WriteJSON(u)
	}

	for _, el := range s.elements.Elements() {
		if err := send(el); err != nil {
			return
		}
	}

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	for {
		select {
		case u, ok := <-ch:
			if !ok {
				return
			}
			if err := send(u); err != nil {
				return
			}

		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-gone:
			return

		case <-r.Context().Done():
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			return
		}
	}
}
