// Package monitor serves a live view of an in-progress simulation over a
// websocket: a ping/pong keepalive loop throttles how often the latest
// sink.Row snapshot is pushed to clients as JSON, routed with gorilla/mux.
package monitor

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"
	"github.com/rs/zerolog/log"

	"gmbp/sink"
)

const (
	writeWait        = 1 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	closeGracePeriod = 10 * time.Second
	pubResolution    = 100 * time.Millisecond
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// LiveSink adapts a single simulation's output rows into a broadcastable
// feed a Server can publish over websocket, without the server needing to
// know anything about the simulation loop producing them. It wraps another
// sink.Sink (typically a sink.FileSink) and forwards every row to it
// unmodified, tee-style, so monitoring never changes what is written to
// disk or perturbs the trajectory.
type LiveSink struct {
	inner   sink.Sink
	updates chan sink.Row
}

// NewLiveSink wraps inner, publishing every row written through it on the
// channel returned by Updates. The channel is dropped from (rows are
// discarded, not blocked on) once its buffer is full, so a slow or absent
// client never backpressures the simulation.
func NewLiveSink(inner sink.Sink) *LiveSink {
	return &LiveSink{inner: inner, updates: make(chan sink.Row, 16)}
}

func (l *LiveSink) WriteRow(row sink.Row) error {
	if err := l.inner.WriteRow(row); err != nil {
		return err
	}
	row.State = row.State.Clone()
	select {
	case l.updates <- row:
	default:
	}
	return nil
}

func (l *LiveSink) Close() error {
	close(l.updates)
	return l.inner.Close()
}

// Updates returns the row feed for a Server to publish.
func (l *LiveSink) Updates() <-chan sink.Row { return l.updates }

// Server serves a single page showing the latest simulated row, pushed to
// clients over a websocket as it updates. This is intentionally a
// single-client prototype: a production monitor would fan one LiveSink out
// to many connections.
type Server struct {
	addr string
	rows <-chan sink.Row
	last sink.Row
}

// NewServer constructs a Server publishing rows from feed.
func NewServer(addr string, feed <-chan sink.Row) *Server {
	return &Server{addr: addr, rows: feed}
}

// Serve blocks, serving the index page and websocket endpoint until ctx is
// cancelled or the listener fails.
func (s *Server) Serve(ctx context.Context) error {
	r := mux.NewRouter()
	r.HandleFunc("/", s.serveIndex).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.serveWebsocket)

	srv := &http.Server{Addr: s.addr, Handler: r}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		return srv.Close()
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("monitor: %w", err)
		}
		return nil
	}
}

func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	_, _ = w.Write([]byte(indexHTML))
}

func (s *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		log.Error().Err(err).Msg("monitor: websocket upgrade failed")
		return
	}
	defer closeWebsocket(ws)
	s.publishRows(r.Context(), ws)
}

// publishRows pushes rows from s.rows to ws at most every pubResolution,
// interleaved with ping/pong keepalive.
func (s *Server) publishRows(ctx context.Context, ws *websocket.Conn) {
	last := time.Now()
	pubCtx, cancelPub := context.WithCancel(ctx)
	defer cancelPub()
	pinger := channerics.NewTicker(pubCtx.Done(), pingPeriod/2)
	lastPong := time.Now()

	pong := make(chan struct{})
	defer close(pong)
	ws.SetPongHandler(func(string) error {
		select {
		case pong <- struct{}{}:
		case <-pubCtx.Done():
		}
		return nil
	})

	go func() {
		for {
			select {
			case <-pubCtx.Done():
				return
			default:
				if _, _, err := ws.ReadMessage(); err != nil {
					cancelPub()
					return
				}
			}
		}
	}()

	for {
		select {
		case <-pubCtx.Done():
			return
		case <-pinger:
			if time.Since(lastPong) > pingPeriod {
				return
			}
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-pong:
			lastPong = time.Now()
		case row, ok := <-s.rows:
			if !ok {
				return
			}
			if time.Since(last) < pubResolution {
				continue
			}
			last = time.Now()
			s.last = row
			if err := ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := ws.WriteJSON(row); err != nil {
				return
			}
		}
	}
}

func closeWebsocket(ws *websocket.Conn) {
	_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	_ = ws.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	time.Sleep(closeGracePeriod)
	_ = ws.Close()
}

const indexHTML = `<!DOCTYPE html>
<html>
<head><title>gmbp monitor</title></head>
<body>
<pre id="row">waiting for data...</pre>
<script>
  const ws = new WebSocket("ws://" + location.host + "/ws");
  ws.onmessage = (ev) => { document.getElementById("row").textContent = ev.data; };
</script>
</body>
</html>`
