package monitor

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rajinda/sniffer/src/inspector"
	"github.com/rajinda/sniffer/src/logging"
)

type HttpServer struct {
	HttpServerAddr string
	WsHub          *WsHub
	StatsInterval  time.Duration

	mux *http.ServeMux
}

func NewHttpServer(httpServerAddr string, source Inspector, statsInterval time.Duration) *HttpServer {
	httpServer := &HttpServer{
		HttpServerAddr: httpServerAddr,
		WsHub:          newWsHub(source),
		StatsInterval:  statsInterval,
		mux:            http.NewServeMux(),
	}
	httpServer.mux.HandleFunc("/stats", httpServer.serveStats)
	httpServer.mux.HandleFunc("/ws", httpServer.serveWs)

	source.Subscribe(func(e inspector.Event) {
		httpServer.WsHub.Publish("Event", e)
	})
	return httpServer
}

func (s *HttpServer) Handler() http.Handler {
	return s.mux
}

// Run serves until ctx is done.
func (s *HttpServer) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.HttpServerAddr)
	if err != nil {
		return errors.Wrapf(err, "listen %s", s.HttpServerAddr)
	}
	return s.Serve(ctx, listener)
}

func (s *HttpServer) Serve(ctx context.Context, listener net.Listener) error {
	go s.WsHub.run(ctx)
	go s.publishStats(ctx)

	server := &http.Server{Handler: s.mux, ReadHeaderTimeout: 10 * time.Second}
	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	})
	defer stop()

	logging.Infof(logging.ProtoWS, "Monitor started on <u>%s</u>", listener.Addr())
	logging.Descf(logging.ProtoWS, "Connect to /ws for live packet events, or GET /stats for counters.")
	err := server.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return errors.Wrap(err, "monitor server")
}

func (s *HttpServer) publishStats(ctx context.Context) {
	if s.StatsInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.StatsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.WsHub.Publish("Stats", s.WsHub.statsMessage())
		}
	}
}

func (s *HttpServer) serveStats(w http.ResponseWriter, r *http.Request) {
	logging.Infof(logging.ProtoHTTP, "Request: <u>%s</u>", r.URL)
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.WsHub.statsMessage()); err != nil {
		logging.Errorf(logging.ProtoHTTP, "Error: %s", err)
	}
}

// serveWs handles websocket requests from the peer.
func (s *HttpServer) serveWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Errorf(logging.ProtoHTTP, "Error: %s", err)
		return
	}
	client := &WsClient{wsHub: s.WsHub, conn: conn, send: make(chan []byte, 256)}
	select {
	case client.wsHub.register <- client:
	case <-client.wsHub.done:
		conn.Close()
		return
	}

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	go client.readPump()
}
