package channel

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/isidman/gurukukomi/internal/bus"
	"github.com/isidman/gurukukomi/internal/config"
)

//go:embed static
var webuiAssets embed.FS

const (
	webUIChannelName = "webui"
	webuiWriteWait   = 5 * time.Second
)

// webuiFrame is the JSON frame exchanged with the browser page.
type webuiFrame struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

// WebUIChannel serves the embedded chat page and bridges its WebSocket
// connections onto the bus. Each connection gets a numbered id that doubles
// as the chat id for replies.
type WebUIChannel struct {
	BaseChannel
	addr   string
	server *http.Server

	mu    sync.Mutex
	conns map[string]*websocket.Conn
	seq   int
}

func NewWebUIChannel(cfg config.WebUIConfig, gwCfg config.GatewayConfig, b *bus.MessageBus) (*WebUIChannel, error) {
	port := gwCfg.Port
	if port == 0 {
		port = config.DefaultPort
	}
	return &WebUIChannel{
		BaseChannel: NewBaseChannel(webUIChannelName, b, cfg.AllowFrom),
		addr:        fmt.Sprintf("%s:%d", gwCfg.Host, port),
		conns:       make(map[string]*websocket.Conn),
	}, nil
}

func (w *WebUIChannel) Start(ctx context.Context) error {
	assets, err := fs.Sub(webuiAssets, "static")
	if err != nil {
		return fmt.Errorf("embedded webui assets: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.FS(assets)))
	mux.HandleFunc("/ws", w.serveWS)

	w.server = &http.Server{Addr: w.addr, Handler: mux}
	go func() {
		log.Printf("[webui] serving chat page on %s", w.addr)
		if err := w.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[webui] server error: %v", err)
		}
	}()
	return nil
}

func (w *WebUIChannel) serveWS(wr http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(wr, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		log.Printf("[webui] websocket accept: %v", err)
		return
	}

	id := w.track(conn)
	log.Printf("[webui] %s connected", id)
	defer func() {
		w.untrack(id)
		conn.CloseNow()
		log.Printf("[webui] %s disconnected", id)
	}()

	w.readLoop(r.Context(), id, conn)
}

func (w *WebUIChannel) track(conn *websocket.Conn) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.seq++
	id := fmt.Sprintf("webui-%d", w.seq)
	w.conns[id] = conn
	return id
}

func (w *WebUIChannel) untrack(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.conns, id)
}

// readLoop publishes each chat frame the browser sends until the connection
// drops. Frames that are not chat messages, and senders outside the
// allowlist, are discarded.
func (w *WebUIChannel) readLoop(ctx context.Context, id string, conn *websocket.Conn) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}

		var frame webuiFrame
		if err := json.Unmarshal(data, &frame); err != nil || frame.Type != "message" || frame.Content == "" {
			continue
		}
		if !w.IsAllowed(id) {
			log.Printf("[webui] dropping message from unlisted client %s", id)
			continue
		}

		w.bus.Inbound <- bus.InboundMessage{
			Channel:   webUIChannelName,
			SenderID:  id,
			ChatID:    id,
			Content:   frame.Content,
			Timestamp: time.Now(),
		}
	}
}

// Send delivers a reply to the connection named by ChatID, or to every open
// connection when the target is gone or unspecified.
func (w *WebUIChannel) Send(msg bus.OutboundMessage) error {
	data, err := json.Marshal(webuiFrame{Type: "message", Content: msg.Content})
	if err != nil {
		return fmt.Errorf("encode webui frame: %w", err)
	}

	w.mu.Lock()
	targets := make([]*websocket.Conn, 0, 1)
	if conn, ok := w.conns[msg.ChatID]; ok {
		targets = append(targets, conn)
	} else {
		for _, conn := range w.conns {
			targets = append(targets, conn)
		}
	}
	w.mu.Unlock()

	for _, conn := range targets {
		if err := w.write(conn, data); err != nil {
			log.Printf("[webui] write failed: %v", err)
		}
	}
	return nil
}

func (w *WebUIChannel) write(conn *websocket.Conn, data []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), webuiWriteWait)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}

func (w *WebUIChannel) Stop() error {
	if w.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), webuiWriteWait)
		defer cancel()
		if err := w.server.Shutdown(ctx); err != nil {
			log.Printf("[webui] shutdown: %v", err)
		}
	}

	w.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(w.conns))
	for _, conn := range w.conns {
		conns = append(conns, conn)
	}
	w.conns = make(map[string]*websocket.Conn)
	w.mu.Unlock()

	for _, conn := range conns {
		conn.CloseNow()
	}
	log.Printf("[webui] stopped")
	return nil
}
