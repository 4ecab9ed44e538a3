package livesync

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/specialistvlad/pagegrid/internal/ctxlog"
	"github.com/specialistvlad/pagegrid/internal/editor"
	"github.com/specialistvlad/pagegrid/internal/metrics"
	"github.com/specialistvlad/pagegrid/internal/page"
	"github.com/zishang520/socket.io/v2/socket"
)

// Event names used by the hub in addition to the editor event kinds.
const (
	EventSubscribe   = "subscribe"
	EventUnsubscribe = "unsubscribe"
	EventSubscribed  = "subscribed"
	EventError       = "pagegrid.error"
)

// Hub is a socket.io server that broadcasts editor events to page rooms.
type Hub struct {
	io      *socket.Server
	handler http.Handler
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewHub creates a hub. m may be nil.
func NewHub(ctx context.Context, m *metrics.Metrics) *Hub {
	h := &Hub{
		io:      socket.NewServer(nil, nil),
		metrics: m,
		logger:  ctxlog.FromContext(ctx).With("component", "livesync"),
	}
	h.handler = h.io.ServeHandler(nil)
	h.io.On("connection", h.onConnection)
	return h
}

func (h *Hub) onConnection(clients ...any) {
	if len(clients) == 0 {
		return
	}
	client, ok := clients[0].(*socket.Socket)
	if !ok {
		h.logger.Warn("Ignoring connection without a socket.", "type", fmt.Sprintf("%T", clients[0]))
		return
	}
	h.accept(client)
}

func (h *Hub) accept(client *socket.Socket) {
	logger := h.logger.With("sid", client.Id())
	logger.Debug("Live sync client connected")
	h.metrics.LiveConnected(1)

	client.On(EventSubscribe, func(args ...any) {
		pageID, ok := pageArg(args)
		if !ok {
			client.Emit(EventError, "subscribe expects a page id")
			return
		}
		client.Join(roomFor(pageID))
		logger.Debug("Live sync client subscribed", "page", pageID)
		client.Emit(EventSubscribed, pageID)
	})
	client.On(EventUnsubscribe, func(args ...any) {
		if pageID, ok := pageArg(args); ok {
			client.Leave(roomFor(pageID))
		}
	})
	client.On("disconnect", func(...any) {
		logger.Debug("Live sync client disconnected")
		h.metrics.LiveConnected(-1)
	})
}

// Publish implements editor.Publisher.
func (h *Hub) Publish(ev editor.Event) {
	h.io.To(roomFor(ev.PageID)).Emit(string(ev.Kind), payload(ev))
	h.metrics.RecordLiveEvent(string(ev.Kind))
}

// payload flattens an event into plain JSON values so that the socket.io
// encoder never mistakes the raw config bytes for a binary attachment.
func payload(ev editor.Event) map[string]any {
	out := map[string]any{
		"kind":        string(ev.Kind),
		"page_id":     ev.PageID,
		"instance_id": ev.InstanceID,
		"organism_id": ev.OrganismID,
		"version":     ev.Version,
		"visible":     ev.Visible,
	}
	if len(ev.Config) > 0 {
		var config any
		if err := json.Unmarshal(ev.Config, &config); err == nil {
			out["config"] = config
		}
	}
	return out
}

// Handler serves the socket.io endpoint. Mount it under /socket.io/.
func (h *Hub) Handler() http.Handler {
	return h.handler
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.io.Close(nil)
}

func roomFor(pageID string) socket.Room {
	return socket.Room("page:" + pageID)
}

func pageArg(args []any) (string, bool) {
	if len(args) == 0 {
		return "", false
	}
	id, ok := args[0].(string)
	return id, ok && page.ValidID(id)
}

var _ editor.Publisher = (*Hub)(nil)
