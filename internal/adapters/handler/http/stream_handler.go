package http

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/vncsmyrnk/busvote/internal/core/ports"
	"github.com/vncsmyrnk/busvote/internal/core/services"
)

// ChangeFeed signals that voting data changed somewhere, for example on
// another server instance.
type ChangeFeed interface {
	Subscribe(ctx context.Context) <-chan struct{}
}

type streamMessage struct {
	Type     string    `json:"type"`
	TopicID  uuid.UUID `json:"topic_id,omitempty"`
	OptionID uuid.UUID `json:"option_id,omitempty"`
}

const (
	messageRefresh  = "refresh"
	messageCastVote = "cast_vote"

	writeWait = 10 * time.Second
)

// StreamHandler serves a live voting session over a websocket. The
// client receives the session state after every change and may send
// refresh or cast_vote messages.
type StreamHandler struct {
	service  ports.VotingService
	interval time.Duration
	feed     ChangeFeed
	upgrader websocket.Upgrader
	log      *slog.Logger
}

// NewStreamHandler accepts upgrades from the given origins only; a nil
// feed disables cross-instance refreshes.
func NewStreamHandler(service ports.VotingService, interval time.Duration, feed ChangeFeed, origins []string, log *slog.Logger) *StreamHandler {
	return &StreamHandler{
		service:  service,
		interval: interval,
		feed:     feed,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(origins, origin) || slices.Contains(origins, "*")
			},
		},
		log: log,
	}
}

func (h *StreamHandler) Serve(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	session := services.NewSession(h.service, user, h.interval, h.log)
	go session.Run(ctx)

	if h.feed != nil {
		changes := h.feed.Subscribe(ctx)
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case _, ok := <-changes:
					if !ok {
						return
					}
					session.Refresh(ctx)
				}
			}
		}()
	}

	go func() {
		defer cancel()
		for {
			var msg streamMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			switch msg.Type {
			case messageRefresh:
				session.Refresh(ctx)
			case messageCastVote:
				session.CastVote(ctx, msg.TopicID, msg.OptionID)
			default:
				h.log.Debug("ignoring stream message", slog.String("type", msg.Type))
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		case state := <-session.Updates():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(state); err != nil {
				h.log.Warn("websocket write failed", slog.Any("error", err))
				return
			}
		}
	}
}
