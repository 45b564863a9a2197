package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ecoquest/ecoquest-api/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	clientSendSize = 16
)

// LeaderboardMessage is pushed to live subscribers of a school.
type LeaderboardMessage struct {
	Type    string                    `json:"type"`
	School  string                    `json:"school"`
	Entries []domain.LeaderboardEntry `json:"entries"`
}

type liveClient struct {
	conn   *websocket.Conn
	send   chan []byte
	school string
}

// rendered is a finished leaderboard render. msg is nil when the query failed.
type rendered struct {
	school string
	msg    []byte
}

// LiveHandler fans leaderboard updates out to websocket subscribers grouped by
// school. Run owns the subscriber map; everything else talks to it through channels.
// Leaderboards are queried off the Run loop, at most one per school at a time;
// refreshes that arrive meanwhile collapse into a single follow-up render.
type LiveHandler struct {
	svc        LeaderboardService
	upgrader   websocket.Upgrader
	clients    map[string]map[*liveClient]bool
	register   chan *liveClient
	unregister chan *liveClient
	refresh    chan string
	rendered   chan rendered
	done       chan struct{}

	// Owned by Run.
	inflight map[string]bool
	dirty    map[string]bool
}

func NewLiveHandler(svc LeaderboardService, allowedOrigins []string) *LiveHandler {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}

	return &LiveHandler{
		svc: svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origins[origin]
			},
		},
		clients:    make(map[string]map[*liveClient]bool),
		register:   make(chan *liveClient),
		unregister: make(chan *liveClient),
		refresh:    make(chan string, 64),
		rendered:   make(chan rendered),
		done:       make(chan struct{}),
		inflight:   make(map[string]bool),
		dirty:      make(map[string]bool),
	}
}

func (h *LiveHandler) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for _, group := range h.clients {
				for client := range group {
					close(client.send)
				}
			}
			h.clients = make(map[string]map[*liveClient]bool)
			return
		case client := <-h.register:
			group, ok := h.clients[client.school]
			if !ok {
				group = make(map[*liveClient]bool)
				h.clients[client.school] = group
			}
			group[client] = true
			// A render already in flight started before this client joined, so queue another.
			h.schedule(ctx, client.school, h.inflight[client.school])
		case client := <-h.unregister:
			if group, ok := h.clients[client.school]; ok && group[client] {
				delete(group, client)
				close(client.send)
				if len(group) == 0 {
					delete(h.clients, client.school)
				}
			}
		case school := <-h.refresh:
			if len(h.clients[school]) == 0 {
				continue
			}
			h.schedule(ctx, school, true)
		case r := <-h.rendered:
			delete(h.inflight, r.school)
			if r.msg != nil {
				h.broadcast(r.school, r.msg)
			}
			if h.dirty[r.school] {
				delete(h.dirty, r.school)
				if len(h.clients[r.school]) > 0 {
					h.schedule(ctx, r.school, false)
				}
			}
		}
	}
}

// schedule starts a render for school unless one is running. When one is and
// again is set, another render follows it.
func (h *LiveHandler) schedule(ctx context.Context, school string, again bool) {
	if h.inflight[school] {
		if again {
			h.dirty[school] = true
		}
		return
	}
	h.inflight[school] = true
	go h.render(ctx, school)
}

func (h *LiveHandler) render(ctx context.Context, school string) {
	r := rendered{school: school}

	entries, err := h.svc.Leaderboard(ctx, school, domain.DefaultLeaderboardLimit)
	if err != nil {
		zap.L().Warn("live leaderboard refresh failed", zap.String("school", school), zap.Error(err))
	} else if r.msg, err = json.Marshal(LeaderboardMessage{Type: "leaderboard", School: school, Entries: entries}); err != nil {
		r.msg = nil
	}

	select {
	case h.rendered <- r:
	case <-h.done:
	}
}

// broadcast hands msg to every subscriber of school. Clients whose buffer is
// full are dropped.
func (h *LiveHandler) broadcast(school string, msg []byte) {
	for client := range h.clients[school] {
		select {
		case client.send <- msg:
		default:
			delete(h.clients[school], client)
			close(client.send)
		}
	}
	if len(h.clients[school]) == 0 {
		delete(h.clients, school)
	}
}

// SubmissionAccepted schedules a refresh for the submitter's school. It never
// blocks the request; if the queue is full the update is skipped.
func (h *LiveHandler) SubmissionAccepted(_ context.Context, result domain.SubmissionResult) {
	select {
	case h.refresh <- result.School:
	default:
		zap.L().Debug("live leaderboard queue full", zap.String("school", result.School))
	}
}

// HandleLiveLeaderboard godoc
// @Summary      Live school leaderboard
// @Description  Upgrades to a websocket. The current leaderboard is sent on connect and again after every accepted submission in the school.
// @Tags         leaderboard
// @Param        school  path      string  true  "School name"
// @Success      101     {object}  LeaderboardMessage
// @Router       /leaderboard/{school}/live [get]
func (h *LiveHandler) HandleLiveLeaderboard(ctx *gin.Context) {
	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		zap.L().Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &liveClient{
		conn:   conn,
		send:   make(chan []byte, clientSendSize),
		school: ctx.Param("school"),
	}

	select {
	case h.register <- client:
	case <-ctx.Request.Context().Done():
		conn.Close()
		return
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(h)
}

func (c *liveClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only exists to process control frames and notice disconnects;
// subscribers never send application messages.
func (c *liveClient) readPump(h *LiveHandler) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.L().Debug("live leaderboard client closed", zap.Error(err))
			}
			return
		}
	}
}
