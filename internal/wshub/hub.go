package wshub

import (
	"context"
	"encoding/json"
	"flagsmash/internal/events"
	"flagsmash/internal/gamedata"
	"log"
	"sync"

	"github.com/coder/websocket"
)

// ImagePath is the URL prefix target images are served under.
const ImagePath = "/static/img/"

// ClientMessage is the JSON structure received from clients.
type ClientMessage struct {
	Type     string `json:"t"`
	TargetID int    `json:"id,omitempty"`
	Width    int    `json:"w,omitempty"`
	Height   int    `json:"h,omitempty"`
}

// ServerMessage is the JSON structure sent to clients.
type ServerMessage struct {
	Type  string     `json:"t"`
	State *StateView `json:"s,omitempty"`
	Cue   string     `json:"cue,omitempty"`
}

type StateView struct {
	Phase     string        `json:"phase"`
	Countdown int           `json:"countdown,omitempty"`
	Score     int           `json:"score"`
	Misses    int           `json:"misses"`
	MissLimit int           `json:"missLimit"`
	Target    *TargetView   `json:"target,omitempty"`
	Feedback  *FeedbackView `json:"feedback,omitempty"`
}

type TargetView struct {
	ID    int    `json:"id"`
	Image string `json:"img"`
	Src   string `json:"src"`
	Label string `json:"label"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Size  int    `json:"size"`
}

type FeedbackView struct {
	Kind string `json:"kind"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

func NewStateView(snap gamedata.Snapshot) *StateView {
	v := &StateView{
		Phase:     string(snap.Phase),
		Countdown: snap.CountdownRemaining,
		Score:     snap.Score,
		Misses:    snap.Misses,
		MissLimit: snap.MissLimit,
	}
	if t := snap.Target; t != nil {
		v.Target = &TargetView{
			ID:    t.ID,
			Image: string(t.Image),
			Src:   ImagePath + t.Image.File(),
			Label: t.Image.Label(),
			X:     t.X,
			Y:     t.Y,
			Size:  t.Size,
		}
	}
	if f := snap.Feedback; f != nil {
		v.Feedback = &FeedbackView{Kind: string(f.Kind), X: f.X, Y: f.Y}
	}
	return v
}

// Client is one browser tab. It renders snapshots and cues as JSON frames.
type Client struct {
	SessionID string
	Conn      *websocket.Conn
	Send      chan []byte

	mu     sync.Mutex
	closed bool
}

func NewClient(sessionID string, conn *websocket.Conn) *Client {
	return &Client{
		SessionID: sessionID,
		Conn:      conn,
		Send:      make(chan []byte, 64),
	}
}

func (c *Client) Render(snap gamedata.Snapshot) {
	c.Push(ServerMessage{Type: "state", State: NewStateView(snap)})
}

func (c *Client) Play(cue events.Cue) {
	c.Push(ServerMessage{Type: "cue", Cue: string(cue)})
}

// Push queues msg without blocking. It drops the message if the channel is
// full or the client is gone.
func (c *Client) Push(msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[WSHub] Marshal error: %v\n", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- data:
	default:
		log.Printf("[WSHub] Send buffer full for %s, dropping %s\n", c.SessionID, msg.Type)
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// WritePump reads from the Send channel and writes to the WebSocket connection.
func (c *Client) WritePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.Send:
			if !ok {
				return
			}
			if err := c.Conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}
}

// Hub tracks the open WebSocket connections by session id.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.SessionID] = c
}

// Unregister removes a client and closes its Send channel.
func (h *Hub) Unregister(sessionID string) {
	h.mu.Lock()
	c, ok := h.clients[sessionID]
	if ok {
		delete(h.clients, sessionID)
	}
	h.mu.Unlock()

	if ok {
		c.close()
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Send delivers msg to one session. Reports whether the session was connected.
func (h *Hub) Send(sessionID string, msg ServerMessage) bool {
	h.mu.RLock()
	c, ok := h.clients[sessionID]
	h.mu.RUnlock()
	if ok {
		c.Push(msg)
	}
	return ok
}

// Broadcast sends a message to every client. Non-blocking: drops if a channel is full.
func (h *Hub) Broadcast(msg ServerMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		c.Push(msg)
	}
}
