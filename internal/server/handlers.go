package server

import (
	"context"
	"embed"
	"encoding/json"
	"flagsmash/internal/db"
	"flagsmash/internal/engine"
	"flagsmash/internal/metrics"
	"flagsmash/internal/sessions"
	"flagsmash/internal/targets"
	"flagsmash/internal/wshub"
	"html/template"
	"log"
	"net/http"

	"github.com/coder/websocket"
)

//go:embed templates/*.html
var templatesFS embed.FS

type Server struct {
	Sessions *sessions.Store
	Hub      *wshub.Hub
	Metrics  *metrics.Collector
	Tmpl     *template.Template
	DB       *db.DB      // nil if no database configured
	Journal  *db.Journal // nil if no database configured
}

type pageImage struct {
	Name  string
	Src   string
	Label string
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	images := make([]pageImage, 0, len(targets.Images))
	for _, img := range targets.Images {
		images = append(images, pageImage{Name: string(img), Src: wshub.ImagePath + img.File(), Label: img.Label()})
	}
	if err := s.Tmpl.ExecuteTemplate(w, "game", map[string]any{"Images": images}); err != nil {
		log.Println(err)
		http.Error(w, "Error rendering game page", http.StatusInternalServerError)
	}
}

// handleWS runs one game session for the lifetime of the connection.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Printf("[WS] Accept error: %v\n", err)
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	client := wshub.NewClient("", conn)
	session := s.Sessions.Create(client, client)
	client.SessionID = session.ID()
	s.Hub.Register(client)
	if s.Metrics != nil {
		s.Metrics.WSConnection(1)
	}
	log.Printf("[WS] Session %s opened\n", session.ID())

	defer func() {
		s.Sessions.Delete(session.ID())
		s.Hub.Unregister(session.ID())
		if s.Metrics != nil {
			s.Metrics.WSConnection(-1)
		}
		log.Printf("[WS] Session %s closed\n", session.ID())
	}()

	go func() {
		client.WritePump(ctx)
		// The hub closed the client (expiry or shutdown): end the read loop too.
		conn.Close(websocket.StatusNormalClosure, "")
	}()

	session.Refresh()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		// A swept session is gone from the store; stop reading for it.
		if s.Sessions.Get(session.ID()) == nil {
			return
		}
		var msg wshub.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("[WS] Bad message from %s: %v\n", session.ID(), err)
			continue
		}
		dispatch(session, msg)
	}
}

func dispatch(session *engine.Controller, msg wshub.ClientMessage) {
	switch msg.Type {
	case "start":
		session.Start()
	case "click":
		session.Click(msg.TargetID)
	case "restart":
		session.Restart()
	case "resize":
		session.Resize(msg.Width, msg.Height)
	default:
		log.Printf("[WS] Unknown message type %q\n", msg.Type)
	}
}

// expire tells an idle tab its session is gone and drops the connection.
func (s *Server) expire(id string) {
	s.Hub.Send(id, wshub.ServerMessage{Type: "expired"})
	s.Hub.Unregister(id)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	body := map[string]any{
		"status":   "ok",
		"sessions": s.Sessions.Count(),
		"clients":  s.Hub.Count(),
	}
	if s.DB != nil {
		if err := s.DB.Ping(); err != nil {
			body["status"] = "db_error"
			body["error"] = err.Error()
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[Health] Encode error: %v\n", err)
	}
}
