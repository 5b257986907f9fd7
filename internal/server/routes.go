package server

import (
	"context"
	"errors"
	"flagsmash/internal/config"
	"flagsmash/internal/db"
	"flagsmash/internal/engine"
	"flagsmash/internal/gamedata"
	"flagsmash/internal/metrics"
	"flagsmash/internal/sessions"
	"flagsmash/internal/targets"
	"flagsmash/internal/wshub"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func Run() error {
	appCfg := config.Load()
	gameCfg := appCfg.Game()
	rules := gamedata.NewRules(gameCfg, targets.NewSpawner(gameCfg.TargetSize, nil))

	srv := &Server{
		Hub:     wshub.NewHub(),
		Metrics: metrics.New(),
		Tmpl:    template.Must(template.ParseFS(templatesFS, "templates/*.html")),
	}
	observers := []engine.Observer{srv.Metrics}

	// Optional database connection
	if appCfg.DatabaseURL != "" {
		database, err := db.Connect(appCfg.DatabaseURL)
		if err != nil {
			log.Printf("[DB] Failed to connect: %v (running without database)\n", err)
		} else {
			if err := database.Migrate(); err != nil {
				log.Printf("[DB] Migration failed: %v\n", err)
			}
			srv.DB = database
			srv.Journal = db.NewJournal(database, srv.Metrics.JournalDropped)
			observers = append(observers, srv.Journal)
			log.Println("[DB] Database connected and migrations applied")
		}
	} else {
		log.Println("[DB] DATABASE_URL not set, running without database")
	}

	srv.Sessions = sessions.NewStore(rules, sessions.Options{
		TTL:       appCfg.SessionTTL,
		Observers: observers,
		OnExpire:  srv.expire,
	})

	httpSrv := &http.Server{
		Addr:    "0.0.0.0:" + appCfg.Port,
		Handler: srv.routes(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		fmt.Printf("Server listening on http://localhost:%s\n", appCfg.Port)
		errc <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		srv.shutdown()
		return err
	case <-ctx.Done():
	}

	log.Println("[Server] Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := httpSrv.Shutdown(shutdownCtx)
	srv.shutdown()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHome)
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/health", s.handleHealth)
	if s.Metrics != nil {
		mux.Handle("/metrics", s.Metrics.Handler())
	}
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))
	return mux
}

// shutdown tells open tabs the server is going away and releases the
// sessions, the journal and the database, in that order.
func (s *Server) shutdown() {
	s.Hub.Broadcast(wshub.ServerMessage{Type: "shutdown"})
	s.Sessions.Close()
	if s.Journal != nil {
		s.Journal.Close()
	}
	if s.DB != nil {
		if err := s.DB.Close(); err != nil {
			log.Printf("[DB] Close error: %v\n", err)
		}
	}
}
