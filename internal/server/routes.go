package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"frella/internal/auth"
	"frella/internal/board"
	"frella/internal/chat"
	"frella/internal/config"
	"frella/internal/db"
	"frella/internal/guessgame"
	"frella/internal/metrics"
	"frella/internal/registry"
	"frella/internal/rooms"
)

type userDirectory interface {
	AddUser(id int64, username string)
}

type Server struct {
	Config   config.Config
	Verifier *auth.Verifier
	Registry *registry.Registry
	Rooms    *rooms.Manager
	Chat     *chat.Service
	Board    *board.Session
	Games    *guessgame.Store
	DB       *db.DB           // nil if no database configured
	Metrics  *metrics.Metrics // nil disables instrumentation

	users userDirectory // set when chat runs on the in-memory store
}

// New wires the sessions around a message store. database may be nil.
func New(cfg config.Config, store chat.Store, database *db.DB, m *metrics.Metrics) *Server {
	reg := registry.New()
	roomManager := rooms.NewManager()

	chatService := chat.NewService(store, roomManager)
	chatService.OnPersisted = m.MessagePersisted

	gameCfg := guessgame.Config{
		Tick:         time.Second,
		ThinkingSecs: cfg.ThinkingSecs,
		DrawingSecs:  cfg.DrawingSecs,
		GuessingSecs: cfg.GuessingSecs,
		ResultSecs:   cfg.ResultSecs,
		ResultDelay:  cfg.ResultDelay,
	}
	hooks := guessgame.Hooks{
		PhaseChanged: func(p guessgame.Phase) { m.GameTransition(string(p)) },
		TimerStarted: m.TimerStarted,
		TimerStopped: m.TimerStopped,
	}

	srv := &Server{
		Config:   cfg,
		Verifier: auth.NewVerifier(cfg.JWTSecret),
		Registry: reg,
		Rooms:    roomManager,
		Chat:     chatService,
		Board:    board.NewSession(roomManager, reg),
		Games:    guessgame.NewStore(gameCfg, hooks),
		DB:       database,
		Metrics:  m,
	}
	if u, ok := store.(userDirectory); ok {
		srv.users = u
	}
	return srv
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", s.Metrics.Handler())
	return mux
}

func Run() error {
	appCfg, err := config.Load()
	if err != nil {
		return err
	}

	var store chat.Store
	var database *db.DB

	// Optional database connection
	if appCfg.DatabaseURL != "" {
		database, err = db.Connect(context.Background(), appCfg.DatabaseURL)
		if err != nil {
			log.Printf("[DB] Failed to connect: %v (running without database)\n", err)
			database = nil
		} else {
			if err := database.Migrate(context.Background()); err != nil {
				log.Printf("[DB] Migration failed: %v\n", err)
			}
			store = database
			log.Println("[DB] Database connected and migrations applied")
		}
	} else {
		log.Println("[DB] DATABASE_URL not set, running without database")
	}
	if store == nil {
		store = chat.NewMemoryStore()
		log.Println("[Chat] Messages are kept in memory")
	}

	srv := New(appCfg, store, database, metrics.New())

	addr := "0.0.0.0:" + appCfg.Port
	fmt.Printf("Server listening on http://localhost:%s\n", appCfg.Port)
	return http.ListenAndServe(addr, srv.Routes())
}
