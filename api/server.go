// Package api serves the player status and the static web client.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/matt-g-everett/ledahead/prerender"
	"github.com/matt-g-everett/ledahead/stream"
)

// Source supplies the prerender state reported by /status.
type Source interface {
	Stats() []prerender.EntryStats
	Capacity() int
}

// StatusReporter supplies the animation on display. It is optional.
type StatusReporter interface {
	Status() stream.StatusMessage
}

// Status is the /status response body.
type Status struct {
	Capacity int                    `json:"capacity"`
	Entries  []prerender.EntryStats `json:"entries"`
	Playing  *stream.StatusMessage  `json:"playing,omitempty"`
}

type Server struct {
	source   Source
	playing  StatusReporter
	static   string
	listen   string
	shutdown time.Duration
}

// NewServer creates a Server listening on listen. An empty static directory
// disables the web client.
func NewServer(listen, static string, source Source, playing StatusReporter) *Server {
	s := new(Server)
	s.listen = listen
	s.static = static
	s.source = source
	s.playing = playing
	s.shutdown = 5 * time.Second
	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.handleStatus)
	if s.static != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.static)))
	}
	return mux
}

func (s *Server) handleStatus(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	st := Status{
		Capacity: s.source.Capacity(),
		Entries:  s.source.Stats(),
	}
	if st.Entries == nil {
		st.Entries = []prerender.EntryStats{}
	}
	if s.playing != nil {
		p := s.playing.Status()
		st.Playing = &p
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(st); err != nil {
		log.Printf("Writing status: %v", err)
	}
}

// ListenAndServe serves until ctx ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{Addr: s.listen, Handler: s.Handler()}

	errc := make(chan error, 1)
	go func() {
		log.Printf("Listening on %s...", s.listen)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
