// Package web serves rendered frames to the panel over HTTP.
//
// Routes:
//
//	GET /image   random source photo rendered as a BMP frame
//	GET /health  liveness probe, {"status":"ok"}
//	GET /status  image source status
//
// Everything else answers 404 with a JSON body. Requests from vulnerability
// scanners (see IsBotProbe) are answered the same way but never logged.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/ironsheep/epaper-frame/internal/render"
	"github.com/ironsheep/epaper-frame/internal/source"
)

// ImageSource hands out source photos. *source.Source satisfies it.
type ImageSource interface {
	RandomImage(ctx context.Context) ([]byte, error)
	Status() source.Status
}

// FrameRenderer turns a source photo into a frame. *render.Renderer
// satisfies it.
type FrameRenderer interface {
	Render(ctx context.Context, src []byte) (*render.Frame, error)
}

var botProbePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^/\.git`),
	regexp.MustCompile(`^/\.env`),
	regexp.MustCompile(`^/\.svn`),
	regexp.MustCompile(`^/\.hg`),
	regexp.MustCompile(`^/wp-`),
	regexp.MustCompile(`^/wordpress`),
	regexp.MustCompile(`^/admin`),
	regexp.MustCompile(`(?i)^/phpmyadmin`),
	regexp.MustCompile(`^/developmentserver`),
	regexp.MustCompile(`^/config\.`),
	regexp.MustCompile(`^/backup`),
	regexp.MustCompile(`^/\.well-known/security\.txt$`),
}

// IsBotProbe reports whether a request URI looks like a scanner probing for
// common admin panels and leaked files.
func IsBotProbe(uri string) bool {
	for _, re := range botProbePatterns {
		if re.MatchString(uri) {
			return true
		}
	}
	return false
}

// Server is the frame HTTP server.
type Server struct {
	src      ImageSource
	renderer FrameRenderer
	log      zerolog.Logger
	handler  http.Handler
}

func New(src ImageSource, renderer FrameRenderer, logger zerolog.Logger) *Server {
	s := &Server{
		src:      src,
		renderer: renderer,
		log:      logger.With().Str("component", "web").Logger(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /image", s.handleImage)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("/", s.handleNotFound)

	var h http.Handler = mux
	h = hlog.AccessHandler(s.logRequest)(h)
	h = hlog.NewHandler(s.log)(h)
	s.handler = h
	return s
}

// Handler returns the root handler with request logging installed.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully, giving in-flight renders up to ten seconds to finish.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", ln.Addr().String()).Msg("HTTP server listening")
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	src, err := s.src.RandomImage(ctx)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	frame, err := s.renderer.Render(ctx, src)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "image/bmp")
	h.Set("Content-Length", strconv.Itoa(len(frame.BMP)))
	h.Set("Cache-Control", "no-store")
	h.Set("X-Frame-Cached", strconv.FormatBool(frame.Cached))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(frame.BMP); err != nil {
		hlog.FromRequest(r).Debug().Err(err).Msg("write frame")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.src.Status())
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if !IsBotProbe(r.URL.RequestURI()) {
		hlog.FromRequest(r).Warn().
			Str("url", r.URL.RequestURI()).
			Str("method", r.Method).
			Msg("route not found")
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not Found"})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	hlog.FromRequest(r).Error().Err(err).Msg("image processing failed")
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error":   "Image processing failed",
		"message": err.Error(),
	})
}

func (s *Server) logRequest(r *http.Request, status, size int, duration time.Duration) {
	if IsBotProbe(r.URL.RequestURI()) {
		return
	}
	host, port, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Str("url", r.URL.RequestURI()).
		Str("host", r.Host).
		Str("remote_address", host).
		Str("remote_port", port).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("request completed")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
