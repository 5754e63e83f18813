// Package daemon serves PDU controllers over HTTP, so outlets can be read
// and switched remotely and scraped by Prometheus.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/OpenCHAMI/pductl/pkg/pdu"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lestrrat-go/jwx/jwk"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// PDUSummary is one entry of GET /pdus.
type PDUSummary struct {
	Host    string `json:"host"`
	Family  string `json:"family"`
	Known   bool   `json:"known"`
	Metered bool   `json:"metered"`
	Outlets int    `json:"outlets"`
}

// SwitchResult is the response of a successful outlet switch.
type SwitchResult struct {
	PDU     string   `json:"pdu"`
	Outlets []string `json:"outlets"`
	State   string   `json:"state"`
}

type Server struct {
	controllers map[string]*pdu.Controller
	hosts       []string
	keys        jwk.Set
}

type Option func(*Server)

// WithKeySet requires a bearer token signed by one of keys on every route
// that switches power.
func WithKeySet(keys jwk.Set) Option {
	return func(s *Server) {
		s.keys = keys
	}
}

func NewServer(controllers []*pdu.Controller, opts ...Option) *Server {
	s := &Server{controllers: make(map[string]*pdu.Controller, len(controllers))}
	for _, opt := range opts {
		opt(s)
	}
	for _, c := range controllers {
		if _, dup := s.controllers[c.Host()]; dup {
			log.Warn().Str("pdu", c.Host()).Msg("PDU configured twice, keeping the first")
			continue
		}
		s.controllers[c.Host()] = c
		s.hosts = append(s.hosts, c.Host())
	}
	return s
}

// Router returns the HTTP routes of the server.
func (s *Server) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.StripSlashes,
		middleware.Timeout(60*time.Second),
	)

	router.Get("/pdus", s.listPDUs)
	router.Route("/pdus/{host}", func(r chi.Router) {
		r.Get("/outlets", s.listOutlets)
		r.Get("/status", s.outletStatus)
		r.With(requireToken(s.keys)).Post("/outlets/{outlet}/{action}", s.switchOutlet)
	})
	router.Handle("/metrics", promhttp.Handler())
	return router
}

// RunServer listens on endpoint until ctx is cancelled.
func RunServer(ctx context.Context, endpoint string, controllers []*pdu.Controller, opts ...Option) error {
	server := &http.Server{
		Addr:              endpoint,
		Handler:           NewServer(controllers, opts...).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shut down server")
		}
	}()

	log.Info().Str("endpoint", endpoint).Int("pdus", len(controllers)).Msg("serving PDUs")
	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) controller(w http.ResponseWriter, r *http.Request) (*pdu.Controller, bool) {
	host := chi.URLParam(r, "host")
	c, ok := s.controllers[host]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown PDU "+host)
	}
	return c, ok
}

func (s *Server) listPDUs(w http.ResponseWriter, r *http.Request) {
	summaries := make([]PDUSummary, 0, len(s.hosts))
	for _, host := range s.hosts {
		c := s.controllers[host]
		profile, known := c.Profile()
		summaries = append(summaries, PDUSummary{
			Host:    host,
			Family:  c.Family().String(),
			Known:   known,
			Metered: known && profile.Metered(),
			Outlets: c.Directory().Len(),
		})
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) listOutlets(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	if _, known := c.Profile(); !known {
		writeError(w, http.StatusInternalServerError, pdu.ErrUnknownFamily.Error())
		return
	}
	writeJSON(w, http.StatusOK, c.Inventory(false))
}

func (s *Server) outletStatus(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}
	filter := pdu.StatusFilter{
		Outlet:   r.URL.Query().Get("outlet"),
		Hostname: r.URL.Query().Get("hostname"),
	}
	statuses, err := c.GetOutletStatus(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	for _, status := range statuses {
		metricsOutletStatus(c, status)
	}
	writeJSON(w, http.StatusOK, statuses)
}

func (s *Server) switchOutlet(w http.ResponseWriter, r *http.Request) {
	c, ok := s.controller(w, r)
	if !ok {
		return
	}

	var switchFn func(string) error
	action := strings.ToLower(chi.URLParam(r, "action"))
	switch action {
	case "on":
		switchFn = c.TurnOnOutlet
	case "off":
		switchFn = c.TurnOffOutlet
	default:
		writeError(w, http.StatusBadRequest, "action must be on or off")
		return
	}

	if _, known := c.Profile(); !known {
		writeError(w, http.StatusInternalServerError, pdu.ErrUnknownFamily.Error())
		return
	}

	// outlets may be named by address or by label; a label switches
	// every outlet carrying it
	outlet := chi.URLParam(r, "outlet")
	outlets := []string{outlet}
	if _, found := c.Directory().Label(outlet); !found {
		outlets = c.Directory().LabelAddresses(strings.ToLower(outlet))
		if len(outlets) == 0 {
			writeError(w, http.StatusNotFound, "outlet "+outlet+" doesn't belong to PDU "+c.Host())
			return
		}
	}

	for _, address := range outlets {
		err := switchFn(address)
		metricsOutletSwitch(c.Host(), action, err)
		if err != nil {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, SwitchResult{PDU: c.Host(), Outlets: outlets, State: action})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
