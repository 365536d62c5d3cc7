// Package debugsrv implements the §4.7 debug/introspection HTTP surface:
// a loopback-bound, read-only window onto the running zone, active only
// when --debug is set. It carries no DNS semantics and never participates
// in query answering. Grounded on johanix/tdns's gorilla/mux API
// dispatcher, repurposed from a control plane to a pure diagnostic one.
package debugsrv

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gookit/goutil/dump"
	"github.com/gorilla/mux"

	"github.com/zoneauth/zoneauth/signer"
	"github.com/zoneauth/zoneauth/zone"
)

// Server exposes the current zone over HTTP. zoneFn is called fresh on
// every request so a concurrent --reload swap is always reflected.
type Server struct {
	zoneFn func() *zone.Zone
	ksk    *signer.Key
	router *mux.Router
}

// New builds the router; ksk may be nil for an unsigned zone, in which
// case /ds reports an empty set.
func New(zoneFn func() *zone.Zone, ksk *signer.Key) *Server {
	s := &Server{zoneFn: zoneFn, ksk: ksk, router: mux.NewRouter()}
	s.router.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	s.router.HandleFunc("/ds", s.handleDS).Methods(http.MethodGet)
	s.router.HandleFunc("/zone", s.handleZone).Methods(http.MethodGet)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.router.ServeHTTP(w, r) }

type statusResponse struct {
	Apex    string `json:"apex"`
	Owners  int    `json:"owners"`
	Signed  bool   `json:"signed"`
	Denial  string `json:"denial"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	z := s.zoneFn()
	if z == nil {
		http.Error(w, "zone not loaded", http.StatusServiceUnavailable)
		return
	}
	resp := statusResponse{
		Apex:   z.Apex.String(),
		Owners: len(z.Owners()),
		Signed: z.Signed,
		Denial: denialName(z.Denial),
	}
	dump.P(resp) // debug-only: mirrors johanix/tdns's ad hoc dump.P(...) trace points
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func denialName(d zone.DenialMode) string {
	switch d {
	case zone.DenialNSEC:
		return "nsec"
	case zone.DenialNSEC3:
		return "nsec3"
	default:
		return "none"
	}
}

func (s *Server) handleDS(w http.ResponseWriter, r *http.Request) {
	z := s.zoneFn()
	if z == nil || s.ksk == nil {
		w.Write(nil)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	for _, digestType := range []uint8{2, 1} {
		ds, err := s.ksk.DSDigest(z.Apex.CanonicalWire(), digestType)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "%s IN DS %s\n", z.Apex, ds.String())
	}
}

func (s *Server) handleZone(w http.ResponseWriter, r *http.Request) {
	z := s.zoneFn()
	if z == nil {
		http.Error(w, "zone not loaded", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	owners := make([]string, 0, len(z.Owners()))
	for _, o := range z.Owners() {
		owners = append(owners, o.String())
	}
	json.NewEncoder(w).Encode(owners)
}
