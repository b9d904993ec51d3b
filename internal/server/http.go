package server

import (
	"encoding/binary"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// wireRequestGroup is the JSON shape of an incoming widget-mode request
// group: {request_data: [...]}.
type wireRequestGroup struct {
	RequestData []Request `json:"request_data"`
}

// wireProgress is the JSON shape of a progress poll reply:
// {progress: [done, total]}, summed across every request in the group.
type wireProgress struct {
	Progress [2]int `json:"progress"`
}

// Handler serves tile requests over HTTP for one TileServer: a POST of
// a request group returns, per request, a JSON header followed by its
// binary tile buffer, framed so a client can demultiplex a group
// response into its per-request parts without a multipart parser.
type Handler struct {
	server *TileServer
	logger *log.Logger
}

// NewHandler wraps srv with CORS-enabled HTTP routes for tile requests
// and progress polling.
func NewHandler(srv *TileServer, allowedOrigins []string) http.Handler {
	h := &Handler{server: srv, logger: log.Default()}
	mux := http.NewServeMux()
	mux.HandleFunc("/tiles", h.handleTiles)
	mux.HandleFunc("/progress", h.handleProgress)

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	})
	return c.Handler(mux)
}

// MetricsHandler exposes the process-wide prometheus registry in the
// standard exposition format, for mounting once at the top level (not
// once per dataset, since the underlying counters are shared across
// every TileServer instance in the process).
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

func (h *Handler) handleTiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var in wireRequestGroup
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeInvalidInput(w, err.Error())
		return
	}
	group := RequestGroup{Requests: in.RequestData}

	groupID, requestIDs := h.server.Intake(group)
	responses, err := h.server.Dispatch(r.Context(), group, groupID, requestIDs)
	if err != nil {
		writeInvalidInput(w, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("X-Lexcube-Group-Id", formatUint(groupID))
	for _, resp := range responses {
		writeFramedResponse(w, resp)
	}
}

func (h *Handler) handleProgress(w http.ResponseWriter, r *http.Request) {
	groupID, ok := parseGroupIDQuery(r)
	if !ok {
		writeInvalidInput(w, "missing or invalid group id")
		return
	}
	perRequest := h.server.Progress().Group(groupID)
	var done, total int
	for _, p := range perRequest {
		done += p.Done
		total += p.Total
	}
	json.NewEncoder(w).Encode(wireProgress{Progress: [2]int{done, total}})
}

// writeFramedResponse writes one response as a 4-byte little-endian
// JSON-header length, the JSON header itself, then the raw tile buffer.
func writeFramedResponse(w http.ResponseWriter, resp Response) {
	header, _ := json.Marshal(struct {
		ResponseType string   `json:"response_type"`
		Metadata     Request  `json:"metadata"`
		DataSizes    []uint32 `json:"dataSizes"`
	}{resp.ResponseType, resp.Metadata, resp.DataSizes})

	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(header)))
	w.Write(lenBuf[:])
	w.Write(header)
	w.Write(resp.Buffer)
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func parseGroupIDQuery(r *http.Request) (uint64, bool) {
	raw := r.URL.Query().Get("group_id")
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func writeInvalidInput(w http.ResponseWriter, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(struct {
		ResponseType string `json:"response_type"`
		Reason       string `json:"reason"`
	}{"invalid_input", reason})
}
