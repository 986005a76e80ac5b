package rpc

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Server handles HTTP JSON-RPC requests.
// Format: {"method": "method_name", "params": [{...}]}; params is an array
// carrying one object.
type Server struct {
	registry *MethodRegistry
	timeout  time.Duration
	log      *logrus.Entry
}

// NewServer builds a server with every service method registered.
func NewServer(service *Service, timeout time.Duration, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.PanicLevel)
	}
	s := &Server{
		registry: NewMethodRegistry(),
		timeout:  timeout,
		log:      logger.WithField("component", "rpc"),
	}
	service.registerAll(s.registry)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		s.handleGet(w, r)
	case http.MethodPost:
		s.handlePost(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleGet serves parameterless queries like server_info via
// ?command=<method>.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Query().Get("command")
	if method == "" {
		method = "server_info"
	}
	result, rpcErr := s.execute(r, method, nil)
	s.writeResponse(w, result, rpcErr)
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, NewRpcError(RpcINTERNAL, "internal", "Failed to read request body"))
		return
	}
	defer r.Body.Close()

	var request Request
	if err := json.Unmarshal(body, &request); err != nil {
		s.writeError(w, NewRpcError(RpcJSON_INVALID, "jsonInvalid", "Invalid JSON: "+err.Error()))
		return
	}
	if request.Method == "" {
		s.writeError(w, NewRpcError(RpcMISSING_COMMAND, "missingCommand", "Missing method field"))
		return
	}

	var params json.RawMessage
	if len(request.Params) > 0 {
		params = request.Params[0]
	}

	result, rpcErr := s.execute(r, request.Method, params)
	s.writeResponse(w, result, rpcErr)
}

func (s *Server) execute(r *http.Request, method string, params json.RawMessage) (any, *RpcError) {
	fn, ok := s.registry.Get(method)
	if !ok {
		return nil, RpcErrorMethodNotFound(method)
	}
	result, rpcErr := fn(r.Context(), params)
	if rpcErr != nil {
		s.log.WithFields(logrus.Fields{
			"method": method,
			"client": clientIP(r),
			"error":  rpcErr.ErrorString,
		}).Debug("rpc call failed")
	}
	return result, rpcErr
}

// writeResponse writes {"result": {...}} with status inside the result,
// matching the request/response framing clients already speak.
func (s *Server) writeResponse(w http.ResponseWriter, result any, rpcErr *RpcError) {
	if rpcErr != nil {
		s.writeError(w, rpcErr)
		return
	}

	var resultObj map[string]any
	if m, ok := result.(map[string]any); ok {
		resultObj = m
	} else {
		resultObj = map[string]any{"data": result}
	}
	resultObj["status"] = "success"

	s.marshalAndWrite(w, map[string]any{"result": resultObj})
}

func (s *Server) writeError(w http.ResponseWriter, rpcErr *RpcError) {
	s.marshalAndWrite(w, map[string]any{
		"result": map[string]any{
			"status":        "error",
			"error":         rpcErr.ErrorString,
			"error_code":    rpcErr.Code,
			"error_message": rpcErr.Message,
		},
	})
}

func (s *Server) marshalAndWrite(w http.ResponseWriter, response map[string]any) {
	data, err := json.Marshal(response)
	if err != nil {
		s.log.WithError(err).Error("marshal response")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// clientIP extracts the originating client address for log lines.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
