package rpcjson

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/AlphaSNetwork/AlphaSNetwork/internal/application"
	"github.com/AlphaSNetwork/AlphaSNetwork/internal/domain"
	"go.uber.org/zap"
)

const (
	codeParse          = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeApp            = 40000
	codeInternal       = 50000
)

type Server struct {
	service  *application.SocialService
	logger   *zap.Logger
	listener net.Listener
	path     string
	methods  map[string]method
}

type method func(ctx context.Context, params json.RawMessage) (any, error)

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      any             `json:"id"`
}

type response struct {
	JSONRPC string    `json:"jsonrpc"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
	ID      any       `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	// Data names the error class for application errors.
	Data string `json:"data,omitempty"`
}

// errInvalidParams marks a params payload that could not be decoded.
var errInvalidParams = errors.New("invalid params")

func Start(path string, service *application.SocialService, logger *zap.Logger) (*Server, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("rpc socket path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	_ = os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(path, 0o600); err != nil {
		_ = ln.Close()
		_ = os.Remove(path)
		return nil, err
	}

	s := newServer(service, logger)
	s.listener = ln
	s.path = path
	go s.serve()
	return s, nil
}

func newServer(service *application.SocialService, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{service: service, logger: logger.Named("rpc")}
	s.methods = s.routes()
	return s
}

func (s *Server) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handleConn(conn)
	}
}

func (s *Server) Close() error {
	err := s.listener.Close()
	_ = os.Remove(s.path)
	return err
}

func (s *Server) handleConn(conn net.Conn) {
	defer func() { _ = conn.Close() }()
	dec := json.NewDecoder(conn)
	enc := json.NewEncoder(conn)

	for {
		var req request
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			_ = enc.Encode(response{JSONRPC: "2.0", Error: &rpcError{Code: codeParse, Message: "parse error"}, ID: nil})
			return
		}

		resp := s.dispatch(context.Background(), req)
		if err := enc.Encode(resp); err != nil {
			return
		}
	}
}

func (s *Server) dispatch(ctx context.Context, req request) response {
	if req.JSONRPC != "2.0" || strings.TrimSpace(req.Method) == "" {
		return response{JSONRPC: "2.0", Error: &rpcError{Code: codeInvalidRequest, Message: "invalid request"}, ID: req.ID}
	}
	fn, ok := s.methods[req.Method]
	if !ok {
		return response{JSONRPC: "2.0", Error: &rpcError{Code: codeMethodNotFound, Message: "method not found"}, ID: req.ID}
	}

	result, err := fn(ctx, req.Params)
	if err != nil {
		return s.errorResponse(req, err)
	}
	return response{JSONRPC: "2.0", Result: result, ID: req.ID}
}

func (s *Server) errorResponse(req request, err error) response {
	if errors.Is(err, errInvalidParams) {
		return invalidParams(req.ID)
	}
	if class := errorClass(err); class != "" {
		return appError(req.ID, class, err)
	}
	s.logger.Error("rpc call failed", zap.String("method", req.Method), zap.Error(err))
	return internalError(req.ID)
}

func errorClass(err error) string {
	switch {
	case domain.IsValidation(err):
		return "validation"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, domain.ErrMirrorUnavailable):
		return "mirror_unavailable"
	}
	return ""
}

func decodeParams(raw json.RawMessage, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errInvalidParams
	}
	return nil
}

func invalidParams(id any) response {
	return response{JSONRPC: "2.0", Error: &rpcError{Code: codeInvalidParams, Message: "invalid params"}, ID: id}
}

func appError(id any, class string, err error) response {
	return response{JSONRPC: "2.0", Error: &rpcError{Code: codeApp, Message: err.Error(), Data: class}, ID: id}
}

func internalError(id any) response {
	return response{JSONRPC: "2.0", Error: &rpcError{Code: codeInternal, Message: "internal error"}, ID: id}
}
