package server

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"

	apperrors "github.com/louisbranch/accountgate/internal/platform/errors"
	"github.com/louisbranch/accountgate/internal/platform/requestctx"
	"github.com/louisbranch/accountgate/internal/platform/timeouts"
	"github.com/louisbranch/accountgate/internal/services/gateway/pipeline"
	"github.com/louisbranch/accountgate/internal/services/gateway/rpc"
)

// defaultClientVersion stands in when the URL carries no version segment,
// ranking below every real threshold.
const defaultClientVersion = "0.0.0"

// maxBodyBytes bounds request bodies. Avatars arrive base64-encoded in
// params, so the limit is generous.
const maxBodyBytes = 4 << 20

// rpcHandler serves the JSON-RPC endpoint. Every response, including
// preflight, carries the CORS and content-type headers the mobile clients
// expect.
func (s *Server) rpcHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := w.Header()
		header.Set("Access-Control-Allow-Origin", "*")
		header.Set("Access-Control-Allow-Headers", "accept, content-type")
		header.Set("Content-Type", "application/json")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		clientVersion := r.PathValue("version")
		if clientVersion == "" {
			clientVersion = defaultClientVersion
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			writeResponse(w, rpc.NewError(nil, apperrors.Wrap(apperrors.CodeParamsInvalid, "request body could not be read", err)))
			return
		}

		req, err := rpc.Decode(body)
		if err != nil {
			writeResponse(w, rpc.NewError(nil, err))
			return
		}
		params, err := rpc.ParseParams(req.Params)
		if err != nil {
			writeResponse(w, rpc.NewError(req.ID, err))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Request)
		defer cancel()
		ctx = requestctx.WithRemoteAddr(ctx, r.RemoteAddr)

		call := &pipeline.Call{
			Request: req,
			Params:  params,
			Version: clientVersion,
		}
		result, err := s.pipeline.Run(ctx, call)

		if call.Terminal {
			header.Set("Connection", "close")
		}
		if req.Notification() {
			w.WriteHeader(http.StatusOK)
			return
		}
		if err != nil {
			writeResponse(w, rpc.NewError(req.ID, err))
			return
		}
		writeResponse(w, rpc.NewResult(req.ID, result))
	})
}

func writeResponse(w http.ResponseWriter, resp rpc.Response) {
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("write rpc response: %v", err)
	}
}
