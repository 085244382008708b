// Package rpc defines the JSON-RPC 2.0 wire envelope used by mobile
// clients and the mapping from application errors to protocol errors.
package rpc

import (
	"encoding/json"
	"errors"
	"fmt"

	apperrors "github.com/louisbranch/accountgate/internal/platform/errors"
)

// Version is the protocol version every envelope must declare.
const Version = "2.0"

// Request is a decoded JSON-RPC call.
//
// Token rides in the envelope rather than in headers because the mobile
// clients it serves were built against that contract.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	Token   string          `json:"token,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

// Notification reports whether the request carries no id. Notifications
// receive no response body.
func (r *Request) Notification() bool {
	return len(r.ID) == 0 || string(r.ID) == "null"
}

// Decode parses a request envelope from raw bytes.
func Decode(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeParamsInvalid, "request body is not valid JSON-RPC", err)
	}
	if req.JSONRPC != Version {
		return nil, apperrors.New(apperrors.CodeParamsInvalid,
			fmt.Sprintf("jsonrpc version %q is not supported", req.JSONRPC))
	}
	if req.Method == "" {
		return nil, apperrors.New(apperrors.CodeParamsInvalid, "method is required")
	}
	return &req, nil
}

// Response is a JSON-RPC result or error envelope.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  any             `json:"result,omitempty"`
	Error   *ErrorObject    `json:"error,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

// ErrorObject is the JSON-RPC error member.
type ErrorObject struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// NewResult builds a success response for the given request id. A nil
// result still produces an explicit result member, so the envelope always
// carries exactly one of result or error.
func NewResult(id json.RawMessage, result any) Response {
	if result == nil {
		result = json.RawMessage("null")
	}
	return Response{JSONRPC: Version, Result: result, ID: id}
}

// NewError builds an error response for the given request id.
func NewError(id json.RawMessage, err error) Response {
	return Response{JSONRPC: Version, Error: FromError(err), ID: id}
}

// FromError maps an application error onto the wire error object. The
// error's metadata, when present, becomes the data member.
func FromError(err error) *ErrorObject {
	obj := &ErrorObject{
		Code:    apperrors.GetCode(err).RPCCode(),
		Message: "internal error",
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		obj.Message = appErr.Message
		if len(appErr.Metadata) > 0 {
			obj.Data = appErr.Metadata
		}
	}
	return obj
}
