package rpc

import (
	"encoding/json"
	"fmt"

	apperrors "github.com/louisbranch/accountgate/internal/platform/errors"
)

// Params provides uniform access to JSON-RPC parameters, whether the
// client sent a positional array or a named object.
type Params struct {
	named      map[string]json.RawMessage
	positional []json.RawMessage
}

// ParseParams decodes the raw params member. Absent params decode to an
// empty set.
func ParseParams(raw json.RawMessage) (Params, error) {
	var p Params
	if len(raw) == 0 || string(raw) == "null" {
		return p, nil
	}
	switch raw[0] {
	case '{':
		if err := json.Unmarshal(raw, &p.named); err != nil {
			return Params{}, apperrors.Wrap(apperrors.CodeParamsInvalid, "params object is malformed", err)
		}
	case '[':
		if err := json.Unmarshal(raw, &p.positional); err != nil {
			return Params{}, apperrors.Wrap(apperrors.CodeParamsInvalid, "params array is malformed", err)
		}
	default:
		return Params{}, apperrors.New(apperrors.CodeParamsInvalid, "params must be an array or object")
	}
	return p, nil
}

// Len returns how many parameters were supplied.
func (p Params) Len() int {
	if p.named != nil {
		return len(p.named)
	}
	return len(p.positional)
}

// String returns a named parameter as a string. Missing or non-string
// values return ok=false.
func (p Params) String(name string) (string, bool) {
	raw, found := p.named[name]
	if !found {
		return "", false
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", false
	}
	return value, true
}

// StringAt returns a positional parameter as a string.
func (p Params) StringAt(index int) (string, bool) {
	if index < 0 || index >= len(p.positional) {
		return "", false
	}
	var value string
	if err := json.Unmarshal(p.positional[index], &value); err != nil {
		return "", false
	}
	return value, true
}

// Bool returns a named parameter as a bool.
func (p Params) Bool(name string) (bool, bool) {
	raw, found := p.named[name]
	if !found {
		return false, false
	}
	var value bool
	if err := json.Unmarshal(raw, &value); err != nil {
		return false, false
	}
	return value, true
}

// Values returns the parameters in the shape the client sent them, a
// map for named params or a slice for positional ones.
func (p Params) Values() any {
	if p.named != nil {
		return p.named
	}
	if p.positional != nil {
		return p.positional
	}
	return []json.RawMessage{}
}

// Require returns a named string parameter or a parameter error naming
// the missing key.
func (p Params) Require(name string) (string, error) {
	value, ok := p.String(name)
	if !ok || value == "" {
		return "", apperrors.WithMetadata(apperrors.CodeParamEmpty,
			fmt.Sprintf("parameter %q is required", name),
			map[string]string{"param": name})
	}
	return value, nil
}

// Bind unmarshals named params into a typed struct.
func (p Params) Bind(target any) error {
	if p.named == nil {
		return apperrors.New(apperrors.CodeParamsInvalid, "named params are required")
	}
	encoded, err := json.Marshal(p.named)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeParamsInvalid, "re-encode params", err)
	}
	if err := json.Unmarshal(encoded, target); err != nil {
		return apperrors.Wrap(apperrors.CodeParamsInvalid, "params do not match the expected shape", err)
	}
	return nil
}
