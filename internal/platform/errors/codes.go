// Package errors provides structured error handling for the gateway.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Token errors
	CodeTokenMissing Code = "TOKEN_MISSING"
	CodeTokenInvalid Code = "TOKEN_INVALID"

	// Credential errors
	CodeCredentialsInvalid Code = "CREDENTIALS_INVALID"
	CodeIdentityNotFound   Code = "IDENTITY_NOT_FOUND"

	// Signup validation errors
	CodeEmailInvalid    Code = "EMAIL_INVALID"
	CodePasswordInvalid Code = "PASSWORD_INVALID"
	CodeUsernameTaken   Code = "USERNAME_TAKEN"

	// Authorization and request-shape errors
	CodeVisitorNotAllowed Code = "VISITOR_NOT_ALLOWED"
	CodeParamsInvalid     Code = "PARAMS_INVALID"
	CodeParamEmpty        Code = "PARAM_EMPTY"
	CodeItemNotFound      Code = "ITEM_NOT_FOUND"

	// Account lifecycle errors
	CodeAccountExpired         Code = "ACCOUNT_EXPIRED"
	CodeAccountStateInvalid    Code = "ACCOUNT_STATE_INVALID"
	CodeRecoveryGrantInvalid   Code = "RECOVERY_GRANT_INVALID"
	CodeRecoveryGrantExpired   Code = "RECOVERY_GRANT_EXPIRED"
	CodeActivationHashMismatch Code = "ACTIVATION_HASH_MISMATCH"

	// Client version errors
	CodeVersionMalformed  Code = "VERSION_MALFORMED"
	CodeVersionDeprecated Code = "VERSION_DEPRECATED"

	// Dispatch errors
	CodeMethodNotFound Code = "METHOD_NOT_FOUND"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"

	// Internal errors
	CodeInternal Code = "INTERNAL"
)

// JSON-RPC error integers used on the wire. The negative custom range
// mirrors the mobile client contract; -32601 and -32603 come from the
// JSON-RPC 2.0 reserved range.
const (
	RPCMissingToken          = -32000
	RPCInvalidToken          = -32001
	RPCInvalidCredentials    = -32002
	RPCIdentityNotFound      = -32003
	RPCInvalidEmail          = -32004
	RPCInvalidPassword       = -32005
	RPCUsernameTaken         = -32006
	RPCNotAllowedForVisitors = -32007
	RPCInvalidParamsFormat   = -32008
	RPCEmptyParamValue       = -32009
	RPCItemNotFound          = -32010
	RPCAccountExpired        = -32011
	RPCVersionDeprecated     = -32012
	RPCMethodNotFound        = -32601
	RPCInternalError         = -32603
)

// RPCCode maps domain codes to JSON-RPC error integers.
func (c Code) RPCCode() int {
	switch c {
	case CodeTokenMissing:
		return RPCMissingToken
	case CodeTokenInvalid:
		return RPCInvalidToken
	case CodeCredentialsInvalid:
		return RPCInvalidCredentials
	case CodeIdentityNotFound:
		return RPCIdentityNotFound
	case CodeEmailInvalid:
		return RPCInvalidEmail
	case CodePasswordInvalid:
		return RPCInvalidPassword
	case CodeUsernameTaken:
		return RPCUsernameTaken
	case CodeVisitorNotAllowed:
		return RPCNotAllowedForVisitors
	case CodeParamsInvalid, CodeVersionMalformed:
		return RPCInvalidParamsFormat
	case CodeParamEmpty:
		return RPCEmptyParamValue
	case CodeItemNotFound, CodeNotFound,
		CodeRecoveryGrantInvalid, CodeRecoveryGrantExpired,
		CodeActivationHashMismatch:
		return RPCItemNotFound
	case CodeAccountExpired:
		return RPCAccountExpired
	case CodeVersionDeprecated:
		return RPCVersionDeprecated
	case CodeMethodNotFound:
		return RPCMethodNotFound
	default:
		return RPCInternalError
	}
}
