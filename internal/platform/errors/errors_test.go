package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := New(CodeTokenInvalid, "token not valid")
	target := New(CodeTokenInvalid, "different message")
	if !stderrors.Is(err, target) {
		t.Fatal("expected errors with the same code to match")
	}
	other := New(CodeTokenMissing, "token is required")
	if stderrors.Is(err, other) {
		t.Fatal("expected different codes not to match")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Wrap(CodeInternal, "store session", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be found")
	}
	if err.Error() != "store session" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(CodeAccountExpired, "expired")); got != CodeAccountExpired {
		t.Fatalf("expected account expired code, got %q", got)
	}
	if got := GetCode(fmt.Errorf("plain")); got != CodeUnknown {
		t.Fatalf("expected unknown code for plain error, got %q", got)
	}
	if got := GetCode(nil); got != CodeUnknown {
		t.Fatalf("expected unknown code for nil error, got %q", got)
	}
}

func TestGetMetadata(t *testing.T) {
	err := WithMetadata(CodeAccountExpired, "expired", map[string]string{"email": "a@b.com"})
	meta := GetMetadata(err)
	if meta["email"] != "a@b.com" {
		t.Fatalf("expected metadata email, got %v", meta)
	}
	if GetMetadata(fmt.Errorf("plain")) != nil {
		t.Fatal("expected nil metadata for plain error")
	}
}

func TestRPCCodeMapping(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeTokenMissing, -32000},
		{CodeTokenInvalid, -32001},
		{CodeCredentialsInvalid, -32002},
		{CodeIdentityNotFound, -32003},
		{CodeEmailInvalid, -32004},
		{CodePasswordInvalid, -32005},
		{CodeUsernameTaken, -32006},
		{CodeVisitorNotAllowed, -32007},
		{CodeParamsInvalid, -32008},
		{CodeVersionMalformed, -32008},
		{CodeParamEmpty, -32009},
		{CodeItemNotFound, -32010},
		{CodeNotFound, -32010},
		{CodeAccountExpired, -32011},
		{CodeVersionDeprecated, -32012},
		{CodeMethodNotFound, -32601},
		{CodeInternal, -32603},
		{CodeUnknown, -32603},
	}
	for _, tc := range tests {
		if got := tc.code.RPCCode(); got != tc.want {
			t.Fatalf("code %q: expected %d, got %d", tc.code, tc.want, got)
		}
	}
}
