// Package main provides a one-shot utility for recovery grant key generation.
//
// It emits the asymmetric keypair used to sign password recovery grants.
package main

import (
	"os"

	"github.com/louisbranch/accountgate/internal/platform/config"
	"github.com/louisbranch/accountgate/internal/tools/recoverykey"
)

func main() {
	if err := recoverykey.Run(os.Stdout, nil); err != nil {
		config.Exitf("generate recovery grant key: %v", err)
	}
}
