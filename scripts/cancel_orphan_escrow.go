// Manually cancel an escrow that the reconcile queue could not clean up.
// Owner address and offer sequence come from the enroll_orphan system log
// entry.
//
// Usage: go run scripts/cancel_orphan_escrow.go <ownerAddress> <offerSequence>
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/uniqdata/backend/internal/config"
	"github.com/uniqdata/backend/internal/core"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Println("Usage: cancel_orphan_escrow <ownerAddress> <offerSequence>")
		os.Exit(1)
	}

	ownerAddress := os.Args[1]
	offerSequence, err := strconv.ParseInt(os.Args[2], 10, 64)
	if err != nil {
		fmt.Printf("Invalid offer sequence %q: %v\n", os.Args[2], err)
		os.Exit(1)
	}

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	client := core.NewClient(&cfg.Core)
	resp, err := client.CancelEscrow(context.Background(), ownerAddress, offerSequence)
	if err != nil {
		fmt.Printf("Cancel failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Escrow cancelled, tx hash: %s\n", resp.TxHash)
}
