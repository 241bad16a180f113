package main

import (
	"fmt"
	"os"

	"github.com/courierhq/courier/seed"
)

/* validate-seed - Standalone CLI tool to validate seed.yaml
 * Usage: go run cmd/validate-seed/main.go [seed.yaml]
 * Exit codes: 0 = valid, 1 = invalid
 */

func main() {
	seedFile := "seed.yaml"
	if len(os.Args) > 1 {
		seedFile = os.Args[1]
	}

	fmt.Printf("Validating seed file: %s\n", seedFile)

	loader := seed.NewLoader()
	if err := loader.Load(seedFile); err != nil {
		fmt.Fprintf(os.Stderr, "❌ VALIDATION FAILED\n\n")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	destinations := loader.List()
	fmt.Printf("✓ VALIDATION PASSED\n\n")
	fmt.Printf("Loaded %d destination(s):\n", len(destinations))

	for i, d := range destinations {
		fmt.Printf("\n%d. Destination: %s\n", i+1, d.ID)
		fmt.Printf("   URL:       %s\n", d.URL)
		fmt.Printf("   Active:    %t\n", d.IsActive)
	}

	fmt.Printf("\n✓ All destinations are valid!\n")
	os.Exit(0)
}
