// Command graphctl checks and queries the Neo4j database configured through
// NEO4J_* settings, and can serve a health-checked HTTP/gRPC endpoint for it.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := Execute(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
