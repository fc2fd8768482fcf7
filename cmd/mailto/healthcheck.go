// healthcheck.go implements the container health probe command.

package main

import (
	"fmt"
	"net/http"
	"os"
	"time"
)

// cmdHealthcheck performs a lightweight HTTP check against the local
// server. It exists so a scratch-based container image can run its
// probe without curl, wget, or any other external tool.
//
// Usage:  mailto healthcheck [port]   (default 8080)
// Exit 0 = healthy, Exit 1 = unhealthy.
func cmdHealthcheck(args []string) {
	port := "8080"
	if len(args) > 0 {
		port = args[0]
	}

	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get("http://localhost:" + port + "/api/info")
	if err != nil {
		fmt.Fprintf(os.Stderr, "healthcheck failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "healthcheck failed: HTTP %d\n", resp.StatusCode)
		os.Exit(1)
	}

	os.Exit(0)
}
