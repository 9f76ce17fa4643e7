// Package main is a minimal HTTP health check binary for use in distroless
// containers. It exits 0 when the liveness endpoint returns HTTP 200, and 1
// otherwise. Compile with CGO_ENABLED=0 for a fully static binary.
package main

import (
	"net/http"
	"os"
	"time"
)

func main() {
	addr := "http://localhost:8080"
	if v := os.Getenv("BOOKMARKS_HEALTHCHECK_ADDR"); v != "" {
		addr = v
	}

	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get(addr + "/bookmarks/v1/health/")
	if err != nil {
		os.Exit(1)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}
