// Command healthcheck is the container HEALTHCHECK probe. It exits 0 when the
// local server answers its liveness (or, with -ready, readiness) endpoint.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/genocem/Edumond-AI-portal/internal/config"
)

func main() {
	ready := flag.Bool("ready", false, "probe /readyz instead of /livez")
	timeout := flag.Duration("timeout", 8*time.Second, "request timeout")
	flag.Parse()

	port := os.Getenv(config.EnvPort)
	if port == "" {
		port = config.DefaultPort
	}
	path := "/livez"
	if *ready {
		path = "/readyz"
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	if err := probe(ctx, http.DefaultClient, fmt.Sprintf("http://localhost:%s%s", port, path)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// probe requires a 200 whose JSON body does not report a failing status.
func probe(ctx context.Context, client *http.Client, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: status %d", url, resp.StatusCode)
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("%s: decode body: %w", url, err)
	}
	if body.Status == "" {
		return fmt.Errorf("%s: missing status", url)
	}
	return nil
}
