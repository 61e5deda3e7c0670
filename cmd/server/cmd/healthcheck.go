package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type healthcheckOptions struct {
	timeout time.Duration
	url     string
}

// HealthResponse matches the /readyz response body.
type HealthResponse struct {
	Status string                 `json:"status"`
	Checks map[string]CheckResult `json:"checks,omitempty"`
}

type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func newHealthcheckCommand() *cobra.Command {
	hopts := &healthcheckOptions{}
	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Check if the server is healthy",
		Long: `Performs a health check by calling the /readyz endpoint.

This command is used by Docker HEALTHCHECK to monitor container health.
It exits with code 0 if the server is healthy, non-zero otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			url := hopts.url
			if url == "" {
				url = defaultHealthcheckURL()
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), hopts.timeout)
			defer cancel()

			resp, err := performHealthCheck(ctx, newHealthcheckClient(), url)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", url, resp.Status)
			return nil
		},
	}

	cmd.Flags().DurationVar(&hopts.timeout, "timeout", 5*time.Second, "request timeout")
	cmd.Flags().StringVar(&hopts.url, "url", "", "health check URL (default: http://localhost:{SERVER_PORT}/readyz)")
	return cmd
}

func defaultHealthcheckURL() string {
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}
	return fmt.Sprintf("http://localhost:%s/readyz", port)
}

// newHealthcheckClient propagates trace context so probes show up next to
// the server spans they trigger.
func newHealthcheckClient() *http.Client {
	return &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
}

// performHealthCheck succeeds only for a 200 response whose status is
// "healthy".
func performHealthCheck(ctx context.Context, client *http.Client, url string) (*HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("parse health response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		return &health, fmt.Errorf("unhealthy: status %d (%s)", resp.StatusCode, failingChecks(health))
	}
	if health.Status != "healthy" {
		return &health, fmt.Errorf("unhealthy: status=%s", health.Status)
	}
	return &health, nil
}

func failingChecks(h HealthResponse) string {
	for name, check := range h.Checks {
		if check.Status == "fail" {
			return name + ": " + check.Message
		}
	}
	return h.Status
}
