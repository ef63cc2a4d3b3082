package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"employeesurvey/survey-client/internal/apiclient"
	"employeesurvey/survey-client/internal/config"
	"employeesurvey/survey-client/internal/models"
	"employeesurvey/survey-client/internal/surveys"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(2)
	}

	timeout := 60 * time.Second
	if raw := os.Getenv("WAIT_FOR_API_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			fmt.Fprintf(os.Stderr, "invalid WAIT_FOR_API_TIMEOUT: %q\n", raw)
			os.Exit(2)
		}
		timeout = d
	}

	client, err := apiclient.New(apiclient.Config{BaseURL: cfg.API.BaseURL, Timeout: 2 * time.Second}, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create api client: %v\n", err)
		os.Exit(2)
	}
	svc, err := surveys.NewService(client, surveys.ServiceConfig{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "create survey service: %v\n", err)
		os.Exit(2)
	}

	if err := waitForHealth(context.Background(), svc, timeout, 2*time.Second); err != nil {
		fmt.Fprintf(os.Stderr, "survey api at %s not ready within %s: %v\n", cfg.API.BaseURL, timeout, err)
		os.Exit(1)
	}
	fmt.Println("survey api ready")
}

type healthChecker interface {
	Health(ctx context.Context) (models.Health, error)
}

// waitForHealth polls until the API reports status ok or timeout elapses.
func waitForHealth(ctx context.Context, svc healthChecker, timeout, interval time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		h, err := svc.Health(ctx)
		if err == nil && h.Status != "ok" {
			err = fmt.Errorf("health status %q", h.Status)
		}
		if err == nil {
			return nil
		}
		if time.Now().Add(interval).After(deadline) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
