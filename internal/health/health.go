package health

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

type ComponentHealth struct {
	Name    string `json:"name"`
	Status  Status `json:"status"`
	Latency int64  `json:"latency_ms"`
	Error   string `json:"error,omitempty"`
}

type HealthResponse struct {
	Status     Status            `json:"status"`
	Components []ComponentHealth `json:"components,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

type Checker struct {
	rendererPath string
	tempDir      string
}

func NewChecker(rendererPath, tempDir string) *Checker {
	return &Checker{rendererPath: rendererPath, tempDir: tempDir}
}

func (c *Checker) CheckAll(ctx context.Context) HealthResponse {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	components := make([]ComponentHealth, 0, 2)
	mu := sync.Mutex{}

	if c.rendererPath != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			comp := c.checkRenderer(ctx)
			mu.Lock()
			components = append(components, comp)
			mu.Unlock()
		}()
	}

	if c.tempDir != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			comp := c.checkTempDir()
			mu.Lock()
			components = append(components, comp)
			mu.Unlock()
		}()
	}

	wg.Wait()

	status := StatusHealthy
	for _, comp := range components {
		if comp.Status == StatusUnhealthy {
			status = StatusUnhealthy
			break
		}
	}

	return HealthResponse{
		Status:     status,
		Components: components,
		Timestamp:  time.Now(),
	}
}

func (c *Checker) checkRenderer(ctx context.Context) ComponentHealth {
	start := time.Now()
	err := exec.CommandContext(ctx, c.rendererPath, "-v").Run()
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return ComponentHealth{
			Name:    "renderer",
			Status:  StatusUnhealthy,
			Latency: latency,
			Error:   err.Error(),
		}
	}
	return ComponentHealth{
		Name:    "renderer",
		Status:  StatusHealthy,
		Latency: latency,
	}
}

func (c *Checker) checkTempDir() ComponentHealth {
	start := time.Now()
	probe := filepath.Join(c.tempDir, ".health-probe")
	err := os.WriteFile(probe, []byte("ok"), 0600)
	if err == nil {
		_ = os.Remove(probe)
	}
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return ComponentHealth{
			Name:    "temp_dir",
			Status:  StatusUnhealthy,
			Latency: latency,
			Error:   err.Error(),
		}
	}
	return ComponentHealth{
		Name:    "temp_dir",
		Status:  StatusHealthy,
		Latency: latency,
	}
}

func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	}
}

func ReadinessHandler(checker *Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := checker.CheckAll(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if resp.Status == StatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func HealthHandler(checker *Checker) http.HandlerFunc {
	return ReadinessHandler(checker)
}
