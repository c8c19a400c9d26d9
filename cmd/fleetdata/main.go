package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go-fleetdata/internal/server"
	"go-fleetdata/pkg/app"
	"go-fleetdata/pkg/config"
	"go-fleetdata/pkg/module"
	"go-fleetdata/pkg/version"

	_ "go.uber.org/automaxprocs"
)

func main() {
	displayBanner()

	versionInfo := version.Get()
	log.Printf("🏷️  Version: %s | Build: %s", version.GetVersionString(), versionInfo.BuildDate)
	log.Printf("🖥️  CPUs: %d | GOMAXPROCS: %d", runtime.NumCPU(), runtime.GOMAXPROCS(0))

	appCtx, err := app.InitializeApp(server.ServiceName)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	log.Printf("💾 Memory: %s heap | %s total", formatBytes(m.HeapAlloc), formatBytes(m.Sys))
	if limit := readCgroupMemoryLimit(); limit > 0 {
		log.Printf("📦 Container limit: %s", formatBytes(uint64(limit)))
	}

	apiPrefix := config.GetAPIPrefix()
	srv := server.New(server.Options{
		Gateway:        appCtx.Gateway,
		Redis:          appCtx.Redis,
		RootAPIKey:     config.GetRootAPIKey(),
		CacheTTL:       config.GetCacheTTL(),
		APIPrefix:      apiPrefix,
		ServerURL:      config.GetServerURL(),
		ServerDesc:     config.GetServerDescription(),
		RequestTimeout: config.GetDurationEnv("REQUEST_TIMEOUT", 60*time.Second),
		HealthChecks:   appCtx.HealthChecks(),
	})
	if config.GetRootAPIKey() == "" {
		slog.Warn("ROOT_API_KEY is not set, write operations are open")
	}

	port := app.GetPort("8080")
	host := config.GetHost()
	httpServer := &http.Server{
		Addr:         host + ":" + port,
		Handler:      srv.Router,
		ReadTimeout:  config.GetDurationEnv("READ_TIMEOUT", 60*time.Second),
		WriteTimeout: config.GetDurationEnv("WRITE_TIMEOUT", 120*time.Second),
		IdleTimeout:  60 * time.Second,
	}

	if host == "0.0.0.0" || host == "" {
		log.Printf("🚀 Server: http://localhost:%s%s | OpenAPI: %s/openapi.json | Storage: %s", port, apiPrefix, apiPrefix, appCtx.StorageDriver)
	} else {
		log.Printf("🚀 Server: http://%s%s | OpenAPI: %s/openapi.json | Storage: %s", httpServer.Addr, apiPrefix, apiPrefix, appCtx.StorageDriver)
	}

	go func() {
		slog.Info("Starting fleet data API server", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Received shutdown signal, initiating graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	module.StopAll(srv.Modules...)
	appCtx.Shutdown(shutdownCtx)

	slog.Info("Fleet data API shutdown completed successfully")
}

func displayBanner() {
	fmt.Print("\n\033[38;5;33m")
	fmt.Println("FLEETDATA API Server")
	fmt.Print("\033[38;5;39m")
	fmt.Println("schema versions 2-9 in, 9 out")
	fmt.Print("\033[0m\n")
}

// formatBytes converts bytes to human readable format
func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// readCgroupMemoryLimit returns the cgroups v2 memory limit, or 0 when none
// is set.
func readCgroupMemoryLimit() int64 {
	data, err := os.ReadFile("/sys/fs/cgroup/memory.max")
	if err != nil {
		return 0
	}
	limit, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0
	}
	return limit
}
