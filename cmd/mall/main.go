// cmd/mall/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"

	mallhttp "marketplace/internal/adapters/in/http/mall"
	appcfg "marketplace/internal/infra/config"
	"marketplace/internal/infra/logging"
	mallDI "marketplace/internal/platform/di/mall"
	shared "marketplace/internal/platform/di/shared"
)

// atomicHandler allows swapping the underlying handler at runtime safely.
type atomicHandler struct {
	v atomic.Value // stores http.Handler
}

func newAtomicHandler(initial http.Handler) *atomicHandler {
	ah := &atomicHandler{}
	if initial == nil {
		initial = http.NotFoundHandler()
	}
	ah.v.Store(initial)
	return ah
}

func (h *atomicHandler) Store(next http.Handler) {
	if next == nil {
		return
	}
	h.v.Store(next)
}

func (h *atomicHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cur := h.v.Load()
	if cur == nil {
		http.NotFound(w, r)
		return
	}
	cur.(http.Handler).ServeHTTP(w, r)
}

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[boot] config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[boot] logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	boot := logger.Named("boot")

	// GCP clients keep this ctx for token refresh; it lives until shutdown.
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// ─────────────────────────────────────────────────────────────
	// Start listening ASAP with a healthz-only router
	// ─────────────────────────────────────────────────────────────
	switcher := newAtomicHandler(mallhttp.NewRouter(mallhttp.Deps{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:             logger,
	}))

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      switcher,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var infraHolder atomic.Pointer[shared.Infra]
	var mallHolder atomic.Pointer[mallDI.Container]

	shuttingDown := make(chan struct{})

	// ─────────────────────────────────────────────────────────────
	// Graceful shutdown
	// ─────────────────────────────────────────────────────────────
	idleConnsClosed := make(chan struct{})
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		sig := <-c

		close(shuttingDown)
		boot.Info("shutting down", zap.String("signal", sig.String()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			boot.Warn("server shutdown error", zap.Error(err))
		}

		if cont := mallHolder.Swap(nil); cont != nil {
			if err := cont.Close(); err != nil {
				boot.Warn("mall container close error", zap.Error(err))
			}
		}
		if infra := infraHolder.Swap(nil); infra != nil {
			boot.Info("closing infra resources")
			if err := infra.Close(); err != nil {
				boot.Warn("infra close error", zap.Error(err))
			}
		}
		rootCancel()

		close(idleConnsClosed)
	}()

	// Start server NOW (Cloud Run startup requirement)
	go func() {
		boot.Info("listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			boot.Fatal("server error", zap.Error(err))
		}
	}()

	// ─────────────────────────────────────────────────────────────
	// Heavy DI init in background; then swap handler to the full router
	// ─────────────────────────────────────────────────────────────
	go func() {
		infra, err := shared.NewInfra(rootCtx, cfg, logger)
		if err != nil {
			boot.Warn("shared infra init failed (serving /healthz only)", zap.Error(err))
			return
		}
		infraHolder.Store(infra)

		mallCont, err := mallDI.NewContainer(rootCtx, infra)
		if err != nil {
			if infraHolder.CompareAndSwap(infra, nil) {
				_ = infra.Close()
			}
			boot.Warn("mall di init failed (serving /healthz only)", zap.Error(err))
			return
		}
		mallHolder.Store(mallCont)

		select {
		case <-shuttingDown:
			if c := mallHolder.Swap(nil); c != nil {
				_ = c.Close()
			}
			if i := infraHolder.Swap(nil); i != nil {
				_ = i.Close()
			}
			return
		default:
		}

		switcher.Store(mallDI.Handler(mallCont))
		boot.Info("handler switched to mall router")
	}()

	<-idleConnsClosed
	boot.Info("server stopped")
}
