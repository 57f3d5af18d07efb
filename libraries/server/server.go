package server

import (
	"errors"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bifrost-finance/bifrost-eos-relay/libraries/logger"
)

// Listen opens a unix socket when addr ends in .sock and a TCP listener
// otherwise.
func Listen(addr string) (net.Listener, error) {
	if strings.HasSuffix(addr, ".sock") {
		os.Remove(addr)
		ln, err := net.Listen("unix", addr)
		if err != nil {
			return nil, err
		}
		if err := os.Chmod(addr, 0777); err != nil {
			ln.Close()
			return nil, err
		}
		return ln, nil
	}
	return net.Listen("tcp", addr)
}

// Handler serves Prometheus metrics on /metrics and, when status is set, its
// result as JSON on /status.
func Handler(status func() any) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		if status == nil {
			WriteError(w, http.StatusNotFound, "no status available")
			return
		}
		WriteJSON(w, http.StatusOK, status())
	})
	return mux
}

// Serve runs handler on addr in the background.
func Serve(addr string, handler http.Handler) (*http.Server, error) {
	ln, err := Listen(addr)
	if err != nil {
		return nil, err
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server on %s: %v", addr, err)
		}
	}()
	logger.Printf("startup", "metrics listening on %s", addr)
	return srv, nil
}
