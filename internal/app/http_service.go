package app

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// httpService 包装 http.Server 为 Service
type httpService struct {
	name   string
	server *http.Server
}

func newHTTPService(name, addr string, handler http.Handler) *httpService {
	return &httpService{
		name: name,
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (s *httpService) Name() string { return s.name }

// Start 阻塞直到 Shutdown
func (s *httpService) Start(context.Context) error {
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *httpService) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
