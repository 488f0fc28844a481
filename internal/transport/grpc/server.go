// grpc собирает gRPC-сервер auth-сервиса. Сервер публикует стандартный
// grpc.health.v1, статус которого отражает доступность хранилища.
package grpc

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/pribylovaa/btj-academy/internal/transport/grpc/interceptors"
)

// Options: параметры сборки gRPC-сервера.
type Options struct {
	Logger     *slog.Logger
	Timeout    time.Duration
	Reflection bool // только для local/dev
}

// NewServer создаёт gRPC-сервер с цепочкой интерсепторов и health-сервисом.
func NewServer(opts Options) (*grpc.Server, *health.Server) {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			interceptors.Recover(opts.Logger),
			interceptors.UnaryLogging(opts.Logger),
			interceptors.WithTimeout(opts.Timeout),
			grpc_prometheus.UnaryServerInterceptor,
		),
		grpc.ChainStreamInterceptor(
			grpc_prometheus.StreamServerInterceptor,
		),
	)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	if opts.Reflection {
		reflection.Register(srv)
	}

	grpc_prometheus.Register(srv)

	return srv, hs
}

// Pinger: проверка доступности зависимости (хранилища).
type Pinger interface {
	Ping(ctx context.Context) error
}

// Readiness связывает доступность хранилища со статусом health-сервиса
// и флагом готовности для HTTP /healthz.
type Readiness struct {
	hs      *health.Server
	pinger  Pinger
	log     *slog.Logger
	timeout time.Duration
	ready   atomic.Bool
	stopped atomic.Bool
}

func NewReadiness(hs *health.Server, p Pinger, log *slog.Logger) *Readiness {
	if log == nil {
		log = slog.Default()
	}

	return &Readiness{hs: hs, pinger: p, log: log, timeout: 2 * time.Second}
}

// Check пингует хранилище и выставляет статус SERVING/NOT_SERVING.
// После Shutdown статус не меняется.
func (r *Readiness) Check(ctx context.Context) error {
	if r.stopped.Load() {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	err := r.pinger.Ping(ctx)
	if err != nil {
		if r.ready.Swap(false) {
			r.log.Warn("storage_unavailable", slog.String("err", err.Error()))
		}
		r.hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
		return err
	}

	if !r.ready.Swap(true) {
		r.log.Info("storage_available")
	}
	r.hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	return nil
}

// Run периодически вызывает Check до отмены ctx.
func (r *Readiness) Run(ctx context.Context, period time.Duration) {
	if period <= 0 {
		return
	}

	t := time.NewTicker(period)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			_ = r.Check(ctx)
		}
	}
}

// Ready сообщает результат последней проверки.
func (r *Readiness) Ready() bool {
	return r.ready.Load() && !r.stopped.Load()
}

// Shutdown переводит сервис в NOT_SERVING перед остановкой.
func (r *Readiness) Shutdown() {
	r.stopped.Store(true)
	r.ready.Store(false)
	r.hs.Shutdown()
}
