package tracing

import (
	"io"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	jaegercfg "github.com/uber/jaeger-client-go/config"
	jaegerzap "github.com/uber/jaeger-client-go/log/zap"
	"go.uber.org/zap"

	"max.ks1230/spendings/internal/logger"
)

type config interface {
	ServiceName() string
	AgentHostPort() string
	Sampler() (string, float64)
	Enabled() bool
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Init installs a jaeger tracer as the global opentracing tracer.
// Without an agent address the default no-op tracer stays in place.
func Init(cfg config, component string) (io.Closer, error) {
	if !cfg.Enabled() {
		logger.Info("tracing disabled")
		return nopCloser{}, nil
	}

	samplerType, samplerParam := cfg.Sampler()
	jcfg := jaegercfg.Configuration{
		ServiceName: cfg.ServiceName() + "-" + component,
		Sampler: &jaegercfg.SamplerConfig{
			Type:  samplerType,
			Param: samplerParam,
		},
		Reporter: &jaegercfg.ReporterConfig{
			LocalAgentHostPort: cfg.AgentHostPort(),
		},
	}

	tracer, closer, err := jcfg.NewTracer(jaegercfg.Logger(jaegerzap.NewLogger(logger.Underlying())))
	if err != nil {
		return nil, errors.Wrap(err, "init jaeger tracer")
	}
	opentracing.SetGlobalTracer(tracer)
	logger.Info("tracing enabled", zap.String("service", jcfg.ServiceName), zap.String("agent", cfg.AgentHostPort()))
	return closer, nil
}
