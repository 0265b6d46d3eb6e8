package observability

import (
	"log/slog"
	"os"
	"strconv"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Sampler env vars follow the OTel SDK convention and are read directly, not through config.
const (
	envTracesSampler    = "OTEL_TRACES_SAMPLER"
	envTracesSamplerArg = "OTEL_TRACES_SAMPLER_ARG"
)

// samplerFor maps OTEL_TRACES_SAMPLER values to samplers; ratio is OTEL_TRACES_SAMPLER_ARG.
var samplerFor = map[string]func(ratio float64) sdktrace.Sampler{
	"always_on":  func(float64) sdktrace.Sampler { return sdktrace.AlwaysSample() },
	"always_off": func(float64) sdktrace.Sampler { return sdktrace.NeverSample() },
	"traceidratio": func(ratio float64) sdktrace.Sampler {
		return sdktrace.TraceIDRatioBased(ratio)
	},
	"parentbased_traceidratio": func(ratio float64) sdktrace.Sampler {
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	},
	"parentbased_always_on": func(float64) sdktrace.Sampler {
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	},
	"parentbased_always_off": func(float64) sdktrace.Sampler {
		return sdktrace.ParentBased(sdktrace.NeverSample())
	},
}

// newSampler defaults to parentbased_always_on, so a traced backfill or rank request keeps
// its caller's decision.
func newSampler() sdktrace.Sampler {
	name := os.Getenv(envTracesSampler)

	build, ok := samplerFor[name]
	if !ok {
		if name != "" {
			slog.Warn("unknown trace sampler, using parentbased_always_on", "sampler", name)
		}

		build = samplerFor["parentbased_always_on"]
	}

	return build(traceIDRatio(os.Getenv(envTracesSamplerArg)))
}

// traceIDRatio parses a sampling ratio in [0, 1]; anything else samples everything.
func traceIDRatio(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || f > 1 {
		return 1
	}

	return f
}
