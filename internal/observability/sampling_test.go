package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSampler(t *testing.T) {
	tests := []struct {
		sampler string
		arg     string
		want    string
	}{
		{"", "", "ParentBased{root:AlwaysOnSampler"},
		{"bogus", "", "ParentBased{root:AlwaysOnSampler"},
		{"always_off", "", "AlwaysOffSampler"},
		{"traceidratio", "0.25", "TraceIDRatioBased{0.25}"},
		{"parentbased_traceidratio", "2", "ParentBased{root:TraceIDRatioBased{1}"},
	}

	for _, tt := range tests {
		t.Run(tt.sampler+"/"+tt.arg, func(t *testing.T) {
			t.Setenv(envTracesSampler, tt.sampler)
			t.Setenv(envTracesSamplerArg, tt.arg)

			assert.Contains(t, newSampler().Description(), tt.want)
		})
	}
}

func TestTraceIDRatio(t *testing.T) {
	assert.InDelta(t, 0.1, traceIDRatio("0.1"), 1e-9)
	assert.InDelta(t, 1.0, traceIDRatio(""), 1e-9)
	assert.InDelta(t, 1.0, traceIDRatio("-0.5"), 1e-9)
	assert.InDelta(t, 1.0, traceIDRatio("abc"), 1e-9)
}
