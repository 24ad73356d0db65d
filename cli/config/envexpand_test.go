package config

import "testing"

func TestExpandEnv(t *testing.T) {
	t.Setenv("INTEL_TEST_SET", "real")
	t.Setenv("INTEL_TEST_EMPTY", "")
	t.Setenv("INTEL_TEST_HOST", "agent.internal")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"set var", "url: ${INTEL_TEST_SET}", "url: real"},
		{"unset var", "url: ${INTEL_TEST_UNSET_12345}", "url: "},
		{"default when unset", "url: ${INTEL_TEST_UNSET_12345:-fallback}", "url: fallback"},
		{"default when empty", "url: ${INTEL_TEST_EMPTY:-fallback}", "url: fallback"},
		{"default ignored when set", "url: ${INTEL_TEST_SET:-fallback}", "url: real"},
		{"multiple", "${INTEL_TEST_SET}:${INTEL_TEST_HOST}", "real:agent.internal"},
		{"no vars", "no variables here", "no variables here"},
		{"bare dollar untouched", "cost: $5 and $INTEL_TEST_SET", "cost: $5 and $INTEL_TEST_SET"},
		{
			"nested yaml",
			"api:\n  url: http://${INTEL_TEST_HOST}:8000\n  headers:\n    X-Api-Key: ${INTEL_TEST_SET}",
			"api:\n  url: http://agent.internal:8000\n  headers:\n    X-Api-Key: real",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpandEnv(tt.input); got != tt.want {
				t.Errorf("ExpandEnv(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
