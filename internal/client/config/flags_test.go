package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	base := Config{ServerEndpointAddr: "base:1", OnlineCheckInterval: 5 * time.Second, RequestTimeout: 7 * time.Second}

	cases := map[string]struct {
		args  []string
		want  Config
		panic bool
	}{
		"every flag": {
			args: []string{"-a", "10.0.0.5:6000", "-i", "30", "-t", "45", "-k", "ops"},
			want: Config{ServerEndpointAddr: "10.0.0.5:6000", OnlineCheckInterval: 30 * time.Second, RequestTimeout: 45 * time.Second, AdminToken: "ops"},
		},
		"untouched fields keep their value": {
			args: []string{"-t", "1"},
			want: Config{ServerEndpointAddr: "base:1", OnlineCheckInterval: 5 * time.Second, RequestTimeout: time.Second},
		},
		"config path and test flags are skipped": {
			args: []string{"-config", "x.json", "-test.run=TestX", "-a=other:2"},
			want: Config{ServerEndpointAddr: "other:2", OnlineCheckInterval: 5 * time.Second, RequestTimeout: 7 * time.Second},
		},
		"non-numeric timeout": {
			args:  []string{"-t", "soon"},
			panic: true,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			withArgs(t, tc.args...)
			got := base

			if tc.panic {
				require.Panics(t, func() { parseFlags(&got) })
				return
			}
			require.NotPanics(t, func() { parseFlags(&got) })
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
