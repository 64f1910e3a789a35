package runner

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/projectdiscovery/arpx/pkg/arp"
	"github.com/projectdiscovery/arpx/pkg/stack"
	"github.com/stretchr/testify/require"
)

func defaultOptions() *Options {
	return &Options{
		Interface:   InterfaceEnv,
		Transport:   TransportEnv,
		Self:        SelfEnv,
		Concurrency: stack.DefaultConcurrency,
		Timeout:     DefaultTimeout,
		RetryPeriod: arp.DefaultRetryPeriod,
		WatchWindow: DefaultWatchWindow,
	}
}

func TestValidateOptions(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(o *Options)
		wantErr string
	}{
		{name: "targets", modify: func(o *Options) { o.Targets = []string{"10.0.0.1"} }},
		{name: "serve only", modify: func(o *Options) { o.Serve = true }},
		{name: "no input", modify: func(o *Options) {}, wantErr: "no input"},
		{name: "bad transport", modify: func(o *Options) { o.Serve = true; o.Transport = "tap" }, wantErr: "unknown transport"},
		{name: "bad self", modify: func(o *Options) { o.Serve = true; o.Self = "fe80::1" }, wantErr: "invalid self"},
		{name: "zero concurrency", modify: func(o *Options) { o.Serve = true; o.Concurrency = 0 }, wantErr: "concurrency"},
		{name: "zero timeout", modify: func(o *Options) { o.Serve = true; o.Timeout = 0 }, wantErr: "timeout"},
		{name: "zero window", modify: func(o *Options) { o.Serve = true; o.WatchWindow = 0 }, wantErr: "watch window"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := defaultOptions()
			o.Transport = TransportPcap
			tt.modify(o)
			err := o.validateOptions()
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestLoadConfigFrom(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arpx.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
interface = "eth1"
targets = ["10.0.0.0/24", " "]
concurrency = 8
timeout = "2s"
retry_period = "250ms"
serve = true
json = true
`), 0o644))

	o := defaultOptions()
	o.JSON = false
	require.NoError(t, o.loadConfigFrom(path))
	require.Equal(t, "eth1", o.Interface)
	require.Equal(t, []string{"10.0.0.0/24"}, []string(o.Targets))
	require.Equal(t, 8, o.Concurrency)
	require.Equal(t, 2*time.Second, o.Timeout)
	require.Equal(t, 250*time.Millisecond, o.RetryPeriod)
	require.True(t, o.Serve)
	require.True(t, o.JSON)
	require.Equal(t, DefaultWatchWindow, o.WatchWindow)
}

func TestLoadConfigFlagsWin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arpx.toml")
	require.NoError(t, os.WriteFile(path, []byte("concurrency = 8\ntargets = [\"10.0.0.1\"]\n"), 0o644))

	o := defaultOptions()
	o.Concurrency = 2
	o.Targets = []string{"10.0.0.9"}
	require.NoError(t, o.loadConfigFrom(path))
	require.Equal(t, 2, o.Concurrency)
	require.Equal(t, []string{"10.0.0.9"}, []string(o.Targets))
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte(`timeout = "soon"`), 0o644))

	o := defaultOptions()
	require.ErrorContains(t, o.loadConfigFrom(bad), "parse timeout")
	require.Error(t, defaultOptions().loadConfigFrom(filepath.Join(dir, "missing.toml")))
}
