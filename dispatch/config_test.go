package dispatch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kbukum/taskkit/config"
)

func TestConfigDefaults(t *testing.T) {
	var c Config
	c.ApplyDefaults()
	if c.OutputTemplate != "%v\n" {
		t.Errorf("unexpected default output template %q", c.OutputTemplate)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"empty is valid", Config{}, false},
		{"known mode", Config{Mode: "threads"}, false},
		{"unknown mode", Config{Mode: "fibers"}, true},
		{"negative workers", Config{Workers: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.ApplyDefaults()
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigOptions(t *testing.T) {
	c := Config{
		Mode:           "sequential",
		Workers:        4,
		OutputTemplate: "%v\n",
	}
	opts, err := c.Options()
	if err != nil {
		t.Fatalf("Options: %v", err)
	}

	o := defaultOptions().with(opts)
	if o.mode != ModeSequential {
		t.Errorf("expected sequential mode, got %q", o.mode)
	}
	if o.workers != 4 {
		t.Errorf("expected 4 workers, got %d", o.workers)
	}
}

func TestConfigOptionsRejectsBadMode(t *testing.T) {
	c := Config{Mode: "fibers"}
	if _, err := c.Options(); err == nil {
		t.Fatal("expected validation error for unknown mode")
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range AllModes() {
		got, err := ParseMode(string(m))
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %v, %v", m, got, err)
		}
	}
	if _, err := ParseMode("fibers"); err == nil {
		t.Error("expected error for unknown mode name")
	}
}

func TestFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taskkit.yml")
	data := []byte(`dispatch:
  mode: sequential
  log_template: "done %v"
logging:
  level: warn
  format: json
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	d, err := FromConfigFile(config.WithConfigFile(path))
	if err != nil {
		t.Fatalf("FromConfigFile: %v", err)
	}
	if d.Mode() != ModeSequential {
		t.Errorf("expected sequential from file, got %s", d.Mode())
	}
	if d.opts.logTemplate != "done %v" {
		t.Errorf("log template not carried, got %q", d.opts.logTemplate)
	}
}
