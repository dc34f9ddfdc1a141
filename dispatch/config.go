package dispatch

import (
	"github.com/kbukum/taskkit/config"
	"github.com/kbukum/taskkit/logger"
)

// Config is the file/env-loadable Dispatcher configuration.
//
//	dispatch:
//	  mode: threads
//	  workers: 8
//	  output_file: results.txt.gz
//	logging:
//	  level: info
type Config struct {
	// Mode pins the execution mode. Empty auto-selects.
	Mode string `yaml:"mode" mapstructure:"mode" validate:"omitempty,oneof=sequential threads processes cluster"`
	// Workers overrides the probed worker count.
	Workers int `yaml:"workers" mapstructure:"workers" validate:"gte=0"`
	// WorkerCountVar names an environment variable holding the worker count.
	WorkerCountVar string `yaml:"worker_count_var" mapstructure:"worker_count_var"`
	// OutputFile persists formatted outcomes, compressed by extension.
	OutputFile string `yaml:"output_file" mapstructure:"output_file"`
	// OutputTemplate is the fmt template for sink records.
	OutputTemplate string `yaml:"output_template" mapstructure:"output_template"`
	// LogTemplate enables a per-result info log line.
	LogTemplate string `yaml:"log_template" mapstructure:"log_template"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.OutputTemplate == "" {
		c.OutputTemplate = "%v\n"
	}
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	return config.Validate(c)
}

// Options converts the config into Dispatcher options.
func (c *Config) Options() ([]Option, error) {
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var opts []Option
	if c.Mode != "" {
		m, err := ParseMode(c.Mode)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithMode(m))
	}
	if c.Workers > 0 {
		opts = append(opts, WithWorkers(c.Workers))
	}
	if c.WorkerCountVar != "" {
		opts = append(opts, WithWorkerCountVar(c.WorkerCountVar))
	}
	if c.OutputFile != "" {
		opts = append(opts, WithOutputFile(c.OutputFile))
	}
	opts = append(opts, WithOutputTemplate(c.OutputTemplate))
	if c.LogTemplate != "" {
		opts = append(opts, WithLogTemplate(c.LogTemplate))
	}
	return opts, nil
}

// FileConfig is the top-level shape of a taskkit config file: the dispatch
// settings plus the logging collaborator's own configuration.
type FileConfig struct {
	Dispatch Config        `yaml:"dispatch" mapstructure:"dispatch"`
	Logging  logger.Config `yaml:"logging" mapstructure:"logging"`
}

// FromConfigFile loads configuration (yaml file, .env, TASKKIT_* env
// overrides) and builds a Dispatcher from it.
func FromConfigFile(opts ...config.LoaderOption) (*Dispatcher, error) {
	var fc FileConfig
	if err := config.Load("taskkit", &fc, opts...); err != nil {
		return nil, err
	}

	fc.Logging.ApplyDefaults()
	if err := fc.Logging.Validate(); err != nil {
		return nil, err
	}
	log := logger.New(&fc.Logging, "taskkit")

	dopts, err := fc.Dispatch.Options()
	if err != nil {
		return nil, err
	}
	return New(append(dopts, WithLogger(log))...)
}
