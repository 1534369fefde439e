// Copyright 2025 go-highway Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package commands implements the hwyinfo command tree.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ajroetker/go-highway-rt/hwy"
	"github.com/ajroetker/go-highway-rt/hwy/contrib/scheduler"
	"github.com/ajroetker/go-highway-rt/internal/config"
	"github.com/ajroetker/go-highway-rt/internal/logging"

	// Registered operators.
	_ "github.com/ajroetker/go-highway-rt/hwy/contrib/elementwise"
	_ "github.com/ajroetker/go-highway-rt/hwy/contrib/pool2d"
	_ "github.com/ajroetker/go-highway-rt/hwy/contrib/reduce"
)

// options holds the persistent flags and the configuration derived from
// them.
type options struct {
	cfgFile  string
	logLevel string
	threads  int
	without  []string

	cfg      *config.Config
	strategy scheduler.Strategy
}

// NewRootCommand builds the hwyinfo command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "hwyinfo",
		Short: "Inspect kernel selection and work partitioning",
		Long: `hwyinfo reports what the kernel runtime sees on this machine.

It prints the detected CPU capabilities, lists registered kernels in
selection order, shows which kernel a problem selects and how a window
is split across threads, and verifies that the bundled operators give
identical results for every thread count.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.init()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.cfgFile, "config", "", "config file (YAML, TOML or JSON)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level, overrides HWY_LOG_LEVEL")
	flags.IntVarP(&opts.threads, "threads", "t", 0, "thread count, overrides HWY_NUM_THREADS (0 = one per CPU)")
	flags.StringSliceVar(&opts.without, "without", nil, "features to mask from the detected capabilities, e.g. sve,sme")

	root.AddCommand(
		newCapsCommand(opts),
		newKernelsCommand(opts),
		newSelectCommand(opts),
		newPartitionCommand(opts),
		newVerifyCommand(opts),
	)
	return root
}

func (o *options) init() error {
	cfg, err := config.Load(o.cfgFile)
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.threads < 0 {
		return fmt.Errorf("--threads must be >= 0, got %d", o.threads)
	}
	if o.threads == 0 {
		o.threads = cfg.NumThreads
	}
	if err := logging.Init(cfg.Log.Level, cfg.Log.File, cfg.Log.Console); err != nil {
		return err
	}
	st, err := scheduler.ParseStrategy(cfg.Strategy)
	if err != nil {
		return err
	}
	o.cfg, o.strategy = cfg, st
	return nil
}

// capabilities returns the host capabilities minus the --without features.
func (o *options) capabilities() (hwy.Capabilities, error) {
	caps := hwy.GetCapabilities()
	for _, name := range o.without {
		f, ok := hwy.ParseFeature(name)
		if !ok {
			return caps, fmt.Errorf("unknown feature %q", name)
		}
		caps = caps.Without(f)
	}
	return caps, nil
}

// newScheduler creates a scheduler for threads threads (0 = --threads)
// reporting the masked capabilities.
func (o *options) newScheduler(threads int) (*scheduler.Scheduler, error) {
	caps, err := o.capabilities()
	if err != nil {
		return nil, err
	}
	if threads == 0 {
		threads = o.threads
	}
	return scheduler.New(threads, scheduler.WithCapabilities(caps), scheduler.WithStrategy(o.strategy)), nil
}
