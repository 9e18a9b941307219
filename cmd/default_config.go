package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/queuenet-sim/queuenet-sim/sim"
	"github.com/queuenet-sim/queuenet-sim/sim/rngs"
)

// resolveConfig loads the network config at path and applies CLI overrides.
// Flags override the file only when explicitly set, so a zero-valued flag
// never clobbers a configured value. The returned seed is --seed when set,
// else the config seed, else rngs.DefaultSeed.
func resolveConfig(cmd *cobra.Command, path string) (*sim.Config, int64, error) {
	cfg, err := sim.LoadConfig(path)
	if err != nil {
		return nil, 0, err
	}

	if cmd.Flags().Changed("max-events") {
		logrus.Infof("--max-events=%d overrides config max_events=%d", maxEvents, cfg.MaxEvents)
		cfg.MaxEvents = maxEvents
	}
	if cmd.Flags().Changed("max-time") {
		logrus.Infof("--max-time=%.4f overrides config max_time=%.4f", maxTime, cfg.MaxTime)
		cfg.MaxTime = maxTime
	}

	baseSeed := rngs.DefaultSeed
	switch {
	case cmd.Flags().Changed("seed"):
		baseSeed = seed
	case cfg.Seed != 0:
		baseSeed = cfg.Seed
	}
	if baseSeed <= 0 || baseSeed >= rngs.Modulus {
		return nil, 0, fmt.Errorf("%w: %d", rngs.ErrSeedOutOfRange, baseSeed)
	}

	if err := cfg.Validate(); err != nil {
		return nil, 0, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, baseSeed, nil
}
