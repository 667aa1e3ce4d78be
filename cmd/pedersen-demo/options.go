package main

import (
	"fmt"
	"time"

	"github.com/Caqil/pedersen-mpc/pkg/crypto/group"
	"github.com/Caqil/pedersen-mpc/pkg/crypto/hash"
	"github.com/Caqil/pedersen-mpc/pkg/logger"
	"github.com/Caqil/pedersen-mpc/pkg/mpc"
)

// options is the resolved demo configuration
type options struct {
	group    group.GroupType
	mpc      *mpc.Config
	a, b     int64
	coinBits int
	encrypt  bool
	rate     float64
	storeDir string
	password string
	log      *logger.Config
}

func loadOptions() (*options, error) {
	groupType, err := group.ParseGroupType(settings.GetString("group"))
	if err != nil {
		return nil, err
	}
	policy, err := mpc.ParseExclusionPolicy(settings.GetString("exclusion"))
	if err != nil {
		return nil, err
	}
	commitHash, err := hash.ParseHashFunction(settings.GetString("hash"))
	if err != nil {
		return nil, err
	}

	cfg := mpc.DefaultConfig(settings.GetInt("threshold"), settings.GetInt("parties"))
	cfg.Exclusion = policy
	cfg.CommitHash = commitHash
	cfg.Timeout = settings.GetDuration("timeout")
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Parties < cfg.MultiplicationThreshold() {
		return nil, fmt.Errorf("multiplication needs at least %d parties for threshold %d",
			cfg.MultiplicationThreshold(), cfg.Threshold)
	}

	logCfg := logger.DefaultConfig()
	logCfg.Level = settings.GetString("log-level")
	logCfg.Pretty = settings.GetBool("pretty")
	logCfg.TimeFormat = time.Kitchen
	if err := logCfg.Validate(); err != nil {
		return nil, err
	}

	opts := &options{
		group:    groupType,
		mpc:      cfg,
		a:        settings.GetInt64("a"),
		b:        settings.GetInt64("b"),
		coinBits: settings.GetInt("coin-bits"),
		encrypt:  settings.GetBool("encrypt"),
		rate:     settings.GetFloat64("rate"),
		storeDir: settings.GetString("store-dir"),
		password: settings.GetString("password"),
		log:      logCfg,
	}
	if opts.coinBits < 1 {
		return nil, fmt.Errorf("coin-bits must be positive")
	}
	if opts.rate < 0 {
		return nil, fmt.Errorf("rate must not be negative")
	}
	if opts.storeDir != "" && opts.password == "" {
		return nil, fmt.Errorf("store-dir requires a password")
	}
	return opts, nil
}
