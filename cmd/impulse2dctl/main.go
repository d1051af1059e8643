// Command impulse2dctl loads a scene file and runs it for a fixed number
// of steps, logging every 30th step's solver stats at Debug level and a
// summary (elapsed time, mean position iterations) at the end.
package main

import (
	"flag"
	"os"
	"time"

	"github.com/rkvarga/impulse2d"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// runConfig is the YAML-loadable set of tunables the library itself never
// parses; the CLI is the one boundary allowed to touch YAML.
type runConfig struct {
	Steps             int     `yaml:"steps"`
	Dt                float64 `yaml:"dt"`
	VelocityIterations int    `yaml:"velocityIterations"`
	PositionIterations int    `yaml:"positionIterations"`
	WarmStarting      bool    `yaml:"warmStarting"`
	AllowSleep        bool    `yaml:"allowSleep"`
	Gravity           struct {
		X float64 `yaml:"x"`
		Y float64 `yaml:"y"`
	} `yaml:"gravity"`
	Damping float64 `yaml:"damping"`
}

func defaultRunConfig() runConfig {
	cfg := runConfig{
		Steps:              120,
		Dt:                 1.0 / 60.0,
		VelocityIterations: 8,
		PositionIterations: 3,
		WarmStarting:       true,
		AllowSleep:         true,
		Damping:            1.0,
	}
	cfg.Gravity.Y = -10
	return cfg
}

func main() {
	scenePath := flag.String("scene", "", "path to a scene JSON file")
	configPath := flag.String("config", "", "path to a YAML run config (optional)")
	flag.Parse()

	log, err := impulse2d.NewProductionLogger()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if *scenePath == "" {
		log.Fatal("missing -scene flag")
	}

	cfg := defaultRunConfig()
	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			log.Fatal("reading config", zap.Error(err))
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatal("parsing config", zap.Error(err))
		}
	}

	sceneData, err := os.ReadFile(*scenePath)
	if err != nil {
		log.Fatal("reading scene", zap.Error(err))
	}

	space := impulse2d.NewSpace().WithLogger(log)
	space.Gravity = impulse2d.Vec2{X: cfg.Gravity.X, Y: cfg.Gravity.Y}
	space.Damping = cfg.Damping

	if err := space.UnmarshalScene(sceneData); err != nil {
		log.Fatal("loading scene", zap.Error(err))
	}

	log.Info("running", zap.Int("steps", cfg.Steps), zap.Int("bodies", len(space.Bodies())))

	var totalPosIterations int
	start := time.Now()
	for i := 0; i < cfg.Steps; i++ {
		stats := space.Step(cfg.Dt, cfg.VelocityIterations, cfg.PositionIterations, cfg.WarmStarting, cfg.AllowSleep)
		totalPosIterations += stats.PositionIterations
		if i%30 == 0 {
			log.Debug("step",
				zap.Int("i", i),
				zap.Int("numContacts", stats.NumContacts),
				zap.Int("positionIterations", stats.PositionIterations),
			)
		}
	}

	log.Info("done",
		zap.Duration("elapsed", time.Since(start)),
		zap.Float64("meanPositionIterations", float64(totalPosIterations)/float64(cfg.Steps)),
	)
}
