package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"svw.info/watersort/internal/domain"
	"svw.info/watersort/internal/generator"
	"svw.info/watersort/internal/infrastructure/storage"
	"svw.info/watersort/internal/ports"
	"svw.info/watersort/internal/solver"
	"svw.info/watersort/internal/usecase"
	"svw.info/watersort/internal/validator"
)

// genConfig is the YAML batch description. Fields present in the file
// override the flag values; absent fields keep them. An explicitly set
// --mixed flag is the exception: it wins over the file's startMixed.
type genConfig struct {
	Params struct {
		NumColors  int `yaml:"numColors"`
		NumBottles int `yaml:"numBottles"`
		Capacity   int `yaml:"capacity"`
	} `yaml:"params"`
	Options struct {
		StartMixed       *bool `yaml:"startMixed"`
		MixMin           int   `yaml:"mixMin"`
		MixMax           int   `yaml:"mixMax"`
		MaxRunPerBottle  *int  `yaml:"maxRunPerBottle"`
		ReservedEmpty    *int  `yaml:"reservedEmpty"`
		RandomizeHeights bool  `yaml:"randomizeHeights"`
		SolveTimeMs      int   `yaml:"solveTimeMs"`
		Tries            int   `yaml:"tries"`
	} `yaml:"options"`
	Template struct {
		Cloth                int `yaml:"cloth"`
		Vine                 int `yaml:"vine"`
		Bush                 int `yaml:"bush"`
		Question             int `yaml:"question"`
		QuestionMaxPerBottle int `yaml:"questionMaxPerBottle"`
	} `yaml:"template"`
	Seed    uint64 `yaml:"seed"`
	Count   int    `yaml:"count"`
	Workers int    `yaml:"workers"`
	Out     string `yaml:"out"`
	Append  bool   `yaml:"append"`
}

func defaultGenConfig() genConfig {
	var cfg genConfig
	cfg.Params.NumColors = 6
	cfg.Params.NumBottles = 8
	cfg.Params.Capacity = 4
	cfg.Count = 1
	cfg.Workers = 1
	cfg.Out = "maps.csv"
	return cfg
}

func (cfg *genConfig) options() *generator.Options {
	opt := generator.DefaultOptions()
	if cfg.Options.StartMixed != nil {
		opt.StartMixed = *cfg.Options.StartMixed
	}
	if cfg.Options.MixMin > 0 {
		opt.MixMin = cfg.Options.MixMin
	}
	if cfg.Options.MixMax > 0 {
		opt.MixMax = cfg.Options.MixMax
	}
	if cfg.Options.MaxRunPerBottle != nil {
		opt.MaxRunPerBottle = *cfg.Options.MaxRunPerBottle
	}
	if cfg.Options.ReservedEmpty != nil {
		opt.ReservedEmpty = *cfg.Options.ReservedEmpty
	}
	opt.RandomizeHeights = cfg.Options.RandomizeHeights
	if cfg.Options.SolveTimeMs > 0 {
		opt.SolveTime = time.Duration(cfg.Options.SolveTimeMs) * time.Millisecond
	}
	if cfg.Options.Tries > 0 {
		opt.GimmickPlacementTries = cfg.Options.Tries
	}
	return opt
}

func newGenCmd() *cobra.Command {
	cfg := defaultGenConfig()
	var configPath string
	var mixed bool

	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate solvable maps and write them as CSV rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath != "" {
				data, err := os.ReadFile(configPath)
				if err != nil {
					return err
				}
				if err := yaml.Unmarshal(data, &cfg); err != nil {
					return fmt.Errorf("parsing %s: %w", configPath, err)
				}
			}
			if cmd.Flags().Changed("mixed") {
				cfg.Options.StartMixed = &mixed
			}

			p := domain.Params{
				NumColors:  cfg.Params.NumColors,
				NumBottles: cfg.Params.NumBottles,
				Capacity:   cfg.Params.Capacity,
			}
			factory := func(p domain.Params, seed uint64) ports.Generator {
				opt := cfg.options()
				opt.Seed = seed
				return generator.New(p, opt)
			}
			uc := usecase.NewService(
				solver.New(cfg.options().SolveTime),
				factory,
				validator.New(),
				storage.NewCSV(cfg.Out),
				slog.Default(),
			)

			var base *domain.State
			t := cfg.Template
			if t.Cloth+t.Vine+t.Bush+t.Question > 0 {
				opt := cfg.options()
				opt.Seed = cfg.Seed
				tpl, err := generator.New(p, opt).BuildRandomTemplate(t.Cloth, t.Vine, t.Bush, t.Question, t.QuestionMaxPerBottle)
				if err != nil {
					return err
				}
				base = tpl
			}

			start := time.Now()
			gens, err := uc.GenerateBatch(cmd.Context(), p, cfg.Seed, base, cfg.Count, cfg.Workers)
			if len(gens) > 0 {
				if saveErr := uc.Save(cmd.Context(), gens, cfg.Append); saveErr != nil {
					return saveErr
				}
				slog.Info("maps written", "out", cfg.Out, "rows", len(gens), "dur", time.Since(start).Round(time.Millisecond))
			}
			return err
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "YAML batch config (overrides flags)")
	cmd.Flags().IntVar(&cfg.Params.NumColors, "colors", cfg.Params.NumColors, "palette size")
	cmd.Flags().IntVar(&cfg.Params.NumBottles, "bottles", cfg.Params.NumBottles, "bottle count")
	cmd.Flags().IntVar(&cfg.Params.Capacity, "capacity", cfg.Params.Capacity, "slots per bottle")
	cmd.Flags().Uint64Var(&cfg.Seed, "seed", 0, "generation seed (0 = default)")
	cmd.Flags().IntVar(&cfg.Count, "count", cfg.Count, "number of maps")
	cmd.Flags().IntVar(&cfg.Workers, "workers", cfg.Workers, "parallel generators")
	cmd.Flags().StringVar(&cfg.Out, "out", cfg.Out, "output CSV path")
	cmd.Flags().BoolVar(&cfg.Append, "append", false, "append to an existing CSV")
	cmd.Flags().BoolVar(&mixed, "mixed", true, "start mixed instead of reverse-scrambled")
	cmd.Flags().IntVar(&cfg.Template.Cloth, "cloth", 0, "cloth gimmick count")
	cmd.Flags().IntVar(&cfg.Template.Vine, "vine", 0, "vine gimmick count")
	cmd.Flags().IntVar(&cfg.Template.Bush, "bush", 0, "bush gimmick count")
	cmd.Flags().IntVar(&cfg.Template.Question, "question", 0, "hidden slot count")
	cmd.Flags().IntVar(&cfg.Template.QuestionMaxPerBottle, "question-max-per-bottle", 0, "hidden slots per bottle (0 = unlimited)")
	return cmd
}
