package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nhd2106/youtube-shorts-agents/internal/align"
	"github.com/nhd2106/youtube-shorts-agents/internal/audio"
	"github.com/nhd2106/youtube-shorts-agents/internal/config"
	"github.com/nhd2106/youtube-shorts-agents/internal/content"
	"github.com/nhd2106/youtube-shorts-agents/internal/encoder"
	"github.com/nhd2106/youtube-shorts-agents/internal/images"
	"github.com/nhd2106/youtube-shorts-agents/internal/pipeline"
	"github.com/nhd2106/youtube-shorts-agents/internal/render"
	"github.com/nhd2106/youtube-shorts-agents/internal/tracker"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	rootCmd := &cobra.Command{
		Use:           "shorts",
		Short:         "Generate and publish short videos from a single idea",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newGenerateCommand(&configFlag))
	rootCmd.AddCommand(newServeCommand(&configFlag))
	rootCmd.AddCommand(newUploadCommand(&configFlag))

	return rootCmd
}

// loadConfig reads .env, then the config file when one is given.
func loadConfig(path string) (*config.Config, error) {
	_ = godotenv.Load()
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// buildApp assembles the full generation pipeline from config and env.
func buildApp(cfg *config.Config) (*pipeline.App, *tracker.Store, error) {
	if err := cfg.EnsureDirs(); err != nil {
		return nil, nil, err
	}
	store, err := tracker.Open(cfg.Paths.Tracker)
	if err != nil {
		return nil, nil, err
	}

	var aligner render.WordAligner
	if cfg.Timing.UseAligner {
		aligner = align.New(cfg.Align.WhisperModel, cfg.Align.Language)
	}
	renderer := render.New(cfg, encoder.NewFFmpeg(), aligner, cfg.Video.EffectSeed)

	openaiKey := os.Getenv("OPENAI_API_KEY")
	app := pipeline.New(cfg,
		content.New(cfg, openaiKey),
		audio.New(cfg, openaiKey),
		images.New(cfg.Images.MinPixels),
		renderer,
		store,
	)
	return app, store, nil
}
