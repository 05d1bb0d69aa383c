package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhd2106/youtube-shorts-agents/internal/pipeline"
)

func newGenerateCommand(configFlag *string) *cobra.Command {
	var req pipeline.GenerateRequest

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one video from an idea and wait for it to finish",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configFlag)
			if err != nil {
				return err
			}
			app, store, err := buildApp(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			id, err := store.Create(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Request %s started\n", id)

			if err := app.Run(ctx, id, req); err != nil {
				return err
			}

			final, err := store.Get(ctx, id)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(final, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Idea, "idea", "", "Video idea to generate (required)")
	cmd.Flags().StringVar(&req.Format, "format", "shorts", "Video format: shorts or normal")
	cmd.Flags().StringVar(&req.TTSModel, "tts-model", "", "TTS engine: edge or openai")
	cmd.Flags().StringVar(&req.Voice, "voice", "", "TTS voice")
	cmd.Flags().StringSliceVar(&req.ImageURLs, "image-url", nil, "Background image URL (repeatable)")
	_ = cmd.MarkFlagRequired("idea")

	return cmd
}
