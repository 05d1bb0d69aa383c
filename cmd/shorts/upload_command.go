package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhd2106/youtube-shorts-agents/internal/upload"
)

func newUploadCommand(configFlag *string) *cobra.Command {
	var meta upload.Metadata
	var videoFile string

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload a finished video to YouTube",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configFlag)
			if err != nil {
				return err
			}
			meta.Tags = normalizeTags(meta.Tags)

			id, url, err := upload.New(cfg).Run(cmd.Context(), videoFile, &meta)
			if err != nil {
				return err
			}
			if err := upload.LogUpload(cfg.Paths.Contents, id, url, videoFile, &meta); err != nil {
				return err
			}
			fmt.Println(url)
			return nil
		},
	}

	cmd.Flags().StringVar(&videoFile, "video", "", "Path to the video file (required)")
	cmd.Flags().StringVar(&meta.Title, "title", "", "Video title (required)")
	cmd.Flags().StringVar(&meta.Description, "description", "", "Video description")
	cmd.Flags().StringSliceVar(&meta.Tags, "tag", nil, "Video tag (repeatable)")
	cmd.Flags().StringVar(&meta.ThumbnailPath, "thumbnail", "", "Thumbnail image to set")
	cmd.Flags().StringVar(&meta.ScheduledTimeUTC, "schedule", "", "RFC3339 UTC publish time")
	_ = cmd.MarkFlagRequired("video")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

// normalizeTags strips leading # so hashtags can be passed directly.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(strings.TrimPrefix(t, "#")); t != "" {
			out = append(out, t)
		}
	}
	return out
}
