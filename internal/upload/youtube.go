// Package upload publishes finished videos to YouTube through the Data API
// v3, authenticating with an OAuth refresh token from the environment.
package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/nhd2106/youtube-shorts-agents/internal/config"
)

// Metadata describes the video being published.
type Metadata struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Tags             []string `json:"tags"`
	ThumbnailPath    string   `json:"thumbnail_path,omitempty"`
	ScheduledTimeUTC string   `json:"scheduled_utc,omitempty"` // RFC3339; only honored for public videos
}

// Uploader talks to the YouTube Data API.
type Uploader struct {
	cfg *config.Config
}

// New creates an Uploader.
func New(cfg *config.Config) *Uploader {
	return &Uploader{cfg: cfg}
}

// Run uploads the video and returns its id and watch URL.
func (u *Uploader) Run(ctx context.Context, videoFile string, meta *Metadata) (string, string, error) {
	log.Println("[upload] Authenticating with YouTube API...")

	client, err := u.oauthClient(ctx)
	if err != nil {
		return "", "", fmt.Errorf("youtube auth: %w", err)
	}
	svc, err := youtube.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return "", "", fmt.Errorf("youtube service: %w", err)
	}

	log.Printf("[upload] Uploading: %q", meta.Title)

	status := &youtube.VideoStatus{
		PrivacyStatus:           u.cfg.Upload.Visibility,
		SelfDeclaredMadeForKids: u.cfg.Upload.MadeForKids,
	}
	if meta.ScheduledTimeUTC != "" && u.cfg.Upload.Visibility == "public" {
		// scheduling requires the video to start out private
		status.PrivacyStatus = "private"
		status.PublishAt = meta.ScheduledTimeUTC
		log.Printf("[upload] Scheduled for: %s UTC", meta.ScheduledTimeUTC)
	}

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:                meta.Title,
			Description:          meta.Description,
			Tags:                 meta.Tags,
			CategoryId:           u.cfg.Upload.CategoryID,
			DefaultLanguage:      u.cfg.Upload.DefaultLanguage,
			DefaultAudioLanguage: u.cfg.Upload.DefaultLanguage,
		},
		Status: status,
	}

	f, err := os.Open(videoFile)
	if err != nil {
		return "", "", fmt.Errorf("open video file: %w", err)
	}
	defer f.Close()

	if fi, statErr := f.Stat(); statErr == nil {
		log.Printf("[upload] File size: %.1f MB", float64(fi.Size())/1024/1024)
	}

	call := svc.Videos.Insert([]string{"snippet", "status"}, video)
	call.Media(f)
	uploaded, err := call.Do()
	if err != nil {
		return "", "", fmt.Errorf("youtube upload: %w", err)
	}

	if meta.ThumbnailPath != "" {
		if err := u.setThumbnail(svc, uploaded.Id, meta.ThumbnailPath); err != nil {
			log.Printf("[upload] Warning: thumbnail upload failed: %v", err)
		}
	}

	videoURL := "https://www.youtube.com/watch?v=" + uploaded.Id
	log.Printf("[upload] Uploaded: %s", videoURL)
	return uploaded.Id, videoURL, nil
}

func (u *Uploader) setThumbnail(svc *youtube.Service, videoID, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = svc.Thumbnails.Set(videoID).Media(f).Do()
	return err
}

// oauthClient builds an authenticated HTTP client from env credentials.
func (u *Uploader) oauthClient(ctx context.Context) (*http.Client, error) {
	clientID := os.Getenv("YOUTUBE_CLIENT_ID")
	clientSecret := os.Getenv("YOUTUBE_CLIENT_SECRET")
	refreshToken := os.Getenv("YOUTUBE_REFRESH_TOKEN")
	if clientID == "" || clientSecret == "" || refreshToken == "" {
		return nil, fmt.Errorf("YOUTUBE_CLIENT_ID, YOUTUBE_CLIENT_SECRET, or YOUTUBE_REFRESH_TOKEN not set")
	}

	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{youtube.YoutubeUploadScope, youtube.YoutubeScope},
	}
	token := &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Now().Add(-time.Hour), // force refresh
	}
	return oauth2.NewClient(ctx, conf.TokenSource(ctx, token)), nil
}

// LogUpload writes an upload receipt next to the other artifacts.
func LogUpload(outputDir, videoID, videoURL, videoFile string, meta *Metadata) error {
	entry := map[string]any{
		"video_id":      videoID,
		"video_url":     videoURL,
		"title":         meta.Title,
		"scheduled_utc": meta.ScheduledTimeUTC,
		"uploaded_at":   time.Now().UTC().Format(time.RFC3339),
		"video_file":    videoFile,
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}
	name := fmt.Sprintf("upload_%s.json", time.Now().Format("20060102_150405"))
	path := filepath.Join(outputDir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}
	log.Printf("[upload] Upload log saved: %s", path)
	return nil
}
