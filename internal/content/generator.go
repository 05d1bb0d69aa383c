// Package content generates video scripts and image prompts through the
// OpenAI chat API. Responses follow a strict TITLE/SCRIPT/HASHTAGS layout so
// they can be parsed without a second model call.
package content

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/nhd2106/youtube-shorts-agents/internal/config"
)

const systemPrompt = `You are a content creator specialized in creating YouTube Shorts scripts.
You must always respond in the exact format:
TITLE: [catchy title]
SCRIPT: [script]
HASHTAGS: [relevant hashtags]

Follow these guidelines:
1. Title should be catchy and short
2. Script must:
    - Be 45-60 seconds when read aloud
    - Open with a hook in the first sentence
    - End with a call to action to like and subscribe
    - Spell out all numbers as words
3. Hashtags should be relevant, comma separated`

const promptSystem = `You are a professional cinematographer creating video prompts.
Create 6-7 cinematic, photorealistic prompts. Each prompt MUST include a
camera angle or movement term (low angle, close up, wide shot, tracking shot,
dolly zoom) plus lighting and atmosphere (golden hour, rim lighting, overcast,
dramatic clouds). Keep each prompt under 150 characters. Output one prompt per
line with no numbering, timestamps, or commentary.`

// defaultImagePrompts back the render when prompt generation fails or returns
// nothing usable.
var defaultImagePrompts = []string{
	"Abstract flowing gradient of deep blues and purples with soft light waves",
	"Gentle swirling patterns of warm colors with subtle motion",
	"Dynamic geometric shapes floating in a misty atmosphere",
	"Ethereal light patterns dancing through dark space",
	"Smooth transitions of cool tones with floating particles",
}

// Content is one generated video script package.
type Content struct {
	Title    string   `json:"title"`
	Script   string   `json:"script"`
	Hashtags []string `json:"hashtags"`
}

// Generator talks to the chat model.
type Generator struct {
	cfg    *config.Config
	client openai.Client
}

// New creates a Generator using the given API key.
func New(cfg *config.Config, apiKey string) *Generator {
	return &Generator{
		cfg:    cfg,
		client: openai.NewClient(option.WithAPIKey(apiKey)),
	}
}

// Generate produces a titled script with hashtags for the given idea.
func (g *Generator) Generate(ctx context.Context, idea string) (*Content, error) {
	if strings.TrimSpace(idea) == "" {
		return nil, fmt.Errorf("content: idea is empty")
	}

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage("Create a YouTube Short script about: " + idea),
		},
		Model:       openai.ChatModel(g.cfg.Content.Model),
		Temperature: openai.Float(g.cfg.Content.Temperature),
	})
	if err != nil {
		return nil, fmt.Errorf("content: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("content: model returned no choices")
	}

	parsed, err := ParseContent(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("content: %w", err)
	}
	return parsed, nil
}

// ParseContent extracts the TITLE/SCRIPT/HASHTAGS sections from a model
// response. Script lines may span multiple lines; the other sections are
// single-line.
func ParseContent(raw string) (*Content, error) {
	var c Content
	section := ""

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "TITLE:"):
			section = "title"
			c.Title = strings.TrimSpace(strings.TrimPrefix(line, "TITLE:"))
		case strings.HasPrefix(line, "SCRIPT:"):
			section = "script"
			c.Script = strings.TrimSpace(strings.TrimPrefix(line, "SCRIPT:"))
		case strings.HasPrefix(line, "HASHTAGS:"):
			section = "hashtags"
			for _, tag := range strings.Split(strings.TrimPrefix(line, "HASHTAGS:"), ",") {
				if tag = strings.TrimSpace(tag); tag != "" {
					c.Hashtags = append(c.Hashtags, tag)
				}
			}
		case section == "script":
			c.Script += "\n" + line
		}
	}

	if c.Title == "" || c.Script == "" || len(c.Hashtags) == 0 {
		return nil, fmt.Errorf("response missing sections (title=%t script=%t hashtags=%d)",
			c.Title != "", c.Script != "", len(c.Hashtags))
	}
	return &c, nil
}

// promptPrefix strips numbering, bullets, and "prompt:" labels the model
// sometimes adds despite instructions.
var promptPrefix = regexp.MustCompile(`^(?:(?i:prompt:?\s*)|\*+\s*|[\d\-.\s]+)+`)

// ImagePrompts asks the model for cinematic background-image prompts matching
// the script. Failures degrade to the default prompt set rather than erroring.
func (g *Generator) ImagePrompts(ctx context.Context, script string) []string {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(promptSystem),
			openai.UserMessage("Create 6-7 cinematic prompts for this script:\n" + script),
		},
		Model: openai.ChatModel(g.cfg.Content.Model),
	})
	if err != nil {
		log.Printf("[content] Warning: prompt generation failed (%v) — using defaults", err)
		return defaultImagePrompts
	}
	if len(resp.Choices) == 0 {
		return defaultImagePrompts
	}

	prompts := CleanPrompts(resp.Choices[0].Message.Content)
	if len(prompts) == 0 {
		return defaultImagePrompts
	}
	return prompts
}

// CleanPrompts splits a model response into one prompt per line, dropping
// prefixes and lines too short to be a real prompt.
func CleanPrompts(raw string) []string {
	var prompts []string
	for _, line := range strings.Split(raw, "\n") {
		line = promptPrefix.ReplaceAllString(strings.TrimSpace(line), "")
		if len(line) > 10 {
			prompts = append(prompts, line)
		}
	}
	return prompts
}
