package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"autoplate-renamer/internal/config"
	"autoplate-renamer/internal/domain/plate"
)

const analysisPrompt = `Analyze this image of a car.
1. Identify the license plate number. Ensure it is only alphanumeric characters (A-Z, 0-9). Remove any dots, dashes, or spaces.
2. Identify the background color of the license plate (White, Yellow, Blue, or Other).
3. Identify if the image shows the FRONT or REAR of the car.
Return the result in JSON format.`

const temperature = 0.1

type GeminiAnalyzer struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

func NewGemini(cfg config.GeminiConfig, timeout time.Duration, log zerolog.Logger) *GeminiAnalyzer {
	return &GeminiAnalyzer{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type part struct {
	InlineData *inlineData `json:"inlineData,omitempty"`
	Text       string      `json:"text,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type schema struct {
	Type        string            `json:"type"`
	Description string            `json:"description,omitempty"`
	Enum        []string          `json:"enum,omitempty"`
	Properties  map[string]schema `json:"properties,omitempty"`
	Required    []string          `json:"required,omitempty"`
}

type generationConfig struct {
	ResponseMimeType string  `json:"responseMimeType"`
	ResponseSchema   schema  `json:"responseSchema"`
	Temperature      float64 `json:"temperature"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

var resultSchema = schema{
	Type: "OBJECT",
	Properties: map[string]schema{
		"plateNumber": {
			Type:        "STRING",
			Description: "The license plate character string. Alphanumeric only, no spaces, hyphens, or dots. Convert to Uppercase.",
		},
		"plateColor": {
			Type:        "STRING",
			Enum:        []string{string(plate.ColorWhite), string(plate.ColorYellow), string(plate.ColorBlue), string(plate.ColorOther)},
			Description: "The dominant background color of the license plate.",
		},
		"viewpoint": {
			Type:        "STRING",
			Enum:        []string{string(plate.ViewFront), string(plate.ViewRear), string(plate.ViewUnknown)},
			Description: "Whether the image shows the front or the rear of the car.",
		},
	},
	Required: []string{"plateNumber", "plateColor", "viewpoint"},
}

func (g *GeminiAnalyzer) endpoint() string {
	return fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, url.PathEscape(g.model), url.QueryEscape(g.apiKey))
}

func (g *GeminiAnalyzer) Analyze(ctx context.Context, base64Data, mimeType string) (plate.AnalysisResult, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{
			{InlineData: &inlineData{MimeType: mimeType, Data: base64Data}},
			{Text: analysisPrompt},
		}}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   resultSchema,
			Temperature:      temperature,
		},
	})
	if err != nil {
		return plate.AnalysisResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint(), bytes.NewReader(body))
	if err != nil {
		return plate.AnalysisResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		return plate.AnalysisResult{}, fmt.Errorf("%w: %w", ErrAnalysis, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return plate.AnalysisResult{}, fmt.Errorf("%w: read response: %w", ErrAnalysis, err)
	}
	g.log.Debug().
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Str("model", g.model).
		Msg("gemini generateContent")

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		msg := http.StatusText(resp.StatusCode)
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
		return plate.AnalysisResult{}, fmt.Errorf("%w: gemini returned status %d: %s", ErrAnalysis, resp.StatusCode, msg)
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return plate.AnalysisResult{}, fmt.Errorf("%w: decode response: %w", ErrAnalysis, err)
	}
	text := responseText(out)
	if text == "" {
		return plate.AnalysisResult{}, fmt.Errorf("%w: no response from gemini", ErrAnalysis)
	}
	return parseResult(text)
}

func responseText(out generateResponse) string {
	if len(out.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return strings.TrimSpace(sb.String())
}

func parseResult(text string) (plate.AnalysisResult, error) {
	var fields struct {
		PlateNumber string `json:"plateNumber"`
		PlateColor  string `json:"plateColor"`
		Viewpoint   string `json:"viewpoint"`
	}
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return plate.AnalysisResult{}, fmt.Errorf("%w: malformed result: %w", ErrAnalysis, err)
	}
	return plate.AnalysisResult{
		PlateNumber: fields.PlateNumber,
		PlateColor:  plate.ParseColor(strings.ToLower(strings.TrimSpace(fields.PlateColor))),
		Viewpoint:   plate.ParseViewpoint(strings.ToLower(strings.TrimSpace(fields.Viewpoint))),
	}, nil
}
