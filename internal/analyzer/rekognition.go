package analyzer

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/rs/zerolog"

	"autoplate-renamer/internal/domain/plate"
)

// Vietnamese plates once spaces and dots are gone: 29A12345, 51G-12345, 29AB-1234.
var platePattern = regexp.MustCompile(`^[0-9]{2}[A-Z]{1,2}[0-9]?-?[0-9]{3,5}$`)

type detectTextAPI interface {
	DetectText(ctx context.Context, params *rekognition.DetectTextInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectTextOutput, error)
}

// RekognitionAnalyzer finds the plate with AWS Rekognition text detection.
// Rekognition cannot tell plate colour or viewpoint, so those are always
// other and unknown.
type RekognitionAnalyzer struct {
	client detectTextAPI
	log    zerolog.Logger
}

func NewRekognition(client detectTextAPI, log zerolog.Logger) *RekognitionAnalyzer {
	return &RekognitionAnalyzer{client: client, log: log}
}

func (r *RekognitionAnalyzer) Analyze(ctx context.Context, base64Data, mimeType string) (plate.AnalysisResult, error) {
	imageBytes, err := base64.StdEncoding.DecodeString(base64Data)
	if err != nil {
		return plate.AnalysisResult{}, fmt.Errorf("%w: invalid image encoding: %w", ErrAnalysis, err)
	}

	out, err := r.client.DetectText(ctx, &rekognition.DetectTextInput{
		Image: &types.Image{Bytes: imageBytes},
	})
	if err != nil {
		return plate.AnalysisResult{}, fmt.Errorf("%w: rekognition: %w", ErrAnalysis, err)
	}

	best, confidence := pickPlate(out.TextDetections)
	if best == "" {
		r.log.Debug().Int("detections", len(out.TextDetections)).Msg("no plate-like text found")
		return plate.AnalysisResult{}, fmt.Errorf("%w: no plate found in image", ErrAnalysis)
	}
	r.log.Debug().Str("plate", best).Float32("confidence", confidence).Msg("plate detected")

	return plate.AnalysisResult{
		PlateNumber: best,
		PlateColor:  plate.ColorOther,
		Viewpoint:   plate.ViewUnknown,
	}, nil
}

// pickPlate returns the highest confidence line or word that looks like a plate.
func pickPlate(detections []types.TextDetection) (string, float32) {
	var best string
	var maxConfidence float32
	for _, d := range detections {
		if d.Type != types.TextTypesLine && d.Type != types.TextTypesWord {
			continue
		}
		if d.DetectedText == nil || d.Confidence == nil {
			continue
		}
		txt := strings.ToUpper(*d.DetectedText)
		txt = strings.NewReplacer(" ", "", ".", "").Replace(txt)
		if !platePattern.MatchString(txt) {
			continue
		}
		if *d.Confidence > maxConfidence {
			maxConfidence = *d.Confidence
			best = txt
		}
	}
	return best, maxConfidence
}
