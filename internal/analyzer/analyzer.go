// Package analyzer reads licence plates off car photos using an external
// vision service.
package analyzer

import (
	"context"
	"errors"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/rs/zerolog"

	"autoplate-renamer/internal/config"
	"autoplate-renamer/internal/renamer"
)

// ErrAnalysis marks a failure of the vision service: unreachable, or no
// usable answer.
var ErrAnalysis = errors.New("analysis failed")

// New builds the analyzer selected by cfg.Analyzer.Provider.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (renamer.Analyzer, error) {
	switch cfg.Analyzer.Provider {
	case config.ProviderGemini:
		return NewGemini(cfg.Gemini, cfg.Analyzer.Timeout, log), nil
	case config.ProviderRekognition:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		log.Info().Str("region", cfg.AWS.Region).Msg("using rekognition analyzer")
		return NewRekognition(rekognition.NewFromConfig(awsCfg), log), nil
	default:
		return nil, fmt.Errorf("unknown analyzer provider %q", cfg.Analyzer.Provider)
	}
}
