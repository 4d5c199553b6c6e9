package renamer

import (
	"strings"

	"autoplate-renamer/internal/domain/plate"
	"autoplate-renamer/internal/utils"
)

// Plates longer than this lose their colour suffix.
const maxPlateLenWithColor = 8

const frontPrefix = "BS"

// ColorCode is the single letter written after the plate number.
func ColorCode(c plate.Color) string {
	switch c {
	case plate.ColorYellow:
		return "V"
	case plate.ColorBlue:
		return "X"
	default:
		return "T"
	}
}

// Extension returns the part after the last dot, including the dot, or ""
// when there is none. A leading dot alone (".env") is not an extension.
func Extension(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx <= 0 || idx == len(name)-1 {
		return ""
	}
	return name[idx:]
}

// GenerateNewFilename builds the target name for a photo:
//
//	front:         BS<PLATE><C><ext>
//	rear/unknown:  <PLATE><C><ext>
//
// where C is omitted for plates longer than eight characters.
func GenerateNewFilename(originalName string, result plate.AnalysisResult) string {
	normalized := utils.NormalizePlate(result.PlateNumber)

	suffix := ColorCode(result.PlateColor)
	if len(normalized) > maxPlateLenWithColor {
		suffix = ""
	}

	base := normalized + suffix
	// TODO: unknown viewpoint shares the rear branch until product decides otherwise.
	if result.Viewpoint == plate.ViewFront {
		base = frontPrefix + base
	}
	return base + Extension(originalName)
}
