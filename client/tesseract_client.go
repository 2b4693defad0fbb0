package client

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/otiai10/gosseract/v2"
	"go.uber.org/zap"
)

// TesseractClient reads text from scanned report pages.
type TesseractClient struct {
	dataPath string
	language string
	log      *zap.Logger
}

func NewTesseractClient(dataPath string, log *zap.Logger) *TesseractClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &TesseractClient{
		dataPath: dataPath,
		language: "eng",
		log:      log,
	}
}

// ExtractTextFromImage runs OCR over a decoded page image and returns the
// text with the mean word confidence.
func (tc *TesseractClient) ExtractTextFromImage(img image.Image) (string, float64, error) {
	path, err := saveImageToTempFile(img)
	if err != nil {
		return "", 0, fmt.Errorf("failed to save page image: %w", err)
	}
	defer os.Remove(path)

	return tc.ExtractTextAndQuality(path)
}

func (tc *TesseractClient) ExtractTextAndQuality(filePath string) (string, float64, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if tc.dataPath != "" {
		if err := client.SetTessdataPrefix(tc.dataPath); err != nil {
			return "", 0, fmt.Errorf("failed to set tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage(tc.language); err != nil {
		return "", 0, fmt.Errorf("failed to set language: %w", err)
	}

	if err := client.SetImage(filePath); err != nil {
		return "", 0, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", 0, fmt.Errorf("failed to extract text: %w", err)
	}

	// Confidence is advisory; a failure here still returns the text.
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		tc.log.Debug("bounding boxes unavailable", zap.Error(err))
		return text, 0, nil
	}

	var totalConf float64
	for _, box := range boxes {
		totalConf += box.Confidence
	}

	avgConf := 0.0
	if len(boxes) > 0 {
		avgConf = totalConf / float64(len(boxes))
	}

	return text, avgConf, nil
}

// Close performs cleanup
func (tc *TesseractClient) Close() {
	tc.log.Info("tesseract client closed")
}

func saveImageToTempFile(img image.Image) (string, error) {
	f, err := os.CreateTemp("", "page-*.png")
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
