package service

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFProcessor turns report bytes into page text or page images.
type PDFProcessor interface {
	ExtractPages(pdfData []byte, password string) ([]string, error)
	ExtractImages(pdfData []byte, password string) ([]image.Image, error)
}

// imageBase is the input file stem pdfcpu prefixes extracted images with.
const imageBase = "report"

type pdfProcessor struct{}

func NewPDFProcessor() PDFProcessor {
	return &pdfProcessor{}
}

// ExtractPages returns the text of every page, one string per page. Encrypted
// documents are decrypted with the supplied password first.
func (p *pdfProcessor) ExtractPages(pdfData []byte, password string) (pages []string, err error) {
	// the text reader panics on some malformed xref tables
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	if password != "" {
		pdfData, err = decrypt(pdfData, password)
		if err != nil {
			return nil, err
		}
	}

	r, err := pdf.NewReader(bytes.NewReader(pdfData), int64(len(pdfData)))
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	totalPage := r.NumPage()
	pages = make([]string, 0, totalPage)

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}

		var sb strings.Builder
		rows, _ := page.GetTextByRow()
		for _, row := range rows {
			for i, word := range row.Content {
				if i > 0 && needsSpace(row.Content[i-1], word) {
					sb.WriteByte(' ')
				}
				sb.WriteString(word.S)
			}
			sb.WriteString("\n")
		}
		pages = append(pages, sb.String())
	}
	return pages, nil
}

// needsSpace reports whether the horizontal gap between two text runs is
// wide enough to be a word break.
func needsSpace(prev, next pdf.Text) bool {
	if strings.HasSuffix(prev.S, " ") || strings.HasPrefix(next.S, " ") {
		return false
	}
	gap := next.X - (prev.X + prev.W)
	return gap > prev.FontSize*0.2
}

// ExtractImages pulls the embedded page images, which is what a scanned
// report consists of.
func (p *pdfProcessor) ExtractImages(pdfData []byte, password string) ([]image.Image, error) {
	tempDir, err := os.MkdirTemp("", "report_images")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	inFile := filepath.Join(tempDir, imageBase+".pdf")
	if err := os.WriteFile(inFile, pdfData, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write pdf data: %w", err)
	}

	outDir := filepath.Join(tempDir, "out")
	if err := os.Mkdir(outDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	conf := model.NewDefaultConfiguration()
	if password != "" {
		conf.UserPW = password
	}

	if err := api.ExtractImagesFile(inFile, outDir, nil, conf); err != nil {
		return nil, fmt.Errorf("failed to extract images: %w", err)
	}

	files, err := os.ReadDir(outDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read image dir: %w", err)
	}
	sortByPage(files, imageBase)

	var images []image.Image
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		imgFile, err := os.Open(filepath.Join(outDir, file.Name()))
		if err != nil {
			continue
		}
		img, _, err := image.Decode(imgFile)
		imgFile.Close()
		if err != nil {
			continue
		}
		images = append(images, img)
	}

	return images, nil
}

func decrypt(pdfData []byte, password string) ([]byte, error) {
	conf := model.NewDefaultConfiguration()
	conf.UserPW = password
	conf.OwnerPW = password

	var out bytes.Buffer
	if err := api.Decrypt(bytes.NewReader(pdfData), &out, conf); err != nil {
		return nil, fmt.Errorf("failed to decrypt pdf: %w", err)
	}
	return out.Bytes(), nil
}

// sortByPage orders images written by pdfcpu as <base>_<page>_<name>.<ext>
// by numeric page, then by name within a page.
func sortByPage(files []os.DirEntry, base string) {
	sort.SliceStable(files, func(i, j int) bool {
		pi, pj := imagePage(files[i].Name(), base), imagePage(files[j].Name(), base)
		if pi != pj {
			return pi < pj
		}
		return files[i].Name() < files[j].Name()
	})
}

// imagePage returns the page number encoded in an extracted image name, or
// math.MaxInt when the name does not carry one.
func imagePage(name, base string) int {
	rest, ok := strings.CutPrefix(name, base+"_")
	if !ok {
		return math.MaxInt
	}
	digits, _, _ := strings.Cut(rest, "_")
	n, err := strconv.Atoi(digits)
	if err != nil {
		return math.MaxInt
	}
	return n
}
