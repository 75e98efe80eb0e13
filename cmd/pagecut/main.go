// pagecut is a command-line tool for extracting text-line images from PAGE
// XML layout annotations and for writing recognized text back into them.
//
// Given pairs of page scans and PAGE files it cuts each annotated TextLine
// polygon out of its scan, undoing region skew and masking pixels outside the
// polygon, and writes one image (plus ground-truth text, when available) per
// line. It can also take a file of predicted transcriptions and attach them
// to the correct TextLine nodes, serializing each page back to disk.
//
// Usage:
//
//	pagecut -images page1.png,page2.png [options]
//	pagecut -xmls page1.xml,page2.xml -mode targets [options]
//
// Input options:
//
//	-images string  Comma-separated page image paths; .xml paths are derived
//	                unless -xmls is given
//	-xmls string    Comma-separated PAGE file paths
//	-mode string    training | evaluation | prediction | targets (default prediction)
//	-config string  YAML file with extraction options
//
// Output options (at least one required):
//
//	-out string        Directory to write per-line images and .gt.txt files
//	-proof string      Path to write a PDF proof sheet of the extracted lines
//	-apply string      TSV file of "id<TAB>text" predictions to write back; ids
//	                   are "{page path}/{line id}" or "{page name}_{line id}"
//	-extension string  Output suffix for written-back PAGE files (default .xml)
//
// Configuration file:
//
//	text_index: 1
//	skip_invalid: true
//	non_existing_as_empty: false
//	skip_commented: true
//	folds: 5
//	pad: 4
//
// Example:
//
//	pagecut -images scans/0001.png,scans/0002.png -mode training -out lines/
//	pagecut -images scans/0001.png -mode prediction -apply pred.tsv -extension .pred.xml
package main

import (
	"bufio"
	"flag"
	"fmt"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/gardar/pagecut/pkg/dataset"
	"github.com/gardar/pagecut/pkg/pagexml"
	"github.com/gardar/pagecut/pkg/proofsheet"
)

type yamlConfig struct {
	TextIndex          int   `yaml:"text_index"`
	SkipInvalid        bool  `yaml:"skip_invalid"`
	NonExistingAsEmpty bool  `yaml:"non_existing_as_empty"`
	SkipCommented      *bool `yaml:"skip_commented"`
	Folds              int   `yaml:"folds"`
	Pad                int   `yaml:"pad"`
}

// loadConfig reads a YAML file into loader and assembler options.
func loadConfig(path string) (pagexml.LoaderConfig, dataset.AssemblerConfig, error) {
	loaderCfg := pagexml.DefaultLoaderConfig()
	var asmCfg dataset.AssemblerConfig
	if path == "" {
		return loaderCfg, asmCfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return loaderCfg, asmCfg, err
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return loaderCfg, asmCfg, err
	}
	loaderCfg.TextIndex = yc.TextIndex
	loaderCfg.SkipInvalid = yc.SkipInvalid
	loaderCfg.NonExistingAsEmpty = yc.NonExistingAsEmpty
	if yc.SkipCommented != nil {
		loaderCfg.SkipCommented = *yc.SkipCommented
	}
	asmCfg.NFolds = yc.Folds
	asmCfg.Pad = yc.Pad
	return loaderCfg, asmCfg, nil
}

func parseMode(s string) (pagexml.LoadMode, error) {
	switch s {
	case "training", "train":
		return pagexml.ModeTraining, nil
	case "evaluation", "eval":
		return pagexml.ModeEvaluation, nil
	case "prediction", "predict":
		return pagexml.ModePrediction, nil
	case "targets":
		return pagexml.ModeTargets, nil
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func main() {
	imagesArg := flag.String("images", "", "Comma-separated page image paths")
	xmlsArg := flag.String("xmls", "", "Comma-separated PAGE file paths")
	modeArg := flag.String("mode", "prediction", "training | evaluation | prediction | targets")
	configPath := flag.String("config", "", "Path to YAML extraction options")
	outDir := flag.String("out", "", "Directory to write per-line images and ground-truth text")
	proofPath := flag.String("proof", "", "Path to write a PDF proof sheet")
	applyPath := flag.String("apply", "", "TSV file of qualified line id and predicted text to write back")
	extension := flag.String("extension", ".xml", "Output suffix for written-back PAGE files")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	images := splitList(*imagesArg)
	xmls := splitList(*xmlsArg)
	if len(images) == 0 && len(xmls) == 0 {
		fmt.Fprintln(os.Stderr, "Error: must provide -images or -xmls")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *outDir == "" && *proofPath == "" && *applyPath == "" {
		fmt.Fprintln(os.Stderr, "Error: must provide at least one of -out, -proof, -apply")
		os.Exit(1)
	}

	logger, err := newLogger(*verbose)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	loaderCfg, asmCfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	loaderCfg.Logger = logger
	loaderCfg.Mode, err = parseMode(*modeArg)
	if err != nil {
		log.Fatalf("Invalid -mode: %v", err)
	}

	ds, err := dataset.NewDataset(loaderCfg, asmCfg, images, xmls)
	if err != nil {
		log.Fatalf("Failed to load dataset: %v", err)
	}

	if *outDir != "" || *proofPath != "" {
		if err := extract(ds, *outDir, *proofPath); err != nil {
			log.Fatalf("Extraction failed: %v", err)
		}
	}

	if *applyPath != "" {
		if err := apply(ds, *applyPath, loaderCfg.TextIndex, *extension, logger); err != nil {
			log.Fatalf("Write-back failed: %v", err)
		}
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	return cfg.Build()
}

// extract writes per-line images and ground-truth text files, and optionally
// a proof-sheet PDF over all extracted samples.
func extract(ds *dataset.Dataset, outDir, proofPath string) error {
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0777); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	var all []dataset.Sample
	for i := 0; i < ds.Len(); i++ {
		samples, err := ds.Samples(i)
		if err != nil {
			return err
		}
		pageName := pagexml.Filename(ds.Pairs()[i].XML)

		for _, s := range samples {
			if outDir == "" {
				continue
			}
			// The composite id is "{page path}/{line id}"; keep the line id
			// and prefix the page name to get a flat, unique file name.
			lineID := filepath.Base(s.Meta.ID)
			base := filepath.Join(outDir, pageName+"_"+lineID)

			if s.Image != nil && !s.Image.Bounds().Empty() {
				f, err := os.Create(base + ".png")
				if err != nil {
					return err
				}
				if err := png.Encode(f, s.Image); err != nil {
					f.Close()
					return fmt.Errorf("failed to encode %s: %w", base, err)
				}
				if err := f.Close(); err != nil {
					return err
				}
			}
			if s.HasText {
				if err := os.WriteFile(base+".gt.txt", []byte(s.Text), 0666); err != nil {
					return err
				}
			}
		}
		all = append(all, samples...)
	}
	fmt.Printf("Extracted %d line samples from %d page files\n", len(all), ds.Len())

	if proofPath != "" {
		pdf, err := proofsheet.Build(all)
		if err != nil {
			return err
		}
		if err := os.WriteFile(proofPath, pdf, 0666); err != nil {
			return err
		}
		fmt.Println("Proof sheet written to", proofPath)
	}
	return nil
}

// apply reads a TSV of "id<TAB>text" and writes the texts back into the
// PAGE files, page by page, with a trailing flush for the final page. Pages
// with no matching prediction are copied through unchanged.
//
// Line ids are only unique within one page, so predictions are keyed either by
// the full composite id "{page path}/{line id}" or by the "{page name}_{line id}"
// file names the extraction step emits. Bare line ids never match.
func apply(ds *dataset.Dataset, path string, textIndex int, extension string, logger *zap.Logger) error {
	preds, err := readPredictions(path)
	if err != nil {
		return err
	}

	writer := pagexml.NewWriter(pagexml.WriterConfig{
		TextIndex: textIndex,
		Extension: extension,
		Logger:    logger,
	})

	attached := 0
	for i := 0; i < ds.Len(); i++ {
		records := ds.Records(i)
		pageName := pagexml.Filename(ds.Pairs()[i].XML)
		for j := range records {
			rec := &records[j]
			text, ok := preds[rec.ID]
			if !ok {
				text, ok = preds[pageName+"_"+filepath.Base(rec.ID)]
			}
			if !ok {
				continue
			}
			if err := writer.Attach(text, rec); err != nil {
				return err
			}
			attached++
		}
	}
	if err := writer.Flush(); err != nil {
		return err
	}
	if err := writer.FlushAll(ds.Documents()); err != nil {
		return err
	}
	fmt.Printf("Attached %d predictions across %d page files\n", attached, ds.Len())
	return nil
}

func readPredictions(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open predictions: %w", err)
	}
	defer f.Close()

	preds := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		id, text, ok := strings.Cut(line, "\t")
		if !ok {
			return nil, fmt.Errorf("malformed prediction line %q (want id<TAB>text)", line)
		}
		preds[id] = text
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read predictions: %w", err)
	}
	return preds, nil
}
