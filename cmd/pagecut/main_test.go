package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gardar/pagecut/pkg/dataset"
	"github.com/gardar/pagecut/pkg/pagexml"
)

// writeRun writes n single-line fixture pages, all sharing the line id "l1",
// and returns the dataset over them plus the expected write-back paths.
func writeRun(t *testing.T, dir string, n int) (*dataset.Dataset, []string) {
	t.Helper()
	var images, xmls, outPaths []string
	for i := 1; i <= n; i++ {
		name := fmt.Sprintf("page%d", i)
		content := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<PcGts xmlns="http://schema.primaresearch.org/PAGE/gts/pagecontent/2013-07-15">
  <Page imageFilename="%s.png" imageWidth="100">
    <TextRegion id="r1">
      <TextLine id="l1"><Coords points="0,0 50,0 50,10 0,10"/></TextLine>
    </TextRegion>
  </Page>
</PcGts>
`, name)
		xml := filepath.Join(dir, name+".xml")
		require.NoError(t, os.WriteFile(xml, []byte(content), 0666))
		images = append(images, filepath.Join(dir, name+".png"))
		xmls = append(xmls, xml)
		outPaths = append(outPaths, filepath.Join(dir, name+".out.xml"))
	}
	ds, err := dataset.NewDataset(pagexml.DefaultLoaderConfig(), dataset.AssemblerConfig{}, images, xmls)
	require.NoError(t, err)
	return ds, outPaths
}

func writeTSV(t *testing.T, dir string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, "pred.tsv")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0666))
	return path
}

func TestApplyMatchesLinesPerPage(t *testing.T) {
	dir := t.TempDir()
	ds, outPaths := writeRun(t, dir, 2)

	// Both pages carry a line "l1"; each prediction must land on its own page.
	tsv := writeTSV(t, dir,
		"page1_l1\ttext for page one",
		"page2_l1\ttext for page two")
	require.NoError(t, apply(ds, tsv, 1, ".out.xml", zap.NewNop()))

	first, err := os.ReadFile(outPaths[0])
	require.NoError(t, err)
	require.Contains(t, string(first), "<Unicode>text for page one</Unicode>")
	require.NotContains(t, string(first), "text for page two")

	second, err := os.ReadFile(outPaths[1])
	require.NoError(t, err)
	require.Contains(t, string(second), "<Unicode>text for page two</Unicode>")
	require.NotContains(t, string(second), "text for page one")
}

func TestApplyAcceptsCompositeIDs(t *testing.T) {
	dir := t.TempDir()
	ds, outPaths := writeRun(t, dir, 1)

	tsv := writeTSV(t, dir, ds.Records(0)[0].ID+"\tcomposite keyed")
	require.NoError(t, apply(ds, tsv, 1, ".out.xml", zap.NewNop()))

	out, err := os.ReadFile(outPaths[0])
	require.NoError(t, err)
	require.Contains(t, string(out), "<Unicode>composite keyed</Unicode>")
}

func TestApplyIgnoresBareLineIDs(t *testing.T) {
	dir := t.TempDir()
	ds, outPaths := writeRun(t, dir, 2)

	// A bare line id is ambiguous across pages and must attach nowhere; both
	// pages are copied through unchanged.
	tsv := writeTSV(t, dir, "l1\tambiguous")
	require.NoError(t, apply(ds, tsv, 1, ".out.xml", zap.NewNop()))

	for _, out := range outPaths {
		data, err := os.ReadFile(out)
		require.NoError(t, err)
		require.NotContains(t, string(data), "ambiguous")
		require.NotContains(t, string(data), "TextEquiv")
	}
}

func TestReadPredictionsMalformed(t *testing.T) {
	dir := t.TempDir()
	tsv := writeTSV(t, dir, "page1_l1 no tab here")
	_, err := readPredictions(tsv)
	require.Error(t, err)
}
