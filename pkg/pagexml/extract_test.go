package pagexml

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const multiLinePage = `<?xml version="1.0" encoding="UTF-8"?>
<PcGts xmlns="http://schema.primaresearch.org/PAGE/gts/pagecontent/2013-07-15">
  <Page imageFilename="page1.png" imageWidth="100" imageHeight="50">
    <TextRegion id="r1" type="paragraph" orientation="2.5">
      <TextLine id="l1">
        <Coords points="0,0 50,0 50,10 0,10"/>
        <TextEquiv index="1"><Unicode>first line</Unicode></TextEquiv>
      </TextLine>
      <TextLine id="l2" comments="blurry">
        <Coords points="0,12 50,12 50,22 0,22"/>
        <TextEquiv index="1"><Unicode>commented line</Unicode></TextEquiv>
      </TextLine>
      <TextLine id="l3">
        <Coords points="0,24 50,24 50,34 0,34"/>
        <TextEquiv><Unicode>untagged line</Unicode></TextEquiv>
      </TextLine>
    </TextRegion>
  </Page>
</PcGts>
`

func groundTruthConfig(mode LoadMode) LoaderConfig {
	cfg := DefaultLoaderConfig()
	cfg.Mode = mode
	cfg.TextIndex = 1
	return cfg
}

func TestGroundTruthExtraction(t *testing.T) {
	xml := writePage(t, t.TempDir(), "page1.xml", multiLinePage)
	loader := NewLoader(groundTruthConfig(ModeTraining))

	// The image name only has to match on the extension-stripped basename.
	recs, err := loader.Load("scans/page1.tif", xml)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	require.Equal(t, xml+"/l1", recs[0].ID)
	require.Equal(t, xml, recs[0].PageID)
	require.Equal(t, "first line", recs[0].Text)
	require.True(t, recs[0].HasText)
	require.Equal(t, "0,0 50,0 50,10 0,10", recs[0].Coords)
	require.Equal(t, 2.5, recs[0].Orientation)
	require.Equal(t, "paragraph", recs[0].RegionType)
	require.Equal(t, 100, recs[0].ImageWidth)
	require.Equal(t, "scans/page1.tif", recs[0].ImagePath)

	// l2 is commented out, so l3 follows; its untagged TextEquiv is the
	// fallback for the requested index.
	require.Equal(t, xml+"/l3", recs[1].ID)
	require.Equal(t, "untagged line", recs[1].Text)
}

func TestImageMismatch(t *testing.T) {
	xml := writePage(t, t.TempDir(), "page1.xml", multiLinePage)
	loader := NewLoader(groundTruthConfig(ModeTraining))

	_, err := loader.Load("scans/page2.tif", xml)
	var mismatch *ImageXMLMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, "scans/page2.tif", mismatch.ImagePath)
	require.Equal(t, "page1.png", mismatch.DeclaredImage)
}

func TestCommentedLinesKeptOnRequest(t *testing.T) {
	xml := writePage(t, t.TempDir(), "page1.xml", multiLinePage)
	cfg := groundTruthConfig(ModeTraining)
	cfg.SkipCommented = false
	recs, err := NewLoader(cfg).Load("page1.png", xml)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	require.Equal(t, "commented line", recs[1].Text)
}

const noTextPage = `<?xml version="1.0" encoding="UTF-8"?>
<PcGts xmlns="http://schema.primaresearch.org/PAGE/gts/pagecontent/2013-07-15">
  <Page imageFilename="page1.png" imageWidth="100">
    <TextRegion id="r1">
      <TextLine id="l1">
        <Coords points="0,0 50,0 50,10 0,10"/>
      </TextLine>
    </TextRegion>
  </Page>
</PcGts>
`

func TestEmptyTextPolicies(t *testing.T) {
	xml := writePage(t, t.TempDir(), "page1.xml", noTextPage)

	// No fallback policy: extraction fails.
	cfg := groundTruthConfig(ModeTraining)
	_, err := NewLoader(cfg).Load("page1.png", xml)
	var empty *EmptyTextError
	require.ErrorAs(t, err, &empty)
	require.Equal(t, "l1", empty.LineID)

	// Skip-invalid: the line is dropped silently.
	cfg.SkipInvalid = true
	recs, err := NewLoader(cfg).Load("page1.png", xml)
	require.NoError(t, err)
	require.Empty(t, recs)

	// Non-existing-as-empty: the line survives with an empty transcription.
	// Targets mode keeps it; supervised modes cannot use an empty line.
	cfg = groundTruthConfig(ModeTargets)
	cfg.NonExistingAsEmpty = true
	recs, err = NewLoader(cfg).Load("", xml)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.True(t, recs[0].HasText)
	require.Equal(t, "", recs[0].Text)

	cfg.Mode = ModeTraining
	recs, err = NewLoader(cfg).Load("page1.png", xml)
	require.NoError(t, err)
	require.Empty(t, recs)
}

func TestEmptyUnicodeSkippedInSupervisedModes(t *testing.T) {
	page := strings.Replace(multiLinePage, "<Unicode>first line</Unicode>", "<Unicode></Unicode>", 1)
	xml := writePage(t, t.TempDir(), "page1.xml", page)

	recs, err := NewLoader(groundTruthConfig(ModeTraining)).Load("page1.png", xml)
	require.NoError(t, err)
	require.Len(t, recs, 1) // only l3 remains

	// Targets mode keeps the resolved-but-empty transcription.
	recs, err = NewLoader(groundTruthConfig(ModeTargets)).Load("", xml)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, "", recs[0].Text)
	require.True(t, recs[0].HasText)
}

func TestTextEquivSelection(t *testing.T) {
	page := `<?xml version="1.0" encoding="UTF-8"?>
<PcGts xmlns="http://schema.primaresearch.org/PAGE/gts/pagecontent/2013-07-15">
  <Page imageFilename="page1.png" imageWidth="100">
    <TextRegion id="r1">
      <TextLine id="l1">
        <Coords points="0,0 50,0 50,10 0,10"/>
        <TextEquiv><Unicode>untagged</Unicode></TextEquiv>
        <TextEquiv index="1"><Unicode>indexed</Unicode></TextEquiv>
      </TextLine>
    </TextRegion>
  </Page>
</PcGts>
`
	xml := writePage(t, t.TempDir(), "page1.xml", page)

	cfg := groundTruthConfig(ModeTraining)
	recs, err := NewLoader(cfg).Load("page1.png", xml)
	require.NoError(t, err)
	require.Equal(t, "indexed", recs[0].Text)

	// No entry for index 2: the untagged one is the fallback.
	cfg.TextIndex = 2
	recs, err = NewLoader(cfg).Load("page1.png", xml)
	require.NoError(t, err)
	require.Equal(t, "untagged", recs[0].Text)
}

func TestDuplicateTextEquivWarnsAndUsesFirst(t *testing.T) {
	page := `<?xml version="1.0" encoding="UTF-8"?>
<PcGts xmlns="http://schema.primaresearch.org/PAGE/gts/pagecontent/2013-07-15">
  <Page imageFilename="page1.png" imageWidth="100">
    <TextRegion id="r1">
      <TextLine id="l1">
        <Coords points="0,0 50,0 50,10 0,10"/>
        <TextEquiv><Unicode>first reading</Unicode></TextEquiv>
        <TextEquiv><Unicode>second reading</Unicode></TextEquiv>
      </TextLine>
    </TextRegion>
  </Page>
</PcGts>
`
	xml := writePage(t, t.TempDir(), "page1.xml", page)

	core, logs := observer.New(zapcore.WarnLevel)
	cfg := groundTruthConfig(ModeTraining)
	cfg.Logger = zap.New(core)

	recs, err := NewLoader(cfg).Load("page1.png", xml)
	require.NoError(t, err)
	require.Equal(t, "first reading", recs[0].Text)
	require.Equal(t, 1, logs.Len())
	require.Contains(t, logs.All()[0].Message, "non unique")
}

func TestPredictionMode(t *testing.T) {
	xml := writePage(t, t.TempDir(), "page1.xml", multiLinePage)
	cfg := DefaultLoaderConfig()

	recs, err := NewLoader(cfg).Load("page1.png", xml)
	require.NoError(t, err)
	// Prediction traverses every line, commented ones included, and never
	// resolves text.
	require.Len(t, recs, 3)
	for _, rec := range recs {
		require.False(t, rec.HasText)
	}

	// The filename check is always enforced in prediction mode.
	_, err = NewLoader(cfg).Load("other.png", xml)
	var mismatch *ImageXMLMismatchError
	require.ErrorAs(t, err, &mismatch)
}

func TestNonExistingAsEmptyFile(t *testing.T) {
	cfg := DefaultLoaderConfig()
	cfg.NonExistingAsEmpty = true
	loader := NewLoader(cfg)

	recs, err := loader.Load("page1.png", "missing/page1.xml")
	require.NoError(t, err)
	require.Nil(t, recs)
	require.Nil(t, loader.Document())
}

func TestOrientationFallback(t *testing.T) {
	page := strings.Replace(multiLinePage, `orientation="2.5"`, `orientation="skewed"`, 1)
	xml := writePage(t, t.TempDir(), "page1.xml", page)
	recs, err := NewLoader(DefaultLoaderConfig()).Load("page1.png", xml)
	require.NoError(t, err)
	require.Equal(t, 0.0, recs[0].Orientation)
}
