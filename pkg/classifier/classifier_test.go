package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thebanscraper/pkg/logger"
	"thebanscraper/pkg/models"
	"thebanscraper/pkg/texts"
)

func classify(t *testing.T, key, body string) Result {
	t.Helper()
	text, err := texts.Lookup(key)
	require.NoError(t, err)

	c := New(text, logger.NewNopLogger())
	res, err := c.Classify(models.TombPage{
		ID:    "kv-9",
		Title: "KV 9",
		URL:   "https://thebanmappingproject.com/tombs/kv-9",
		Body:  []byte(body),
	})
	require.NoError(t, err)
	return res
}

func urls(refs []models.ImageReference) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.ResolvedURL)
	}
	return out
}

func TestClassifyPageWithoutMarker(t *testing.T) {
	res := classify(t, "amduat", `<html><body>
		<h2>Hour 3</h2>
		<img src="/a.jpg">
		<p>Book of Gates, third division</p>
		<img src="/b.jpg">
	</body></html>`)

	assert.False(t, res.Matched)
	assert.Empty(t, res.References)
	assert.Empty(t, res.Warnings)
}

func TestClassifyMarkerOnlyInScriptIsIgnored(t *testing.T) {
	res := classify(t, "amduat", `<html><head><title>Amduat</title></head><body>
		<script>var t = "amduat";</script>
		<h2>Hour 3</h2><img src="/a.jpg">
	</body></html>`)

	assert.Empty(t, res.References)
	assert.Empty(t, res.Warnings)
}

func TestClassifyAllImagesUnderHeading(t *testing.T) {
	res := classify(t, "amduat", `<html><body>
		<p>The burial chamber carries the Amduat.</p>
		<h3>Hour 3</h3>
		<div class="gallery">
			<img src="/sites/default/files/h3-1.jpg">
			<img src="/sites/default/files/h3-2.jpg">
			<img src="/sites/default/files/h3-3.jpg">
		</div>
		<h3>Hour 4</h3>
		<img src="/sites/default/files/h4-1.jpg">
	</body></html>`)

	require.Len(t, res.References, 4)
	for _, r := range res.References[:3] {
		assert.Equal(t, texts.SectionLabel("Hour 3"), r.Section)
		assert.True(t, r.Valid())
		assert.Equal(t, "kv-9", r.TombID)
		assert.Equal(t, "KV 9", r.TombTitle)
	}
	assert.Equal(t, texts.SectionLabel("Hour 4"), res.References[3].Section)
	assert.Empty(t, res.Warnings)
	assert.True(t, res.Matched)
}

func TestClassifyImageBeforeHeadingIsWarned(t *testing.T) {
	res := classify(t, "amduat", `<html><body>
		<p>Amduat</p>
		<img src="/sites/default/files/entrance.jpg">
		<h2>Hour 1</h2>
		<img src="/sites/default/files/h1.jpg">
		<h2>Plan</h2>
		<img src="/sites/default/files/plan.jpg">
	</body></html>`)

	assert.Equal(t, []string{"https://thebanmappingproject.com/sites/default/files/h1.jpg"}, urls(res.References))
	require.Len(t, res.Warnings, 2)
	assert.Equal(t, "kv-9", res.Warnings[0].TombID)
	assert.Equal(t, "https://thebanmappingproject.com/sites/default/files/entrance.jpg", res.Warnings[0].ImageURL)
	assert.Equal(t, "marker-seen-no-section", res.Warnings[0].State)
	assert.Equal(t, "marker-seen-no-section", res.Warnings[1].State)
}

func TestClassifyCaptionOverridesHeading(t *testing.T) {
	res := classify(t, "amduat", `<html><body>
		<h2>Amduat in KV 9</h2>
		<figure>
			<img src="/f/one.jpg" alt="detail">
			<figcaption>Amduat, sixth hour, upper register</figcaption>
		</figure>
		<h2>Hour 2</h2>
		<img src="/f/two.jpg" title="Hour 8 for comparison">
		<img src="/f/three.jpg">
	</body></html>`)

	require.Len(t, res.References, 3)
	got := map[string]texts.SectionLabel{}
	for _, r := range res.References {
		got[r.ResolvedURL] = r.Section
	}
	assert.Equal(t, texts.SectionLabel("Hour 6"), got["https://thebanmappingproject.com/f/one.jpg"])
	assert.Equal(t, texts.SectionLabel("Hour 8"), got["https://thebanmappingproject.com/f/two.jpg"])
	assert.Equal(t, texts.SectionLabel("Hour 2"), got["https://thebanmappingproject.com/f/three.jpg"])
	assert.Contains(t, res.References[len(res.References)-1].Caption, "Hour 8")
}

func TestClassifyGroupsBySection(t *testing.T) {
	res := classify(t, "amduat", `<html><body>
		<p>Amduat</p>
		<h2>Hour 5</h2><img src="/a.jpg">
		<h2>Hour 2</h2><img src="/b.jpg">
		<h2>Hour 5</h2><img src="/c.jpg">
	</body></html>`)

	require.Len(t, res.References, 3)
	assert.Equal(t, texts.SectionLabel("Hour 2"), res.References[0].Section)
	assert.Equal(t, "https://thebanmappingproject.com/a.jpg", res.References[1].ResolvedURL)
	assert.Equal(t, "https://thebanmappingproject.com/c.jpg", res.References[2].ResolvedURL)
	assert.Less(t, res.References[1].Position, res.References[2].Position)
}

func TestClassifyFiltersDecorativeImages(t *testing.T) {
	res := classify(t, "amduat", `<html><body>
		<img src="/themes/tmp/logo.png">
		<p>Amduat</p>
		<img src="/img/compass.png">
		<img class="icon" src="/img/x.png">
		<img src="/img/hieroglyph-sign.png">
		<img src="/img/map.svg">
		<h2>Hour 1</h2>
		<img src="/img/sprite-sheet.png">
		<img src="/img/h1.jpg">
	</body></html>`)

	assert.Equal(t, []string{"https://thebanmappingproject.com/img/h1.jpg"}, urls(res.References))
	assert.Empty(t, res.Warnings)
}

func TestClassifyDuplicateWithinPageReportedOnce(t *testing.T) {
	res := classify(t, "amduat", `<html><body>
		<p>Amduat</p>
		<h2>Hour 3</h2>
		<img src="/sites/default/files/styles/thumbnail/public/img1.jpg?itok=a">
		<img src="/sites/default/files/styles/large/public/img1.jpg?itok=b">
		<h2>Hour 4</h2>
		<img src="/sites/default/files/img1.jpg">
	</body></html>`)

	require.Len(t, res.References, 1)
	assert.Equal(t, "https://thebanmappingproject.com/sites/default/files/img1.jpg", res.References[0].ResolvedURL)
	assert.Equal(t, texts.SectionLabel("Hour 3"), res.References[0].Section)
}

func TestClassifyLazyAndLinkedImages(t *testing.T) {
	res := classify(t, "amduat", `<html><body>
		<p>Amduat</p>
		<h2>Hour 3</h2>
		<a href="/sites/default/files/img1_full.jpg"><img src="/sites/default/files/img1.jpg"></a>
		<img src="data:image/gif;base64,R0lGOD" data-src="/sites/default/files/lazy.jpg">
		<div class="bg" data-src="/sites/default/files/background.jpg"></div>
		<picture>
			<source srcset="/p-640.webp 640w, /p-1280.webp 1280w">
			<img src="/p-320.jpg">
		</picture>
	</body></html>`)

	assert.Equal(t, []string{
		"https://thebanmappingproject.com/sites/default/files/img1_full.jpg",
		"https://thebanmappingproject.com/sites/default/files/lazy.jpg",
		"https://thebanmappingproject.com/sites/default/files/background.jpg",
		"https://thebanmappingproject.com/p-1280.webp",
	}, urls(res.References))
	assert.Equal(t, "/sites/default/files/img1.jpg", res.References[0].SourceURL)
}

func TestClassifyCaverns(t *testing.T) {
	res := classify(t, "caverns", `<html><body>
		<p>The sarcophagus hall shows the Book of Caverns.</p>
		<h4>Fifth Division</h4>
		<img src="/c5.jpg">
		<h4>Part VI</h4>
		<img src="/c6.jpg">
	</body></html>`)

	require.Len(t, res.References, 2)
	assert.Equal(t, texts.SectionLabel("Division 5"), res.References[0].Section)
	assert.Equal(t, texts.SectionLabel("Division 6"), res.References[1].Section)
}

func TestClassifyImageInsideHeading(t *testing.T) {
	res := classify(t, "amduat", `<html><body>
		<p>Amduat</p>
		<h2><img src="/inline.jpg"> Hour 9</h2>
	</body></html>`)

	require.Len(t, res.References, 1)
	assert.Equal(t, texts.SectionLabel("Hour 9"), res.References[0].Section)
}

func TestClassifySubheadingsStayInSection(t *testing.T) {
	res := classify(t, "amduat", `<html><body>
		<p>The burial chamber carries the Amduat.</p>
		<h2>Hour 3</h2>
		<img src="/sites/default/files/a.jpg">
		<h3>Upper register</h3>
		<img src="/sites/default/files/b.jpg">
		<img src="/sites/default/files/c.jpg">
		<h2>Bibliography</h2>
		<img src="/sites/default/files/cover.jpg">
	</body></html>`)

	require.Len(t, res.References, 3)
	for _, r := range res.References {
		assert.Equal(t, texts.SectionLabel("Hour 3"), r.Section, r.ResolvedURL)
	}
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "https://thebanmappingproject.com/sites/default/files/cover.jpg", res.Warnings[0].ImageURL)
}

func TestClassifyOverviewHeadingIsNotASection(t *testing.T) {
	res := classify(t, "amduat", `<html><body>
		<h2>The Twelve Hours of the Amduat</h2>
		<img src="/sites/default/files/overview.jpg">
	</body></html>`)

	assert.Empty(t, res.References)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "https://thebanmappingproject.com/sites/default/files/overview.jpg", res.Warnings[0].ImageURL)
}

func TestClassifySurroundingParagraph(t *testing.T) {
	res := classify(t, "amduat", `<html><body>
		<div>
			<p>Imydwat, third hour, left wall</p>
			<a href="/sites/default/files/x.jpg"><img src="/sites/default/files/styles/thumb/public/x.jpg"></a>
		</div>
		<div>
			<p>East wall, general view</p>
			<img src="/sites/default/files/y.jpg">
		</div>
	</body></html>`)

	require.Len(t, res.References, 1)
	assert.Equal(t, "https://thebanmappingproject.com/sites/default/files/x.jpg", res.References[0].ResolvedURL)
	assert.Equal(t, texts.SectionLabel("Hour 3"), res.References[0].Section)
	assert.Contains(t, res.References[0].Caption, "third hour")

	// Text without a marker is not used as context
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "https://thebanmappingproject.com/sites/default/files/y.jpg", res.Warnings[0].ImageURL)
}

func TestClassifyContextSkipsBlocksWithHeadings(t *testing.T) {
	res := classify(t, "amduat", `<html><body>
		<section>
			<p>Amduat, first hour</p>
			<h2>Hour 4</h2>
			<div><img src="/sites/default/files/h4.jpg"></div>
		</section>
	</body></html>`)

	require.Len(t, res.References, 1)
	assert.Equal(t, texts.SectionLabel("Hour 4"), res.References[0].Section)
}
