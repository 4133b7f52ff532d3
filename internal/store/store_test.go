package store

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stateful/slidedeck/internal/document"
	"github.com/stateful/slidedeck/internal/theme"
	"github.com/stateful/slidedeck/internal/ulid"
)

func testSlides() document.Slides {
	return document.Slides{
		{
			ID:     "s1",
			Title:  "One",
			Layout: document.LayoutTextOnly,
			Content: []document.Block{
				{ID: "b1", Type: document.BlockParagraph, Text: "Hello"},
				{ID: "b2", Type: document.BlockList, Items: []string{"a", "b"}},
			},
		},
		{
			ID:      "s2",
			Title:   "Two",
			Layout:  document.LayoutTextOnly,
			Content: []document.Block{{ID: "b3", Type: document.BlockQuote, Text: "q"}},
		},
		{ID: "s3", Title: "Three", Layout: document.LayoutTextOnly},
	}
}

func testStore(t *testing.T) *Store {
	t.Helper()
	s := New(theme.NewRegistry())
	s.SetSlides(testSlides())
	return s
}

func TestApply_BumpsRevisionPerMutation(t *testing.T) {
	doc := document.New(theme.DefaultID)
	doc = Apply(doc, SetSlides(testSlides()), SetCurrentIndex(1), ResetVisitedSlides())
	assert.EqualValues(t, 3, doc.Revision)
	assert.Equal(t, 1, doc.CurrentIndex)
}

func TestMutations_DoNotModifyInput(t *testing.T) {
	before := Apply(document.New(theme.DefaultID), SetSlides(testSlides()))
	frozen := before.Clone()

	_ = Apply(before,
		UpdateBlock("b1", document.Block{Type: document.BlockParagraph, Text: "changed"}),
		DeleteBlock("s1", "b2"),
		ReorderSlides(0, 2),
		MarkSlideVisited(0),
		SetJustifyContent("s2", document.AlignEnd),
		DeleteSlide("s3"),
	)

	assert.Empty(t, cmp.Diff(frozen, before))
}

func TestSetSlides_ClampsOnlyOutOfRange(t *testing.T) {
	s := testStore(t)
	s.SetCurrentIndex(2)

	doc := s.SetSlides(testSlides()[:2])
	assert.Equal(t, 1, doc.CurrentIndex)

	s.SetCurrentIndex(0)
	doc = s.SetSlides(testSlides())
	assert.Equal(t, 0, doc.CurrentIndex)

	doc = s.SetSlides(nil)
	assert.Equal(t, 0, doc.CurrentIndex)
	assert.Empty(t, doc.Slides)
}

func TestUpdateBlock(t *testing.T) {
	s := testStore(t)

	doc := s.UpdateBlock("b3", document.Block{ID: "ignored", Type: document.BlockQuote, Text: "new"})
	assert.Equal(t, "new", doc.Slides[1].Content[0].Text)
	assert.Equal(t, "b3", doc.Slides[1].Content[0].ID)

	before := s.Document()
	after := s.UpdateBlock("missing", document.Block{Text: "x"})
	assert.Equal(t, before.Revision+1, after.Revision)
	assert.Empty(t, cmp.Diff(before, after, cmpopts.IgnoreFields(document.Document{}, "Revision")))
}

// Deleting an absent block is a committed mutation: the document is equal
// by value to the input and the revision is still incremented.
func TestDeleteBlock_MissingIDCommitsUnchangedDocument(t *testing.T) {
	s := testStore(t)
	before := s.Document()

	after := s.DeleteBlock("s1", "missing-id")

	assert.Equal(t, before.Revision+1, after.Revision)
	assert.Empty(t, cmp.Diff(before, after, cmpopts.IgnoreFields(document.Document{}, "Revision")))

	after = s.DeleteBlock("missing-slide", "b1")
	assert.Equal(t, before.Revision+2, after.Revision)
	assert.Len(t, after.Slides[0].Content, 2)
}

func TestSetSlides_DropsDanglingSelection(t *testing.T) {
	s := testStore(t)
	s.SetSelection("b3")
	require.Equal(t, "b3", s.Document().Selection)

	// b3 survives the replacement.
	doc := s.SetSlides(s.Slides().Clone())
	assert.Equal(t, "b3", doc.Selection)

	doc = s.SetSlides(s.Slides()[:1])
	assert.Empty(t, doc.Selection)
}

func TestDeleteBlock(t *testing.T) {
	s := testStore(t)
	s.SetSelection("b2")
	require.Equal(t, "b2", s.Document().Selection)

	doc := s.DeleteBlock("s1", "b2")
	require.Len(t, doc.Slides[0].Content, 1)
	assert.Equal(t, "b1", doc.Slides[0].Content[0].ID)
	assert.Empty(t, doc.Selection)

	// The block belongs to s2, not s1.
	doc = s.DeleteBlock("s1", "b3")
	assert.Len(t, doc.Slides[1].Content, 1)
}

func TestReorderSlides_PreservesSet(t *testing.T) {
	testCases := []struct {
		name     string
		old, new int
		expected []string
	}{
		{name: "forward", old: 0, new: 2, expected: []string{"s2", "s3", "s1"}},
		{name: "backward", old: 2, new: 0, expected: []string{"s3", "s1", "s2"}},
		{name: "equal", old: 1, new: 1, expected: []string{"s1", "s2", "s3"}},
		{name: "clamped", old: -5, new: 99, expected: []string{"s2", "s3", "s1"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := testStore(t)
			before := s.Document()

			doc := s.ReorderSlides(tc.old, tc.new)
			assert.Equal(t, tc.expected, doc.Slides.IDs())

			for _, slide := range before.Slides {
				idx := doc.Slides.Index(slide.ID)
				require.GreaterOrEqual(t, idx, 0)
				assert.Empty(t, cmp.Diff(slide, doc.Slides[idx]))
			}
		})
	}
}

func TestReorderSlides_CurrentFollowsSlide(t *testing.T) {
	s := testStore(t)
	s.SetCurrentIndex(0)
	doc := s.ReorderSlides(0, 2)
	assert.Equal(t, 2, doc.CurrentIndex)
}

func TestSetCurrentIndex_Clamps(t *testing.T) {
	s := testStore(t)
	assert.Equal(t, 2, s.SetCurrentIndex(10).CurrentIndex)
	assert.Equal(t, 0, s.SetCurrentIndex(-1).CurrentIndex)

	empty := New(nil)
	assert.Equal(t, 0, empty.SetCurrentIndex(3).CurrentIndex)
}

func TestVisitedSlides(t *testing.T) {
	s := testStore(t)
	s.MarkSlideVisited(0)
	s.MarkSlideVisited(2)
	doc := s.MarkSlideVisited(7)
	assert.Equal(t, map[string]bool{"s1": true, "s3": true}, doc.VisitedSlides)

	doc = s.DeleteSlide("s3")
	assert.Equal(t, map[string]bool{"s1": true}, doc.VisitedSlides)

	doc = s.ResetVisitedSlides()
	assert.Empty(t, doc.VisitedSlides)
}

func TestDeleteSlide_MovesCurrentIndex(t *testing.T) {
	s := testStore(t)
	s.SetCurrentIndex(1)

	doc := s.DeleteSlide("s2")
	assert.Equal(t, []string{"s1", "s3"}, doc.Slides.IDs())
	assert.Equal(t, 0, doc.CurrentIndex)

	s.SetCurrentIndex(1)
	doc = s.DeleteSlide("s1")
	assert.Equal(t, 0, doc.CurrentIndex)
	assert.Equal(t, "s3", doc.Slides[0].ID)

	doc = s.DeleteSlide("s3")
	assert.Empty(t, doc.Slides)
	assert.Equal(t, 0, doc.CurrentIndex)
}

func TestAddSlide_LayoutPresets(t *testing.T) {
	ulid.MockSequence("id")
	defer ulid.ResetGenerator()

	s := testStore(t)

	slide := s.AddSlide(document.LayoutRightImage)
	doc := s.Document()
	assert.Equal(t, 3, doc.CurrentIndex)
	assert.Equal(t, slide.ID, doc.Slides[3].ID)

	require.Len(t, slide.Content, 2)
	image, heading := slide.Content[0], slide.Content[1]
	assert.Equal(t, document.BlockImage, image.Type)
	assert.Equal(t, document.Geometry{XPercent: 50, WidthPercent: 50, HeightPercent: 100}, image.Geometry)
	assert.Equal(t, document.BlockHeading, heading.Type)
	assert.Equal(t, 100.0, heading.YPercent)
	assert.Equal(t, "#1f2933", heading.Style.Color)

	slide = s.AddSlide(document.LayoutTextOnly)
	require.Len(t, slide.Content, 1)
	assert.Equal(t, document.Geometry{WidthPercent: 100, HeightPercent: 20}, slide.Content[0].Geometry)
}

func TestAddBlock_UsesThemeStyle(t *testing.T) {
	s := testStore(t)
	s.SetGlobalTheme("midnight")

	heading := s.AddBlock("s3", document.BlockHeading)
	para := s.AddBlock("s3", document.BlockParagraph)
	table := s.AddBlock("s3", document.BlockTable)

	doc := s.Document()
	require.Len(t, doc.Slides[2].Content, 3)
	assert.Equal(t, &document.Style{FontWeight: 700, FontSize: 28, Color: "#f0f4f8"}, heading.Style)
	assert.Equal(t, &document.Style{FontWeight: 400, FontSize: 16, Color: "#bcccdc"}, para.Style)
	assert.Equal(t, []string{"Header 1", "Header 2"}, table.Table.Headers)

	s.AddBlock("missing", document.BlockCode)
	assert.Len(t, s.Document().Slides[2].Content, 3)
}

func TestSetGlobalTheme_UnknownKeepsCurrent(t *testing.T) {
	s := testStore(t)
	s.SetGlobalTheme("forest")
	doc := s.SetGlobalTheme("missing")
	assert.Equal(t, "forest", doc.GlobalThemeID)
	assert.Equal(t, "forest", s.Theme().ID)
}

func TestUpdateSlideContent(t *testing.T) {
	s := testStore(t)
	content := []document.Block{{ID: "n1", Type: document.BlockCode, Text: "x := 1"}}

	doc := s.UpdateSlideContent("s3", content, document.AlignCenter)
	assert.Equal(t, content, doc.Slides[2].Content)
	assert.Equal(t, document.AlignCenter, doc.Slides[2].AlignItems)

	doc = s.UpdateSlideContent("s3", nil)
	assert.Empty(t, doc.Slides[2].Content)
	assert.Equal(t, document.AlignCenter, doc.Slides[2].AlignItems)

	content[0].Text = "mutated by caller"
	doc = s.UpdateSlideContent("s2", content)
	content[0].Text = "again"
	assert.Equal(t, "mutated by caller", doc.Slides[1].Content[0].Text)
}

func TestSetJustifyContent(t *testing.T) {
	s := testStore(t)
	doc := s.SetJustifyContent("s1", document.AlignEnd)
	for _, b := range doc.Slides[0].Content {
		assert.Equal(t, document.AlignEnd, b.JustifyContent)
	}
	assert.Empty(t, doc.Slides[1].Content[0].JustifyContent)
}

func TestSubscribe_RevisionOrder(t *testing.T) {
	s := testStore(t)

	var seen []uint64
	var nested bool
	unsubscribe := s.Subscribe(func(doc document.Document) {
		seen = append(seen, doc.Revision)
		if !nested {
			nested = true
			s.SetCurrentIndex(1)
		}
	})

	var second []uint64
	s.Subscribe(func(doc document.Document) {
		second = append(second, doc.Revision)
	})

	start := s.Revision()
	s.MarkSlideVisited(0)

	assert.Equal(t, []uint64{start + 1, start + 2}, seen)
	assert.Equal(t, seen, second)

	unsubscribe()
	s.ResetVisitedSlides()
	assert.Len(t, seen, 2)
	assert.Len(t, second, 3)
}
