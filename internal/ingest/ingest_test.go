package ingest

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stateful/slidedeck/internal/document"
	"github.com/stateful/slidedeck/internal/history"
	"github.com/stateful/slidedeck/internal/store"
	"github.com/stateful/slidedeck/internal/theme"
)

type countingRecorder struct {
	pushes int
}

func (r *countingRecorder) Push() { r.pushes++ }

type sinkFunc func(slides ...document.Slide) document.Document

func (f sinkFunc) AppendSlides(slides ...document.Slide) document.Document { return f(slides...) }

func TestIngest_CommitsSlidesIncrementally(t *testing.T) {
	s := store.New(theme.NewRegistry())
	h := history.New(s)

	var revisions []int
	s.Subscribe(func(doc document.Document) {
		revisions = append(revisions, len(doc.Slides))
	})

	in := New(s, WithRecorder(h), WithChunkSize(3))
	result, err := in.Ingest(context.Background(), strings.NewReader("# One\na\n# Two\nb\n# Three\nc"))
	require.NoError(t, err)

	assert.Equal(t, 3, result.Slides)
	assert.EqualValues(t, 25, result.Bytes)
	assert.Equal(t, []string{"One", "Two", "Three"}, titles(s.Slides()))
	assert.Equal(t, []int{1, 2, 3}, revisions, "one commit per completed slide")

	assert.Equal(t, 1, h.Len(), "history is pushed once at the end")
	assert.False(t, h.CanUndo())
}

func TestIngest_StreamFailureKeepsCommittedSlides(t *testing.T) {
	boom := errors.New("boom")
	s := store.New(theme.NewRegistry())
	rec := &countingRecorder{}

	r := io.MultiReader(strings.NewReader("# A\nx\n# B\npartial"), iotest.ErrReader(boom))
	result, err := New(s, WithRecorder(rec)).Ingest(context.Background(), r)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStreamFailed)
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, 1, result.Slides)
	assert.Equal(t, []string{"A"}, titles(s.Slides()), "partial slide is dropped")
	assert.Zero(t, rec.pushes)
}

// blockingReader returns its data once and then blocks until canceled.
type blockingReader struct {
	data     string
	once     sync.Once
	canceled chan struct{}
}

func (r *blockingReader) Read(p []byte) (int, error) {
	if r.data != "" {
		n := copy(p, r.data)
		r.data = r.data[n:]
		return n, nil
	}
	<-r.canceled
	return 0, errors.New("read canceled")
}

func (r *blockingReader) Cancel() bool {
	r.once.Do(func() { close(r.canceled) })
	return true
}

func TestIngest_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var committed []document.Slide
	sink := sinkFunc(func(slides ...document.Slide) document.Document {
		committed = append(committed, slides...)
		cancel()
		return document.Document{}
	})

	r := &blockingReader{data: "# A\nx\n# B\ny\n", canceled: make(chan struct{})}
	rec := &countingRecorder{}
	result, err := New(sink, WithRecorder(rec)).Ingest(ctx, r)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrStreamFailed)
	assert.Equal(t, 1, result.Slides)
	assert.Equal(t, []string{"A"}, titles(committed))
	assert.Zero(t, rec.pushes)
}

func TestIngest_CancelWhileReadBlocks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A pipe reader cannot be interrupted; its Read blocks until more data
	// is written.
	pr, pw := io.Pipe()
	defer func() { _ = pw.Close() }()

	s := store.New(theme.NewRegistry())
	committed := make(chan struct{}, 1)
	s.Subscribe(func(doc document.Document) {
		if len(doc.Slides) > 0 {
			select {
			case committed <- struct{}{}:
			default:
			}
		}
	})

	type outcome struct {
		result Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := New(s).Ingest(ctx, pr)
		done <- outcome{result: result, err: err}
	}()

	_, err := pw.Write([]byte("# A\nx\n# B\n"))
	require.NoError(t, err)

	select {
	case <-committed:
	case <-time.After(5 * time.Second):
		t.Fatal("first slide was not committed")
	}
	cancel()

	select {
	case out := <-done:
		assert.ErrorIs(t, out.err, context.Canceled)
		assert.NotErrorIs(t, out.err, ErrStreamFailed)
		assert.Equal(t, 1, out.result.Slides)
	case <-time.After(5 * time.Second):
		t.Fatal("ingest did not return after cancel")
	}
	assert.Equal(t, []string{"A"}, titles(s.Slides()))
}

func TestIngest_Empty(t *testing.T) {
	rec := &countingRecorder{}
	sink := sinkFunc(func(...document.Slide) document.Document {
		t.Fatal("nothing to commit")
		return document.Document{}
	})

	result, err := New(sink, WithRecorder(rec)).Ingest(context.Background(), strings.NewReader(""))
	require.NoError(t, err)
	assert.Zero(t, result.Slides)
	assert.Equal(t, 1, rec.pushes)
}

func TestApplyRewrite(t *testing.T) {
	s := store.New(theme.NewRegistry())
	s.SetSlides(document.Slides{{
		ID:      "s1",
		Title:   "Old",
		Layout:  document.LayoutLeftImage,
		Content: []document.Block{{ID: "b1", Type: document.BlockParagraph, Text: "old"}},
	}})

	var seen []document.Document
	unsubscribe := s.Subscribe(func(doc document.Document) {
		seen = append(seen, doc)
	})

	doc, err := ApplyRewrite(s, "s1", "# New title\nPoint\n- x\n")
	require.NoError(t, err)

	unsubscribe()
	require.Len(t, seen, 1, "content and title are committed together")
	assert.Equal(t, "New title", seen[0].Slides[0].Title)
	assert.Equal(t, "Point", seen[0].Slides[0].Content[0].Text)
	assert.Equal(t, doc.Revision, seen[0].Revision)

	slide := doc.Slides[0]
	assert.Equal(t, "s1", slide.ID)
	assert.Equal(t, "New title", slide.Title)
	assert.Equal(t, document.LayoutLeftImage, slide.Layout)
	assert.Equal(t, document.AlignStart, slide.AlignItems)
	require.Len(t, slide.Content, 2)
	assert.Equal(t, "Point", slide.Content[0].Text)
	assert.Equal(t, []string{"x"}, slide.Content[1].Items)

	doc, err = ApplyRewrite(s, "s1", "only body")
	require.NoError(t, err)
	assert.Equal(t, "New title", doc.Slides[0].Title)

	_, err = ApplyRewrite(s, "s1", "  \n")
	assert.ErrorIs(t, err, ErrEmptyRewrite)
}

func titles(slides []document.Slide) []string {
	result := make([]string, 0, len(slides))
	for _, s := range slides {
		result = append(result, s.Title)
	}
	return result
}
