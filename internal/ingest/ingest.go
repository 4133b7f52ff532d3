package ingest

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/stateful/slidedeck/internal/document"
)

// DefaultChunkSize is the read size used when none is configured.
const DefaultChunkSize = 4096

// ErrStreamFailed is matched by errors returned when the generation
// stream could not be read to the end.
var ErrStreamFailed = errors.New("generation stream failed")

// StreamError wraps a read failure of the generation stream.
type StreamError struct {
	err error
}

func (e *StreamError) Error() string {
	return ErrStreamFailed.Error() + ": " + e.err.Error()
}

func (e *StreamError) Unwrap() error { return e.err }

func (e *StreamError) Is(target error) bool { return target == ErrStreamFailed }

// Sink receives slides as they are completed.
type Sink interface {
	AppendSlides(slides ...document.Slide) document.Document
}

// Recorder captures a history snapshot.
type Recorder interface {
	Push()
}

// canceler is implemented by readers whose blocking reads can be
// interrupted, such as cancelreader.CancelReader.
type canceler interface {
	Cancel() bool
}

// Result summarizes a finished ingestion.
type Result struct {
	Slides int
	Bytes  int64
}

type Ingester struct {
	sink      Sink
	recorder  Recorder
	chunkSize int
	parserOpt []ParserOption
	logger    *zap.Logger
}

type Option func(*Ingester)

func WithLogger(logger *zap.Logger) Option {
	return func(in *Ingester) {
		in.logger = logger
	}
}

// WithRecorder pushes a single history snapshot once the stream completes.
func WithRecorder(r Recorder) Option {
	return func(in *Ingester) {
		in.recorder = r
	}
}

func WithChunkSize(size int) Option {
	return func(in *Ingester) {
		in.chunkSize = size
	}
}

func WithParserOptions(opts ...ParserOption) Option {
	return func(in *Ingester) {
		in.parserOpt = append(in.parserOpt, opts...)
	}
}

func New(sink Sink, opts ...Option) *Ingester {
	in := &Ingester{
		sink:      sink,
		chunkSize: DefaultChunkSize,
	}

	for _, opt := range opts {
		opt(in)
	}

	if in.logger == nil {
		in.logger = zap.NewNop()
	}
	if in.chunkSize <= 0 {
		in.chunkSize = DefaultChunkSize
	}

	return in
}

// Ingest reads r to the end, committing every completed slide to the sink
// as soon as it is parsed. Slides committed before a failure or
// cancellation are kept; the trailing partial slide is committed only when
// the stream ends cleanly. Ingest returns on cancellation even while r is
// blocked in Read.
func (in *Ingester) Ingest(ctx context.Context, r io.Reader) (Result, error) {
	var (
		result  Result
		chunks  = make(chan []byte)
		readErr = make(chan error, 1)
		done    = make(chan struct{})
		parser  = NewParser(append([]ParserOption{WithParserLogger(in.logger)}, in.parserOpt...)...)
	)

	g, gctx := errgroup.WithContext(ctx)

	// The reader stays outside the group so that Wait never blocks on Read.
	go func() {
		defer close(chunks)
		readErr <- in.read(gctx, r, chunks)
	}()

	if c, ok := r.(canceler); ok {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				c.Cancel()
			case <-done:
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(done)
		for {
			select {
			case <-gctx.Done():
				return errors.WithStack(gctx.Err())
			case chunk, ok := <-chunks:
				if !ok {
					// readErr is sent before chunks is closed.
					if err := <-readErr; err != nil {
						return err
					}
					in.commit(parser.Flush(), &result)
					return nil
				}
				result.Bytes += int64(len(chunk))
				in.commit(parser.Feed(chunk), &result)
			}
		}
	})

	if err := g.Wait(); err != nil {
		in.logger.Info("ingestion stopped", zap.Int("slides", result.Slides), zap.Error(err))
		return result, err
	}

	if in.recorder != nil {
		in.recorder.Push()
	}

	in.logger.Info("ingestion finished", zap.Int("slides", result.Slides), zap.Int64("bytes", result.Bytes))

	return result, nil
}

func (in *Ingester) read(ctx context.Context, r io.Reader, chunks chan<- []byte) error {
	for {
		buf := make([]byte, in.chunkSize)
		n, err := r.Read(buf)
		if n > 0 {
			select {
			case chunks <- buf[:n]:
			case <-ctx.Done():
				return errors.WithStack(ctx.Err())
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return errors.WithStack(ctx.Err())
			}
			return &StreamError{err: err}
		}
	}
}

func (in *Ingester) commit(slides []document.Slide, result *Result) {
	if len(slides) == 0 {
		return
	}
	doc := in.sink.AppendSlides(slides...)
	result.Slides += len(slides)
	in.logger.Debug("committed slides", zap.Int("count", len(slides)), zap.Uint64("revision", doc.Revision))
}
