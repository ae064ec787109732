package fetch

import (
	"io"

	"github.com/adamwoolhether/apiclient/client/task"
)

// progressReader maps the bytes read from r onto the [from, to] band of
// progress. A non-positive total reports nothing until EOF.
type progressReader struct {
	r        io.Reader
	progress *task.Progress
	total    int64
	read     int64
	from, to float64
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	pr.read += int64(n)

	switch {
	case err == io.EOF:
		pr.progress.Set(pr.to)
	case pr.total > 0:
		frac := min(float64(pr.read)/float64(pr.total), 1)
		pr.progress.Set(pr.from + frac*(pr.to-pr.from))
	}

	return n, err
}

// progressBody is a progressReader over a request body that must also be
// closed.
type progressBody struct {
	progressReader
	c io.Closer
}

func (pb *progressBody) Close() error { return pb.c.Close() }
