package loader

import (
	"io"
	"math"
)

// ProgressEvent reports bytes received during a fetch.
type ProgressEvent struct {
	Loaded           int64
	Total            int64
	LengthComputable bool
}

// Percent returns the whole percentage loaded, clamped to [0, 100]. ok is
// false when the total length is unknown.
func (e ProgressEvent) Percent() (pct int, ok bool) {
	if !e.LengthComputable || e.Total <= 0 {
		return 0, false
	}
	p := math.Round(float64(e.Loaded) / float64(e.Total) * 100)
	return int(math.Max(0, math.Min(100, p))), true
}

// progressReader reports progress after every read and once more at EOF.
type progressReader struct {
	r      io.Reader
	total  int64
	loaded int64
	fn     func(ProgressEvent)
	done   bool
}

func newProgressReader(r io.Reader, total int64, fn func(ProgressEvent)) io.Reader {
	if fn == nil {
		return r
	}
	return &progressReader{r: r, total: total, fn: fn}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.loaded += int64(n)
	if n > 0 {
		p.report()
	}
	if err == io.EOF && !p.done {
		p.done = true
		p.report()
	}
	return n, err
}

func (p *progressReader) report() {
	p.fn(ProgressEvent{
		Loaded:           p.loaded,
		Total:            max(p.total, 0),
		LengthComputable: p.total > 0,
	})
}
