package upload

import (
	"io"
)

// progressReader reports bytes-sent/bytes-total as a 0-100 float while the
// transport drains it. Reports are monotonic: a re-read after an http retry can
// move sent backwards relative to the wire, but the reported value never drops.
type progressReader struct {
	r     io.Reader
	total int64
	sent  int64
	last  float64
	fn    ProgressFunc
}

func newProgressReader(r io.Reader, total int64, fn ProgressFunc) *progressReader {
	return &progressReader{r: r, total: total, fn: fn}
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 {
		p.sent += int64(n)
		p.report()
	}
	return n, err
}

func (p *progressReader) report() {
	if p.fn == nil || p.total <= 0 {
		return
	}
	pct := float64(p.sent) / float64(p.total) * 100
	if pct > 100 {
		pct = 100
	}
	if pct > p.last {
		p.last = pct
		p.fn(pct)
	}
}

// finish emits the terminal 100 once the transfer succeeded, covering unknown
// total sizes where no incremental reports were possible.
func (p *progressReader) finish() {
	if p.fn == nil || p.last >= 100 {
		return
	}
	p.last = 100
	p.fn(100)
}
