package format

import (
	"bytes"
	"strings"
)

// printer accumulates canonical output. The canonical layout is flat
// (one line per range declaration, one for the retrieve clause), so no
// indentation state is carried.
type printer struct {
	buf bytes.Buffer
}

func newPrinter() *printer {
	return &printer{}
}

// text returns the buffer with exactly one trailing newline.
func (p *printer) text() string {
	return strings.TrimRight(p.buf.String(), "\n") + "\n"
}

func (p *printer) write(s string) {
	p.buf.WriteString(s)
}

func (p *printer) space() {
	p.buf.WriteByte(' ')
}

func (p *printer) writeln() {
	p.buf.WriteByte('\n')
}

// quote renders s as a string literal, escaping what the lexer resolves.
func (p *printer) quote(s string) {
	p.buf.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\\':
			p.write(`\\`)
		case '\'':
			p.write(`\'`)
		case '\n':
			p.write(`\n`)
		case '\t':
			p.write(`\t`)
		case '\r':
			p.write(`\r`)
		default:
			p.buf.WriteRune(r)
		}
	}
	p.buf.WriteByte('\'')
}
