package extract

import (
	"io"
	"regexp"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// textOperator matches, in order: a TJ array, a string shown with Tj, ' or ",
// and the positioning operators that end a visual line.
var textOperator = regexp.MustCompile(`\[((?:\\.|[^\]\\])*)\]\s*TJ|\(((?:\\.|[^)\\])*)\)\s*(?:Tj|'|")|(?:^|\s)(T\*|Td|TD|ET)(?:\s|$)`)

var stringLiteral = regexp.MustCompile(`\(((?:\\.|[^)\\])*)\)`)

// contentStreamText reads text operators straight from page content streams.
// It recovers text the font-aware reader misses, at the cost of ignoring
// custom encodings.
func contentStreamText(data []byte) (string, error) {
	ctx, err := openPDF(data)
	if err != nil {
		return "", err
	}
	var pages []string
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		if text := streamPageText(ctx, pageNr); text != "" {
			pages = append(pages, text)
		}
	}
	return strings.Join(pages, "\n"), nil
}

func streamPageText(ctx *model.Context, pageNr int) string {
	r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
	if err != nil || r == nil {
		return ""
	}
	raw, err := io.ReadAll(r)
	if err != nil || len(raw) == 0 {
		return ""
	}
	return textFromStream(raw)
}

func textFromStream(raw []byte) string {
	var lines []string
	var line strings.Builder
	flush := func() {
		if s := cleanPDFText(line.String()); s != "" {
			lines = append(lines, s)
		}
		line.Reset()
	}

	for _, m := range textOperator.FindAllSubmatch(raw, -1) {
		switch {
		case m[1] != nil:
			for _, lit := range stringLiteral.FindAllSubmatch(m[1], -1) {
				line.WriteString(decodePDFString(lit[1]))
			}
			line.WriteByte(' ')
		case m[2] != nil:
			line.WriteString(decodePDFString(m[2]))
			line.WriteByte(' ')
		case m[3] != nil:
			flush()
		}
	}
	flush()
	return strings.Join(lines, "\n")
}

// decodePDFString resolves literal string escapes, including octal codes.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch c := raw[i]; c {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case 'b', 'f':
		case '\\', '(', ')':
			sb.WriteByte(c)
		default:
			if c < '0' || c > '7' {
				sb.WriteByte(c)
				continue
			}
			val := int(c - '0')
			for k := 0; k < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; k++ {
				i++
				val = val*8 + int(raw[i]-'0')
			}
			sb.WriteByte(byte(val))
		}
	}
	return sb.String()
}

// cleanPDFText collapses whitespace and drops non-printable runes.
func cleanPDFText(text string) string {
	var sb strings.Builder
	prevSpace := false
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			if !prevSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
				prevSpace = true
			}
		case unicode.IsPrint(r):
			sb.WriteRune(r)
			prevSpace = false
		}
	}
	return strings.TrimSpace(sb.String())
}
