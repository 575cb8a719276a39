package format

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	seqPadRe = regexp.MustCompile(`\{SEQ(\d+)\}`)
)

const DefaultInvoiceNumberTemplate = "{VENDOR}/{FY}/{SEQ5}"

// Fields are the values an invoice number template can reference.
type Fields struct {
	VendorID   string
	FiscalYear string
	IssuedAt   time.Time
	Sequence   int64
}

// FormatInvoiceNumber renders template with fields. It is pure and
// deterministic.
func FormatInvoiceNumber(template string, f Fields) (string, error) {
	if template == "" {
		return "", fmt.Errorf("invoice number template is empty")
	}

	if f.Sequence <= 0 {
		return "", fmt.Errorf("invalid invoice sequence: %d", f.Sequence)
	}

	out := template

	out = strings.ReplaceAll(out, "{VENDOR}", f.VendorID)
	out = strings.ReplaceAll(out, "{FY}", f.FiscalYear)

	out = strings.ReplaceAll(out, "{YYYY}", f.IssuedAt.Format("2006"))
	out = strings.ReplaceAll(out, "{YY}", f.IssuedAt.Format("06"))
	out = strings.ReplaceAll(out, "{MM}", f.IssuedAt.Format("01"))
	out = strings.ReplaceAll(out, "{DD}", f.IssuedAt.Format("02"))

	out = strings.ReplaceAll(out, "{SEQ}", strconv.FormatInt(f.Sequence, 10))

	out = seqPadRe.ReplaceAllStringFunc(out, func(m string) string {
		match := seqPadRe.FindStringSubmatch(m)
		if len(match) != 2 {
			return m
		}

		width, err := strconv.Atoi(match[1])
		if err != nil || width <= 0 {
			return m
		}

		return fmt.Sprintf("%0*d", width, f.Sequence)
	})

	if strings.Contains(out, "{") || strings.Contains(out, "}") {
		return "", fmt.Errorf("unresolved token in invoice format: %s", out)
	}

	return out, nil
}
