package layout

import (
	"bytes"
	"fmt"
	"strings"

	treeblood "github.com/wyatt915/goldmark-treeblood"
	"github.com/yuin/goldmark"
)

var mathConverter = goldmark.New(goldmark.WithExtensions(treeblood.MathML()))

// RenderLaTeX lays out one formula as display math. Surrounding $ or $$
// delimiters are optional. A blank formula draws nothing.
func (e *Engine) RenderLaTeX(latex string) error {
	formula := stripMathDelims(latex)
	if formula == "" {
		return nil
	}
	var mathml bytes.Buffer
	if err := mathConverter.Convert([]byte("$$"+formula+"$$"), &mathml); err != nil {
		return fmt.Errorf("latex %q: %w", formula, err)
	}
	return e.RenderHTML(mathml.String())
}

func stripMathDelims(s string) string {
	s = strings.TrimSpace(s)
	for _, d := range []string{"$$", "$"} {
		if len(s) >= 2*len(d) && strings.HasPrefix(s, d) && strings.HasSuffix(s, d) {
			return strings.TrimSpace(s[len(d) : len(s)-len(d)])
		}
	}
	return s
}
