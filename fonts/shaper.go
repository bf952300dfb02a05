package fonts

import (
	"bytes"
	"unicode"

	"github.com/go-text/typesetting/di"
	gofont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
)

// shapingSize is 1000 units per em in 26.6, so advances come out in glyph space.
const shapingSize = fixed.Int26_6(1000 << 6)

// parseFace loads data for the shaper; nil disables shaped measurement.
func parseFace(data []byte) *gofont.Face {
	face, err := gofont.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	return face
}

// shapedAdvance returns the advance of text in 1/1000 em. The HarfBuzz
// shaper applies kerning and ligatures, so the result can differ from the sum
// of the per-glyph widths.
func shapedAdvance(face *gofont.Face, text string) (float64, bool) {
	if face == nil {
		return 0, false
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return 0, true
	}
	script := DetectScript(runes)
	shaper := &shaping.HarfbuzzShaper{}
	out := shaper.Shape(shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: scriptDirection(script),
		Face:      face,
		Size:      shapingSize,
		Script:    script,
		Language:  language.DefaultLanguage(),
	})
	adv := out.Advance
	if adv < 0 {
		adv = -adv
	}
	return float64(adv) / 64.0, true
}

func scriptDirection(script language.Script) di.Direction {
	switch script {
	case language.Arabic, language.Hebrew, language.Syriac, language.Thaana, language.Nko:
		return di.DirectionRTL
	default:
		return di.DirectionLTR
	}
}

// DetectScript returns the most frequent script in runes, Latin when none is
// recognised. Ties keep the script seen first.
func DetectScript(runes []rune) language.Script {
	counts := make(map[language.Script]int)
	maxCount := 0
	best := language.Latin
	for _, r := range runes {
		script := scriptFromRune(r)
		if script == language.Unknown {
			continue
		}
		counts[script]++
		if counts[script] > maxCount {
			maxCount = counts[script]
			best = script
		}
	}
	return best
}

var scriptTables = []struct {
	table  *unicode.RangeTable
	script language.Script
}{
	{unicode.Latin, language.Latin},
	{unicode.Greek, language.Greek},
	{unicode.Cyrillic, language.Cyrillic},
	{unicode.Arabic, language.Arabic},
	{unicode.Hebrew, language.Hebrew},
	{unicode.Thai, language.Thai},
	{unicode.Devanagari, language.Devanagari},
	{unicode.Han, language.Han},
	{unicode.Hiragana, language.Hiragana},
	{unicode.Katakana, language.Katakana},
	{unicode.Hangul, language.Hangul},
}

func scriptFromRune(r rune) language.Script {
	for _, st := range scriptTables {
		if unicode.Is(st.table, r) {
			return st.script
		}
	}
	return language.Unknown
}
