package builder

import (
	"errors"
	"fmt"
	"sort"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"

	"github.com/floatpays/pdfkit/ir/raw"
)

// ErrInvalidInfoKey is returned by PutInfo for keys outside the info
// dictionary vocabulary.
var ErrInvalidInfoKey = errors.New("invalid info key")

// InfoKey names an entry of the document information dictionary.
type InfoKey string

const (
	InfoTitle    InfoKey = "title"
	InfoProducer InfoKey = "producer"
	InfoCreator  InfoKey = "creator"
	InfoCreated  InfoKey = "created"
	InfoModified InfoKey = "modified"
	InfoKeywords InfoKey = "keywords"
	InfoAuthor   InfoKey = "author"
	InfoSubject  InfoKey = "subject"
)

var infoKeys = map[InfoKey]string{
	InfoTitle:    "Title",
	InfoProducer: "Producer",
	InfoCreator:  "Creator",
	InfoCreated:  "CreationDate",
	InfoModified: "ModDate",
	InfoKeywords: "Keywords",
	InfoAuthor:   "Author",
	InfoSubject:  "Subject",
}

// PDFKey returns the dictionary key for k.
func (k InfoKey) PDFKey() (string, error) {
	key, ok := infoKeys[k]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidInfoKey, string(k))
	}
	return key, nil
}

// PutInfo sets info dictionary entries. Values are strings or time.Time.
// Every key and value is checked before the dictionary changes.
func (d *Document) PutInfo(values map[InfoKey]any) error {
	keys := make([]InfoKey, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	entries := make(map[string]raw.Object, len(values))
	for _, k := range keys {
		pdfKey, err := k.PDFKey()
		if err != nil {
			return err
		}
		v, err := infoValue(values[k])
		if err != nil {
			return fmt.Errorf("info %s: %w", k, err)
		}
		entries[pdfKey] = v
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.finalized {
		return ErrFinalized
	}
	return d.store.Update(d.info, func(obj raw.Object) raw.Object {
		dict := obj.(*raw.DictObj).Clone()
		for k, v := range entries {
			dict.Put(k, v)
		}
		return dict
	})
}

func infoValue(v any) (raw.Object, error) {
	switch val := v.(type) {
	case string:
		return TextString(val), nil
	case time.Time:
		return raw.Str([]byte(FormatDate(val))), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

var utf16BE = unicode.UTF16(unicode.BigEndian, unicode.UseBOM)

// TextString encodes s as a PDF text string: ASCII is kept as-is, anything
// else becomes UTF-16BE with a byte order mark.
func TextString(s string) raw.StringObj {
	ascii := true
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			ascii = false
			break
		}
	}
	if ascii {
		return raw.Str([]byte(s))
	}
	out, err := utf16BE.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return raw.Str([]byte(s))
	}
	return raw.HexStr(out)
}

// FormatDate renders t as a PDF date string, D:YYYYMMDDHHmmSS+HH'mm'.
func FormatDate(t time.Time) string {
	_, offset := t.Zone()
	sign := '+'
	if offset < 0 {
		sign = '-'
		offset = -offset
	}
	return fmt.Sprintf("D:%s%c%02d'%02d'", t.Format("20060102150405"), sign, offset/3600, offset/60%60)
}

func newInfo(cfg Config) *raw.DictObj {
	now := cfg.Now()
	return raw.Dict().
		Put("Producer", TextString(cfg.Producer)).
		Put("Creator", TextString(cfg.Producer)).
		Put("CreationDate", raw.Str([]byte(FormatDate(now))))
}
