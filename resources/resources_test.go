package resources

import (
	"errors"
	"testing"

	"github.com/floatpays/pdfkit/ir/raw"
	"github.com/floatpays/pdfkit/store"
)

func imageProducer(calls *int) Producer {
	return func(Allocator) (raw.Object, error) {
		*calls++
		return raw.NewStream(raw.Dict().Put("Subtype", raw.NameLiteral("Image")), []byte{0}), nil
	}
}

func TestRegisterIsIdempotent(t *testing.T) {
	s := store.New()
	reg := NewImageRegistry(s)
	calls := 0
	first, err := reg.Register("/tmp/a.png", imageProducer(&calls))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	second, err := reg.Register("/tmp/a.png", imageProducer(&calls))
	if err != nil {
		t.Fatalf("register again: %v", err)
	}
	if first != second {
		t.Fatalf("entries differ: %+v vs %+v", first, second)
	}
	if calls != 1 {
		t.Fatalf("producer ran %d times, want 1", calls)
	}
	if s.Len() != 1 {
		t.Fatalf("store has %d objects, want 1", s.Len())
	}
	if first.Name != "I1" {
		t.Fatalf("name = %q, want I1", first.Name)
	}
}

func TestNamesAreSequentialPerRegistry(t *testing.T) {
	s := store.New()
	fonts := NewFontRegistry(s)
	images := NewImageRegistry(s)
	calls := 0
	f1, _ := fonts.Register("Helvetica", imageProducer(&calls))
	i1, _ := images.Register("a.jpg", imageProducer(&calls))
	f2, _ := fonts.Register("Courier", imageProducer(&calls))
	if f1.Name != "F1" || f2.Name != "F2" || i1.Name != "I1" {
		t.Fatalf("names = %s %s %s", f1.Name, f2.Name, i1.Name)
	}
	if f1.Ref.Num != 1 || i1.Ref.Num != 2 || f2.Ref.Num != 3 {
		t.Fatalf("refs = %v %v %v", f1.Ref, i1.Ref, f2.Ref)
	}
	all := fonts.All()
	if len(all) != 2 || all["F1"] != f1.Ref || all["F2"] != f2.Ref {
		t.Fatalf("All() = %v", all)
	}
	if names := fonts.Names(); len(names) != 2 || names[0] != "F1" || names[1] != "F2" {
		t.Fatalf("Names() = %v", names)
	}
	d := fonts.Dict()
	if ref, ok := d.KV["F2"].(raw.RefObj); !ok || ref.R != f2.Ref {
		t.Fatalf("Dict()[F2] = %v", d.KV["F2"])
	}
}

func TestFailedProducerLeavesRegistryUnchanged(t *testing.T) {
	s := store.New()
	reg := NewImageRegistry(s)
	boom := errors.New("no such file")
	_, err := reg.Register("missing.png", func(Allocator) (raw.Object, error) { return nil, boom })
	if !errors.Is(err, ErrResourceLoadFailed) || !errors.Is(err, boom) {
		t.Fatalf("err = %v, want ErrResourceLoadFailed wrapping cause", err)
	}
	if reg.Len() != 0 || s.Len() != 0 {
		t.Fatalf("failed registration recorded state")
	}
	if _, ok := reg.Lookup("missing.png"); ok {
		t.Fatalf("failed key is visible")
	}
	calls := 0
	e, err := reg.Register("ok.png", imageProducer(&calls))
	if err != nil || e.Name != "I1" {
		t.Fatalf("next registration = %+v, %v; want I1", e, err)
	}
}

func TestProducerMayAllocateDependencies(t *testing.T) {
	s := store.New()
	reg := NewFontRegistry(s)
	e, err := reg.Register("Custom", func(a Allocator) (raw.Object, error) {
		desc := a.Create(raw.Dict().Put("Type", raw.NameLiteral("FontDescriptor")))
		return raw.Dict().Put("FontDescriptor", raw.RefTo(desc)), nil
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if s.Len() != 2 || e.Ref.Num != 2 {
		t.Fatalf("store len %d, font ref %v", s.Len(), e.Ref)
	}
	if reg.Category() != CategoryFont {
		t.Fatalf("category = %s", reg.Category())
	}
}

func TestFailedProducerDiscardsDependencies(t *testing.T) {
	s := store.New()
	reg := NewFontRegistry(s)
	boom := errors.New("truncated font file")
	_, err := reg.Register("Broken", func(a Allocator) (raw.Object, error) {
		a.Create(raw.Dict().Put("Type", raw.NameLiteral("FontDescriptor")))
		a.Create(raw.NewStream(nil, []byte{1, 2, 3}))
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want cause %v", err, boom)
	}
	if s.Len() != 0 {
		t.Fatalf("store has %d objects after failed load, want 0", s.Len())
	}

	calls := 0
	e, err := reg.Register("Helvetica", imageProducer(&calls))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if e.Name != "F1" || e.Ref.Num != 1 {
		t.Fatalf("entry = %+v, want F1 at 1 0 R", e)
	}
}

func TestNilObjectIsALoadFailure(t *testing.T) {
	s := store.New()
	reg := NewImageRegistry(s)
	_, err := reg.Register("empty", func(a Allocator) (raw.Object, error) {
		a.Create(raw.Dict())
		return nil, nil
	})
	if !errors.Is(err, ErrResourceLoadFailed) {
		t.Fatalf("err = %v, want ErrResourceLoadFailed", err)
	}
	if s.Len() != 0 || reg.Len() != 0 {
		t.Fatalf("nil producer result left state: store %d, registry %d", s.Len(), reg.Len())
	}
}
