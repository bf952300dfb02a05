package store

import (
	"errors"
	"sync"
	"testing"

	"github.com/floatpays/pdfkit/ir/raw"
)

func TestCreateIssuesIncreasingNumbers(t *testing.T) {
	s := New()
	var refs []raw.ObjectRef
	for i := 0; i < 5; i++ {
		refs = append(refs, s.Create(raw.NumberInt(int64(i))))
	}
	for i, r := range refs {
		if r.Num != i+1 || r.Gen != 0 {
			t.Fatalf("ref %d = %v, want %d 0 R", i, r, i+1)
		}
	}
	all := s.All()
	if len(all) != len(refs) {
		t.Fatalf("All returned %d objects, want %d", len(all), len(refs))
	}
	for i, obj := range all {
		if obj.Ref != refs[i] {
			t.Fatalf("All()[%d].Ref = %v, want %v", i, obj.Ref, refs[i])
		}
		if n := obj.Value.(raw.NumberObj).Int(); n != int64(i) {
			t.Fatalf("All()[%d].Value = %d, want %d", i, n, i)
		}
	}
}

func TestUnknownObject(t *testing.T) {
	s := New()
	s.Create(raw.NullObj{})
	for _, ref := range []raw.ObjectRef{{Num: 0}, {Num: 2}, {Num: -1}, {Num: 1, Gen: 1}} {
		if _, err := s.Get(ref); !errors.Is(err, ErrUnknownObject) {
			t.Fatalf("Get(%v) err = %v, want ErrUnknownObject", ref, err)
		}
		if err := s.Replace(ref, raw.NullObj{}); !errors.Is(err, ErrUnknownObject) {
			t.Fatalf("Replace(%v) err = %v", ref, err)
		}
		called := false
		err := s.Update(ref, func(o raw.Object) raw.Object { called = true; return o })
		if !errors.Is(err, ErrUnknownObject) || called {
			t.Fatalf("Update(%v) err = %v called = %v", ref, err, called)
		}
	}
	if s.Len() != 1 {
		t.Fatalf("failed operations changed the store")
	}
}

func TestForwardReferenceViaAlloc(t *testing.T) {
	s := New()
	b := s.Alloc()
	a := s.Create(raw.Dict().Put("Next", raw.RefTo(b)))
	if err := s.Replace(b, raw.Dict().Put("Prev", raw.RefTo(a))); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, err := s.Get(b)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	prev, _ := got.(*raw.DictObj).Lookup("Prev")
	if prev.(raw.RefObj).R != a {
		t.Fatalf("Prev = %v, want %v", prev, a)
	}
}

func TestReplaceWithLaterReference(t *testing.T) {
	s := New()
	a := s.Create(raw.Dict())
	b := s.Create(raw.Str([]byte("later")))
	if err := s.Replace(a, raw.Dict().Put("Target", raw.RefTo(b))); err != nil {
		t.Fatalf("replace: %v", err)
	}
	v, _ := s.Get(a)
	if ref := raw.Refs(v); len(ref) != 1 || ref[0] != b {
		t.Fatalf("refs = %v", ref)
	}
}

func TestUpdateAppendsKids(t *testing.T) {
	s := New()
	root := s.Create(raw.Dict().Put("Type", raw.NameLiteral("Pages")))
	var kids []raw.ObjectRef
	for i := 0; i < 3; i++ {
		kid := s.Create(raw.Dict().Put("Parent", raw.RefTo(root)))
		kids = append(kids, kid)
		err := s.Update(root, func(o raw.Object) raw.Object {
			d := o.(*raw.DictObj)
			arr, ok := d.KV["Kids"].(*raw.ArrayObj)
			if !ok {
				arr = raw.NewArray()
			}
			arr.Append(raw.RefTo(kid))
			return d.Put("Kids", arr)
		})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
	}
	v, _ := s.Get(root)
	arr := v.(*raw.DictObj).KV["Kids"].(*raw.ArrayObj)
	if arr.Len() != 3 {
		t.Fatalf("kids = %d, want 3", arr.Len())
	}
	for i, it := range arr.Items {
		if it.(raw.RefObj).R != kids[i] {
			t.Fatalf("kid %d = %v, want %v", i, it, kids[i])
		}
	}
}

func TestConcurrentCreateNeverReusesNumbers(t *testing.T) {
	s := New()
	const workers, per = 8, 200
	var wg sync.WaitGroup
	seen := make(chan raw.ObjectRef, workers*per)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < per; i++ {
				seen <- s.Create(raw.NullObj{})
			}
		}()
	}
	wg.Wait()
	close(seen)
	nums := make(map[int]bool)
	for r := range seen {
		if nums[r.Num] {
			t.Fatalf("number %d issued twice", r.Num)
		}
		nums[r.Num] = true
	}
	if len(nums) != workers*per || s.Len() != workers*per {
		t.Fatalf("issued %d numbers, store has %d", len(nums), s.Len())
	}
	for i, obj := range s.All() {
		if obj.Ref.Num != i+1 {
			t.Fatalf("All out of order at %d: %v", i, obj.Ref)
		}
	}
}

func TestTransactKeepsOrDropsObjects(t *testing.T) {
	s := New()
	s.Create(raw.NameLiteral("Info"))

	var kept raw.ObjectRef
	if err := s.Transact(func(a Allocator) error {
		kept = a.Create(raw.NameLiteral("Descriptor"))
		return nil
	}); err != nil {
		t.Fatalf("transact: %v", err)
	}
	if kept.Num != 2 || s.Len() != 2 {
		t.Fatalf("committed ref %v, len %d", kept, s.Len())
	}

	boom := errors.New("boom")
	err := s.Transact(func(a Allocator) error {
		a.Create(raw.NameLiteral("Orphan"))
		a.Create(raw.NameLiteral("Orphan2"))
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if s.Len() != 2 {
		t.Fatalf("len after failed transact = %d, want 2", s.Len())
	}
	if _, err := s.Get(raw.ObjectRef{Num: 3}); !errors.Is(err, ErrUnknownObject) {
		t.Fatalf("dropped object still readable: %v", err)
	}
	if ref := s.Create(raw.NameLiteral("Next")); ref.Num != 3 {
		t.Fatalf("next ref = %v, want 3 0 R", ref)
	}
}
