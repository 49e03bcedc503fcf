package state

import (
	"bytes"
	"errors"
	"testing"

	"reservenet/storage"
)

func TestOverlayBuffersWrites(t *testing.T) {
	base := storage.NewMemDB()
	overlay := NewOverlay(base)

	if err := overlay.Put([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if overlay.Len() != 1 {
		t.Fatalf("len = %d", overlay.Len())
	}

	// The overlay sees its own write, the base does not.
	got, err := overlay.Get([]byte("k"))
	if err != nil || !bytes.Equal(got, []byte("v")) {
		t.Fatalf("overlay get = %q, err = %v", got, err)
	}
	if _, err := base.Get([]byte("k")); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("base get: %v", err)
	}

	if err := overlay.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	got, err = base.Get([]byte("k"))
	if err != nil || !bytes.Equal(got, []byte("v")) {
		t.Fatalf("base get after commit = %q, err = %v", got, err)
	}
	if overlay.Len() != 0 {
		t.Fatalf("len after commit = %d", overlay.Len())
	}
}

func TestOverlayReadsThrough(t *testing.T) {
	base := storage.NewMemDB()
	if err := base.Put([]byte("k"), []byte("old")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	overlay := NewOverlay(base)

	got, err := overlay.Get([]byte("k"))
	if err != nil || !bytes.Equal(got, []byte("old")) {
		t.Fatalf("read through = %q, err = %v", got, err)
	}

	// A buffered write shadows the base value.
	if err := overlay.Put([]byte("k"), []byte("new")); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err = overlay.Get([]byte("k"))
	if err != nil || !bytes.Equal(got, []byte("new")) {
		t.Fatalf("shadowed read = %q, err = %v", got, err)
	}
	got, err = base.Get([]byte("k"))
	if err != nil || !bytes.Equal(got, []byte("old")) {
		t.Fatalf("base = %q, err = %v", got, err)
	}
}

func TestOverlayDiscard(t *testing.T) {
	base := storage.NewMemDB()
	overlay := NewOverlay(base)
	if err := overlay.Put([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("put: %v", err)
	}
	overlay.Close()

	// An overlay dropped without a commit leaves the base untouched.
	if _, err := base.Get([]byte("k")); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("base get: %v", err)
	}
}

func TestKVRoundTrip(t *testing.T) {
	type record struct {
		Name  string
		Count uint64
	}
	kv := NewKV(storage.NewMemDB())

	if err := kv.KVPut([]byte("r"), record{Name: "alpha", Count: 7}); err != nil {
		t.Fatalf("put: %v", err)
	}
	var out record
	ok, err := kv.KVGet([]byte("r"), &out)
	if err != nil || !ok {
		t.Fatalf("get: ok = %v, err = %v", ok, err)
	}
	if out.Name != "alpha" || out.Count != 7 {
		t.Fatalf("decoded %+v", out)
	}

	ok, err = kv.KVGet([]byte("missing"), &out)
	if err != nil || ok {
		t.Fatalf("missing key: ok = %v, err = %v", ok, err)
	}
	// A nil out probes for existence only.
	ok, err = kv.KVGet([]byte("r"), nil)
	if err != nil || !ok {
		t.Fatalf("probe: ok = %v, err = %v", ok, err)
	}
}
