package converter

import (
	"errors"
	"testing"

	"reservenet/state"
	"reservenet/storage"
)

const testAdmin = "admin"

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	registry := NewRegistry(NewStore(state.NewKV(storage.NewMemDB())), testAdmin)
	if err := registry.SetSettings(testAdmin, true, 300); err != nil {
		t.Fatalf("set settings: %v", err)
	}
	return registry
}

func mustCreate(t *testing.T, registry *Registry, code string, fee uint16) {
	t.Helper()
	err := registry.CreateConverter("alice", "alice", "cnv."+code, "smart.token",
		Symbol{Code: code, Precision: 4}, true, false, fee)
	if err != nil {
		t.Fatalf("create converter %s: %v", code, err)
	}
}

func TestCreateConverter(t *testing.T) {
	registry := newTestRegistry(t)
	mustCreate(t, registry, "ALPHA", 30)

	c, ok, err := registry.Store().Get("ALPHA")
	if err != nil || !ok {
		t.Fatalf("load converter: ok=%v err=%v", ok, err)
	}
	if c.Owner != "alice" || c.Fee != 30 || !c.Enabled {
		t.Fatalf("unexpected converter record: %+v", c)
	}

	c2, ok, err := registry.Store().GetByAccount("cnv.ALPHA")
	if err != nil || !ok {
		t.Fatalf("load by account: ok=%v err=%v", ok, err)
	}
	if c2.Currency.Code != "ALPHA" {
		t.Fatalf("account index resolved %q", c2.Currency.Code)
	}
}

func TestCreateConverterDuplicate(t *testing.T) {
	registry := newTestRegistry(t)
	mustCreate(t, registry, "ALPHA", 0)
	err := registry.CreateConverter("bob", "bob", "cnv.other", "smart.token",
		Symbol{Code: "ALPHA", Precision: 4}, true, false, 0)
	if !errors.Is(err, ErrDuplicateConverter) {
		t.Fatalf("got %v", err)
	}
}

func TestCreateConverterFeeBound(t *testing.T) {
	registry := newTestRegistry(t)
	err := registry.CreateConverter("alice", "alice", "cnv.alpha", "smart.token",
		Symbol{Code: "ALPHA", Precision: 4}, true, false, 301)
	if !errors.Is(err, ErrFeeTooHigh) {
		t.Fatalf("got %v", err)
	}
}

func TestCreateConverterUnauthorized(t *testing.T) {
	registry := newTestRegistry(t)
	err := registry.CreateConverter("mallory", "alice", "cnv.alpha", "smart.token",
		Symbol{Code: "ALPHA", Precision: 4}, true, false, 0)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("got %v", err)
	}
}

func TestSetSettingsBounds(t *testing.T) {
	registry := newTestRegistry(t)
	if err := registry.SetSettings(testAdmin, true, 1001); !errors.Is(err, ErrFeeTooHigh) {
		t.Fatalf("got %v", err)
	}
	if err := registry.SetSettings("alice", true, 100); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("got %v", err)
	}
}

func TestUpdateConverterAdminOnly(t *testing.T) {
	registry := newTestRegistry(t)
	mustCreate(t, registry, "ALPHA", 0)

	// The stricter policy leaves post-creation mutation to the administrator,
	// even for the owner.
	if err := registry.UpdateConverter("alice", "ALPHA", false, true, false, 10); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("owner update under strict policy: got %v", err)
	}
	if err := registry.UpdateConverter(testAdmin, "ALPHA", false, true, false, 10); err != nil {
		t.Fatalf("admin update: %v", err)
	}
	c, _, _ := registry.Store().Get("ALPHA")
	if c.Enabled || c.Fee != 10 {
		t.Fatalf("update not applied: %+v", c)
	}

	// The permissive policy restores owner authority.
	registry.SetOwnerMutations(true)
	if err := registry.UpdateConverter("alice", "ALPHA", true, true, false, 20); err != nil {
		t.Fatalf("owner update under permissive policy: %v", err)
	}
}

func TestUpdateConverterFeeBound(t *testing.T) {
	registry := newTestRegistry(t)
	mustCreate(t, registry, "ALPHA", 0)
	if err := registry.UpdateConverter(testAdmin, "ALPHA", true, true, false, 301); !errors.Is(err, ErrFeeTooHigh) {
		t.Fatalf("got %v", err)
	}
	if err := registry.UpdateConverter(testAdmin, "MISSING", true, true, false, 0); !errors.Is(err, ErrConverterNotFound) {
		t.Fatalf("got %v", err)
	}
}

func TestSetReserve(t *testing.T) {
	registry := newTestRegistry(t)
	mustCreate(t, registry, "ALPHA", 0)

	acoin := Symbol{Code: "ACOIN", Precision: 4}
	if err := registry.SetReserve(testAdmin, "ALPHA", "token.a", acoin, 500, true); err != nil {
		t.Fatalf("set reserve: %v", err)
	}
	c, _, _ := registry.Store().Get("ALPHA")
	if len(c.Reserves) != 1 || c.Reserves[0].Balance != 0 {
		t.Fatalf("new reserve must start with a zero tracked balance: %+v", c.Reserves)
	}

	// Updating keeps the contract and changes only ratio and purchase flag.
	if err := registry.SetReserve(testAdmin, "ALPHA", "token.a", acoin, 400, false); err != nil {
		t.Fatalf("update reserve: %v", err)
	}
	c, _, _ = registry.Store().Get("ALPHA")
	if len(c.Reserves) != 1 || c.Reserves[0].Ratio != 400 || c.Reserves[0].PurchaseEnabled {
		t.Fatalf("reserve update not applied: %+v", c.Reserves)
	}

	if err := registry.SetReserve(testAdmin, "ALPHA", "token.evil", acoin, 400, true); !errors.Is(err, ErrReserveContract) {
		t.Fatalf("contract re-point: got %v", err)
	}
}

func TestSetReserveRatioBounds(t *testing.T) {
	registry := newTestRegistry(t)
	mustCreate(t, registry, "ALPHA", 0)

	if err := registry.SetReserve(testAdmin, "ALPHA", "token.a", Symbol{Code: "ACOIN", Precision: 4}, 0, true); !errors.Is(err, ErrInvalidRatio) {
		t.Fatalf("zero ratio: got %v", err)
	}
	if err := registry.SetReserve(testAdmin, "ALPHA", "token.a", Symbol{Code: "ACOIN", Precision: 4}, 1001, true); !errors.Is(err, ErrInvalidRatio) {
		t.Fatalf("ratio above 1000: got %v", err)
	}

	if err := registry.SetReserve(testAdmin, "ALPHA", "token.a", Symbol{Code: "ACOIN", Precision: 4}, 600, true); err != nil {
		t.Fatalf("first reserve: %v", err)
	}
	err := registry.SetReserve(testAdmin, "ALPHA", "token.b", Symbol{Code: "BCOIN", Precision: 4}, 600, true)
	if !errors.Is(err, ErrRatioExceeded) {
		t.Fatalf("total ratio: got %v", err)
	}
	// The violating call must leave the stored record unchanged.
	c, _, _ := registry.Store().Get("ALPHA")
	if len(c.Reserves) != 1 {
		t.Fatalf("rejected reserve leaked into state: %+v", c.Reserves)
	}
}

func TestSetReserveAuthority(t *testing.T) {
	registry := newTestRegistry(t)
	mustCreate(t, registry, "ALPHA", 0)
	err := registry.SetReserve("alice", "ALPHA", "token.a", Symbol{Code: "ACOIN", Precision: 4}, 500, true)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("got %v", err)
	}
}

func TestAdjustReserveBalance(t *testing.T) {
	registry := newTestRegistry(t)
	mustCreate(t, registry, "ALPHA", 0)
	if err := registry.SetReserve(testAdmin, "ALPHA", "token.a", Symbol{Code: "ACOIN", Precision: 4}, 500, true); err != nil {
		t.Fatalf("set reserve: %v", err)
	}
	store := registry.Store()

	if err := store.AdjustReserveBalance("ALPHA", "ACOIN", 1000); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := store.AdjustReserveBalance("ALPHA", "ACOIN", -400); err != nil {
		t.Fatalf("debit: %v", err)
	}
	c, _, _ := store.Get("ALPHA")
	if c.Reserves[0].Balance != 600 {
		t.Fatalf("balance mismatch: got %d want 600", c.Reserves[0].Balance)
	}

	if err := store.AdjustReserveBalance("ALPHA", "MISSING", 1); !errors.Is(err, ErrReserveNotFound) {
		t.Fatalf("missing reserve: got %v", err)
	}
	if err := store.AdjustReserveBalance("ALPHA", "ACOIN", -601); !errors.Is(err, ErrNegativeBalance) {
		t.Fatalf("negative balance: got %v", err)
	}
}

func TestLookupReservePseudo(t *testing.T) {
	c := testConverter(0)
	ref, err := LookupReserve(c, "ALPHA")
	if err != nil {
		t.Fatalf("lookup governed currency: %v", err)
	}
	if !ref.IsSmart() || ref.Ratio() != 0 || ref.Contract() != "smart.token" {
		t.Fatalf("unexpected pseudo-reserve: %+v", ref)
	}
	if ref.PurchaseEnabled() != c.SmartEnabled {
		t.Fatal("pseudo-reserve purchase flag must mirror smart-enabled")
	}

	if _, err := LookupReserve(c, "MISSING"); !errors.Is(err, ErrReserveNotFound) {
		t.Fatalf("missing reserve: got %v", err)
	}
}
