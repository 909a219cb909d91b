package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/toledos-acai/api/internal/model"
)

func testProduct(price string) model.Product {
	return model.Product{
		ID:       uuid.New(),
		Name:     "Açaí 500ml",
		Price:    mustDecimal(price),
		IsActive: true,
	}
}

func testAddon(name, price string) model.Addon {
	return model.Addon{ID: uuid.New(), Name: name, Price: mustDecimal(price)}
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newTestCart() *Cart {
	return Load(NewMemoryStorage(), DefaultKey)
}

func TestAddCreatesDistinctLines(t *testing.T) {
	c := newTestCart()
	p := testProduct("18.00")
	addons := []model.Addon{testAddon("Granola", "2.00")}

	l1 := c.Add(p, 1, addons)
	l2 := c.Add(p, 1, addons)

	if l1.ID == l2.ID {
		t.Fatal("identical adds must produce distinct line IDs")
	}
	if len(c.Lines()) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(c.Lines()))
	}
}

func TestAddDefaultsQuantityToOne(t *testing.T) {
	c := newTestCart()
	l := c.Add(testProduct("10.00"), 0, nil)
	if l.Quantity != 1 {
		t.Errorf("quantity: got %d, want 1", l.Quantity)
	}
	l = c.Add(testProduct("10.00"), -3, nil)
	if l.Quantity != 1 {
		t.Errorf("negative quantity: got %d, want 1", l.Quantity)
	}
}

func TestRemove(t *testing.T) {
	c := newTestCart()
	l := c.Add(testProduct("10.00"), 2, nil)

	c.Remove(l.ID)
	if len(c.Lines()) != 0 {
		t.Fatal("line not removed")
	}

	// Removing a non-existent line is a no-op, not an error.
	c.Remove(uuid.New())
	if len(c.Lines()) != 0 {
		t.Fatal("remove on missing ID changed the cart")
	}
}

func TestSetQuantity(t *testing.T) {
	c := newTestCart()
	l := c.Add(testProduct("10.00"), 1, nil)

	c.SetQuantity(l.ID, 5)
	if got := c.Lines()[0].Quantity; got != 5 {
		t.Fatalf("quantity: got %d, want 5", got)
	}

	c.SetQuantity(uuid.New(), 3)
	if got := c.Lines()[0].Quantity; got != 5 {
		t.Fatal("setQuantity on missing ID changed an existing line")
	}
}

func TestSetQuantityZeroOrNegativeRemoves(t *testing.T) {
	c := newTestCart()
	l1 := c.Add(testProduct("10.00"), 2, nil)
	l2 := c.Add(testProduct("12.00"), 1, nil)

	c.SetQuantity(l1.ID, 0)
	if len(c.Lines()) != 1 {
		t.Fatalf("expected 1 line after zero quantity, got %d", len(c.Lines()))
	}
	c.SetQuantity(l2.ID, -1)
	if len(c.Lines()) != 0 {
		t.Fatal("negative quantity did not remove the line")
	}
}

func TestDerivedTotals(t *testing.T) {
	c := newTestCart()
	p := testProduct("15.00")

	// empty cart → add A qty 1 → add A qty 2 with one 3.00 add-on
	c.Add(p, 1, nil)
	c.Add(p, 2, []model.Addon{testAddon("Leite Ninho", "3.00")})

	if got := c.Count(); got != 3 {
		t.Errorf("count: got %d, want 3", got)
	}

	// A.price*1 + (A.price+3.00)*2 = 15 + 36 = 51
	want := mustDecimal("51.00")
	if !c.Total().Equal(want) {
		t.Errorf("total: got %s, want %s", c.Total(), want)
	}
}

func TestTotalsMatchIndependentRecompute(t *testing.T) {
	c := newTestCart()
	c.Add(testProduct("9.90"), 3, []model.Addon{testAddon("Morango", "2.50"), testAddon("Banana", "1.00")})
	c.Add(testProduct("22.00"), 1, nil)
	l := c.Add(testProduct("5.25"), 4, []model.Addon{testAddon("Paçoca", "1.75")})
	c.SetQuantity(l.ID, 2)

	wantTotal := decimal.Zero
	wantCount := 0
	for _, line := range c.Lines() {
		unit := line.Product.Price
		for _, a := range line.Addons {
			unit = unit.Add(a.Price)
		}
		wantTotal = wantTotal.Add(unit.Mul(decimal.NewFromInt(int64(line.Quantity))))
		wantCount += line.Quantity
	}

	if !c.Total().Equal(wantTotal) {
		t.Errorf("total: got %s, want %s", c.Total(), wantTotal)
	}
	if c.Count() != wantCount {
		t.Errorf("count: got %d, want %d", c.Count(), wantCount)
	}
}

func TestClear(t *testing.T) {
	c := newTestCart()
	c.Add(testProduct("10.00"), 2, nil)
	c.Clear()

	if len(c.Lines()) != 0 || c.Count() != 0 || !c.Total().IsZero() {
		t.Fatal("clear did not empty the cart")
	}
}

func TestPersistReloadRoundTrip(t *testing.T) {
	storage := NewMemoryStorage()
	c := Load(storage, DefaultKey)
	p := testProduct("18.00")
	addons := []model.Addon{testAddon("Granola", "2.00"), testAddon("Mel", "1.50")}
	c.Add(p, 2, addons)
	c.Add(p, 1, nil)

	reloaded := Load(storage, DefaultKey)
	if len(reloaded.Lines()) != 2 {
		t.Fatalf("expected 2 lines after reload, got %d", len(reloaded.Lines()))
	}
	if !reloaded.Total().Equal(c.Total()) {
		t.Errorf("total after reload: got %s, want %s", reloaded.Total(), c.Total())
	}
	if reloaded.Count() != c.Count() {
		t.Errorf("count after reload: got %d, want %d", reloaded.Count(), c.Count())
	}
	got := reloaded.Lines()[0]
	if got.Product.ID != p.ID || len(got.Addons) != 2 {
		t.Error("line snapshot not preserved across reload")
	}
}

func TestCorruptBlobYieldsEmptyCart(t *testing.T) {
	storage := NewMemoryStorage()
	if err := storage.Set(DefaultKey, []byte("{not json")); err != nil {
		t.Fatal(err)
	}

	c := Load(storage, DefaultKey)
	if len(c.Lines()) != 0 {
		t.Fatal("corrupt blob must load as an empty cart")
	}

	// The cart must remain usable afterwards.
	c.Add(testProduct("10.00"), 1, nil)
	if len(c.Lines()) != 1 {
		t.Fatal("cart unusable after corrupt load")
	}
}

func TestMissingBlobYieldsEmptyCart(t *testing.T) {
	c := Load(NewMemoryStorage(), "never-written")
	if len(c.Lines()) != 0 {
		t.Fatal("missing blob must load as an empty cart")
	}
}

func TestLineUnitPriceBakesAddons(t *testing.T) {
	l := Line{
		Product:  testProduct("10.00"),
		Quantity: 1,
		Addons:   []model.Addon{testAddon("A", "2.00"), testAddon("B", "1.50")},
	}
	if want := mustDecimal("13.50"); !l.UnitPrice().Equal(want) {
		t.Errorf("unit price: got %s, want %s", l.UnitPrice(), want)
	}
}
