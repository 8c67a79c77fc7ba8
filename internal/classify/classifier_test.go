package classify

import "testing"

func TestClassifyDefaults(t *testing.T) {
	c := NewDefault()
	cases := []struct {
		desc string
		want string
	}{
		{"SAFEWAY MARKET", "Groceries"},
		{"PHO HOUSE VANCOUVER", "Dining"},
		{"YIFANG TAIWAN FRUIT TEA", "Dining"},
		{"BANH MI SAIGON", "Dining"},
		{"MILK & SUGAR CAFE", "Dining"},
		{"DUFFIN'S DONUTS", "Dining"},
		{"COMPASS VENDING", "Transportation"},
		{"AMZN MKTP CA", "Shopping"},
		{"ROGERS COMMUNICATIONS", "Bills"},
		{"QUESTRADE TRANSFER", "Investments"},
		{"PAYROLL", "Other"},
		{"", "Other"},
		{"safeway market", "Groceries"}, // case-insensitive
	}
	for _, tc := range cases {
		if got := c.Classify(tc.desc); got != tc.want {
			t.Fatalf("%q expected %s, got %s", tc.desc, tc.want, got)
		}
	}
}

// A description matching both a Groceries and a Dining keyword must classify
// as Groceries: first match in priority order wins.
func TestClassifyPriorityOrder(t *testing.T) {
	c := NewDefault()
	if got := c.Classify("COSTCO FOOD COURT CAFE"); got != "Groceries" {
		t.Fatalf("expected Groceries for hybrid merchant, got %s", got)
	}
	// UBER*EATS carries both a Dining and a Transportation keyword; Dining
	// comes first.
	if got := c.Classify("UBER*EATS TORONTO"); got != "Dining" {
		t.Fatalf("expected Dining for UBER*EATS, got %s", got)
	}
}

func TestClassifyIsTotal(t *testing.T) {
	c := NewDefault()
	known := map[string]bool{Other: true}
	for _, name := range c.Categories() {
		known[name] = true
	}
	for _, desc := range []string{"SAFEWAY MARKET", "XYZZY", "PAYROLL", "UBER TRIP", "???"} {
		got := c.Classify(desc)
		if !known[got] {
			t.Fatalf("%q classified to unknown category %q", desc, got)
		}
		if again := c.Classify(desc); again != got {
			t.Fatalf("%q not deterministic: %s then %s", desc, got, again)
		}
	}
}

func TestClassifyCustomRules(t *testing.T) {
	c := New(RuleSet{
		{Category: "Coffee", Keywords: []string{"ESPRESSO"}},
		{Category: "Books", Keywords: []string{"BOOK"}},
	})
	if got := c.Classify("Espresso Bar"); got != "Coffee" {
		t.Fatalf("expected Coffee, got %s", got)
	}
	if got := c.Classify("SAFEWAY MARKET"); got != Other {
		t.Fatalf("custom rules should not know Groceries, got %s", got)
	}
	if c.IsInvestment("QUESTRADE") {
		t.Fatalf("custom rules without Investments should never flag investments")
	}
}

func TestIsInvestment(t *testing.T) {
	c := NewDefault()
	if !c.IsInvestment("TFE / EFT wealthsimple inc") {
		t.Fatalf("expected investment match")
	}
	if c.IsInvestment("SAFEWAY MARKET") {
		t.Fatalf("unexpected investment match")
	}
}
