package classify

// DefaultRules returns the fixed rule table. Priority order is deliberate:
// a grocery-store cafe classifies as Groceries, not Dining, because the
// Groceries rule is tested first. Keywords are uppercase; matching is
// substring containment against the uppercased description.
func DefaultRules() RuleSet {
	return RuleSet{
		{Category: "Groceries", Keywords: []string{
			"SUPERMARKET", "T&T", "LUCKY", "MARKET", "COSTCO",
			"WALMART", "HEN LONG", "PRODUCE", "FOOD", "GROCERY",
		}},
		{Category: "Dining", Keywords: []string{
			"RESTAURANT", "CAFE", "PHO", "DINING", "UBER*EATS",
			"UBER * EATS", "SUSHI", "BAR", "PUB", "THAI",
			"BUBBLE", "TEA", "YIFANG", "BANH", "MILK & SUGAR",
			"DONUT", "DUFFIN", "CARL'S JR",
		}},
		{Category: "Transportation", Keywords: []string{
			"UBER", "COMPASS", "TRANSIT", "PARKING", "ICBC",
			"ATM WITHDRAWAL", "GAS", "SHELL", "CANADIAN TIRE",
		}},
		{Category: "Shopping", Keywords: []string{
			"RETAIL", "AMZN", "AMAZON", "ALIEXPRESS",
			"SPORT CHEK", "STORE", "PURCHASE",
		}},
		{Category: "Bills", Keywords: []string{
			"BILL", "SERVICE CHARGE", "ROGERS", "INSURANCE",
			"MASTERCARD", "NETWORK FEE", "PHONE", "INTERNET",
			"UTILITIES", "HYDRO", "CARD PRODUCTS",
		}},
		{Category: Investments, Keywords: []string{
			"WEALTHSIMPLE", "QUESTRADE", "INVESTMENT",
			"EDWARD JONES", "SHAREOWNER",
		}},
	}
}
