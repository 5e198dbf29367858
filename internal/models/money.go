package models

import "github.com/shopspring/decimal"

// Money is a decimal amount. Persisted amounts are in the base currency
// unless the field says otherwise.
type Money = decimal.Decimal

// Zero is the zero amount.
var Zero = decimal.Zero
