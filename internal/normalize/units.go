package normalize

import "strings"

// Canonical unit short forms. Dutch kitchen abbreviations are the canonical
// vocabulary; English and long-form aliases map onto them.
const (
	UnitTeaspoon   = "tl"
	UnitTablespoon = "el"
	UnitGram       = "g"
	UnitKilogram   = "kg"
	UnitMilliliter = "ml"
	UnitDeciliter  = "dl"
	UnitLiter      = "l"
	UnitPiece      = "stuk"
	UnitClove      = "teen"
	UnitPinch      = "snuf"
	UnitCup        = "cup"
	UnitOunce      = "oz"
	UnitPound      = "lb"
)

var unitAliases = map[string]string{
	// teaspoon
	"tl": UnitTeaspoon, "theelepel": UnitTeaspoon, "theelepels": UnitTeaspoon,
	"tsp": UnitTeaspoon, "teaspoon": UnitTeaspoon, "teaspoons": UnitTeaspoon,

	// tablespoon
	"el": UnitTablespoon, "eetlepel": UnitTablespoon, "eetlepels": UnitTablespoon,
	"tbsp": UnitTablespoon, "tbl": UnitTablespoon, "tbs": UnitTablespoon,
	"tablespoon": UnitTablespoon, "tablespoons": UnitTablespoon,

	// weight
	"g": UnitGram, "gr": UnitGram, "gram": UnitGram, "grams": UnitGram,
	"kg": UnitKilogram, "kilo": UnitKilogram, "kilogram": UnitKilogram,
	"oz": UnitOunce, "ounce": UnitOunce, "ounces": UnitOunce,
	"lb": UnitPound, "lbs": UnitPound, "pond": UnitPound, "pound": UnitPound, "pounds": UnitPound,

	// volume
	"ml": UnitMilliliter, "milliliter": UnitMilliliter, "milliliters": UnitMilliliter,
	"dl": UnitDeciliter, "deciliter": UnitDeciliter,
	"l": UnitLiter, "liter": UnitLiter, "liters": UnitLiter, "litre": UnitLiter, "litres": UnitLiter,
	"cup": UnitCup, "cups": UnitCup, "kop": UnitCup, "kopje": UnitCup,

	// pieces
	"stuk": UnitPiece, "stuks": UnitPiece, "st": UnitPiece,
	"piece": UnitPiece, "pieces": UnitPiece, "pcs": UnitPiece,

	// kitchen-specific
	"teen": UnitClove, "teentje": UnitClove, "teentjes": UnitClove,
	"clove": UnitClove, "cloves": UnitClove,
	"snuf": UnitPinch, "snufje": UnitPinch, "pinch": UnitPinch, "mespunt": UnitPinch,
}

// CanonicalUnit maps a unit token to its canonical short form. Unrecognized
// tokens are returned unchanged with ok=false.
func CanonicalUnit(token string) (string, bool) {
	cleaned := strings.ToLower(strings.TrimRight(strings.TrimSpace(token), "."))
	if canonical, ok := unitAliases[cleaned]; ok {
		return canonical, true
	}
	return token, false
}
