package services

import "os"

// The house account doubles as the admin identity: it always sits at the
// top tier and pays the floor rate regardless of level.
const (
	DefaultHouseUsername = "casadecopas"
	DefaultHouseAlias    = "casa"
)

// HouseUsername returns the configured house/admin username.
func HouseUsername() string {
	if u := os.Getenv("HOUSE_USERNAME"); u != "" {
		return u
	}
	return DefaultHouseUsername
}

// HouseAlias returns the configured house alias for profile resolution.
func HouseAlias() string {
	if a := os.Getenv("HOUSE_ALIAS"); a != "" {
		return a
	}
	return DefaultHouseAlias
}

// tierNames covers the pre-cup journey, levels 1–14.
var tierNames = []string{
	"Wanderer",
	"Seeker",
	"Apprentice",
	"Courier",
	"Messenger",
	"Keeper",
	"Artisan",
	"Herald",
	"Pathfinder",
	"Guardian",
	"Luminary",
	"Maestro",
	"Virtuoso",
	"Ascendant",
}

// cupNames covers the cup levels, 15–26. Levels past 26 stay King of Cups.
var cupNames = []string{
	"Ace of Cups",
	"Two of Cups",
	"Three of Cups",
	"Four of Cups",
	"Five of Cups",
	"Six of Cups",
	"Seven of Cups",
	"Eight of Cups",
	"Nine of Cups",
	"Ten of Cups",
	"Knight of Cups",
	"King of Cups",
}

const (
	baseTaxRate     = 0.20
	minTaxRate      = 0.07
	houseTaxRate    = 0.05
	taxStepPerLevel = 0.013
	firstCupLevel   = 15
)

// TierName maps a progression level to its display tier. The house
// account always reads as top tier.
func TierName(level int, username string) string {
	if username == HouseUsername() {
		return cupNames[len(cupNames)-1]
	}
	if level < 1 {
		level = 1
	}
	if level < firstCupLevel {
		return tierNames[level-1]
	}
	if level-firstCupLevel < len(cupNames) {
		return cupNames[level-firstCupLevel]
	}
	return cupNames[len(cupNames)-1]
}

// CashOutTaxRate returns the withholding rate in [0,1] for a cash-out.
// Below the cups the rate is flat 20%; from Ace of Cups each level shaves
// 1.3 points down to a 7% floor. The house pays a fixed 5%.
func CashOutTaxRate(level int, username string) float64 {
	if username == HouseUsername() {
		return houseTaxRate
	}
	if level < firstCupLevel {
		return baseTaxRate
	}
	rate := baseTaxRate - float64(level-firstCupLevel)*taxStepPerLevel
	if rate < minTaxRate {
		return minTaxRate
	}
	return rate
}
