package services

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/mroth/weightedrand/v2"

	"bitquest/internal/geo"
	"bitquest/internal/models"
)

type valueRange struct {
	min int
	max int
}

var rarityValues = map[models.ChestRarity]valueRange{
	models.ChestRarityCommon: {min: 50, max: 150},
	models.ChestRarityRare:   {min: 300, max: 500},
	models.ChestRarityEpic:   {min: 1000, max: 1500},
}

// ChestGenerator synthesizes ephemeral chests around a location: rarity drawn
// 70/25/5 common/rare/epic, value drawn uniformly within the rarity's range.
type ChestGenerator struct {
	mu      sync.Mutex
	chooser *weightedrand.Chooser[models.ChestRarity, int]
	rng     *rand.Rand
}

func NewChestGenerator(rng *rand.Rand) (*ChestGenerator, error) {
	chooser, err := weightedrand.NewChooser(
		weightedrand.NewChoice(models.ChestRarityCommon, 70),
		weightedrand.NewChoice(models.ChestRarityRare, 25),
		weightedrand.NewChoice(models.ChestRarityEpic, 5),
	)
	if err != nil {
		return nil, err
	}

	return &ChestGenerator{chooser: chooser, rng: rng}, nil
}

// Generate places one chest at a uniformly random bearing and distance within
// radiusInMeters of the given location.
func (generator *ChestGenerator) Generate(around geo.Coordinate, radiusInMeters float64) models.Chest {
	generator.mu.Lock()
	rarity := generator.chooser.PickSource(generator.rng)
	values := rarityValues[rarity]
	value := values.min + generator.rng.Intn(values.max-values.min+1)
	bearing := generator.rng.Float64() * 360
	distance := generator.rng.Float64() * radiusInMeters
	generator.mu.Unlock()

	return models.Chest{
		ID:       GeneratedChestID(),
		Location: geo.DestinationPoint(around, bearing, distance),
		Rarity:   rarity,
		Value:    value,
		ModelRef: DEFAULT_CHEST_MODEL,
	}
}

// GuaranteedChest is the fixed onboarding chest: a short walk northeast so a
// first-time user always has something collectable in view.
func (generator *ChestGenerator) GuaranteedChest(around geo.Coordinate) models.Chest {
	return models.Chest{
		ID:       GeneratedChestID(),
		Location: geo.DestinationPoint(around, GUARANTEED_CHEST_BEARING_DEGREES, GUARANTEED_CHEST_DISTANCE_IN_METERS),
		Rarity:   models.ChestRarityEpic,
		Value:    GUARANTEED_CHEST_VALUE,
		ModelRef: DEFAULT_CHEST_MODEL,
	}
}

func GeneratedChestID() string {
	return fmt.Sprintf("generated_%s", uuid.NewString())
}

// IsGeneratedChestID reports whether the id belongs to a synthesized chest
// that was never persisted.
func IsGeneratedChestID(id string) bool {
	return strings.HasPrefix(id, "generated_")
}
