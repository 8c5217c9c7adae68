package services

import (
	"math"
	"math/rand"
	"testing"

	"bitquest/internal/geo"
	"bitquest/internal/models"
)

func TestGenerateRarityDistribution(t *testing.T) {
	generator, err := NewChestGenerator(rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatal(err)
	}

	around := geo.Coordinate{Latitude: 40.7580, Longitude: -73.9855}
	counts := map[models.ChestRarity]int{}
	draws := 10000
	for i := 0; i < draws; i++ {
		chest := generator.Generate(around, 1000)
		counts[chest.Rarity]++

		values := rarityValues[chest.Rarity]
		if chest.Value < values.min || chest.Value > values.max {
			t.Fatalf("value %d outside %q range", chest.Value, chest.Rarity)
		}
		if d := geo.DistanceMeters(around, chest.Location); d > 1001 {
			t.Fatalf("chest placed %vm away, beyond the radius", d)
		}
	}

	expected := map[models.ChestRarity]float64{
		models.ChestRarityCommon: 0.70,
		models.ChestRarityRare:   0.25,
		models.ChestRarityEpic:   0.05,
	}
	for rarity, want := range expected {
		got := float64(counts[rarity]) / float64(draws)
		if math.Abs(got-want) > 0.03 {
			t.Errorf("rarity %q frequency %.3f, expected ~%.2f", rarity, got, want)
		}
	}
}

func TestGuaranteedChest(t *testing.T) {
	generator, err := NewChestGenerator(rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}

	around := geo.Coordinate{Latitude: 40.7580, Longitude: -73.9855}
	chest := generator.GuaranteedChest(around)

	if chest.Rarity != models.ChestRarityEpic {
		t.Errorf("rarity = %q, expected epic", chest.Rarity)
	}
	if chest.Value != GUARANTEED_CHEST_VALUE {
		t.Errorf("value = %d, expected %d", chest.Value, GUARANTEED_CHEST_VALUE)
	}

	if d := geo.DistanceMeters(around, chest.Location); math.Abs(d-GUARANTEED_CHEST_DISTANCE_IN_METERS) > 0.1 {
		t.Errorf("distance = %v, expected %v", d, GUARANTEED_CHEST_DISTANCE_IN_METERS)
	}
	if b := geo.BearingDegrees(around, chest.Location); math.Abs(b-GUARANTEED_CHEST_BEARING_DEGREES) > 0.5 {
		t.Errorf("bearing = %v, expected %v", b, GUARANTEED_CHEST_BEARING_DEGREES)
	}
}
