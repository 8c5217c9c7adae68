package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/urfave/cli/v2"

	"bitquest/internal/datastore"
	"bitquest/internal/geo"
	"bitquest/internal/models"
	"bitquest/internal/services"
)

func init() {
	// for development
	//nolint:errcheck
	godotenv.Load("../../.env")

	// for production
	//nolint:errcheck
	godotenv.Load("./.env")
}

func main() {
	app := &cli.App{
		Name: "migrate",
		Commands: []*cli.Command{
			commandMigration(),
			commandConfigMigration(),
			commandSeed(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commandMigration() *cli.Command {
	return &cli.Command{
		Name: "migrate",
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			db, err := getDb()
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableChest(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableCollection(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableGiftCardOrder(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			err = datastore.CreateTableConfig(ctx, db)
			if err != nil {
				log.Fatal(err)
			}

			log.Println("tables created")
			return nil
		},
	}
}

func commandConfigMigration() *cli.Command {
	return &cli.Command{
		Name: "migrate-config",
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			db, err := getDb()
			if err != nil {
				log.Fatal(err)
			}

			defaults := map[string]string{
				services.CONFIG_MIN_COLLECTIONS_TO_REDEEM:      strconv.Itoa(services.DEFAULT_MIN_COLLECTIONS_TO_REDEEM),
				services.CONFIG_NEARBY_RADIUS_IN_METERS:        strconv.Itoa(services.DEFAULT_NEARBY_RADIUS_IN_METERS),
				services.CONFIG_NEARBY_TARGET_CHEST_COUNT:      strconv.Itoa(services.DEFAULT_NEARBY_TARGET_CHEST_COUNT),
				services.CONFIG_GUARANTEED_CHEST_ENABLED:       "true",
				services.CONFIG_ORDER_POLL_INTERVAL_IN_SECONDS: strconv.Itoa(services.DEFAULT_ORDER_POLL_INTERVAL_IN_SECONDS),
				services.CONFIG_ORDER_POLL_MAX_ATTEMPTS:        strconv.Itoa(services.DEFAULT_ORDER_POLL_MAX_ATTEMPTS),
				services.CONFIG_GIFT_CARD_PRODUCT_ID:           services.DEFAULT_GIFT_CARD_PRODUCT_ID,
				services.CONFIG_GIFT_CARD_CURRENCY:             services.DEFAULT_GIFT_CARD_CURRENCY,
				services.CONFIG_SPAWN_AHEAD_DISTANCE_IN_METERS: strconv.Itoa(services.DEFAULT_SPAWN_AHEAD_DISTANCE_IN_METERS),
			}

			for key, value := range defaults {
				err := datastore.UpsertConfig(ctx, db, &models.Config{Key: key, Value: value})
				if err != nil {
					log.Fatal(err)
				}
			}

			log.Println("config defaults written")
			return nil
		},
	}
}

func commandSeed() *cli.Command {
	return &cli.Command{
		Name: "seed",
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			db, err := getDb()
			if err != nil {
				log.Fatal(err)
			}

			// sample chests around Midtown Manhattan
			seeds := []models.Chest{
				{Location: geo.Coordinate{Latitude: 40.7128, Longitude: -74.0060}, Rarity: models.ChestRarityCommon, Value: 5, ModelRef: "wooden_chest"},
				{Location: geo.Coordinate{Latitude: 40.7580, Longitude: -73.9855}, Rarity: models.ChestRarityRare, Value: 10, ModelRef: "golden_chest"},
				{Location: geo.Coordinate{Latitude: 40.7505, Longitude: -73.9934}, Rarity: models.ChestRarityCommon, Value: 5, ModelRef: "wooden_chest"},
				{Location: geo.Coordinate{Latitude: 40.7484, Longitude: -73.9857}, Rarity: models.ChestRarityEpic, Value: 20, ModelRef: "diamond_chest"},
				{Location: geo.Coordinate{Latitude: 40.7527, Longitude: -73.9772}, Rarity: models.ChestRarityRare, Value: 10, ModelRef: "golden_chest"},
				{Location: geo.Coordinate{Latitude: 40.7589, Longitude: -73.9851}, Rarity: models.ChestRarityCommon, Value: 5, ModelRef: "wooden_chest"},
				{Location: geo.Coordinate{Latitude: 40.7484, Longitude: -73.9857}, Rarity: models.ChestRarityRare, Value: 10, ModelRef: "golden_chest"},
				{Location: geo.Coordinate{Latitude: 40.7505, Longitude: -73.9934}, Rarity: models.ChestRarityCommon, Value: 5, ModelRef: "wooden_chest"},
			}

			for i := range seeds {
				seeds[i].ID = uuid.NewString()
				if err := datastore.InsertChest(ctx, db, &seeds[i]); err != nil {
					log.Fatal(err)
				}
			}

			log.Printf("seeded %d chests\n", len(seeds))
			return nil
		},
	}
}

func getDb() (*bun.DB, error) {
	godotenv.Load()
	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(os.Getenv("DB_DSN")),
		pgdriver.WithPassword(os.Getenv("DB_PASSWORD")),
	))

	return bun.NewDB(sqldb, pgdialect.New()), nil
}
