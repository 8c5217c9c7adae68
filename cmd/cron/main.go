package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/samber/do"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/urfave/cli/v2"

	"bitquest/internal/datastore"
	"bitquest/internal/models"
	"bitquest/internal/services"
)

const RECONCILE_BATCH_SIZE = 100

// orders untouched for this long are considered abandoned by their poll loop
const RECONCILE_STALE_AFTER = 2 * time.Minute

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
		Name: "cronjob",
		Commands: []*cli.Command{
			commandCronjob(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commandCronjob() *cli.Command {
	return &cli.Command{
		Name: "cron",
		Action: func(c *cli.Context) error {
			db, err := getDb()
			if err != nil {
				return err
			}

			giftCard, err := getGiftCardAPI()
			if err != nil {
				return err
			}

			cronRunner := cron.New()

			reconcileJob := NewReconcileJob(db, giftCard)
			if err := reconcileJob.Start(cronRunner); err != nil {
				return err
			}

			log.Println("Start cronjob")
			cronRunner.Run()
			return nil
		},
	}
}

// ReconcileJob sweeps gift card orders that are neither finished nor being
// polled anymore and drives them to their provider-reported state, the same
// terminal handling the in-request orchestrator applies.
type ReconcileJob struct {
	db       *bun.DB
	giftCard services.GiftCardAPI
}

func NewReconcileJob(db *bun.DB, giftCard services.GiftCardAPI) *ReconcileJob {
	return &ReconcileJob{db, giftCard}
}

func (job *ReconcileJob) Start(cronRunner *cron.Cron) error {
	_, err := cronRunner.AddFunc("@every 1m", job.run)
	return err
}

func (job *ReconcileJob) run() {
	ctx := context.Background()

	stale, err := datastore.GetStaleGiftCardOrders(ctx, job.db, time.Now().Add(-RECONCILE_STALE_AFTER), RECONCILE_BATCH_SIZE)
	if err != nil && err != sql.ErrNoRows {
		log.Printf("reconcile: loading stale orders: %v\n", err)
		return
	}

	for _, order := range stale {
		resp, err := job.giftCard.GetOrder(ctx, order.OrderID)
		if err != nil {
			log.Printf("reconcile: order %s: %v\n", order.OrderID, err)
			continue
		}

		status := models.OrderStatus(resp.Status)
		if resp.Expired {
			status = models.OrderStatusExpired
		}
		if status == order.Status {
			// still in flight; bump updated_at so the next sweep skips it
			if err := datastore.UpdateGiftCardOrderStatus(ctx, job.db, order.OrderID, status); err != nil {
				log.Printf("reconcile: order %s: %v\n", order.OrderID, err)
			}
			continue
		}

		if err := datastore.UpdateGiftCardOrderStatus(ctx, job.db, order.OrderID, status); err != nil {
			log.Printf("reconcile: order %s: %v\n", order.OrderID, err)
			continue
		}

		if status == models.OrderStatusSuccess {
			if err := datastore.MarkCollectionsRedeemed(ctx, job.db, order.CollectionIDs); err != nil {
				log.Printf("reconcile: order %s: marking collections: %v\n", order.OrderID, err)
				continue
			}
		}

		log.Printf("reconcile: order %s moved to %s\n", order.OrderID, status)
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

func getGiftCardAPI() (services.GiftCardAPI, error) {
	injector := do.New()
	do.ProvideNamedValue(injector, "envs", map[string]string{
		"BITREFILL_API_BASE_URL": os.Getenv("BITREFILL_API_BASE_URL"),
		"BITREFILL_API_KEY":      os.Getenv("BITREFILL_API_KEY"),
		"BITREFILL_API_SECRET":   os.Getenv("BITREFILL_API_SECRET"),
	})

	return services.NewServiceBitrefill(injector)
}
