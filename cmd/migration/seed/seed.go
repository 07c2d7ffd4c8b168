package seed

import (
	"context"
	"time"

	"bunkhouse/config"
	"bunkhouse/internal/database"
	"bunkhouse/internal/models"
	"bunkhouse/internal/repositories"
	"bunkhouse/internal/services"
	"bunkhouse/pkg/logger"
)

const seedActor = "seed"

func dateIn(days int) *time.Time {
	d := time.Now().UTC().AddDate(0, 0, days).Truncate(24 * time.Hour)
	return &d
}

// Seed fills a freshly initialized database with a working day's worth of
// development data.
func Seed(db database.DB, cfg config.Config, log logger.Logger) error {
	log = log.Function("seed")
	log.Info("Seeding development data")

	ctx := context.Background()
	service, err := services.New(repositories.NewGormStore(db), nil, cfg, nil)
	if err != nil {
		return log.Err("failed to create services", err)
	}

	guests := []struct {
		details  models.GuestDetails
		checkout *time.Time
	}{
		{models.GuestDetails{GuestName: "Ada Lovelace", Nationality: "GB", Gender: "female"}, dateIn(2)},
		{models.GuestDetails{GuestName: "Kenji Sato", Nationality: "JP", Gender: "male"}, dateIn(1)},
		{models.GuestDetails{GuestName: "Lucia Moreno", Nationality: "ES", Gender: "female"}, dateIn(-1)},
		{models.GuestDetails{GuestName: "Tomas Novak", Nationality: "CZ", Gender: "male"}, dateIn(4)},
	}

	for _, guest := range guests {
		stay, err := service.Occupancy.CheckIn(ctx, services.CheckInRequest{
			Guest:                guest.details,
			ExpectedCheckoutDate: guest.checkout,
			Actor:                seedActor,
		})
		if err != nil {
			return log.Err("failed to seed stay", err, "guest", guest.details.GuestName)
		}
		log.Info("Seeded stay", "guest", stay.GuestName, "unit", stay.UnitNumber)
	}

	units, err := service.Units.ListAll(ctx)
	if err != nil {
		return log.Err("failed to list units", err)
	}
	if len(units) > 0 {
		last := units[len(units)-1].Number
		if _, err := service.Problems.Report(ctx, last, "Reading light flickers", seedActor); err != nil {
			return log.Err("failed to seed problem", err, "unit", last)
		}
	}

	token, err := service.Tokens.Create(ctx, services.CreateTokenRequest{
		AutoAssign:           true,
		Prefill:              models.GuestDetails{GuestName: "Walk-in Guest"},
		ExpectedCheckoutDate: dateIn(3),
		Actor:                seedActor,
	})
	if err != nil {
		return log.Err("failed to seed token", err)
	}

	log.Info("Seeding complete", "stays", len(guests), "token", token.Token)
	return nil
}
