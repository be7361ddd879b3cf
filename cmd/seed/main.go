package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"os"

	"hangout-service/internal/adapters/database"
	"hangout-service/internal/config"
	"hangout-service/internal/models"
	"hangout-service/internal/server"

	"github.com/spf13/pflag"
)

func main() {
	snapshots := pflag.StringSlice("snapshot", nil, "plan snapshot JSON files to import")
	demo := pflag.Bool("demo", true, "create a demo plan when no snapshot is given")
	pflag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	slog.Info("Starting database seeding...")

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	svc := server.NewServices(db, nil, nil)
	ctx := context.Background()

	for _, path := range *snapshots {
		snapshot, err := readSnapshot(path)
		if err != nil {
			log.Fatalf("Failed to read snapshot %s: %v", path, err)
		}
		plan, err := svc.Hangouts.ImportSnapshot(ctx, snapshot)
		if err != nil {
			log.Fatalf("Failed to import snapshot %s: %v", path, err)
		}
		slog.Info("Imported plan", "file", path, "planID", plan.ID, "phase", plan.Phase)
	}

	if len(*snapshots) == 0 && *demo {
		if err := seedDemo(ctx, svc); err != nil {
			log.Fatal("Failed to seed demo plan:", err)
		}
	}

	slog.Info("Database seeding completed successfully!")
}

func readSnapshot(path string) (*models.PlanSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snapshot models.PlanSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// seedDemo creates an open poll between users 1 to 4
func seedDemo(ctx context.Context, svc *server.Services) error {
	detail, err := svc.Hangouts.CreatePlan(ctx, 1, models.CreatePlanRequest{
		Title:       "Saturday hangout",
		Description: "Pick where we go this weekend",
		Privacy:     models.PrivacyFriends,
		Options: []models.AddOptionRequest{
			{Title: "Board game cafe", Location: "Downtown", Price: 12},
			{Title: "Hiking", Location: "North trail"},
			{Title: "Karaoke", Location: "Midtown", Price: 20},
		},
		StartVoting: true,
	})
	if err != nil {
		return err
	}

	for _, userID := range []uint{2, 3, 4} {
		if _, err := svc.Participants.Invite(ctx, detail.Plan.ID, 1, models.InviteRequest{UserID: userID, IsMandatory: userID == 2}); err != nil {
			return err
		}
	}

	slog.Info("Created demo plan", "planID", detail.Plan.ID, "options", len(detail.Options))
	return nil
}
