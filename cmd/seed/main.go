// Command seed populates a development database with demo data.
package main

import (
	"context"
	"flag"
	"log"

	"resonate/internal/config"
	"resonate/internal/database"
	"resonate/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	postsPerUser := flag.Int("posts", 5, "Posts per user")
	follows := flag.Int("follows", 8, "Accounts each user follows")
	likes := flag.Int("likes", 6, "Maximum likes per post")
	days := flag.Int("days", 30, "Spread post timestamps over this many days")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	randSeed := flag.Int64("seed", 0, "Random seed; 0 uses the clock")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if _, err := seed.Seed(context.Background(), db, seed.Options{
		NumUsers:       *numUsers,
		PostsPerUser:   *postsPerUser,
		FollowsPerUser: *follows,
		LikesPerPost:   *likes,
		MaxDays:        *days,
		ShouldClean:    *shouldClean,
		RandSeed:       *randSeed,
	}); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("All test users have the password: %s", seed.DefaultPassword)
}
