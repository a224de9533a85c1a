package main

import (
	"fmt"
	"log"
	"time"

	"community-live/auth"
	"community-live/domain"
	"community-live/internal"
	"community-live/repositories"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
)

// Seeds the store with a few rooms and profiles, then prints a development
// token per profile. Run it once before starting the server locally.
func main() {
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	rooms := repositories.NewRoomDirectory(db)
	profiles := repositories.NewProfileDirectory(db)

	seedRooms := []domain.Room{
		{ID: "general", Name: "General", Description: "Open discussion", IsPublic: true},
		{ID: "random", Name: "Random", Description: "Anything goes", IsPublic: true, MaxMembers: 100},
		{ID: "staff", Name: "Staff", Description: "Private staff channel", IsPublic: false},
	}
	for _, room := range seedRooms {
		if err := rooms.Put(room); err != nil {
			log.Fatalf("Failed to seed room %s: %v", room.ID, err)
		}
		fmt.Printf("Room seeded: %s (public=%v)\n", room.ID, room.IsPublic)
	}

	seedProfiles := []domain.Profile{
		{ID: "user-alice", DisplayName: "Alice", Avatar: "https://cdn.example.com/alice.png"},
		{ID: "user-bob", DisplayName: "Bob", Avatar: "https://cdn.example.com/bob.png"},
		{ID: "user-carol", DisplayName: "Carol"},
	}

	header := color.New(color.BgBlack, color.FgGreen).Render(" Development tokens (24h) ")
	fmt.Println(header)
	for _, profile := range seedProfiles {
		if err := profiles.Put(profile); err != nil {
			log.Fatalf("Failed to seed profile %s: %v", profile.ID, err)
		}
		token, err := auth.GenerateToken(config.JWTSecret, profile.ID, 24*time.Hour)
		if err != nil {
			log.Fatalf("Failed to generate token for %s: %v", profile.ID, err)
		}
		fmt.Printf("%s\t%s\n", profile.ID, token)
	}
}
