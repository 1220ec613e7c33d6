// seed fills a Firestore emulator with a small social graph, a few
// geotagged posts and one chat, for running the functions end to end
// via cmd/main.go. Point FIRESTORE_EMULATOR_HOST at the emulator first.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"

	"github.com/devsashidhar/wander/contract"
)

func main() {
	ctx := context.Background()
	projectPtr := flag.String("project", "demo-wander", "project ID for the emulator")
	flag.Parse()

	client, err := firestore.NewClient(ctx, *projectPtr)
	if err != nil {
		log.Fatalf("error creating firestore client: %v", err)
	}
	defer client.Close()

	now := time.Now()

	users := map[string]contract.User{
		"alice": {
			Username:  "alice_wanders",
			FirstName: "Alice",
			LastName:  "Nguyen",
			FCMTokens: []string{"tok-alice-phone", "tok-alice-tablet"},
		},
		"bob": {
			Username:  "bob.overland",
			FirstName: "Bob",
			LastName:  "Marsh",
			Following: []string{"alice"},
			FCMTokens: []string{"tok-bob-phone"},
		},
		"carol": {
			Username:  "carolchasesviews",
			FirstName: "Carol",
			LastName:  "Ibe",
		},
	}
	for id, u := range users {
		if _, err := client.Collection("users").Doc(id).Set(ctx, u); err != nil {
			log.Fatalf("error seeding user %s: %v", id, err)
		}
	}

	posts := []contract.Post{
		{
			UserID:       "alice",
			ImageURL:     "https://storage.example.com/wander/half-dome.jpg",
			LocationName: "Half Dome, Yosemite",
			Timestamp:    now.Add(-48 * time.Hour),
			Likes:        []string{"bob"},
		},
		{
			UserID:       "bob",
			ImageURL:     "https://storage.example.com/wander/ring-road.jpg",
			LocationName: "Ring Road, Iceland",
			Timestamp:    now.Add(-2 * time.Hour),
		},
	}
	for _, p := range posts {
		id := uuid.NewString()
		if _, err := client.Collection("posts").Doc(id).Set(ctx, p); err != nil {
			log.Fatalf("error seeding post %s: %v", id, err)
		}
		fmt.Printf("post %s (%s)\n", id, p.LocationName)
	}

	chatID := uuid.NewString()
	if _, err := client.Collection("chats").Doc(chatID).Set(ctx, contract.Chat{
		UserIDs:              []string{"alice", "bob"},
		CreatedAt:            now.Add(-24 * time.Hour),
		LastMessageTimestamp: now.Add(-time.Hour),
	}); err != nil {
		log.Fatalf("error seeding chat: %v", err)
	}
	if _, err := client.Collection("chats").Doc(chatID).Collection("messages").Doc(uuid.NewString()).Set(ctx, contract.Message{
		SenderID:   "bob",
		ReceiverID: "alice",
		Text:       "that summit photo is unreal",
		Timestamp:  now.Add(-time.Hour),
	}); err != nil {
		log.Fatalf("error seeding message: %v", err)
	}
	fmt.Printf("chat %s\n", chatID)

	fmt.Println("seeded")
}
