// prune walks the whole users collection, probes every cached push
// token and removes the dead ones. Normal pruning happens inline during
// notification dispatch; this tool catches users who never receive
// notifications and whose token lists would otherwise grow forever.
package main

import (
	"context"
	"flag"
	"log"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/devsashidhar/wander/contract"
	"github.com/devsashidhar/wander/logger"
	"github.com/devsashidhar/wander/push"
	"github.com/devsashidhar/wander/store"
)

func main() {
	ctx := context.Background()
	projectPtr := flag.String("project", "", "GCP project ID")
	credsPtr := flag.String("creds", "", "path to a service account key file (optional)")
	dryRunPtr := flag.Bool("dry-run", false, "probe and report, do not remove anything")
	flag.Parse()

	if *projectPtr == "" {
		log.Fatalf("Please provide a project ID using the -project flag")
	}

	var opts []option.ClientOption
	if *credsPtr != "" {
		opts = append(opts, option.WithCredentialsFile(*credsPtr))
	}

	out := logger.ForProject(ctx, *projectPtr, "prune")

	st, err := store.NewForProject(ctx, *projectPtr, opts...)
	if err != nil {
		log.Fatalf("error connecting to firestore: %v", err)
	}
	defer st.Close()

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: *projectPtr}, opts...)
	if err != nil {
		log.Fatalf("error initializing firebase app: %v", err)
	}
	msgClient, err := app.Messaging(ctx)
	if err != nil {
		log.Fatalf("error creating messaging client: %v", err)
	}
	gw := push.NewWithSender(msgClient)

	var usersSeen, tokensSeen, tokensPruned int
	iter := st.Client().Collection("users").Documents(ctx)
	defer iter.Stop()
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			log.Fatalf("error iterating users: %v", err)
		}
		var user contract.User
		if err := doc.DataTo(&user); err != nil {
			out.Printf("skipping undecodable user %s: %v", doc.Ref.ID, err)
			continue
		}
		usersSeen++
		tokensSeen += len(user.FCMTokens)
		if len(user.FCMTokens) == 0 {
			continue
		}

		res, err := gw.Probe(ctx, user.FCMTokens)
		if err != nil {
			out.Printf("probe failed for user %s: %v", doc.Ref.ID, err)
			continue
		}
		if len(res.Unregistered) == 0 {
			continue
		}
		tokensPruned += len(res.Unregistered)
		if *dryRunPtr {
			out.Printf("user %s: %d dead tokens (dry run)", doc.Ref.ID, len(res.Unregistered))
			continue
		}
		if err := st.RemoveTokens(ctx, doc.Ref.ID, res.Unregistered); err != nil {
			out.Printf("removing tokens for user %s: %v", doc.Ref.ID, err)
			continue
		}
		out.Printf("user %s: removed %d dead tokens", doc.Ref.ID, len(res.Unregistered))
	}

	out.Printf("done: %d users, %d tokens seen, %d pruned", usersSeen, tokensSeen, tokensPruned)
}
