package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"

	"github.com/skshohagmiah/flinbase/internal/devserver"
	"github.com/skshohagmiah/flinbase/internal/logger"
	"github.com/skshohagmiah/flinbase/pkg/flin"
)

func main() {
	// Start an in-process dev backend
	dev := devserver.New(logger.Discard())
	dev.Stub(flin.OpGet, http.StatusOK, []map[string]interface{}{
		{"_id": "u1", "name": "Ada", "age": 36},
		{"_id": "u2", "name": "Alan", "age": 41},
	})
	dev.Stub(flin.OpDelete, http.StatusOK, map[string]interface{}{"count": 3})
	srv := httptest.NewServer(dev.Handler())
	defer srv.Close()

	client, err := flin.NewClient(flin.DefaultOptions(srv.URL))
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	ctx := context.Background()
	db := client.DB("app")

	fmt.Println("Flin query builder demo")
	fmt.Println("=======================")

	// 1. Chained read
	fmt.Println("\n1. users where age > 18, sorted by name, page 2 of 50")
	users := db.Model("users").
		Filter("age > 18").
		Sort("name", flin.SortAsc).
		Limit(50).
		Page(2)
	fmt.Printf("   Query: %s\n", users)

	res, err := users.Get(ctx, true)
	if err != nil {
		log.Fatal(err)
	}
	var records []map[string]interface{}
	if err := res.Decode(&records); err != nil {
		log.Fatal(err)
	}
	for _, r := range records {
		fmt.Printf("   %v (%v)\n", r["name"], r["age"])
	}

	// 2. Validation errors are reported by the terminal call
	fmt.Println("\n2. Invalid modifiers")
	_, err = db.Model("users").Limit(0).Sort("name", "up").Get(ctx, false)
	fmt.Printf("   Error: %v\n", err)

	// 3. Field updates
	fmt.Println("\n3. Increment visits for u1")
	_, err = db.Model("users").
		Filter("_id == 'u1'").
		UpdateFields(ctx, flin.FieldUpdates{flin.Increment("visits", 1), flin.Push("tags", "admin")})
	if err != nil {
		log.Fatal(err)
	}

	// 4. Delete returns the affected count
	fmt.Println("\n4. Delete inactive users")
	del, err := db.Model("users").Filter("active == false").Delete(ctx)
	if err != nil {
		log.Fatal(err)
	}
	if del.Info != nil && del.Info.Count != nil {
		fmt.Printf("   Deleted: %d\n", *del.Info.Count)
	}

	// 5. Object handle
	fmt.Println("\n5. Fetch one object with a lookup")
	_, err = db.Object("users", "u1").Get(ctx, flin.Lookups{flin.FieldLookup("profile")})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("\nRequests received by the backend:")
	for _, r := range dev.Requests() {
		body, _ := json.Marshal(r.Body)
		fmt.Printf("   POST /%s/db/%s %s\n", r.Root, r.Operation, body)
	}

	fmt.Println("\n✅ Demo completed successfully!")
}
