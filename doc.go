// Package opentoclose is a Go client for the Open To Close real-estate
// transaction API.
//
// Construct a client with an API key (or set OPEN_TO_CLOSE_API_KEY):
//
//	client, err := opentoclose.New(opentoclose.Config{APIKey: "..."})
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Resource services cover properties, agents, contacts, teams, users, tags
// and the property sub-resources (contacts, documents, emails, notes, tasks):
//
//	props, err := client.Properties.List(ctx, nil)
//
// Property payloads may use human-friendly field names and choice labels;
// the client discovers the vendor's field metadata at runtime and translates
// names and option text into the vendor's numeric IDs:
//
//	created, err := client.Properties.Create(ctx, map[string]any{
//		"title":       "123 Main St",
//		"client_type": "Buyer",
//		"status":      "Under Contract",
//	})
//
// Use ValidatePropertyData to check a payload without sending it, and
// ListAvailableFields to discover what the vendor accepts.
package opentoclose
