package opentoclose_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	opentoclose "github.com/yourorg/opentoclose-go"
	"github.com/yourorg/opentoclose-go/apierr"
	"github.com/yourorg/opentoclose-go/fieldmap"
)

const fieldGroupsJSON = `[
	{"group": {"title": "Contract", "sections": [
		{"section": {"title": "Details", "fields": [
			{"id": 926565, "key": "contract_title", "title": "Contract Title", "type": "text", "required": true},
			{"id": 926553, "key": "contract_client_type", "title": "Client Type", "type": "choice", "required": true,
				"options": [
					{"id": 797212, "title": "Buyer"},
					{"id": 797213, "title": "Seller"},
					{"id": 797214, "title": "Dual"}
				]},
			{"id": 926552, "key": "contract_status", "title": "Status", "type": "choice", "required": true,
				"options": [
					{"id": 797206, "title": "Listing- Active"},
					{"id": 797209, "title": "Under Contract"},
					{"id": 797210, "title": "Closed"}
				]}
		]}}
	]}},
	{"group": {"title": "Property", "sections": [
		{"section": {"title": "Location", "fields": [
			{"id": 926540, "key": "property_address", "title": "Address", "type": "text"},
			{"id": 926541, "key": "purchase_amount", "title": "Purchase Amount", "type": "number"}
		]}}
	]}}
]`

// fixture plays the vendor API for facade tests: field metadata, a teams
// roster for auto-detection, and property create/update endpoints that
// capture what the client actually sent.
type fixture struct {
	srv *httptest.Server

	mu         sync.Mutex
	fieldsJSON string
	seen       capture
}

// capture is what the fixture observed: fetch counts and request bodies.
type capture struct {
	fieldFetches int
	teamFetches  int
	creates      []map[string]any
	updates      []map[string]any
	updatePaths  []string
}

func newFixture(t *testing.T) (*opentoclose.Client, *fixture) {
	t.Helper()

	f := &fixture{fieldsJSON: fieldGroupsJSON}
	f.srv = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.srv.Close)

	client, err := opentoclose.New(opentoclose.Config{
		APIKey:   "test-key",
		BaseURL:  f.srv.URL,
		RetryMax: -1,
	})
	require.NoError(t, err)
	return client, f
}

func (f *fixture) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/propertyFields":
		f.seen.fieldFetches++
		io.WriteString(w, f.fieldsJSON)
	case r.URL.Path == "/teams":
		f.seen.teamFetches++
		io.WriteString(w, `[{"id": 1, "name": "Main Team", "team_members": [{"id": 26392, "first_name": "Pat"}]}]`)
	case r.URL.Path == "/properties/" && r.Method == http.MethodPost:
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		f.seen.creates = append(f.seen.creates, body)
		io.WriteString(w, `{"id": 555}`)
	case strings.HasPrefix(r.URL.Path, "/properties/") && r.Method == http.MethodPut:
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		f.seen.updates = append(f.seen.updates, body)
		f.seen.updatePaths = append(f.seen.updatePaths, r.URL.Path)
		io.WriteString(w, `{"id": 7}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"message": "not found"}`)
	}
}

func (f *fixture) swapFields(raw string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fieldsJSON = raw
}

func (f *fixture) snapshot() capture {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen
}

func TestCreateTranslatesToFieldsArray(t *testing.T) {
	client, f := newFixture(t)

	rec, err := client.Properties.Create(context.Background(), map[string]any{
		"title":           "123 Main St Purchase",
		"client_type":     "Buyer",
		"status":          "Under Contract",
		"purchase_amount": 450000,
	})
	require.NoError(t, err)
	assert.Equal(t, float64(555), rec["id"])

	snap := f.snapshot()
	require.Len(t, snap.creates, 1)
	assert.Equal(t, map[string]any{
		"team_member_id": float64(26392), // auto-detected from /teams
		"time_zone_id":   float64(1),
		"fields": []any{
			map[string]any{"id": float64(926553), "value": float64(797212)},
			map[string]any{"id": float64(926552), "value": float64(797209)},
			map[string]any{"id": float64(926565), "value": "123 Main St Purchase"},
			map[string]any{"id": float64(926541), "value": "450000"},
		},
	}, snap.creates[0])
	assert.Equal(t, 1, snap.teamFetches)
}

func TestCreateExplicitOptionsSkipTeamLookup(t *testing.T) {
	client, f := newFixture(t)

	_, err := client.Properties.Create(context.Background(),
		map[string]any{"title": "X"},
		opentoclose.CreateOptions{TeamMemberID: 99, TimeZoneID: 5})
	require.NoError(t, err)

	snap := f.snapshot()
	require.Len(t, snap.creates, 1)
	assert.Equal(t, float64(99), snap.creates[0]["team_member_id"])
	assert.Equal(t, float64(5), snap.creates[0]["time_zone_id"])
	assert.Zero(t, snap.teamFetches, "explicit team member must not hit /teams")
}

func TestCreateMetadataFetchedOnce(t *testing.T) {
	client, f := newFixture(t)
	ctx := context.Background()

	_, err := client.Properties.Create(ctx, map[string]any{"title": "First"})
	require.NoError(t, err)
	_, err = client.Properties.Create(ctx, map[string]any{"title": "Second"})
	require.NoError(t, err)

	assert.Equal(t, 1, f.snapshot().fieldFetches)
}

func TestCreateNativePassthrough(t *testing.T) {
	client, f := newFixture(t)

	native := map[string]any{
		"team_member_id": 26392,
		"time_zone_id":   1,
		"fields": []any{
			map[string]any{"id": 926565, "value": "Native Title"},
		},
	}
	_, err := client.Properties.Create(context.Background(), native)
	require.NoError(t, err)

	snap := f.snapshot()
	require.Len(t, snap.creates, 1)
	assert.Equal(t, map[string]any{
		"team_member_id": float64(26392),
		"time_zone_id":   float64(1),
		"fields": []any{
			map[string]any{"id": float64(926565), "value": "Native Title"},
		},
	}, snap.creates[0])
	assert.Zero(t, snap.fieldFetches, "native payloads skip the metadata load")
}

func TestCreateRequiresTitle(t *testing.T) {
	client, f := newFixture(t)

	_, err := client.Properties.Create(context.Background(), map[string]any{"client_type": "Buyer"})
	var verr *apierr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "title")
	assert.Empty(t, f.snapshot().creates)
}

func TestCreateFromTitle(t *testing.T) {
	client, f := newFixture(t)

	rec, err := client.Properties.CreateFromTitle(context.Background(), "  Quick Deal  ")
	require.NoError(t, err)
	assert.Equal(t, float64(555), rec["id"])

	snap := f.snapshot()
	require.Len(t, snap.creates, 1)
	fields, ok := snap.creates[0]["fields"].([]any)
	require.True(t, ok)
	require.Len(t, fields, 1)
	assert.Equal(t, map[string]any{"id": float64(926565), "value": "Quick Deal"}, fields[0])

	_, err = client.Properties.CreateFromTitle(context.Background(), "   ")
	var verr *apierr.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestCreatePreserveTextKeepsLabelOnWire(t *testing.T) {
	client, f := newFixture(t)
	ctx := context.Background()

	// pre-translate in preserve mode, then send the result through Create
	translated, err := client.Properties.Translate(ctx,
		map[string]any{"title": "X", "status": "Under Contract"},
		fieldmap.TranslateOptions{PreserveText: true})
	require.NoError(t, err)
	require.Equal(t, "Under Contract", translated["contract_status"])

	_, err = client.Properties.Create(ctx, translated,
		opentoclose.CreateOptions{TeamMemberID: 99, PreserveText: true})
	require.NoError(t, err)

	snap := f.snapshot()
	require.Len(t, snap.creates, 1)
	fields, ok := snap.creates[0]["fields"].([]any)
	require.True(t, ok)
	assert.Contains(t, fields, map[string]any{"id": float64(926552), "value": "Under Contract"})

	// an unvalidated label still fails, preserve mode is not a bypass
	_, err = client.Properties.Create(ctx, map[string]any{"title": "X", "status": "nonsense"},
		opentoclose.CreateOptions{TeamMemberID: 99, PreserveText: true})
	var verr *apierr.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestUpdatePreserveText(t *testing.T) {
	client, f := newFixture(t)

	_, err := client.Properties.Update(context.Background(), 7,
		map[string]any{"status": "Closed"},
		opentoclose.UpdateOptions{PreserveText: true})
	require.NoError(t, err)

	snap := f.snapshot()
	require.Len(t, snap.updates, 1)
	assert.Equal(t, map[string]any{"contract_status": "Closed"}, snap.updates[0])
}

func TestCreateNativeFieldsCarryTitleByID(t *testing.T) {
	client, f := newFixture(t)

	// no team_member_id, so this goes through translation; the title lives
	// in a native fields entry keyed by numeric ID
	_, err := client.Properties.Create(context.Background(), map[string]any{
		"fields": []any{map[string]any{"id": 926565, "value": "Native Title"}},
	}, opentoclose.CreateOptions{TeamMemberID: 99})
	require.NoError(t, err)

	snap := f.snapshot()
	require.Len(t, snap.creates, 1)
	fields, ok := snap.creates[0]["fields"].([]any)
	require.True(t, ok)
	assert.Contains(t, fields, map[string]any{"id": float64(926565), "value": "Native Title"})
}

func TestUpdateTranslates(t *testing.T) {
	client, f := newFixture(t)

	_, err := client.Properties.Update(context.Background(), 7, map[string]any{"status": "Closed"})
	require.NoError(t, err)

	snap := f.snapshot()
	require.Len(t, snap.updates, 1)
	assert.Equal(t, "/properties/7", snap.updatePaths[0])
	assert.Equal(t, map[string]any{"contract_status": float64(797210)}, snap.updates[0])
}

func TestRetrieveInvalidID(t *testing.T) {
	client, _ := newFixture(t)

	_, err := client.Properties.Retrieve(context.Background(), 0)
	var verr *apierr.ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = client.Properties.Retrieve(context.Background(), -3)
	require.ErrorAs(t, err, &verr)
}

func TestValidatePropertyData(t *testing.T) {
	client, _ := newFixture(t)
	ctx := context.Background()

	ok, msgs, err := client.ValidatePropertyData(ctx, map[string]any{
		"title":       "X",
		"client_type": "InvalidType",
	})
	require.NoError(t, err)
	assert.False(t, ok)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Invalid client_type: InvalidType. Must be one of: Buyer, Dual, Seller", msgs[0])

	ok, msgs, err = client.ValidatePropertyData(ctx, map[string]any{
		"title":       "X",
		"client_type": "buyer",
		"status":      "under-contract",
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, msgs)
}

func TestListAvailableFields(t *testing.T) {
	client, _ := newFixture(t)

	infos, err := client.ListAvailableFields(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 5)

	// required fields first, each block sorted by name
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name)
	}
	assert.Equal(t, []string{
		"contract_client_type", "contract_status", "contract_title",
		"property_address", "purchase_amount",
	}, names)

	assert.Equal(t, []string{"Buyer", "Dual", "Seller"}, infos[0].Options)
	assert.True(t, infos[0].Required)
	assert.False(t, infos[3].Required)
	assert.Empty(t, infos[3].Options)
}

func TestRefreshFieldMappings(t *testing.T) {
	client, f := newFixture(t)
	ctx := context.Background()

	ok, _, err := client.ValidatePropertyData(ctx, map[string]any{"status": "Under Contract"})
	require.NoError(t, err)
	require.True(t, ok)

	f.swapFields(`[
		{"group": {"title": "Contract", "sections": [
			{"section": {"title": "Details", "fields": [
				{"id": 926552, "key": "contract_status", "title": "Status", "type": "choice", "required": true,
					"options": [{"id": 900001, "title": "In Escrow"}]}
			]}}
		]}}
	]`)
	require.NoError(t, client.RefreshFieldMappings(ctx))

	ok, msgs, err := client.ValidatePropertyData(ctx, map[string]any{"status": "in escrow"})
	require.NoError(t, err)
	assert.True(t, ok, "%v", msgs)

	ok, _, err = client.ValidatePropertyData(ctx, map[string]any{"status": "Under Contract"})
	require.NoError(t, err)
	assert.False(t, ok, "stale options must be gone after refresh")

	assert.Equal(t, 2, f.snapshot().fieldFetches)
}

func TestGetPropertyFieldsRaw(t *testing.T) {
	client, _ := newFixture(t)

	groups, err := client.GetPropertyFields(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 2)
	_, ok := groups[0]["group"]
	assert.True(t, ok, "raw metadata keeps the group envelope")
}
