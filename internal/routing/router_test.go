package routing_test

import (
	"reflect"
	"testing"
	"time"

	"cadence/internal/config"
	"cadence/internal/content"
	"cadence/internal/routing"
	"cadence/internal/testsupport"
)

func ids(dests []routing.Destination) []string {
	out := make([]string, 0, len(dests))
	for _, d := range dests {
		out = append(out, d.ID)
	}
	return out
}

func TestRouteTwoDestinations(t *testing.T) {
	router := testsupport.NewRouter()
	got := ids(router.Route(testsupport.T1()))
	want := []string{"Catchall", "MathOnly"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Route(T1) = %v, want %v", got, want)
	}
}

func TestRouteIsDeterministic(t *testing.T) {
	router := testsupport.NewRouter()
	items := []content.Item{
		testsupport.T1(),
		testsupport.Notebook("N1", "physics"),
		testsupport.Template("X", "pure-mathematics/number-theory"),
	}
	for _, item := range items {
		first := router.Route(item)
		second := router.Route(item)
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("Route(%s) not deterministic: %v vs %v", item.ID, ids(first), ids(second))
		}
	}
}

func TestCatchAllTotality(t *testing.T) {
	router := testsupport.NewRouter()
	items := []content.Item{
		{},
		{ID: "bare", Type: content.TypeNotebook},
		testsupport.Notebook("N2", "biology"),
		testsupport.Template("T9", ""),
	}
	for _, item := range items {
		if len(router.Route(item)) == 0 {
			t.Fatalf("Route(%+v) empty despite catch-all", item)
		}
	}
}

func TestRouteWithoutCatchAllMayBeEmpty(t *testing.T) {
	router := routing.NewRouter([]routing.Destination{testsupport.MathOnlyDestination()})
	if router.HasCatchAll() {
		t.Fatal("expected no catch-all")
	}
	if got := router.Route(testsupport.Notebook("N1", "physics")); len(got) != 0 {
		t.Fatalf("expected empty routing, got %v", ids(got))
	}
}

func TestRuleAccepts(t *testing.T) {
	tests := []struct {
		name string
		rule routing.Rule
		item content.Item
		want bool
	}{
		{"catch all", routing.Rule{CatchAll: true}, content.Item{}, true},
		{"markup", routing.Rule{Markup: true}, content.Item{HasSpecializedMarkup: true}, true},
		{"markup flag off", routing.Rule{}, content.Item{HasSpecializedMarkup: true}, false},
		{"keyword", routing.Rule{Keywords: []string{"Topology"}}, content.Item{Keywords: []string{"topology"}}, true},
		{"keyword miss", routing.Rule{Keywords: []string{"topology"}}, content.Item{Keywords: []string{"biology"}}, false},
		{"category segment", routing.Rule{Categories: []string{"number-theory"}}, content.Item{Category: "pure-mathematics/number-theory"}, true},
		{"category substring is not a segment", routing.Rule{Categories: []string{"math"}}, content.Item{Category: "mathematics"}, false},
		{"phrase in category", routing.Rule{Keywords: []string{"number theory"}}, content.Item{Category: "pure-mathematics/number-theory"}, true},
		{"phrase in summary", routing.Rule{Keywords: []string{"Group Theory"}}, content.Item{Summary: "An introduction to group theory with Sage."}, true},
		{"phrase in title", routing.Rule{Keywords: []string{"ring theory"}}, content.Item{Title: "Ring Theory Notes"}, true},
		{"phrase words out of order", routing.Rule{Keywords: []string{"number theory"}}, content.Item{Summary: "theory of number systems"}, false},
		{"single keyword stays exact", routing.Rule{Keywords: []string{"algebra"}}, content.Item{Summary: "linear algebra review"}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.rule.Accepts(tc.item); got != tc.want {
				t.Fatalf("Accepts = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRouteOrdersByPriorityThenConfigOrder(t *testing.T) {
	low := routing.Destination{ID: "low", Priority: 1, Rule: routing.Rule{CatchAll: true}}
	first := routing.Destination{ID: "first", Priority: 5, Rule: routing.Rule{CatchAll: true}}
	second := routing.Destination{ID: "second", Priority: 5, Rule: routing.Rule{CatchAll: true}}
	router := routing.NewRouter([]routing.Destination{low, first, second})

	got := ids(router.Route(content.Item{ID: "x", Type: content.TypeTemplate}))
	want := []string{"first", "second", "low"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Route order = %v, want %v", got, want)
	}
	if dest, ok := router.Destination("second"); !ok || dest.Order() != 2 {
		t.Fatalf("unexpected lookup: %+v %v", dest, ok)
	}
}

func TestDestinationsFromConfig(t *testing.T) {
	dests, err := routing.DestinationsFromConfig(config.DefaultDestinations())
	if err != nil {
		t.Fatalf("DestinationsFromConfig: %v", err)
	}
	router := routing.NewRouter(dests)
	sage, ok := router.Destination("sagemath")
	if !ok {
		t.Fatal("expected sagemath destination")
	}
	if len(sage.Slots) != 2 || sage.Slots[0].String() != "13:00" {
		t.Fatalf("unexpected slots: %v", sage.Slots)
	}
	got := ids(router.Route(content.Item{ID: "g", Type: content.TypeNotebook, Keywords: []string{"Group Theory"}}))
	if !reflect.DeepEqual(got, []string{"cocalc", "sagemath"}) {
		t.Fatalf("unexpected routing for group theory notebook: %v", got)
	}

	if _, err := routing.DestinationsFromConfig([]config.Destination{{ID: "bad", Slots: []string{"7pm"}}}); err == nil {
		t.Fatal("expected slot parse error")
	}
}

func TestSlotOn(t *testing.T) {
	loc := time.FixedZone("X", 3*3600)
	day := time.Date(2025, time.November, 25, 23, 30, 0, 0, loc)
	got := routing.Slot{Hour: 9, Minute: 15}.On(day)
	want := time.Date(2025, time.November, 25, 9, 15, 0, 0, loc)
	if !got.Equal(want) || got.Location() != loc {
		t.Fatalf("Slot.On = %v, want %v", got, want)
	}
}
