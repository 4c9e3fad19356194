package filter

import (
	"testing"

	"github.com/bakkerme/freegame-alerts/internal/core"
)

func TestEmptyRuleDropsNothing(t *testing.T) {
	f, err := Compile("  ")
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	drop, err := f.Drop(core.ItemDescriptor{Title: "anything"})
	if err != nil || drop {
		t.Fatalf("expected nil filter to keep item, got drop=%v err=%v", drop, err)
	}
}

func TestRuleMatchesItemFields(t *testing.T) {
	f, err := Compile(`title contains "DLC" or (platform == "giveaways" and url matches "beta")`)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	cases := []struct {
		item core.ItemDescriptor
		want bool
	}{
		{core.ItemDescriptor{Title: "Soundtrack DLC", Platform: core.PlatformSteam}, true},
		{core.ItemDescriptor{Title: "Full Game", Platform: "giveaways", URL: "https://x.example/beta-key"}, true},
		{core.ItemDescriptor{Title: "Full Game", Platform: core.PlatformEpicGames, URL: "https://x.example/beta"}, false},
	}
	for _, tc := range cases {
		got, err := f.Drop(tc.item)
		if err != nil {
			t.Fatalf("drop failed: %v", err)
		}
		if got != tc.want {
			t.Fatalf("Drop(%#v)=%v want %v", tc.item, got, tc.want)
		}
	}
}

func TestCompileRejectsInvalidRules(t *testing.T) {
	for _, rule := range []string{`title +`, `price > 0`, `title`} {
		if _, err := Compile(rule); err == nil {
			t.Fatalf("expected compile error for %q", rule)
		}
	}
}
