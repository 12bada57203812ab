package platform

import "testing"

func TestKnown(t *testing.T) {
	t.Parallel()

	for _, id := range []ID{IOS, Android, Web} {
		if !id.Known() {
			t.Errorf("expected %q to be known", id)
		}
	}
	if ID("windows").Known() {
		t.Error("expected unknown platform to report false")
	}
}

func TestSelect(t *testing.T) {
	t.Parallel()

	values := map[ID][]string{
		IOS:     {"weeklyDose"},
		Android: {"monthly_subscription"},
	}

	got, ok := Select(IOS, values)
	if !ok || len(got) != 1 || got[0] != "weeklyDose" {
		t.Errorf("Select(IOS) = %v, %v", got, ok)
	}

	_, ok = Select(Web, values)
	if ok {
		t.Error("Select(Web) should report no value bound")
	}
}
