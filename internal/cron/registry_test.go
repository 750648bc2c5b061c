package cron

import "testing"

func TestRegistryKeepsOrderAndSkipsNil(t *testing.T) {
	registry := NewRegistry(&testJob{name: "first"}, nil, &testJob{name: "second"})
	registry.Register(&testJob{name: "third"})
	registry.Register(nil)

	names := registry.Names()
	if len(names) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(names))
	}
	for i, want := range []string{"first", "second", "third"} {
		if names[i] != want {
			t.Fatalf("expected %s at %d, got %s", want, i, names[i])
		}
	}
}

func TestRegistryJobsReturnsACopy(t *testing.T) {
	registry := NewRegistry(&testJob{name: "only"})
	jobs := registry.Jobs()
	jobs[0] = &testJob{name: "swapped"}

	if registry.Jobs()[0].Name() != "only" {
		t.Fatal("mutating the returned slice must not affect the registry")
	}
}
