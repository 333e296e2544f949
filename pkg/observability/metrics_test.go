package observability

import (
	"testing"
	"time"
)

func TestObserveCommand_IncrementsByKind(t *testing.T) {
	r := NewRegistry()
	r.ObserveCommand("goto")
	r.ObserveCommand("goto")
	r.ObserveCommand("mine")

	metrics, err := r.Gatherer().Gather()
	if err != nil {
		t.Fatal(err)
	}
	found := map[string]float64{}
	for _, mf := range metrics {
		if mf.GetName() != "turtlefleet_task_commands_total" {
			continue
		}
		for _, m := range mf.Metric {
			for _, l := range m.Label {
				if l.GetName() == "kind" {
					found[l.GetValue()] = m.GetCounter().GetValue()
				}
			}
		}
	}
	if found["goto"] != 2 {
		t.Errorf("expected goto=2, got %v", found["goto"])
	}
	if found["mine"] != 1 {
		t.Errorf("expected mine=1, got %v", found["mine"])
	}
}

func TestObservePathPlanning_RecordsOutcome(t *testing.T) {
	r := NewRegistry()
	r.ObservePathPlanning(5*time.Millisecond, true)
	r.ObservePathPlanning(5*time.Millisecond, false)

	metrics, err := r.Gatherer().Gather()
	if err != nil {
		t.Fatal(err)
	}
	var sawFound, sawNotFound bool
	for _, mf := range metrics {
		if mf.GetName() != "turtlefleet_path_plan_outcome_total" {
			continue
		}
		for _, m := range mf.Metric {
			for _, l := range m.Label {
				if l.GetValue() == "found" {
					sawFound = true
				}
				if l.GetValue() == "not_found" {
					sawNotFound = true
				}
			}
		}
	}
	if !sawFound || !sawNotFound {
		t.Error("expected both found and not_found outcomes recorded")
	}
}

func TestObserveRegisterAndPoll(t *testing.T) {
	r := NewRegistry()
	r.ObserveRegister()
	r.ObservePoll(3)

	metrics, err := r.Gatherer().Gather()
	if err != nil {
		t.Fatal(err)
	}
	names := map[string]bool{}
	for _, mf := range metrics {
		names[mf.GetName()] = true
	}
	for _, want := range []string{
		"turtlefleet_agents_registered_total",
		"turtlefleet_polls_served_total",
		"turtlefleet_queue_depth",
	} {
		if !names[want] {
			t.Errorf("expected metric %s to be registered", want)
		}
	}
}
