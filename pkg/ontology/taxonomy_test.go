package ontology

import "testing"

func TestThingTypeValid(t *testing.T) {
	tests := []struct {
		name  string
		input ThingType
		want  bool
	}{
		{name: "person", input: ThingTypePerson, want: true},
		{name: "product", input: ThingTypeProduct, want: true},
		{name: "workflow task", input: "task", want: true},
		{name: "unknown", input: "starship", want: false},
		{name: "empty", input: "", want: false},
		{name: "case sensitive", input: "Person", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.input.Valid(); got != tt.want {
				t.Fatalf("expected Valid()=%v for %q, got %v", tt.want, tt.input, got)
			}
		})
	}
}

func TestThingTypePerson(t *testing.T) {
	if !ThingTypePerson.Person() {
		t.Fatal("expected person to be in the people category")
	}
	if !ThingTypeCreator.Person() {
		t.Fatal("expected creator to be in the people category")
	}
	if ThingTypeProduct.Person() {
		t.Fatal("expected product to be outside the people category")
	}
}

func TestConnectionTypeValid(t *testing.T) {
	for _, ct := range []ConnectionType{ConnectionTypeOwns, "following", "enrolled_in", "fulfilled"} {
		if !ct.Valid() {
			t.Fatalf("expected %q to be a valid connection type", ct)
		}
	}
	if ConnectionType("likes").Valid() {
		t.Fatal("expected likes to be invalid")
	}
}

func TestEventTypeValid(t *testing.T) {
	for _, et := range []EventType{
		EventGroupCreated, EventThingArchived, EventConnectionDeleted,
		EventKnowledgeLinked, "user_registered", "payment_event", "plan_complete",
	} {
		if !et.Valid() {
			t.Fatalf("expected %q to be a valid event type", et)
		}
	}
	if EventType("thing_exploded").Valid() {
		t.Fatal("expected thing_exploded to be invalid")
	}
}

func TestGroupTypeValid(t *testing.T) {
	if !GroupTypeBusiness.Valid() {
		t.Fatal("expected business to be valid")
	}
	if GroupType("club").Valid() {
		t.Fatal("expected club to be invalid")
	}
	if got := len(GroupTypes()); got != 6 {
		t.Fatalf("expected 6 group types, got %d", got)
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range ThingStatuses() {
		if !s.Valid() {
			t.Fatalf("expected %q to be a valid thing status", s)
		}
	}
	if ThingStatus("deleted").Valid() {
		t.Fatal("expected deleted to be invalid")
	}
	if !GroupStatusArchived.Valid() {
		t.Fatal("expected archived to be a valid group status")
	}
	if GroupStatus("paused").Valid() {
		t.Fatal("expected paused to be invalid")
	}
}

func TestKnowledgeTypeValid(t *testing.T) {
	for _, kt := range KnowledgeTypes() {
		if !kt.Valid() {
			t.Fatalf("expected %q to be a valid knowledge type", kt)
		}
	}
	if KnowledgeType("summary").Valid() {
		t.Fatal("expected summary to be invalid")
	}
}

func TestRoleAndProtocolValid(t *testing.T) {
	if !RolePlatformOwner.Valid() || !RoleCustomer.Valid() {
		t.Fatal("expected built-in roles to validate")
	}
	if Role("admin").Valid() {
		t.Fatal("expected admin to be invalid")
	}
	if !Protocol("a2a").Valid() {
		t.Fatal("expected a2a to be a valid protocol")
	}
	if Protocol("http").Valid() {
		t.Fatal("expected http to be invalid")
	}
}

func TestTaxonomyListsAreCopies(t *testing.T) {
	list := ThingTypes()
	list[0] = "mutated"
	if !ThingType("person").Valid() {
		t.Fatal("mutating the returned slice must not affect validation")
	}
}
