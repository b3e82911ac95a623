package core

import (
	"reflect"
	"testing"
)

func TestMentionedPlayers(t *testing.T) {
	roster := []string{"bob", "carol", "dave", "al"}

	got := MentionedPlayers("I think Dave lied, and carol agreed with dave. Bobby is fine.", roster)
	want := []string{"dave", "carol"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	if got := MentionedPlayers("alice and albert", roster); len(got) != 0 {
		t.Fatalf("expected no whole-word match, got %v", got)
	}

	if got := MentionedPlayers("vote: bob.", roster); !reflect.DeepEqual(got, []string{"bob"}) {
		t.Fatalf("punctuation should delimit names, got %v", got)
	}
}

func TestFirstMentioned(t *testing.T) {
	name, ok := FirstMentioned("carol, then bob", []string{"bob", "carol"})
	if !ok || name != "carol" {
		t.Fatalf("got %q, %v", name, ok)
	}
	if _, ok := FirstMentioned("nobody", []string{"bob"}); ok {
		t.Fatal("expected no match")
	}
	if _, ok := FirstMentioned("bob", nil); ok {
		t.Fatal("expected no match on empty roster")
	}
}
