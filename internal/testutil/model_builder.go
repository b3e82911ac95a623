package testutil

import (
	"github.com/zacbakerr/werewolf/model"
)

// CycleReplies returns the four backend answers of one deliberation cycle
// ending in final.
func CycleReplies(final string) []string {
	return []string{"thinking it over", "a first draft", "the draft looks fine", final}
}

// ScriptedModel builds a MockModel whose replies are returned in order.
func ScriptedModel(texts ...string) *model.MockModel {
	m := model.NewMockModel("scripted", "mock")
	m.ScriptText(texts...)
	return m
}
