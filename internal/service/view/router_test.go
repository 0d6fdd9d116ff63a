package view

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zhouzirui/persona-chat/internal/model/persona"
)

func TestRouterTransitions(t *testing.T) {
	r := NewRouter(persona.NewMemoryStore(persona.Seed()))
	assert.Equal(t, State{Screen: ScreenSelection}, r.State())

	assert.True(t, r.Select("mike-ross"))
	assert.Equal(t, State{Screen: ScreenChat, CharacterID: "mike-ross"}, r.State())

	assert.False(t, r.Select("dexter"), "chat -> chat is not a transition")
	assert.Equal(t, "mike-ross", r.State().CharacterID)

	assert.True(t, r.Back())
	assert.Equal(t, ScreenSelection, r.State().Screen)
	assert.False(t, r.Back())
}

func TestRouterIgnoresUnknownCharacter(t *testing.T) {
	r := NewRouter(persona.NewMemoryStore(persona.Seed()))
	assert.False(t, r.Select("no-such-person"))
	assert.Equal(t, State{Screen: ScreenSelection}, r.State())
}

func TestRouterWithoutRegistry(t *testing.T) {
	r := NewRouter(nil)
	assert.False(t, r.Select("dexter"))
	assert.Equal(t, ScreenSelection, r.State().Screen)
}
