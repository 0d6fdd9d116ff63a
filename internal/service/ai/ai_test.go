package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/persona-chat/internal/model/persona"
)

func TestPlaceholderGeneratorKnownCharacter(t *testing.T) {
	g := &PlaceholderGenerator{pick: func(n int) int { return n - 1 }}

	got, err := g.Reply(context.Background(), "dexter", "hi")
	require.NoError(t, err)
	assert.Equal(t, "Tonight's the night... for a meaningful conversation, that is.", got)
}

func TestPlaceholderGeneratorRandomPickStaysInList(t *testing.T) {
	g := NewPlaceholderGenerator()
	lines := PlaceholderLines("walter-white")
	require.Len(t, lines, 4)

	for i := 0; i < 20; i++ {
		got, err := g.Reply(context.Background(), "walter-white", "hi")
		require.NoError(t, err)
		assert.Contains(t, lines, got)
	}
}

func TestPlaceholderGeneratorDefaultLine(t *testing.T) {
	got, err := NewPlaceholderGenerator().Reply(context.Background(), "louis-litt", "hi")
	require.NoError(t, err)
	assert.Equal(t, DefaultLine, got)
}

func TestSystemPrompt(t *testing.T) {
	store := persona.NewMemoryStore(persona.Seed())
	c, _ := store.FindByID("thomas-shelby")

	got := SystemPrompt(c)
	assert.Contains(t, got, "You are Thomas Shelby, The Peaky Blinder.")
	assert.Contains(t, got, "Birmingham Gang Leader")
	assert.Contains(t, got, "Family and business come first.")
}

type fakeModel struct {
	reply string
	err   error
	seen  []*schema.Message
}

func (m *fakeModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.seen = input
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(m.reply, nil), nil
}

func (m *fakeModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *fakeModel) BindTools([]*schema.ToolInfo) error { return nil }

func TestChainGeneratorReply(t *testing.T) {
	fake := &fakeModel{reply: "  Say my name.  "}
	g, err := NewChainGenerator(context.Background(), fake, persona.NewMemoryStore(persona.Seed()), nil)
	require.NoError(t, err)

	got, err := g.Reply(context.Background(), "walter-white", "who are you?")
	require.NoError(t, err)
	assert.Equal(t, "Say my name.", got)

	require.Len(t, fake.seen, 2)
	assert.Equal(t, schema.System, fake.seen[0].Role)
	assert.Contains(t, fake.seen[0].Content, "Walter White")
	assert.Equal(t, schema.User, fake.seen[1].Role)
	assert.Equal(t, "who are you?", fake.seen[1].Content)
}

func TestChainGeneratorUnknownCharacter(t *testing.T) {
	fake := &fakeModel{reply: "hello"}
	g, err := NewChainGenerator(context.Background(), fake, persona.NewMemoryStore(nil), nil)
	require.NoError(t, err)

	_, err = g.Reply(context.Background(), "saul", "hi")
	require.NoError(t, err)
	assert.Contains(t, fake.seen[0].Content, "You are saul")
}

func TestChainGeneratorModelError(t *testing.T) {
	fake := &fakeModel{err: errors.New("quota")}
	g, err := NewChainGenerator(context.Background(), fake, persona.NewMemoryStore(persona.Seed()), nil)
	require.NoError(t, err)

	_, err = g.Reply(context.Background(), "dexter", "hi")
	assert.Error(t, err)
}
