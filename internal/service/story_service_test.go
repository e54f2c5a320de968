package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"storycraft/internal/model"
	"storycraft/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dragonText = "Ember the dragon had never baked anything, but the smell of bread from the village below would not leave her alone."

func newTestService(t *testing.T, gen StoryGenerator) (*StoryService, *storage.MemoryStorage) {
	t.Helper()
	store := storage.NewMemoryStorage()
	require.NoError(t, store.Init())
	return NewStoryService(store, gen, true), store
}

func TestCreateDragonStory(t *testing.T) {
	gen := &fakeGenerator{text: dragonText}
	svc, _ := newTestService(t, gen)
	ctx := context.Background()

	story, err := svc.Create(ctx, RawInput{
		Prompt: "A dragon learns to bake bread",
		Genre:  "fantasy",
		Length: "short",
	})
	require.NoError(t, err)
	assert.Equal(t, "1", story.ID)

	require.Len(t, gen.requests, 1)
	assert.Equal(t, model.StoryRequest{
		Prompt: "A dragon learns to bake bread",
		Genre:  model.GenreFantasy,
		Length: model.LengthShort,
	}, gen.requests[0])

	got, err := svc.GetStory(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "A dragon learns to bake bread", got.Prompt)
	assert.Equal(t, model.GenreFantasy, got.Genre)
	assert.Equal(t, model.LengthShort, got.Length)
	assert.Equal(t, dragonText, got.Content)
	assert.Equal(t, "A dragon learns to bake bread", got.Title)
}

func TestCreateWithUploadUsesFileContent(t *testing.T) {
	gen := &fakeGenerator{text: dragonText}
	svc, _ := newTestService(t, gen)

	story, err := svc.Create(context.Background(), RawInput{Prompt: "typed", FileContent: " from the file "})
	require.NoError(t, err)

	assert.Equal(t, "from the file", story.Prompt)
	assert.Equal(t, "from the file", gen.requests[0].Prompt)
}

func TestCreateEmptyPromptNeverCallsGenerator(t *testing.T) {
	gen := &fakeGenerator{text: dragonText}
	svc, store := newTestService(t, gen)

	_, err := svc.Create(context.Background(), RawInput{Prompt: "  ", FileContent: ""})
	assert.Equal(t, model.KindValidation, model.KindOf(err))
	assert.Equal(t, 0, gen.requestCount())

	stories, _ := store.ListStories(context.Background())
	assert.Empty(t, stories)
}

func TestCreateGenerationFailureStoresNothing(t *testing.T) {
	chat := &fakeChatModel{block: true}
	cfg := testGenConfig()
	cfg.Timeout = 10 * time.Millisecond
	svc, store := newTestService(t, newTestGenerator(t, chat, cfg))

	_, err := svc.Create(context.Background(), RawInput{Prompt: "A dragon learns to bake bread"})
	require.Error(t, err)
	assert.Equal(t, model.KindGeneration, model.KindOf(err))

	stories, err := store.ListStories(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stories)
}

func TestCreateStorageFailureAfterGeneration(t *testing.T) {
	gen := &fakeGenerator{text: dragonText}
	diskFull := errors.New("disk full")
	store := &failingStore{MemoryStorage: storage.NewMemoryStorage(), err: diskFull}
	svc := NewStoryService(store, gen, false)

	_, err := svc.Create(context.Background(), RawInput{Prompt: "A dragon learns to bake bread"})
	require.Error(t, err)
	assert.Equal(t, model.KindStorage, model.KindOf(err))
	assert.ErrorIs(t, err, diskFull)
	assert.Equal(t, 1, gen.requestCount(), "generation ran before the store failed")

	stories, err := store.ListStories(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stories)
}

func TestCreateCleansPlanningPreamble(t *testing.T) {
	gen := &fakeGenerator{text: "Okay, the user wants a dragon story.\n\n" + emberStory}
	svc, _ := newTestService(t, gen)

	story, err := svc.Create(context.Background(), RawInput{Prompt: "dragon"})
	require.NoError(t, err)
	assert.Equal(t, emberStory, story.Content)
}

func TestGetStoryNotFound(t *testing.T) {
	svc, _ := newTestService(t, &fakeGenerator{text: dragonText})

	_, err := svc.GetStory(context.Background(), "99")
	assert.ErrorIs(t, err, storage.ErrStoryNotFound)
}

func TestListStoriesPaginates(t *testing.T) {
	gen := &fakeGenerator{text: dragonText}
	svc, _ := newTestService(t, gen)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.Create(ctx, RawInput{Prompt: fmt.Sprintf("prompt %d", i)})
		require.NoError(t, err)
	}

	page, total, err := svc.ListStories(ctx, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, "5", page[0].ID)
	assert.Equal(t, "4", page[1].ID)

	page, _, err = svc.ListStories(ctx, 4, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "1", page[0].ID)

	page, _, err = svc.ListStories(ctx, 10, 2)
	require.NoError(t, err)
	assert.Empty(t, page)

	_, _, err = svc.ListStories(ctx, -1, 2)
	assert.Equal(t, model.KindValidation, model.KindOf(err))
}
