package service

import (
	"context"
	"errors"
	"sync"

	"storycraft/internal/model"
	"storycraft/internal/storage"

	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// fakeChatModel records every call and answers with reply or err.
type fakeChatModel struct {
	mu    sync.Mutex
	reply string
	err   error
	block bool
	calls [][]*schema.Message
	opts  []*einoModel.Options
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einoModel.Option) (*schema.Message, error) {
	f.mu.Lock()
	f.calls = append(f.calls, input)
	f.opts = append(f.opts, einoModel.GetCommonOptions(&einoModel.Options{}, opts...))
	reply, err, block := f.reply, f.err, f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return schema.AssistantMessage(reply, nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einoModel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not supported")
}

func (f *fakeChatModel) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeGenerator skips the chat model entirely.
type fakeGenerator struct {
	mu       sync.Mutex
	text     string
	err      error
	requests []model.StoryRequest
	gate     chan struct{}
}

func (f *fakeGenerator) Generate(ctx context.Context, req model.StoryRequest) (*model.Generation, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	text, err, gate := f.text, f.err, f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, model.NewGenerationError("cancelled", ctx.Err())
		}
	}
	if err != nil {
		return nil, err
	}

	genre, length := req.Genre, req.Length
	if genre == model.GenreAuto {
		genre = model.GenreGeneral
	}
	if length == model.LengthAuto {
		length = model.LengthMedium
	}
	return &model.Generation{Text: text, Genre: genre, Length: length, Tone: ToneNeutral, Model: "fake"}, nil
}

func (f *fakeGenerator) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// failingStore rejects every write.
type failingStore struct {
	*storage.MemoryStorage
	err error
}

func (s *failingStore) CreateStory(ctx context.Context, story *model.Story) error {
	return s.err
}
