package workflow_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	llmmocks "ventureforge/internal/llm/mocks"
	"ventureforge/internal/model"
	"ventureforge/internal/repository"
	repomocks "ventureforge/internal/repository/mocks"
	"ventureforge/internal/workflow"
)

func validDemoConfigJSON() (json.RawMessage, error) {
	return json.Marshal(validDemoConfig())
}

func collectWorkflowEvents(run func(chan<- model.WorkflowEvent)) []model.WorkflowEvent {
	events := make(chan model.WorkflowEvent, 64)
	run(events)

	var out []model.WorkflowEvent
	for ev := range events {
		out = append(out, ev)
	}
	return out
}

func TestService_StreamOffer_ReusesStoredOffer(t *testing.T) {
	repo := repomocks.NewMockSessionRepository(t)
	provider := llmmocks.NewMockProvider(t)

	stored := &model.AssembledOffer{
		TransformationFrom: "word of mouth only",
		GuaranteeText:      "ten jobs or you stop paying",
	}
	repo.On("Get", mock.Anything, "s1").Return(&model.SessionRecord{
		ID:                   "s1",
		ChosenRecommendation: testNiche(),
		Offer:                stored,
	}, nil).Once()
	repo.On("Patch", mock.Anything, "s1", mock.Anything).Return(nil).Once()

	svc := workflow.NewService(repo, provider, "test-model")
	events := collectWorkflowEvents(func(ch chan<- model.WorkflowEvent) {
		svc.StreamOffer(context.Background(), "s1", ch)
	})

	require.Len(t, events, 1)
	assert.Equal(t, model.WorkflowComplete, events[0].Type)
	assert.Same(t, stored, events[0].Result)
}

func TestService_StreamOffer_MissingSession(t *testing.T) {
	repo := repomocks.NewMockSessionRepository(t)
	repo.On("Get", mock.Anything, "gone").Return(nil, repository.ErrNotFound).Once()

	svc := workflow.NewService(repo, llmmocks.NewMockProvider(t), "test-model")
	events := collectWorkflowEvents(func(ch chan<- model.WorkflowEvent) {
		svc.StreamOffer(context.Background(), "gone", ch)
	})

	require.Len(t, events, 1)
	assert.Equal(t, model.WorkflowError, events[0].Type)
}

func TestService_StreamOffer_NoNicheYieldsError(t *testing.T) {
	repo := repomocks.NewMockSessionRepository(t)
	repo.On("Get", mock.Anything, "s1").Return(&model.SessionRecord{ID: "s1"}, nil).Once()

	svc := workflow.NewService(repo, llmmocks.NewMockProvider(t), "test-model")
	events := collectWorkflowEvents(func(ch chan<- model.WorkflowEvent) {
		svc.StreamOffer(context.Background(), "s1", ch)
	})

	require.NotEmpty(t, events)
	assert.Equal(t, model.WorkflowError, events[len(events)-1].Type)
}

func TestService_StreamDemo_CompletesSession(t *testing.T) {
	repo := repomocks.NewMockSessionRepository(t)
	provider := llmmocks.NewMockProvider(t)

	offer := testOffer()
	repo.On("Get", mock.Anything, "s1").Return(&model.SessionRecord{
		ID:                   "s1",
		ChosenRecommendation: testNiche(),
		Offer:                offer,
	}, nil).Once()

	config, err := validDemoConfigJSON()
	require.NoError(t, err)
	provider.On("GenerateStructured", mock.Anything, mock.Anything).Return(config, nil).Once()

	repo.On("Patch", mock.Anything, "s1", mock.MatchedBy(func(fields map[string]any) bool {
		_, hasConfig := fields["demo_config"]
		return hasConfig && fields["status"] == model.StatusComplete
	})).Return(nil).Once()

	svc := workflow.NewService(repo, provider, "test-model")
	events := collectWorkflowEvents(func(ch chan<- model.WorkflowEvent) {
		svc.StreamDemo(context.Background(), "s1", ch)
	})

	require.NotEmpty(t, events)
	var progress, stepsDone int
	for _, ev := range events[:len(events)-1] {
		switch ev.Type {
		case model.WorkflowProgress:
			progress++
		case model.WorkflowStepComplete:
			stepsDone++
		}
	}
	assert.Greater(t, progress, 0)
	assert.Greater(t, stepsDone, 0)

	last := events[len(events)-1]
	assert.Equal(t, model.WorkflowComplete, last.Type)
	result, ok := last.Result.(*model.DemoConfig)
	require.True(t, ok)
	assert.Equal(t, "roofing-contractors", result.NicheSlug)
}
