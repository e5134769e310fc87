package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"edulearn_backend/internal/config"
	"edulearn_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocalAIService() *AIService {
	return NewAIService(config.AIConfig{})
}

func TestGenerateQuestionsLocalMultipleChoice(t *testing.T) {
	svc := newLocalAIService()
	content := "Neural networks are powerful models. They learn hierarchical representations from data."

	questions := svc.GenerateQuestions(context.Background(), content, model.Easy, model.MultipleChoice, 2)
	require.Len(t, questions, 2)

	first := questions[0]
	assert.Equal(t, "What is the main concept discussed in: 'Neural networks are powerful models'?", first.Text)
	assert.Equal(t, model.MultipleChoice, first.Type)
	assert.Equal(t, "Neural", first.CorrectAnswer)
	require.NotEmpty(t, first.Options)
	assert.Equal(t, first.CorrectAnswer, first.Options[0])
	assert.LessOrEqual(t, len(first.Options), 4)
	assert.Equal(t, "The main concept is Neural as mentioned in the text.", first.Explanation)
	assert.Equal(t, model.Easy, first.Difficulty)
}

func TestGenerateQuestionsLocalShortAnswer(t *testing.T) {
	svc := newLocalAIService()
	content := "Backpropagation adjusts network weights using gradients."

	questions := svc.GenerateQuestions(context.Background(), content, model.Medium, model.ShortAnswer, 1)
	require.Len(t, questions, 1)

	q := questions[0]
	assert.Equal(t, model.ShortAnswer, q.Type)
	assert.Equal(t, "Backpropagation", q.CorrectAnswer)
	assert.Contains(t, q.Text, "Explain the concept of Backpropagation")
	assert.Empty(t, q.Options)
}

func TestGenerateQuestionsDeterministic(t *testing.T) {
	svc := newLocalAIService()
	content := "Gradient descent minimizes the loss function. Learning rates control update sizes."

	first := svc.GenerateQuestions(context.Background(), content, model.Hard, model.MultipleChoice, 2)
	second := svc.GenerateQuestions(context.Background(), content, model.Hard, model.MultipleChoice, 2)
	assert.Equal(t, first, second)
}

func TestGenerateQuestionsFallbackWhenNoKeywords(t *testing.T) {
	svc := newLocalAIService()
	// 每句关键词不足两个，本地启发式产不出题，走兜底模板
	content := "A b c. D e f."

	questions := svc.GenerateQuestions(context.Background(), content, model.Easy, model.MultipleChoice, 2)
	require.Len(t, questions, 2)
	for _, q := range questions {
		assert.Equal(t, []string{"Topic A", "Topic B", "Topic C", "Topic D"}, q.Options)
		assert.Equal(t, "Topic A", q.CorrectAnswer)
		assert.Equal(t, "This is the main topic as mentioned in the text.", q.Explanation)
	}
}

func TestGenerateQuestionsFallbackShortAnswer(t *testing.T) {
	svc := newLocalAIService()

	questions := svc.GenerateQuestions(context.Background(), "A b. C d.", model.Easy, model.ShortAnswer, 2)
	require.Len(t, questions, 2)
	for _, q := range questions {
		assert.Equal(t, "Main concept", q.CorrectAnswer)
		assert.Equal(t, model.ShortAnswer, q.Type)
	}
}

func TestGenerateQuestionsRemoteSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"Transformers process sequences using attention mechanisms"}}]}`))
	}))
	defer server.Close()

	svc := NewAIService(config.AIConfig{BaseURL: server.URL, APIKey: "test-key", Model: "test-model"})

	questions := svc.GenerateQuestions(context.Background(), "irrelevant content here", model.Medium, model.MultipleChoice, 1)
	require.Len(t, questions, 1)
	assert.Equal(t, "Transformers", questions[0].CorrectAnswer)
}

func TestGenerateQuestionsRemoteFailureDegradesToLocal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := NewAIService(config.AIConfig{BaseURL: server.URL, APIKey: "test-key"})
	content := "Convolutional layers extract spatial features efficiently."

	questions := svc.GenerateQuestions(context.Background(), content, model.Easy, model.MultipleChoice, 1)
	require.Len(t, questions, 1)
	assert.Equal(t, "Convolutional", questions[0].CorrectAnswer)
}

func TestAnalyzeTextDifficulty(t *testing.T) {
	svc := newLocalAIService()

	assert.Equal(t, model.Easy, svc.AnalyzeTextDifficulty(""))
	assert.Equal(t, model.Easy, svc.AnalyzeTextDifficulty("Cats sit. Dogs run."))

	hard := "Epistemological frameworks necessitate rigorous methodological scrutiny throughout protracted interdisciplinary collaborations examining heterogeneous computational architectures underlying contemporary distributed infrastructure deployments everywhere."
	assert.Equal(t, model.Hard, svc.AnalyzeTextDifficulty(hard))
}

func TestExtractKeyConcepts(t *testing.T) {
	svc := newLocalAIService()

	concepts := svc.ExtractKeyConcepts("Gradient gradient descent optimizes neural networks with that and for banana12")
	assert.Contains(t, concepts, "gradient")
	assert.Contains(t, concepts, "descent")
	assert.Contains(t, concepts, "optimizes")
	assert.Contains(t, concepts, "networks")
	assert.Contains(t, concepts, "neural")
	assert.NotContains(t, concepts, "banana12")
	assert.NotContains(t, concepts, "that")
	assert.LessOrEqual(t, len(concepts), 10)

	// gradient 大小写去重后只出现一次
	count := 0
	for _, c := range concepts {
		if c == "gradient" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestUpdateConfigDuringConcurrentGeneration(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"Gradient descent minimizes training losses"}}]}`))
	}))
	defer server.Close()

	svc := NewAIService(config.AIConfig{BaseURL: server.URL, APIKey: "test-key", TimeoutSeconds: 5})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			questions := svc.GenerateQuestions(context.Background(), "Gradient descent minimizes losses.", model.Easy, model.MultipleChoice, 1)
			assert.NotEmpty(t, questions)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			svc.UpdateConfig(config.AIConfig{BaseURL: server.URL, APIKey: "test-key", TimeoutSeconds: i%10 + 1})
		}
	}()
	wg.Wait()

	cfg, client := svc.snapshot()
	assert.Equal(t, "test-key", cfg.APIKey)
	require.NotNil(t, client)
}

func TestRemotePromptTruncatesOnRuneBoundary(t *testing.T) {
	var prompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		prompt = req.Messages[1].Content
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"Backpropagation updates weights through layers"}}]}`))
	}))
	defer server.Close()

	svc := NewAIService(config.AIConfig{BaseURL: server.URL, APIKey: "test-key"})

	// 300 个三字节字符，按字节截断会落在字符中间
	content := strings.Repeat("习", 300)
	questions := svc.GenerateQuestions(context.Background(), content, model.Easy, model.ShortAnswer, 1)
	require.NotEmpty(t, questions)

	assert.True(t, utf8.ValidString(prompt))
	assert.Contains(t, prompt, strings.Repeat("习", 200))
	assert.NotContains(t, prompt, strings.Repeat("习", 201))
}
