package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode"

	"edulearn_backend/internal/config"
	"edulearn_backend/internal/model"
	"edulearn_backend/pkg/logger"
	"edulearn_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// GeneratedQuestion AI 生成的候选题目，尚未落库
type GeneratedQuestion struct {
	Text          string
	Type          model.QuestionType
	Options       []string
	CorrectAnswer string
	Explanation   string
	Difficulty    model.QuizDifficulty
}

type AIService struct {
	mu     sync.RWMutex
	config config.AIConfig
	client *http.Client
}

func newAIClient(timeoutSeconds int) *http.Client {
	timeout := time.Duration(timeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

func NewAIService(cfg config.AIConfig) *AIService {
	return &AIService{
		config: cfg,
		client: newAIClient(cfg.TimeoutSeconds),
	}
}

// UpdateConfig 配置热更新时整体换入新客户端，已持有旧客户端的请求不受影响
func (s *AIService) UpdateConfig(cfg config.AIConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg
	s.client = newAIClient(cfg.TimeoutSeconds)
}

// snapshot 同一次生成内配置与客户端保持一致
func (s *AIService) snapshot() (config.AIConfig, *http.Client) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config, s.client
}

type AIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionRequest struct {
	Model    string          `json:"model"`
	Messages []AIChatMessage `json:"messages"`
}

type ChatCompletionResponse struct {
	Choices []struct {
		Message AIChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// GenerateQuestions 三级降级：远程模型 -> 本地启发式 -> 固定兜底，永不返回空集
func (s *AIService) GenerateQuestions(ctx context.Context, content string, difficulty model.QuizDifficulty, questionType model.QuestionType, numberOfQuestions int) []GeneratedQuestion {
	cfg, client := s.snapshot()

	if cfg.APIKey != "" {
		questions, err := s.generateRemote(ctx, cfg, client, content, difficulty, questionType, numberOfQuestions)
		if err != nil {
			logger.Log.Warn("remote question generation failed, falling back to local heuristics", zap.Error(err))
		} else if len(questions) > 0 {
			monitoring.QuizGenerationCounter.WithLabelValues("remote").Inc()
			return questions
		}
	}

	if questions := s.generateLocal(content, difficulty, questionType, numberOfQuestions); len(questions) > 0 {
		monitoring.QuizGenerationCounter.WithLabelValues("local").Inc()
		return questions
	}

	monitoring.QuizGenerationCounter.WithLabelValues("fallback").Inc()
	return s.generateFallback(content, difficulty, questionType, numberOfQuestions)
}

func (s *AIService) generateRemote(ctx context.Context, cfg config.AIConfig, client *http.Client, content string, difficulty model.QuizDifficulty, questionType model.QuestionType, numberOfQuestions int) ([]GeneratedQuestion, error) {
	// 截断按字符计，避免把多字节字符切成非法 UTF-8
	snippet := content
	if runes := []rune(snippet); len(runes) > 200 {
		snippet = string(runes[:200])
	}

	questions := make([]GeneratedQuestion, 0, numberOfQuestions)
	for i := 0; i < numberOfQuestions; i++ {
		prompt := fmt.Sprintf("Generate a %s question about: %s", difficulty, snippet)
		generated, err := s.chat(ctx, cfg, client, prompt)
		if err != nil {
			return nil, err
		}

		var question *GeneratedQuestion
		if questionType == model.MultipleChoice || questionType == model.Mixed {
			question = buildMultipleChoiceQuestion(generated, difficulty)
		} else {
			question = buildShortAnswerQuestion(generated, difficulty)
		}
		if question != nil {
			questions = append(questions, *question)
		}
	}
	return questions, nil
}

func (s *AIService) chat(ctx context.Context, cfg config.AIConfig, client *http.Client, prompt string) (string, error) {
	reqBody := ChatCompletionRequest{
		Model: cfg.Model,
		Messages: []AIChatMessage{
			{Role: "system", Content: "You are an assistant that writes quiz questions for an online learning platform."},
			{Role: "user", Content: prompt},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", cfg.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("AI API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result ChatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", err
	}
	if result.Error != nil {
		return "", fmt.Errorf("AI API error: %s", result.Error.Message)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("AI returned no choices")
	}
	return result.Choices[0].Message.Content, nil
}

// generateLocal 基于句子切分与关键词抽取的本地出题，不依赖外部模型
func (s *AIService) generateLocal(content string, difficulty model.QuizDifficulty, questionType model.QuestionType, numberOfQuestions int) []GeneratedQuestion {
	sentences := splitSentences(content, 10)

	limit := numberOfQuestions
	if len(sentences) < limit {
		limit = len(sentences)
	}

	questions := make([]GeneratedQuestion, 0, limit)
	for i := 0; i < limit; i++ {
		sentence := strings.TrimSpace(sentences[i])
		if sentence == "" {
			continue
		}

		var question *GeneratedQuestion
		if questionType == model.MultipleChoice || questionType == model.Mixed {
			question = buildMultipleChoiceQuestion(sentence, difficulty)
		} else {
			question = buildShortAnswerQuestion(sentence, difficulty)
		}
		if question != nil {
			questions = append(questions, *question)
		}
	}
	return questions
}

func buildMultipleChoiceQuestion(sentence string, difficulty model.QuizDifficulty) *GeneratedQuestion {
	words := strings.Fields(sentence)
	keyWords := make([]string, 0, len(words))
	for _, word := range words {
		if len(word) > 4 && isAlpha(word) {
			keyWords = append(keyWords, word)
		}
	}

	// 关键词不足两个时无法构造干扰项
	if len(keyWords) < 2 {
		return nil
	}

	correct := keyWords[0]
	incorrect := keyWords[1:]
	if len(incorrect) > 3 {
		incorrect = incorrect[:3]
	}

	return &GeneratedQuestion{
		Text:          fmt.Sprintf("What is the main concept discussed in: '%s'?", sentence),
		Type:          model.MultipleChoice,
		Options:       append([]string{correct}, incorrect...),
		CorrectAnswer: correct,
		Explanation:   fmt.Sprintf("The main concept is %s as mentioned in the text.", correct),
		Difficulty:    difficulty,
	}
}

func buildShortAnswerQuestion(sentence string, difficulty model.QuizDifficulty) *GeneratedQuestion {
	words := strings.Fields(sentence)
	keyWord := "concept"
	if len(words) > 0 {
		keyWord = words[0]
	}

	return &GeneratedQuestion{
		Text:          fmt.Sprintf("Explain the concept of %s based on the following: '%s'", keyWord, sentence),
		Type:          model.ShortAnswer,
		CorrectAnswer: keyWord,
		Explanation:   fmt.Sprintf("The concept refers to %s as described in the text.", keyWord),
		Difficulty:    difficulty,
	}
}

// generateFallback 固定模板兜底，保证生成接口总有结果
func (s *AIService) generateFallback(content string, difficulty model.QuizDifficulty, questionType model.QuestionType, numberOfQuestions int) []GeneratedQuestion {
	sentences := splitSentences(content, numberOfQuestions)

	questions := make([]GeneratedQuestion, 0, len(sentences))
	for _, raw := range sentences {
		sentence := strings.TrimSpace(raw)
		if sentence == "" {
			continue
		}

		if questionType == model.MultipleChoice || questionType == model.Mixed {
			questions = append(questions, GeneratedQuestion{
				Text:          fmt.Sprintf("What is the main topic discussed in: '%s'?", sentence),
				Type:          model.MultipleChoice,
				Options:       []string{"Topic A", "Topic B", "Topic C", "Topic D"},
				CorrectAnswer: "Topic A",
				Explanation:   "This is the main topic as mentioned in the text.",
				Difficulty:    difficulty,
			})
		} else {
			questions = append(questions, GeneratedQuestion{
				Text:          fmt.Sprintf("Explain the main concept from: '%s'", sentence),
				Type:          model.ShortAnswer,
				CorrectAnswer: "Main concept",
				Explanation:   "This is the main concept as described in the text.",
				Difficulty:    difficulty,
			})
		}
	}
	return questions
}

// AnalyzeTextDifficulty 依据平均词长与平均句长粗略估计文本难度
func (s *AIService) AnalyzeTextDifficulty(text string) model.QuizDifficulty {
	words := strings.Fields(text)
	if len(words) == 0 {
		return model.Easy
	}

	totalLen := 0
	for _, word := range words {
		totalLen += len(word)
	}
	avgWordLength := float64(totalLen) / float64(len(words))

	sentenceCount := strings.Count(text, ".") + strings.Count(text, "!") + strings.Count(text, "?")
	avgSentenceLength := 0.0
	if sentenceCount > 0 {
		avgSentenceLength = float64(len(words)) / float64(sentenceCount)
	}

	switch {
	case avgWordLength > 6 && avgSentenceLength > 15:
		return model.Hard
	case avgWordLength > 4 && avgSentenceLength > 10:
		return model.Medium
	default:
		return model.Easy
	}
}

// ExtractKeyConcepts 抽取最多 10 个去重后的关键词
func (s *AIService) ExtractKeyConcepts(text string) []string {
	stopWords := map[string]bool{
		"the": true, "and": true, "for": true, "with": true, "that": true, "this": true,
	}

	seen := make(map[string]bool)
	concepts := make([]string, 0, 10)
	for _, word := range strings.Fields(text) {
		if len(word) <= 5 || !isAlpha(word) {
			continue
		}
		lower := strings.ToLower(word)
		if stopWords[lower] || seen[lower] {
			continue
		}
		seen[lower] = true
		concepts = append(concepts, lower)
		if len(concepts) == 10 {
			break
		}
	}
	return concepts
}

func splitSentences(content string, limit int) []string {
	sentences := strings.Split(content, ".")
	if len(sentences) > limit {
		sentences = sentences[:limit]
	}
	return sentences
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
