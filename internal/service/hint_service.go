package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/yourusername/quizhub-api/internal/config"
)

// Типы результата подсказки
const (
	HintTypeAIGenerated = "ai_generated"
	HintTypeFallback    = "fallback"
)

// Уровни подсказок
const (
	HintLevelSubtle   = "subtle"
	HintLevelModerate = "moderate"
	HintLevelStrong   = "strong"
)

// HintResult - одна подсказка
type HintResult struct {
	Level string `json:"level,omitempty"`
	Text  string `json:"text"`
	Type  string `json:"type"`
}

// HintService генерирует подсказки, объяснения и учебные рекомендации через
// OpenAI-совместимый API. При недоступности API возвращает заготовленные
// тексты с типом "fallback" - запрос пользователя никогда не падает из-за
// внешнего сервиса.
type HintService struct {
	client  *http.Client
	apiKey  string
	baseURL string
	model   string
}

// NewHintService создает новый сервис подсказок
func NewHintService(cfg config.AIConfig) *HintService {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &HintService{
		client:  &http.Client{Timeout: timeout},
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		model:   cfg.Model,
	}
}

// IsAvailable проверяет, настроен ли ключ API
func (s *HintService) IsAvailable() bool {
	return s.apiKey != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// complete выполняет один запрос к chat completions API
func (s *HintService) complete(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error) {
	if !s.IsAvailable() {
		return "", fmt.Errorf("AI API key is not configured")
	}

	body, err := json.Marshal(chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("AI API returned status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("AI API returned no choices")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// GenerateHint генерирует одну подсказку к вопросу
func (s *HintService) GenerateHint(ctx context.Context, question, category, difficulty, correctAnswer, level string) *HintResult {
	if level == "" {
		level = HintLevelModerate
	}

	system := "You are an expert educational assistant. Provide helpful, educational hints that guide students toward the correct answer without giving it away directly. Make hints engaging and encouraging."
	prompt := buildHintPrompt(question, category, difficulty, correctAnswer, level)

	text, err := s.complete(ctx, system, prompt, 150, 0.7)
	if err != nil {
		log.Printf("[HintService] Ошибка генерации подсказки: %v", err)
		return &HintResult{Level: level, Text: fallbackHint(category, difficulty), Type: HintTypeFallback}
	}
	return &HintResult{Level: level, Text: text, Type: HintTypeAIGenerated}
}

// GenerateMultipleHints генерирует подсказки трех уровней, от лёгкой к явной
func (s *HintService) GenerateMultipleHints(ctx context.Context, question, category, difficulty, correctAnswer string) []HintResult {
	levels := []string{HintLevelSubtle, HintLevelModerate, HintLevelStrong}
	hints := make([]HintResult, 0, len(levels))
	for _, level := range levels {
		hints = append(hints, *s.GenerateHint(ctx, question, category, difficulty, correctAnswer, level))
	}
	return hints
}

// GenerateExplanation объясняет, почему ответ верен или неверен
func (s *HintService) GenerateExplanation(ctx context.Context, question, correctAnswer, userAnswer string, isCorrect bool) *HintResult {
	system := "You are an expert educator. Provide clear, educational explanations for why answers are correct or incorrect. Help students understand the concepts."
	prompt := buildExplanationPrompt(question, correctAnswer, userAnswer, isCorrect)

	text, err := s.complete(ctx, system, prompt, 250, 0.7)
	if err != nil {
		log.Printf("[HintService] Ошибка генерации объяснения: %v", err)
		return &HintResult{Text: fallbackExplanation(isCorrect), Type: HintTypeFallback}
	}
	return &HintResult{Text: text, Type: HintTypeAIGenerated}
}

// GenerateStudySuggestions формирует персональные учебные рекомендации
func (s *HintService) GenerateStudySuggestions(ctx context.Context, question, category, difficulty, userAnswer string, isCorrect bool) *HintResult {
	system := "You are an expert educational tutor. Provide personalized study suggestions and learning resources based on the student's performance. Be encouraging and specific."
	prompt := buildStudyPrompt(question, category, difficulty, userAnswer, isCorrect)

	text, err := s.complete(ctx, system, prompt, 200, 0.8)
	if err != nil {
		log.Printf("[HintService] Ошибка генерации рекомендаций: %v", err)
		return &HintResult{Text: fallbackStudySuggestions(category, isCorrect), Type: HintTypeFallback}
	}
	return &HintResult{Text: text, Type: HintTypeAIGenerated}
}

var hintLevelDescriptions = map[string]string{
	HintLevelSubtle:   "very subtle hint that gently guides without revealing much",
	HintLevelModerate: "moderate hint that provides helpful direction",
	HintLevelStrong:   "stronger hint that gives more specific guidance",
}

func buildHintPrompt(question, category, difficulty, correctAnswer, level string) string {
	return fmt.Sprintf(`Generate a %s for this %s level %s question:

Question: %s
Correct Answer: %s

Provide a %s hint that helps the student think about the answer without giving it away. Make it educational and encouraging.`,
		hintLevelDescriptions[level], difficulty, category, question, correctAnswer, level)
}

func buildExplanationPrompt(question, correctAnswer, userAnswer string, isCorrect bool) string {
	context := "The student answered incorrectly. Explain why the correct answer is right and help clarify the concept."
	if isCorrect {
		context = "The student answered correctly. Explain why this answer is right and reinforce the concept."
	}
	return fmt.Sprintf(`Question: %s
Correct Answer: %s
Student's Answer: %s

%s

Provide a clear, educational explanation that helps the student understand the concept.`,
		question, correctAnswer, userAnswer, context)
}

func buildStudyPrompt(question, category, difficulty, userAnswer string, isCorrect bool) string {
	performance := "incorrectly"
	if isCorrect {
		performance = "correctly"
	}
	return fmt.Sprintf(`The student answered this %s level %s question %s:

Question: %s
Student's Answer: %s

Provide 2-3 specific study suggestions and learning resources to help improve understanding of this topic. Be encouraging and actionable.`,
		difficulty, category, performance, question, userAnswer)
}

// Заготовленные подсказки на случай недоступности AI
var fallbackHints = map[string]map[string]string{
	"general": {
		"easy":   "Think about the basic concepts in this field.",
		"medium": "Consider the key principles that apply here.",
		"hard":   "This requires deeper understanding of the topic.",
	},
	"science": {
		"easy":   "Remember the fundamental scientific principles.",
		"medium": "Consider the scientific method and evidence.",
		"hard":   "This involves advanced scientific concepts.",
	},
	"history": {
		"easy":   "Think about the time period and context.",
		"medium": "Consider the historical significance and events.",
		"hard":   "This requires detailed historical knowledge.",
	},
	"geography": {
		"easy":   "Think about location and physical features.",
		"medium": "Consider geographical patterns and relationships.",
		"hard":   "This involves complex geographical concepts.",
	},
}

func fallbackHint(category, difficulty string) string {
	categoryHints, ok := fallbackHints[strings.ToLower(category)]
	if !ok {
		categoryHints = fallbackHints["general"]
	}
	if text, ok := categoryHints[strings.ToLower(difficulty)]; ok {
		return text
	}
	return categoryHints["medium"]
}

func fallbackExplanation(isCorrect bool) string {
	if isCorrect {
		return "Your answer is correct! You demonstrated good understanding of the concept."
	}
	return "The correct answer was different. Review the topic to better understand the concept."
}

func fallbackStudySuggestions(category string, isCorrect bool) string {
	if isCorrect {
		return fmt.Sprintf("Great job! To further improve your understanding of %s, consider reviewing related topics and practicing with more challenging questions.", category)
	}
	return fmt.Sprintf("To improve your %s knowledge, review the basic concepts, practice with similar questions, and consider using study resources.", category)
}
