package service

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/quizhub-api/internal/config"
	"github.com/yourusername/quizhub-api/internal/domain/entity"
	apperrors "github.com/yourusername/quizhub-api/internal/pkg/errors"
)

// TriviaCategory - категория вопросов внешнего источника
type TriviaCategory struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// TriviaParams описывает запрос вопросов к внешнему источнику
type TriviaParams struct {
	Amount     int
	Category   int
	Difficulty string // "", "easy", "medium", "hard"
	Type       string // "", "multiple", "boolean"
}

// TriviaSource - источник вопросов для генерации викторин
type TriviaSource interface {
	GetCategories(ctx context.Context) ([]TriviaCategory, error)
	FetchQuestions(ctx context.Context, params TriviaParams) ([]entity.Question, error)
}

// TriviaService получает вопросы из Open Trivia DB
type TriviaService struct {
	client        *http.Client
	baseURL       string
	categoriesURL string
}

// NewTriviaService создает новый клиент Open Trivia DB
func NewTriviaService(cfg config.TriviaConfig) *TriviaService {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TriviaService{
		client:        &http.Client{Timeout: timeout},
		baseURL:       cfg.BaseURL,
		categoriesURL: cfg.CategoriesURL,
	}
}

type openTDBQuestion struct {
	Category         string   `json:"category"`
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

type openTDBResponse struct {
	ResponseCode int               `json:"response_code"`
	Results      []openTDBQuestion `json:"results"`
}

type openTDBCategoriesResponse struct {
	TriviaCategories []TriviaCategory `json:"trivia_categories"`
}

// GetCategories возвращает список категорий внешнего источника
func (s *TriviaService) GetCategories(ctx context.Context) ([]TriviaCategory, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.categoriesURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("не удалось запросить категории: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("источник вопросов вернул статус %d", resp.StatusCode)
	}

	var parsed openTDBCategoriesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("не удалось разобрать ответ источника категорий: %w", err)
	}
	return parsed.TriviaCategories, nil
}

// FetchQuestions запрашивает вопросы у внешнего источника и преобразует их
// во внутренние сущности: HTML-сущности декодируются, варианты ответов
// перемешиваются, стоимость вопроса выводится из сложности.
func (s *TriviaService) FetchQuestions(ctx context.Context, params TriviaParams) ([]entity.Question, error) {
	query := url.Values{}
	query.Set("amount", strconv.Itoa(params.Amount))
	if params.Category > 0 {
		query.Set("category", strconv.Itoa(params.Category))
	}
	if params.Difficulty != "" {
		query.Set("difficulty", params.Difficulty)
	}
	if params.Type != "" {
		query.Set("type", params.Type)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("не удалось запросить вопросы: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("источник вопросов вернул статус %d", resp.StatusCode)
	}

	var parsed openTDBResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("не удалось разобрать ответ источника вопросов: %w", err)
	}

	if err := responseCodeError(parsed.ResponseCode); err != nil {
		return nil, err
	}

	questions := make([]entity.Question, 0, len(parsed.Results))
	for _, raw := range parsed.Results {
		questions = append(questions, s.convertQuestion(raw))
	}
	log.Printf("[TriviaService] Получено %d вопросов от внешнего источника", len(questions))
	return questions, nil
}

// convertQuestion преобразует вопрос внешнего источника во внутреннюю сущность
func (s *TriviaService) convertQuestion(raw openTDBQuestion) entity.Question {
	correct := html.UnescapeString(raw.CorrectAnswer)
	incorrect := make(entity.StringArray, 0, len(raw.IncorrectAnswers))
	for _, ans := range raw.IncorrectAnswers {
		incorrect = append(incorrect, html.UnescapeString(ans))
	}

	all := make(entity.StringArray, 0, len(incorrect)+1)
	all = append(all, incorrect...)
	all = append(all, correct)
	rand.Shuffle(len(all), func(i, j int) {
		all[i], all[j] = all[j], all[i]
	})

	return entity.Question{
		QuestionID:       "q_" + uuid.NewString(),
		Text:             html.UnescapeString(raw.Question),
		Type:             raw.Type,
		Difficulty:       raw.Difficulty,
		Category:         html.UnescapeString(raw.Category),
		CorrectAnswer:    correct,
		IncorrectAnswers: incorrect,
		AllAnswers:       all,
		Points:           entity.PointsForDifficulty(raw.Difficulty),
	}
}

// responseCodeError преобразует код ответа Open Trivia DB в ошибку
func responseCodeError(code int) error {
	switch code {
	case 0:
		return nil
	case 1:
		return fmt.Errorf("%w: not enough questions available for the requested parameters", apperrors.ErrValidation)
	case 2:
		return fmt.Errorf("%w: invalid parameters for question source", apperrors.ErrValidation)
	case 3, 4:
		return fmt.Errorf("question source session error (code %d)", code)
	case 5:
		return fmt.Errorf("question source rate limit exceeded")
	default:
		return fmt.Errorf("question source returned unknown response code %d", code)
	}
}
