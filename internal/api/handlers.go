package api

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/wowoyong/voca-app/internal/apperr"
	"github.com/wowoyong/voca-app/internal/study"
	"github.com/wowoyong/voca-app/pkg/models"
)

// domain resolves the language domain, preferring fromBody over the query.
func (s *Server) domain(c echo.Context, fromBody string) (Domain, error) {
	lang := fromBody
	if lang == "" {
		lang = c.QueryParam("lang")
	}
	if lang == "" {
		lang = DefaultLang
	}
	d, ok := s.domains[lang]
	if !ok {
		return Domain{}, apperr.InvalidArgument("unknown language %q", lang)
	}
	return d, nil
}

func queryInt64(c echo.Context, name string) (int64, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, apperr.InvalidArgument("%s is required", name)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperr.InvalidArgument("%s must be an integer", name)
	}
	return v, nil
}

func queryInt(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.InvalidArgument("%s must be an integer", name)
	}
	return v, nil
}

func queryKind(c echo.Context) models.ItemKind {
	if k := c.QueryParam("kind"); k != "" {
		return models.ItemKind(k)
	}
	return models.KindWord
}

// bodyLang carries the language domain of a JSON body. Both "lang" and
// "language" are accepted.
type bodyLang struct {
	Lang     string `json:"lang"`
	Language string `json:"language"`
}

func (b bodyLang) name() string {
	if b.Lang != "" {
		return b.Lang
	}
	return b.Language
}

func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return apperr.InvalidArgument("malformed request body")
	}
	return nil
}

func (s *Server) health(c echo.Context) error {
	status := map[string]string{}
	healthy := true
	for lang, d := range s.domains {
		status[lang] = "ok"
		if d.Ping == nil {
			continue
		}
		if err := d.Ping(c.Request().Context()); err != nil {
			s.logger.Warn("health check failed", zap.String("lang", lang), zap.Error(err))
			status[lang] = "unavailable"
			healthy = false
		}
	}
	if !healthy {
		return c.JSON(http.StatusServiceUnavailable, status)
	}
	return c.JSON(http.StatusOK, status)
}

type rateRequest struct {
	bodyLang
	UserID      int64           `json:"userId"`
	ContentType models.ItemKind `json:"contentType"`
	ContentID   int64           `json:"contentId"`
	Quality     *int            `json:"quality"`
}

type rateResponse struct {
	Success bool                `json:"success"`
	State   *models.ReviewState `json:"state"`
}

func (s *Server) rate(c echo.Context) error {
	var req rateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Quality == nil {
		return apperr.InvalidArgument("quality is required")
	}
	d, err := s.domain(c, req.name())
	if err != nil {
		return err
	}

	state, err := d.Study.Rate(c.Request().Context(), study.RateRequest{
		UserID:  req.UserID,
		Kind:    req.ContentType,
		ItemID:  req.ContentID,
		Quality: *req.Quality,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rateResponse{Success: true, State: state})
}

type statsResponse struct {
	UserID int64 `json:"userId"`
	*study.Stats
}

func (s *Server) stats(c echo.Context) error {
	d, err := s.domain(c, "")
	if err != nil {
		return err
	}
	userID, err := queryInt64(c, "userId")
	if err != nil {
		return err
	}
	st, err := d.Study.GetStats(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, statsResponse{UserID: userID, Stats: st})
}

func (s *Server) today(c echo.Context) error {
	d, err := s.domain(c, "")
	if err != nil {
		return err
	}
	userID, err := queryInt64(c, "userId")
	if err != nil {
		return err
	}
	plan, err := d.Study.TodayPlan(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, plan)
}

type itemsResponse struct {
	Items []models.Item `json:"items"`
}

func (s *Server) flashcards(c echo.Context) error {
	d, err := s.domain(c, "")
	if err != nil {
		return err
	}
	userID, err := queryInt64(c, "userId")
	if err != nil {
		return err
	}
	count, err := queryInt(c, "count")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	var items []models.Item
	switch mode := c.QueryParam("mode"); mode {
	case "", "today":
		items, err = d.Study.SelectToday(ctx, userID, queryKind(c))
	case "review":
		items, err = d.Study.SelectPractice(ctx, userID, queryKind(c), count)
	default:
		return apperr.InvalidArgument("unknown mode %q", mode)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, itemsResponse{Items: items})
}

func (s *Server) review(c echo.Context) error {
	d, err := s.domain(c, "")
	if err != nil {
		return err
	}
	userID, err := queryInt64(c, "userId")
	if err != nil {
		return err
	}
	items, err := d.Study.SelectReview(c.Request().Context(), userID, queryKind(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, itemsResponse{Items: items})
}

type completeRequest struct {
	bodyLang
	UserID int64           `json:"userId"`
	Date   string          `json:"date"`
	Type   models.Activity `json:"type"`
}

func (s *Server) completeActivity(c echo.Context) error {
	var req completeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	d, err := s.domain(c, req.name())
	if err != nil {
		return err
	}
	sess, err := d.Study.MarkActivityComplete(c.Request().Context(), req.UserID, req.Date, req.Type)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "session": sess})
}

func (s *Server) calendar(c echo.Context) error {
	d, err := s.domain(c, "")
	if err != nil {
		return err
	}
	userID, err := queryInt64(c, "userId")
	if err != nil {
		return err
	}
	cal, err := d.Study.GetCalendar(c.Request().Context(), userID, c.QueryParam("from"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cal)
}

func (s *Server) quiz(c echo.Context) error {
	d, err := s.domain(c, "")
	if err != nil {
		return err
	}
	count, err := queryInt(c, "count")
	if err != nil {
		return err
	}
	questions, err := d.Quiz.Generate(c.Request().Context(), queryKind(c), count)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"questions": questions})
}

type quizAttemptRequest struct {
	bodyLang
	UserID    int64           `json:"userId"`
	Kind      models.ItemKind `json:"contentType"`
	ItemID    int64           `json:"wordId"`
	IsCorrect bool            `json:"isCorrect"`
}

func (s *Server) quizAttempt(c echo.Context) error {
	var req quizAttemptRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Kind == "" {
		req.Kind = models.KindWord
	}
	d, err := s.domain(c, req.name())
	if err != nil {
		return err
	}
	attempt, err := d.Study.RecordQuizAttempt(c.Request().Context(), req.UserID, req.Kind, req.ItemID, req.IsCorrect)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, attempt)
}

type notificationResponse struct {
	DailyTime string `json:"dailyTime"`
	Timezone  string `json:"timezone"`
	IsActive  bool   `json:"isActive"`
}

func toNotificationResponse(u *models.User) notificationResponse {
	return notificationResponse{DailyTime: u.DailyTime, Timezone: u.Timezone, IsActive: u.IsActive}
}

// notificationSettings reads from the default domain; updates are written
// to every domain so they agree.
func (s *Server) notificationSettings(c echo.Context) error {
	d, err := s.domain(c, DefaultLang)
	if err != nil {
		return err
	}
	userID, err := queryInt64(c, "userId")
	if err != nil {
		return err
	}
	u, err := d.Study.NotificationSettings(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toNotificationResponse(u))
}

type notificationRequest struct {
	UserID int64 `json:"userId"`
	study.NotificationUpdate
}

func (s *Server) updateNotificationSettings(c echo.Context) error {
	var req notificationRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.UserID == 0 {
		if id, err := queryInt64(c, "userId"); err == nil {
			req.UserID = id
		}
	}
	if err := req.NotificationUpdate.Validate(); err != nil {
		return err
	}

	u, err := s.updateAllDomains(c.Request().Context(), req.UserID, req.NotificationUpdate)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "settings": toNotificationResponse(u)})
}

// updateAllDomains applies u to every domain, DefaultLang first. A failure
// leaves the earlier domains updated; the update is idempotent, so the caller
// can retry it as a whole.
func (s *Server) updateAllDomains(ctx context.Context, userID int64, u study.NotificationUpdate) (*models.User, error) {
	var result *models.User
	for _, lang := range s.langs() {
		updated, err := s.domains[lang].Study.UpdateNotificationSettings(ctx, userID, u)
		if err != nil {
			return nil, &apperr.Error{
				Code:    apperr.CodeOf(err),
				Message: fmt.Sprintf("update %s notification settings", lang),
				Cause:   err,
			}
		}
		if result == nil {
			result = updated
		}
	}
	return result, nil
}

// langs lists the served domains, DefaultLang first and the rest sorted.
func (s *Server) langs() []string {
	out := make([]string, 0, len(s.domains))
	for lang := range s.domains {
		if lang != DefaultLang {
			out = append(out, lang)
		}
	}
	slices.Sort(out)
	if _, ok := s.domains[DefaultLang]; ok {
		out = append([]string{DefaultLang}, out...)
	}
	return out
}
