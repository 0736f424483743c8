// Package httpapi exposes the match manager over REST and streams match
// updates over websocket.
package httpapi

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/park285/xiangqi-bot/internal/match"
	"github.com/park285/xiangqi-bot/pkg/xiangqidto"
)

type Server struct {
	app    *fiber.App
	mgr    *match.Manager
	logger *zap.Logger
}

type createRequest struct {
	White string `json:"white"`
	Black string `json:"black"`
}

type moveRequest struct {
	Move string `json:"move"`
}

type clickRequest struct {
	Row    int  `json:"row"`
	Col    int  `json:"col"`
	Commit bool `json:"commit"`
}

type undoResponse struct {
	Undone string                 `json:"undone"`
	State  *xiangqidto.MatchState `json:"state"`
}

func New(mgr *match.Manager, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		app: fiber.New(fiber.Config{
			AppName:               "xiangqid",
			DisableStartupMessage: true,
			ErrorHandler:          errorHandler,
		}),
		mgr:    mgr,
		logger: logger,
	}
	s.routes()
	return s
}

// App returns the fiber application, for Listen and app.Test.
func (s *Server) App() *fiber.App { return s.app }

func (s *Server) Listen(addr string) error { return s.app.Listen(addr) }

func (s *Server) Shutdown() error { return s.app.Shutdown() }

func (s *Server) routes() {
	s.app.Use(s.accessLog)

	api := s.app.Group("/api")
	api.Get("/matches", s.list)
	api.Post("/matches", s.create)
	api.Get("/matches/:id", s.state)
	api.Delete("/matches/:id", s.remove)
	api.Post("/matches/:id/moves", s.play)
	api.Post("/matches/:id/click", s.click)
	api.Post("/matches/:id/undo", s.undo)
	api.Post("/matches/:id/resign", s.resign)
	api.Post("/matches/:id/flip", s.flip)
	api.Get("/matches/:id/history/:index", s.history)
	api.Get("/matches/:id/book", s.book)
	api.Get("/matches/:id/score/:index", s.score)

	s.app.Use("/ws", requireUpgrade)
	s.app.Get("/ws/matches/:id", websocket.New(s.watch, websocket.Config{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}))
}

func (s *Server) accessLog(c *fiber.Ctx) error {
	err := c.Next()
	s.logger.Debug("http_request",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", c.Response().StatusCode()),
		zap.Error(err),
	)
	return err
}

func requireUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	return c.Next()
}

func (s *Server) list(c *fiber.Ctx) error {
	return c.JSON(s.mgr.List(c.UserContext()))
}

func (s *Server) create(c *fiber.Ctx) error {
	var req createRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid body")
		}
	}
	st, err := s.mgr.Create(c.UserContext(), req.White, req.Black)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(st)
}

func (s *Server) state(c *fiber.Ctx) error {
	st, err := s.mgr.State(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(st)
}

func (s *Server) remove(c *fiber.Ctx) error {
	if !s.mgr.Remove(c.UserContext(), c.Params("id")) {
		return match.ErrNotFound
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) play(c *fiber.Ctx) error {
	var req moveRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	st, err := s.mgr.Play(c.UserContext(), c.Params("id"), req.Move)
	if err != nil {
		return err
	}
	return c.JSON(st)
}

func (s *Server) click(c *fiber.Ctx) error {
	var req clickRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	res, err := s.mgr.Click(c.UserContext(), c.Params("id"), req.Row, req.Col, req.Commit)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (s *Server) undo(c *fiber.Ctx) error {
	st, undone, err := s.mgr.Undo(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(undoResponse{Undone: undone, State: st})
}

func (s *Server) resign(c *fiber.Ctx) error {
	st, err := s.mgr.Resign(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(st)
}

func (s *Server) flip(c *fiber.Ctx) error {
	st, err := s.mgr.Flip(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(st)
}

func (s *Server) history(c *fiber.Ctx) error {
	i, err := strconv.Atoi(strings.TrimSpace(c.Params("index")))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "index must be an integer")
	}
	h, err := s.mgr.Browse(c.Params("id"), i)
	if err != nil {
		return err
	}
	return c.JSON(h)
}

func (s *Server) book(c *fiber.Ctx) error {
	res, err := s.mgr.Book(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (s *Server) score(c *fiber.Ctx) error {
	i, err := strconv.Atoi(strings.TrimSpace(c.Params("index")))
	if err != nil || i < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "index must be a non-negative integer")
	}
	res, err := s.mgr.Score(c.UserContext(), c.Params("id"), i)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// errorHandler writes manager errors as DomainError JSON.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(xiangqidto.DomainError{
			Code:      codeFor(fe.Code),
			Message:   fe.Message,
			Retryable: fe.Code == fiber.StatusTooManyRequests || fe.Code == fiber.StatusServiceUnavailable,
		})
	}
	de := match.DomainError(err)
	return c.Status(statusFor(de.Code)).JSON(de)
}

// codeFor maps transport-level statuses raised by fiber itself.
func codeFor(status int) string {
	switch {
	case status == fiber.StatusNotFound:
		return xiangqidto.CodeNotFound
	case status == fiber.StatusUpgradeRequired:
		return xiangqidto.CodeUpgradeRequired
	case status == fiber.StatusTooManyRequests:
		return xiangqidto.CodeLimit
	case status >= fiber.StatusInternalServerError:
		return xiangqidto.CodeInternal
	default:
		return xiangqidto.CodeBadInput
	}
}

func statusFor(code string) int {
	switch code {
	case xiangqidto.CodeNotFound, xiangqidto.CodeHistory:
		return fiber.StatusNotFound
	case xiangqidto.CodeBadInput:
		return fiber.StatusBadRequest
	case xiangqidto.CodeIllegalMove:
		return fiber.StatusUnprocessableEntity
	case xiangqidto.CodeGameOver, xiangqidto.CodeConflict:
		return fiber.StatusConflict
	case xiangqidto.CodeLimit:
		return fiber.StatusTooManyRequests
	case xiangqidto.CodeBook:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
