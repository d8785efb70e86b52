package handler

import (
	"mime"
	"reflect"
	"time"

	"github.com/deppfellow/classroom/internal/middleware"
	"github.com/deppfellow/classroom/internal/model"
	"github.com/deppfellow/classroom/internal/server"
	"github.com/deppfellow/classroom/internal/validation"

	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/integrations/nrpkgerrors"
	"github.com/newrelic/go-agent/v3/newrelic"
)

type Handler struct {
	server *server.Server
}

func NewHandler(s *server.Server) Handler {
	return Handler{server: s}
}

// Response is the envelope of every successful JSON response.
type Response struct {
	Success  bool     `json:"success"`
	Message  string   `json:"message,omitempty"`
	Data     any      `json:"data"`
	Warnings []string `json:"warnings,omitempty"`
}

// Respond wraps data with a message.
func Respond(data any, message string) *Response {
	return &Response{Success: true, Message: message, Data: data}
}

// File is a binary response.
type File struct {
	Name        string
	ContentType string
	Data        []byte
	// Inline asks the browser to display the file instead of saving it.
	Inline bool
}

type HandlerFunc[Req validation.Validatable, Res any] func(c echo.Context, req Req) (Res, error)

type HandlerFuncNoContent[Req validation.Validatable] func(c echo.Context, req Req) error

type ResponseHandler interface {
	Handle(c echo.Context, result interface{}) error
	GetOperation() string
	AddAttributes(txn *newrelic.Transaction, result interface{})
}

// JSONResponseHandler writes results in the Response envelope. Handlers
// that return a *Response control the message themselves.
type JSONResponseHandler struct {
	status int
}

func (h JSONResponseHandler) Handle(c echo.Context, result interface{}) error {
	if resp, ok := result.(*Response); ok {
		resp.Success = true
		return c.JSON(h.status, resp)
	}
	return c.JSON(h.status, &Response{Success: true, Data: result})
}

func (h JSONResponseHandler) GetOperation() string {
	return "handler"
}

func (h JSONResponseHandler) AddAttributes(txn *newrelic.Transaction, result interface{}) {
}

// MessageResponseHandler answers with a fixed message and no data.
type MessageResponseHandler struct {
	status  int
	message string
}

func (h MessageResponseHandler) Handle(c echo.Context, result interface{}) error {
	return c.JSON(h.status, &Response{Success: true, Message: h.message})
}

func (h MessageResponseHandler) GetOperation() string {
	return "handler_message"
}

func (h MessageResponseHandler) AddAttributes(txn *newrelic.Transaction, result interface{}) {
}

type FileResponseHandler struct {
	status int
}

func (h FileResponseHandler) Handle(c echo.Context, result interface{}) error {
	file := result.(*File)

	disposition := "attachment"
	if file.Inline {
		disposition = "inline"
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		mime.FormatMediaType(disposition, map[string]string{"filename": file.Name}))

	return c.Blob(h.status, file.ContentType, file.Data)
}

func (h FileResponseHandler) GetOperation() string {
	return "handler_file"
}

func (h FileResponseHandler) AddAttributes(txn *newrelic.Transaction, result interface{}) {
	if txn == nil {
		return
	}
	if file, ok := result.(*File); ok && file != nil {
		txn.AddAttribute("file.name", file.Name)
		txn.AddAttribute("file.content_type", file.ContentType)
		txn.AddAttribute("file.size_bytes", len(file.Data))
	}
}

func handleRequest[Req validation.Validatable](
	c echo.Context,
	req Req,
	handler func(c echo.Context, req Req) (interface{}, error),
	responseHandler ResponseHandler,
) error {
	start := time.Now()
	method := c.Request().Method
	route := c.Path()

	txn := newrelic.FromContext(c.Request().Context())
	if txn != nil {
		txn.AddAttribute("handler.name", route)
	}

	logger := middleware.GetLogger(c).With().
		Str("operation", responseHandler.GetOperation()).
		Str("method", method).
		Str("route", route).
		Logger()

	logger.Debug().Msg("handling request")

	validationStart := time.Now()
	if err := validation.BindAndValidate(c, req); err != nil {
		validationDuration := time.Since(validationStart)

		logger.Warn().
			Err(err).
			Dur("validation_duration", validationDuration).
			Msg("request validation failed")

		if txn != nil {
			txn.AddAttribute("validation.status", "failed")
			txn.AddAttribute("validation.duration_ms", validationDuration.Milliseconds())
		}

		return err
	}

	validationDuration := time.Since(validationStart)
	if txn != nil {
		txn.AddAttribute("validation.status", "success")
		txn.AddAttribute("validation.duration_ms", validationDuration.Milliseconds())
	}

	handlerStart := time.Now()
	result, err := handler(c, req)
	handlerDuration := time.Since(handlerStart)

	if err != nil {
		totalDuration := time.Since(start)

		logger.Warn().
			Err(err).
			Dur("handler_duration", handlerDuration).
			Dur("total_duration", totalDuration).
			Msg("handler execution failed")

		if txn != nil {
			txn.NoticeError(nrpkgerrors.Wrap(err))
			txn.AddAttribute("handler.status", "error")
			txn.AddAttribute("handler.duration_ms", handlerDuration.Milliseconds())
			txn.AddAttribute("total.duration_ms", totalDuration.Milliseconds())
		}
		return err
	}

	totalDuration := time.Since(start)
	if txn != nil {
		txn.AddAttribute("handler.status", "success")
		txn.AddAttribute("handler.duration_ms", handlerDuration.Milliseconds())
		txn.AddAttribute("total.duration_ms", totalDuration.Milliseconds())

		responseHandler.AddAttributes(txn, result)
	}

	logger.Debug().
		Dur("handler_duration", handlerDuration).
		Dur("validation_duration", validationDuration).
		Dur("total_duration", totalDuration).
		Msg("request completed successfully")

	return responseHandler.Handle(c, result)
}

// newRequest allocates a fresh payload of the same type as prototype, so
// concurrent requests never share one.
func newRequest[Req validation.Validatable](prototype Req) Req {
	t := reflect.TypeOf(prototype)
	if t == nil || t.Kind() != reflect.Pointer {
		return prototype
	}
	return reflect.New(t.Elem()).Interface().(Req)
}

// Handle wraps a typed handler with binding, validation, logging and
// tracing. req is only used for its type.
//
//	router.POST("/x", handler.Handle(h, myHandlerFn, http.StatusCreated, &MyReq{}))
func Handle[Req validation.Validatable, Res any](
	h Handler,
	handler HandlerFunc[Req, Res],
	status int,
	req Req,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		return handleRequest(c, newRequest(req), func(c echo.Context, req Req) (interface{}, error) {
			return handler(c, req)
		}, JSONResponseHandler{status: status})
	}
}

// HandleFile wraps a handler that returns a *File.
func HandleFile[Req validation.Validatable](
	h Handler,
	handler HandlerFunc[Req, *File],
	status int,
	req Req,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		return handleRequest(c, newRequest(req), func(c echo.Context, req Req) (interface{}, error) {
			return handler(c, req)
		}, FileResponseHandler{status: status})
	}
}

// HandleMessage wraps a handler that only reports success with message.
func HandleMessage[Req validation.Validatable](
	h Handler,
	handler HandlerFuncNoContent[Req],
	status int,
	req Req,
	message string,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		return handleRequest(c, newRequest(req), func(c echo.Context, req Req) (interface{}, error) {
			return nil, handler(c, req)
		}, MessageResponseHandler{status: status, message: message})
	}
}

// currentUser is set by middleware.RequireAuth on every protected route.
func currentUser(c echo.Context) *model.User {
	return middleware.GetUser(c)
}
