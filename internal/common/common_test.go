package common

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

type listQuery struct {
	Limit int `json:"limit" validate:"gte=0,lte=100"`
}

func TestGenericEchoValidator(t *testing.T) {
	v := &GenericEchoValidator{}

	if err := v.Validate(&listQuery{Limit: 10}); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	err := v.Validate(&listQuery{Limit: 1000})
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected a 400 HTTPError, got %v", err)
	}
	if msg, _ := httpErr.Message.(string); msg != "received invalid request: Limit fails lte=100" {
		t.Errorf("message = %q", msg)
	}
}

func TestGoJSONSerializer(t *testing.T) {
	e := echo.New()
	e.JSONSerializer = GoJSONSerializer{}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"limit": 5}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	var q listQuery
	if err := ctx.Bind(&q); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	if q.Limit != 5 {
		t.Errorf("Limit = %d, want 5", q.Limit)
	}

	if err := ctx.JSON(http.StatusOK, q); err != nil {
		t.Fatalf("JSON() error = %v", err)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"limit":5}` {
		t.Errorf("body = %s", got)
	}
}

func TestGoJSONSerializer_SyntaxError(t *testing.T) {
	e := echo.New()
	e.JSONSerializer = GoJSONSerializer{}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"limit": `))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	ctx := e.NewContext(req, httptest.NewRecorder())

	var q listQuery
	err := ctx.Bind(&q)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected a 400 HTTPError, got %v", err)
	}
}

func TestReadFormFile(t *testing.T) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", "face.png")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = part.Write([]byte("payload"))
	_ = writer.Close()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	ctx := e.NewContext(req, httptest.NewRecorder())

	name, data, err := ReadFormFile(ctx, "image")
	if err != nil {
		t.Fatalf("ReadFormFile() error = %v", err)
	}
	if name != "face.png" || string(data) != "payload" {
		t.Errorf("ReadFormFile() = (%q, %q)", name, data)
	}

	if _, _, err := ReadFormFile(ctx, "other"); !errors.Is(err, ErrMissingFile) {
		t.Errorf("expected ErrMissingFile, got %v", err)
	}
}
