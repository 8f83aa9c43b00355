package interview

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"quali-backend/internal/llm"
)

var llmUpstreamError = llm.UpstreamError{Message: "quota exceeded", Type: "insufficient_quota"}

func newTestRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userId", "user-1")
		c.Next()
	})
	api := r.Group("/api/v1")
	NewHandler(svc).RegisterRoutes(api)
	return r
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func decodeBody(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", resp.Body.String(), err)
	}
	return body
}

func TestAdvanceEndpointNoCvMinute(t *testing.T) {
	svc, _, _ := newTestService(&stubLLM{responses: []string{questionReply}})
	router := newTestRouter(svc)

	resp := postJSON(t, router, "/api/v1/quali-carriere/advance", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	body := decodeBody(t, resp)
	if body["noCvMinute"] != true {
		t.Fatalf("expected noCvMinute flag, got %v", body)
	}
}

func TestAdvanceEndpointNextQuestion(t *testing.T) {
	svc, _, minutes := newTestService(&stubLLM{responses: []string{questionReply}})
	seedCvMinute(minutes, "user-1", 1)
	router := newTestRouter(svc)

	resp := postJSON(t, router, "/api/v1/quali-carriere/advance", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	body := decodeBody(t, resp)
	if body["nextQuestion"] != true {
		t.Fatalf("expected nextQuestion flag, got %v", body)
	}
	question, ok := body["question"].(map[string]any)
	if !ok || question["content"] == "" {
		t.Fatalf("expected question object, got %v", body["question"])
	}
}

func TestAdvanceEndpointParseFailure(t *testing.T) {
	svc, _, minutes := newTestService(&stubLLM{responses: []string{"pas de JSON ici"}})
	seedCvMinute(minutes, "user-1", 1)
	router := newTestRouter(svc)

	resp := postJSON(t, router, "/api/v1/quali-carriere/advance", nil)
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}
	body := decodeBody(t, resp)
	if body["parsingError"] != true {
		t.Fatalf("expected parsingError flag, got %v", body)
	}
}

func TestAdvanceEndpointUpstreamError(t *testing.T) {
	svc, _, minutes := newTestService(&stubLLM{err: &llmUpstreamError})
	seedCvMinute(minutes, "user-1", 1)
	router := newTestRouter(svc)

	resp := postJSON(t, router, "/api/v1/quali-carriere/advance", nil)
	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}
	body := decodeBody(t, resp)
	if body["openaiError"] != "quota exceeded" {
		t.Fatalf("expected openaiError message, got %v", body)
	}
}

func TestResponseEndpointJSONBody(t *testing.T) {
	svc, _, minutes := newTestService(&stubLLM{responses: []string{questionReply}})
	seedCvMinute(minutes, "user-1", 1)
	router := newTestRouter(svc)

	resp := postJSON(t, router, "/api/v1/quali-carriere/advance", nil)
	question := decodeBody(t, resp)["question"].(map[string]any)
	questionID := question["id"].(string)

	resp = postJSON(t, router, "/api/v1/quali-carriere/questions/"+questionID+"/response",
		map[string]string{"content": "Je dirigeais les déploiements."})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	// A second answer to the same question is rejected.
	resp = postJSON(t, router, "/api/v1/quali-carriere/questions/"+questionID+"/response",
		map[string]string{"content": "encore"})
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
}

func TestResponseEndpointUnknownQuestion(t *testing.T) {
	svc, _, minutes := newTestService(&stubLLM{responses: []string{questionReply}})
	seedCvMinute(minutes, "user-1", 1)
	router := newTestRouter(svc)

	resp := postJSON(t, router, "/api/v1/quali-carriere/questions/unknown/response",
		map[string]string{"content": "réponse"})
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestChatEndpointDuringInterview(t *testing.T) {
	svc, _, minutes := newTestService(&stubLLM{responses: []string{questionReply}})
	seedCvMinute(minutes, "user-1", 1)
	router := newTestRouter(svc)

	postJSON(t, router, "/api/v1/quali-carriere/advance", nil)
	resp := postJSON(t, router, "/api/v1/quali-carriere/chat", map[string]string{"message": "bonjour"})
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	svc, repo, minutes := newTestService(&stubLLM{responses: []string{questionReply}})
	seedCvMinute(minutes, "user-1", 1)
	router := newTestRouter(svc)

	now := time.Now().UTC()
	if err := repo.CreateQuestion(context.Background(), Question{
		ID: "q-1", UserID: "user-1", ExperienceID: "exp-1", Index: 0,
		Content: "Première question", CreatedAt: now,
	}); err != nil {
		t.Fatalf("seed question: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/quali-carriere/history", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	body := decodeBody(t, resp)
	questions, ok := body["questions"].([]any)
	if !ok || len(questions) != 1 {
		t.Fatalf("expected 1 question in history, got %v", body["questions"])
	}
	if _, ok := body["responses"].([]any); !ok {
		t.Fatalf("expected responses array, got %v", body["responses"])
	}
}

func TestResponseEndpointMultipartContent(t *testing.T) {
	svc, _, minutes := newTestService(&stubLLM{responses: []string{questionReply}})
	seedCvMinute(minutes, "user-1", 1)
	router := newTestRouter(svc)

	resp := postJSON(t, router, "/api/v1/quali-carriere/advance", nil)
	question := decodeBody(t, resp)["question"].(map[string]any)
	questionID := question["id"].(string)

	var buf bytes.Buffer
	boundary := "testboundary"
	buf.WriteString("--" + boundary + "\r\n")
	buf.WriteString("Content-Disposition: form-data; name=\"content\"\r\n\r\n")
	buf.WriteString("Réponse envoyée en multipart.\r\n")
	buf.WriteString("--" + boundary + "--\r\n")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/quali-carriere/questions/"+questionID+"/response", strings.NewReader(buf.String()))
	req.Header.Set("Content-Type", "multipart/form-data; boundary="+boundary)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}
