package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yakgung/drugfood-guard/backend/internal/api"
	"github.com/yakgung/drugfood-guard/backend/internal/middleware"
	"github.com/yakgung/drugfood-guard/backend/internal/models"
	"github.com/yakgung/drugfood-guard/backend/internal/service"
	"github.com/yakgung/drugfood-guard/backend/internal/testhelpers"
)

func setupChatTest(t *testing.T, answer string, status int) *testEnv {
	gin.SetMode(gin.TestMode)

	llmServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": answer}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(llmServer.Close)

	db := testhelpers.SetupTestDatabase(t)
	testhelpers.SeedInteractions(t, db)
	testhelpers.SeedFoods(t, db)

	embedder := service.NewEmbeddingService()
	interactionService := service.NewInteractionService(db, embedder)
	authService := service.NewAuthService(db, "test-secret")

	// unreachable redis: history becomes best-effort, chat still works
	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:1"})
	llmService, err := service.NewLLMService("test-key", llmServer.URL, "test-model", redisClient, db, interactionService)
	require.NoError(t, err)

	router := gin.New()
	router.Use(gin.Recovery())
	v1 := router.Group("/api/v1")

	authHandler := api.NewAuthHandler(authService)
	authHandler.RegisterRoutes(v1)

	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(authService))
	api.NewDrugHandler(service.NewDrugService(db, interactionService, nil), interactionService).RegisterRoutes(protected)
	api.NewChatHandler(llmService, nil).RegisterRoutes(protected)

	return &testEnv{router: router, db: db, auth: authService}
}

func TestChatEndpoint(t *testing.T) {
	t.Run("requires auth", func(t *testing.T) {
		env := setupChatTest(t, "답변", http.StatusOK)
		w := env.request(t, http.MethodPost, "/api/v1/chat", "", gin.H{"message": "자몽 먹어도 되나요?"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("answers a question", func(t *testing.T) {
		env := setupChatTest(t, "🔴 위험: 자몽은 피하세요.", http.StatusOK)
		token := env.registerUser(t, "chat@example.com")

		w := env.request(t, http.MethodPost, "/api/v1/drugs", token, gin.H{"drug_name": "와파린"})
		require.Equal(t, http.StatusCreated, w.Code)

		w = env.request(t, http.MethodPost, "/api/v1/chat", token, gin.H{"message": "자몽 먹어도 되나요?"})
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Response string `json:"response"`
			Sources  []struct {
				RiskLabel string `json:"risk_label"`
			} `json:"sources"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Contains(t, resp.Response, "자몽은 피하세요")
		require.NotEmpty(t, resp.Sources)
		assert.Equal(t, "위험", resp.Sources[0].RiskLabel)
	})

	t.Run("missing message is a bad request", func(t *testing.T) {
		env := setupChatTest(t, "답변", http.StatusOK)
		token := env.registerUser(t, "empty@example.com")

		w := env.request(t, http.MethodPost, "/api/v1/chat", token, gin.H{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("upstream failure maps to bad gateway", func(t *testing.T) {
		env := setupChatTest(t, "", http.StatusInternalServerError)
		token := env.registerUser(t, "fail@example.com")

		w := env.request(t, http.MethodPost, "/api/v1/chat", token, gin.H{"message": "질문"})
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})

	t.Run("local failure maps to internal error", func(t *testing.T) {
		env := setupChatTest(t, "답변", http.StatusOK)
		token := env.registerUser(t, "local@example.com")

		// breaking the registry lookup is a local fault, not a gateway one
		require.NoError(t, env.db.Migrator().DropTable(&models.UserDrug{}))

		w := env.request(t, http.MethodPost, "/api/v1/chat", token, gin.H{"message": "질문"})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestChatQueryLogEndpoint(t *testing.T) {
	env := setupChatTest(t, "🔴 위험: 자몽은 피하세요.", http.StatusOK)
	token := env.registerUser(t, "log@example.com")

	w := env.request(t, http.MethodPost, "/api/v1/drugs", token, gin.H{"drug_name": "와파린"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.request(t, http.MethodPost, "/api/v1/chat", token, gin.H{"message": "자몽 먹어도 되나요?"})
	require.Equal(t, http.StatusOK, w.Code)

	t.Run("lists persisted queries", func(t *testing.T) {
		w := env.request(t, http.MethodGet, "/api/v1/chat/log", token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Queries []struct {
				QueryText   string `json:"query_text"`
				RiskSummary string `json:"risk_summary"`
			} `json:"queries"`
			Count int `json:"count"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Equal(t, 1, resp.Count)
		assert.Equal(t, "자몽 먹어도 되나요?", resp.Queries[0].QueryText)
		assert.Equal(t, "danger", resp.Queries[0].RiskSummary)
	})

	t.Run("rejects an invalid limit", func(t *testing.T) {
		w := env.request(t, http.MethodGet, "/api/v1/chat/log?limit=0", token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
