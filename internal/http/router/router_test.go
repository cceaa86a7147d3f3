package router_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"tubescribe.app/bot/internal/http/router"
	"tubescribe.app/bot/internal/store"
)

var _ = Describe("SetupRoutes", func() {
	var (
		engine *gin.Engine
		st     *store.Memory
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		engine = gin.New()
		st = store.NewMemory()
		router.SetupRoutes(engine, st)
	})

	It("reports ok on /health", func() {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		engine.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(MatchJSON(`{"status":"ok"}`))
	})

	It("counts registered users on /stats", func() {
		st.AddMember(context.Background(), store.UserSetKey, "1")
		st.AddMember(context.Background(), store.UserSetKey, "2")
		st.AddMember(context.Background(), store.UserSetKey, "2")

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/stats", nil)
		engine.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))

		var body map[string]int
		Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
		Expect(body["users"]).To(Equal(2))
	})
})
