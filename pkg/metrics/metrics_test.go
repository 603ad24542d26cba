package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New(NewRegistry())
	r := gin.New()
	r.Use(GinMiddleware(m))
	r.GET("/api/reports/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	for _, id := range []string{"r1", "r2"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/reports/"+id, nil))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/api/reports/:id", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}

func TestCounters(t *testing.T) {
	m := New(NewRegistry())
	m.RecordLLMCall("advice", "gemini", "error", time.Second)
	m.RecordFallback("advice", "transport")
	m.RecordLocation("http", true)
	m.RecordLocation("http", false)
	m.RecordReport("INCIDENT", true)
	m.RecordNotification("sms", errors.New("boom"))
	m.RecordReportsPruned(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.llmRequestsTotal.WithLabelValues("advice", "gemini", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.advisorFallbacks.WithLabelValues("advice", "transport")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.locationRejected.WithLabelValues("http")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reportsSubmitted.WithLabelValues("INCIDENT", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notificationsSent.WithLabelValues("sms", "error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.reportsPruned))
}

func TestHandlerExposition(t *testing.T) {
	m := New(NewRegistry())
	m.RecordSOSTrigger()

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(w.Body)
	assert.Contains(t, string(body), "sos_triggers_total 1")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestGormPlugin(t *testing.T) {
	m := New(NewRegistry())
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Use(NewGormPlugin(m)))

	type row struct {
		ID   uint
		Name string
	}
	require.NoError(t, db.AutoMigrate(&row{}))
	require.NoError(t, db.Create(&row{Name: "a"}).Error)
	var out []row
	require.NoError(t, db.Find(&out).Error)

	// create and query on "rows", plus whatever the migrator ran
	assert.GreaterOrEqual(t, testutil.CollectAndCount(m.dbQueryDuration), 2)
}
