package handler

import (
	"bytes"
	"net/http/httptest"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dims-api/internal/middleware"
	"github.com/noah-isme/dims-api/internal/models"
)

type responseEnvelope struct {
	Data       map[string]interface{} `json:"data"`
	Error      map[string]interface{} `json:"error"`
	Pagination map[string]interface{} `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

type listEnvelope struct {
	Data []map[string]interface{} `json:"data"`
}

var testViewer = models.Viewer{ID: "u3", Name: "Alice Smith", Role: models.RoleStaff}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func withViewer(c *gin.Context, viewer models.Viewer) {
	c.Set(middleware.ContextViewerKey, &models.SessionClaims{UserID: viewer.ID, Name: viewer.Name, Role: viewer.Role})
}

func ginParam(key, value string) gin.Param {
	return gin.Param{Key: key, Value: value}
}
