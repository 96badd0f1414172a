package testhelpers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func NewGinTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	return c, recorder
}

// SetTestFormPostRequest attaches a form-encoded POST, as the login pages send it.
func SetTestFormPostRequest(g *gin.Context, target string, form url.Values) {
	g.Request, _ = http.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	g.Request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
}
