package api

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

// TestCORSMiddleware tests CORS header setting
func TestCORSMiddleware(t *testing.T) {
	// Set Gin to test mode
	gin.SetMode(gin.TestMode)

	config := DefaultConfig()
	config.Coordinator = testCoordinator(t)
	server := NewServer(config)

	// Create router with CORS middleware
	router := gin.New()
	router.Use(server.corsMiddleware())
	router.GET("/test", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "ok"})
	})

	tests := []struct {
		name           string
		method         string
		expectedStatus int
	}{
		{
			name:           "GET request with CORS headers",
			method:         "GET",
			expectedStatus: 200,
		},
		{
			name:           "OPTIONS request should return 204",
			method:         "OPTIONS",
			expectedStatus: 204,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/test", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			// Test CORS headers
			expectedHeaders := map[string]string{
				"Access-Control-Allow-Origin":      "*",
				"Access-Control-Allow-Methods":     "GET, POST, PUT, DELETE, OPTIONS",
				"Access-Control-Allow-Headers":     "Accept, Authorization, Content-Type, X-CSRF-Token",
				"Access-Control-Expose-Headers":    "Link",
				"Access-Control-Allow-Credentials": "true",
				"Access-Control-Max-Age":           "300",
			}

			for header, expectedValue := range expectedHeaders {
				actualValue := w.Header().Get(header)
				if actualValue != expectedValue {
					t.Errorf("Header %s = %q, want %q", header, actualValue, expectedValue)
				}
			}
		})
	}
}
