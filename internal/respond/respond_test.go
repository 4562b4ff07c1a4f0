package respond

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	JSON(rr, 201, map[string]string{"name": "Depot"})

	assert.Equal(t, 201, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	require.JSONEq(t, `{"name":"Depot"}`, rr.Body.String())
}
