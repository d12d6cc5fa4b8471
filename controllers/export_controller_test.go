package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func monthsContext(query string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	return c
}

func TestMonthsQueryParsesList(t *testing.T) {
	months, ok := monthsQuery(monthsContext("months=1,%202,12"))
	require.True(t, ok)
	assert.Equal(t, []int{1, 2, 12}, months)
}

func TestMonthsQueryCollapsesDuplicates(t *testing.T) {
	months, ok := monthsQuery(monthsContext("months=7,7,8,7"))
	require.True(t, ok)
	assert.Equal(t, []int{7, 8}, months)
}

func TestMonthsQueryRejectsBadInput(t *testing.T) {
	for _, query := range []string{"", "months=0", "months=13", "months=abc", "months=1,,2"} {
		_, ok := monthsQuery(monthsContext(query))
		assert.False(t, ok, query)
	}
}
