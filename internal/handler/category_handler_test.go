package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"furniture-service/internal/model"
	"furniture-service/pkg/database"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var handlerDBSeq int64

func setupHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := fmt.Sprintf("handler_test_%d", atomic.AddInt64(&handlerDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	database.SetDB(db)
	return db
}

func jsonRequest(method, target, body string) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req, httptest.NewRecorder()
}

func TestCreateCategory(t *testing.T) {
	setupHandlerDB(t)
	e := echo.New()

	req, rec := jsonRequest(http.MethodPost, "/api/categories", `{"name":"Desks","slug":"desks"}`)
	c := e.NewContext(req, rec)
	require.NoError(t, CreateCategory(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var created model.Category
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Desks", created.Name)
	assert.NotZero(t, created.ID)

	// Duplicate slugs are rejected with a conflict.
	req, rec = jsonRequest(http.MethodPost, "/api/categories", `{"name":"Other Desks","slug":"desks"}`)
	c = e.NewContext(req, rec)
	require.NoError(t, CreateCategory(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetCategoryNotFound(t *testing.T) {
	setupHandlerDB(t)
	e := echo.New()

	req, rec := jsonRequest(http.MethodGet, "/api/categories/999", "")
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("999")
	require.NoError(t, GetCategory(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteCategoryInUse(t *testing.T) {
	db := setupHandlerDB(t)
	e := echo.New()

	category := model.Category{Name: "Desks", Slug: "desks"}
	require.NoError(t, db.Create(&category).Error)
	product := model.Product{
		Name: "Oak Desk", Slug: "oak-desk", SKU: "DESK-001",
		CategoryID: &category.ID, IsActive: true,
	}
	require.NoError(t, db.Create(&product).Error)

	req, rec := jsonRequest(http.MethodDelete, "/api/categories/1", "")
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(category.ID))
	require.NoError(t, DeleteCategory(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}
