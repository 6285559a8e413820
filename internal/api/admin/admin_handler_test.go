package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cardshop/internal/apperr"
	"cardshop/internal/constants"
	"cardshop/internal/middleware"
	"cardshop/internal/model"
	"cardshop/internal/service"
	"cardshop/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubSessions map[string]model.Caller

func (s stubSessions) Resolve(ctx context.Context, token string) (model.Caller, error) {
	if caller, ok := s[token]; ok {
		return caller, nil
	}
	return model.Anonymous, nil
}

// stubAdmin 只校验权限并记录参数
type stubAdmin struct {
	orderID string
	remark  string
	cardIDs []string
}

func (s *stubAdmin) check(caller model.Caller) error {
	if !caller.IsAdmin() {
		return apperr.New(apperr.KindPermission, constants.ErrRequireAdmin)
	}
	return nil
}

func (s *stubAdmin) CompleteOrder(ctx context.Context, caller model.Caller, orderID, remark string) (*service.FulfillmentOutcome, error) {
	if err := s.check(caller); err != nil {
		return nil, err
	}
	s.orderID, s.remark = orderID, remark
	return &service.FulfillmentOutcome{
		Order: &model.Order{ID: orderID, Status: model.OrderStatusCompleted},
		Cards: []model.Card{{Content: "CODE-1"}},
	}, nil
}

func (s *stubAdmin) RefundOrder(ctx context.Context, caller model.Caller, orderID, remark string) (*model.Order, error) {
	if err := s.check(caller); err != nil {
		return nil, err
	}
	return &model.Order{ID: orderID, Status: model.OrderStatusRefunded}, nil
}

func (s *stubAdmin) ListOrders(ctx context.Context, caller model.Caller, filter model.OrderFilter) ([]model.Order, int, error) {
	if err := s.check(caller); err != nil {
		return nil, 0, err
	}
	return []model.Order{}, 0, nil
}

func (s *stubAdmin) RelistRefundedCards(ctx context.Context, caller model.Caller, cardIDs []string) (int, error) {
	if err := s.check(caller); err != nil {
		return 0, err
	}
	if len(cardIDs) == 0 {
		return 0, apperr.New(apperr.KindValidation, constants.ErrNoCardsSelected)
	}
	s.cardIDs = cardIDs
	return len(cardIDs), nil
}

func (s *stubAdmin) CreateCards(ctx context.Context, caller model.Caller, productID, contents string, deduplicate bool) (int, error) {
	if err := s.check(caller); err != nil {
		return 0, err
	}
	return strings.Count(contents, "\n") + 1, nil
}

func (s *stubAdmin) CreateProduct(ctx context.Context, caller model.Caller, name string, price decimal.Decimal) (*model.Product, error) {
	if err := s.check(caller); err != nil {
		return nil, err
	}
	return &model.Product{Name: name, Price: price}, nil
}

func (s *stubAdmin) ListAnnouncements(ctx context.Context, caller model.Caller) ([]model.Announcement, error) {
	if err := s.check(caller); err != nil {
		return nil, err
	}
	return []model.Announcement{}, nil
}

func (s *stubAdmin) CreateAnnouncement(ctx context.Context, caller model.Caller, input service.AnnouncementInput) (*model.Announcement, error) {
	if err := s.check(caller); err != nil {
		return nil, err
	}
	return &model.Announcement{ID: "a1", Title: input.Title, Content: input.Content, IsActive: input.IsActive}, nil
}

func (s *stubAdmin) UpdateAnnouncement(ctx context.Context, caller model.Caller, id string, input service.AnnouncementInput) (*model.Announcement, error) {
	if err := s.check(caller); err != nil {
		return nil, err
	}
	if id != "a1" {
		return nil, apperr.New(apperr.KindNotFound, constants.ErrAnnouncementNotFound)
	}
	return &model.Announcement{ID: id, Title: input.Title}, nil
}

func (s *stubAdmin) DeleteAnnouncement(ctx context.Context, caller model.Caller, id string) error {
	return s.check(caller)
}

func (s *stubAdmin) ListProducts(ctx context.Context, caller model.Caller) ([]model.ProductWithStock, error) {
	if err := s.check(caller); err != nil {
		return nil, err
	}
	return []model.ProductWithStock{{Product: model.Product{ID: "p1", Name: "Steam 充值卡"}, Stock: 3}}, nil
}

func (s *stubAdmin) UpdateProduct(ctx context.Context, caller model.Caller, id string, update service.ProductUpdate) (*model.Product, error) {
	if err := s.check(caller); err != nil {
		return nil, err
	}
	product := &model.Product{ID: id, Name: "Steam 充值卡", Price: decimal.RequireFromString("9.90")}
	if update.Price != nil {
		product.Price = *update.Price
	}
	return product, nil
}

func (s *stubAdmin) SetActive(ctx context.Context, caller model.Caller, id string, active bool) (*model.Product, error) {
	if err := s.check(caller); err != nil {
		return nil, err
	}
	return &model.Product{ID: id, IsActive: active}, nil
}

func adminRouter(ops *stubAdmin) *gin.Engine {
	router := gin.New()
	group := router.Group("/api/v1/admin")
	group.Use(middleware.Session(stubSessions{
		"admin-token": {UserID: "admin-1", Role: model.RoleAdmin},
		"user-token":  {UserID: "u1", Role: model.RoleUser},
	}))
	log := logger.NewNop()
	RegisterAdminRoutes(group, NewOrderAdminHandler(ops, log), NewCardAdminHandler(ops, log), NewProductAdminHandler(ops, log), NewAnnouncementAdminHandler(ops, log))
	return router
}

func call(t *testing.T, router *gin.Engine, method, path, token, body string) map[string]interface{} {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	ops := &stubAdmin{}
	router := adminRouter(ops)

	for _, token := range []string{"", "user-token"} {
		resp := call(t, router, http.MethodPost, "/api/v1/admin/orders/o1/complete", token, `{}`)
		assert.Equal(t, float64(403), resp["code"])
		assert.Equal(t, constants.ErrRequireAdmin, resp["msg"])
	}
	assert.Empty(t, ops.orderID)
}

func TestAdminCompleteOrder(t *testing.T) {
	ops := &stubAdmin{}
	router := adminRouter(ops)

	resp := call(t, router, http.MethodPost, "/api/v1/admin/orders/o1/complete", "admin-token", `{"remark":"补发"}`)
	assert.Equal(t, float64(200), resp["code"])
	assert.Equal(t, []interface{}{"CODE-1"}, resp["cards"])
	assert.Equal(t, "o1", ops.orderID)
	assert.Equal(t, "补发", ops.remark)

	// 请求体为空时使用默认备注
	resp = call(t, router, http.MethodPost, "/api/v1/admin/orders/o2/complete", "admin-token", "")
	assert.Equal(t, float64(200), resp["code"])
	assert.Equal(t, "", ops.remark)
}

func TestAdminRelistCards(t *testing.T) {
	ops := &stubAdmin{}
	router := adminRouter(ops)

	resp := call(t, router, http.MethodPost, "/api/v1/admin/cards/relist", "admin-token", `{"card_ids":["c1","c2"]}`)
	assert.Equal(t, float64(2), resp["count"])

	resp = call(t, router, http.MethodPost, "/api/v1/admin/cards/relist", "admin-token", `{"card_ids":[]}`)
	assert.Equal(t, float64(400), resp["code"])
	assert.Equal(t, constants.ErrNoCardsSelected, resp["msg"])
}

func TestAdminCreateProduct(t *testing.T) {
	router := adminRouter(&stubAdmin{})

	resp := call(t, router, http.MethodPost, "/api/v1/admin/products", "admin-token", `{"name":"会员月卡","price":"15.50"}`)
	assert.Equal(t, float64(200), resp["code"])
	product := resp["product"].(map[string]interface{})
	assert.Equal(t, "会员月卡", product["name"])
}

func TestAdminAnnouncements(t *testing.T) {
	router := adminRouter(&stubAdmin{})

	resp := call(t, router, http.MethodPost, "/api/v1/admin/announcements", "admin-token", `{"title":"维护通知","content":"今晚维护","is_active":true}`)
	assert.Equal(t, float64(200), resp["code"])
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "维护通知", data["title"])

	resp = call(t, router, http.MethodPut, "/api/v1/admin/announcements/missing", "admin-token", `{"title":"x","content":"y"}`)
	assert.Equal(t, float64(404), resp["code"])
	assert.Equal(t, constants.ErrAnnouncementNotFound, resp["msg"])

	resp = call(t, router, http.MethodDelete, "/api/v1/admin/announcements/a1", "user-token", "")
	assert.Equal(t, float64(403), resp["code"])

	resp = call(t, router, http.MethodPost, "/api/v1/admin/announcements", "admin-token", `not json`)
	assert.Equal(t, float64(400), resp["code"])
}

func TestAdminProducts(t *testing.T) {
	router := adminRouter(&stubAdmin{})

	resp := call(t, router, http.MethodGet, "/api/v1/admin/products", "admin-token", "")
	assert.Equal(t, float64(200), resp["code"])
	assert.Len(t, resp["products"], 1)

	resp = call(t, router, http.MethodPut, "/api/v1/admin/products/p1", "admin-token", `{"price":"12.50"}`)
	assert.Equal(t, float64(200), resp["code"])
	product := resp["product"].(map[string]interface{})
	assert.Equal(t, "12.5", product["price"])

	resp = call(t, router, http.MethodPost, "/api/v1/admin/products/p1/active", "admin-token", `{"active":false}`)
	assert.Equal(t, float64(200), resp["code"])
	assert.Equal(t, false, resp["product"].(map[string]interface{})["is_active"])

	resp = call(t, router, http.MethodPost, "/api/v1/admin/products/p1/active", "user-token", `{"active":true}`)
	assert.Equal(t, float64(403), resp["code"])
}
