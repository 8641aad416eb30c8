package admin

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/promotion-next/internal/cache"
	"github.com/promotion-next/internal/http/response"
	"github.com/promotion-next/internal/models"
	"github.com/promotion-next/internal/repository"
	"github.com/promotion-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// PromotionGoodsRequest 活动商品配置请求
type PromotionGoodsRequest struct {
	SkuID        string  `json:"sku_id" binding:"required"`
	GoodsName    string  `json:"goods_name"`
	Quantity     int     `json:"quantity"`
	Price        float64 `json:"price"`
	CategoryPath string  `json:"category_path"`
}

// CreatePromotionRequest 创建促销活动请求
type CreatePromotionRequest struct {
	Title         string                  `json:"title" binding:"required"`
	PromotionType string                  `json:"promotion_type" binding:"required"`
	ScopeType     string                  `json:"scope_type"`
	ScopeID       string                  `json:"scope_id"`
	StoreID       string                  `json:"store_id"`
	StartTime     string                  `json:"start_time" binding:"required"`
	EndTime       string                  `json:"end_time"`
	Goods         []PromotionGoodsRequest `json:"goods"`
}

// CreatePromotion 创建促销活动
func (h *Handler) CreatePromotion(c *gin.Context) {
	var req CreatePromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	endTime, err := parseTimeNullable(req.EndTime)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	goods := make([]service.SavePromotionGoodsInput, 0, len(req.Goods))
	for _, item := range req.Goods {
		goods = append(goods, service.SavePromotionGoodsInput{
			SkuID:        item.SkuID,
			GoodsName:    item.GoodsName,
			Quantity:     item.Quantity,
			Price:        models.NewMoneyFromDecimal(decimal.NewFromFloat(item.Price)),
			CategoryPath: item.CategoryPath,
		})
	}

	promotion, err := h.PromotionService.SavePromotion(c.Request.Context(), service.SavePromotionInput{
		Title:         req.Title,
		PromotionType: req.PromotionType,
		ScopeType:     req.ScopeType,
		ScopeID:       req.ScopeID,
		StoreID:       req.StoreID,
		StartTime:     startTime,
		EndTime:       endTime,
		Goods:         goods,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPromotionInvalid):
			respondError(c, response.CodeBadRequest, "error.promotion_invalid", nil)
		case errors.Is(err, service.ErrPromotionTimeInvalid):
			respondError(c, response.CodeBadRequest, "error.promotion_time_invalid", nil)
		default:
			respondError(c, response.CodeInternal, "error.promotion_create_failed", err)
		}
		return
	}

	response.Success(c, promotion)
}

// GetAdminPromotion 获取促销活动详情
func (h *Handler) GetAdminPromotion(c *gin.Context) {
	promotionID := strings.TrimSpace(c.Param("id"))
	if promotionID == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	promotion, err := h.PromotionService.GetPromotion(c.Request.Context(), promotionID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.promotion_fetch_failed", err)
		return
	}
	if promotion == nil {
		respondError(c, response.CodeNotFound, "error.promotion_not_found", nil)
		return
	}
	response.Success(c, promotion)
}

// GetAdminPromotions 获取促销活动列表
func (h *Handler) GetAdminPromotions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	promotions, total, err := h.PromotionRepo.List(repository.PromotionListFilter{
		PromotionType:   strings.TrimSpace(c.Query("promotion_type")),
		PromotionStatus: strings.TrimSpace(c.Query("promotion_status")),
		StoreID:         strings.TrimSpace(c.Query("store_id")),
		Page:            page,
		PageSize:        pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.promotion_fetch_failed", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, promotions, pagination)
}

// ClosePromotion 关闭促销活动
func (h *Handler) ClosePromotion(c *gin.Context) {
	promotionID := strings.TrimSpace(c.Param("id"))
	if promotionID == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	closed, err := h.PromotionService.ClosePromotion(c.Request.Context(), promotionID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPromotionInvalid):
			respondError(c, response.CodeBadRequest, "error.promotion_invalid", nil)
		case errors.Is(err, service.ErrPromotionNotFound):
			respondError(c, response.CodeNotFound, "error.promotion_not_found", nil)
		default:
			respondError(c, response.CodeInternal, "error.promotion_close_failed", err)
		}
		return
	}
	response.Success(c, gin.H{
		"closed": closed,
	})
}

// GetPromotionStock 查询促销商品库存。
// 指定 sku_id 走缓存优先的单条查询，指定 sku_ids 走直连数据库的批量查询。
func (h *Handler) GetPromotionStock(c *gin.Context) {
	promotionID := strings.TrimSpace(c.Param("id"))
	promotionType := strings.TrimSpace(c.Query("promotion_type"))
	if promotionID == "" || promotionType == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	if rawSkuIDs := strings.TrimSpace(c.Query("sku_ids")); rawSkuIDs != "" {
		skuIDs := splitCommaList(rawSkuIDs)
		stocks, err := h.PromotionGoodsService.GetStockBatch(c.Request.Context(), promotionType, promotionID, skuIDs)
		if err != nil {
			respondError(c, response.CodeInternal, "error.stock_fetch_failed", err)
			return
		}
		response.Success(c, gin.H{
			"sku_ids": skuIDs,
			"stocks":  stocks,
		})
		return
	}

	skuID := strings.TrimSpace(c.Query("sku_id"))
	if skuID == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	stock, err := h.PromotionGoodsService.GetStock(c.Request.Context(), promotionType, promotionID, skuID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.stock_fetch_failed", err)
		return
	}
	response.Success(c, gin.H{
		"sku_id": skuID,
		"stock":  stock,
	})
}

// UpdateStockRequest 设置库存请求
type UpdateStockRequest struct {
	PromotionType string `json:"promotion_type" binding:"required"`
	SkuID         string `json:"sku_id" binding:"required"`
	Quantity      *int   `json:"quantity" binding:"required"`
}

// UpdatePromotionStock 设置促销商品库存
func (h *Handler) UpdatePromotionStock(c *gin.Context) {
	promotionID := strings.TrimSpace(c.Param("id"))
	if promotionID == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	var req UpdateStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	err := h.PromotionGoodsService.UpdateStock(c.Request.Context(), req.PromotionType, promotionID, req.SkuID, *req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrQuantityInvalid):
			respondError(c, response.CodeBadRequest, "error.quantity_invalid", nil)
		case errors.Is(err, service.ErrSeckillNotExist):
			respondError(c, response.CodeNotFound, "error.seckill_apply_not_found", nil)
		case errors.Is(err, service.ErrPromotionGoodsNotExist):
			respondError(c, response.CodeNotFound, "error.promotion_goods_not_found", nil)
		default:
			respondError(c, response.CodeInternal, "error.stock_update_failed", err)
		}
		return
	}
	response.Success(c, gin.H{
		"sku_id":   req.SkuID,
		"quantity": *req.Quantity,
	})
}

// DeductStockRequest 扣减库存请求
type DeductStockRequest struct {
	PromotionType string `json:"promotion_type" binding:"required"`
	SkuID         string `json:"sku_id" binding:"required"`
	Num           int    `json:"num" binding:"required"`
}

// DeductPromotionStock 原子扣减促销商品库存
func (h *Handler) DeductPromotionStock(c *gin.Context) {
	promotionID := strings.TrimSpace(c.Param("id"))
	if promotionID == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	var req DeductStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	remaining, err := h.PromotionGoodsService.DeductStock(c.Request.Context(), req.PromotionType, promotionID, req.SkuID, req.Num)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrQuantityInvalid):
			respondError(c, response.CodeBadRequest, "error.quantity_invalid", nil)
		case errors.Is(err, cache.ErrStockInsufficient):
			respondError(c, response.CodeStockShort, "error.stock_insufficient", nil)
		case errors.Is(err, service.ErrPromotionGoodsNotExist):
			respondError(c, response.CodeNotFound, "error.promotion_goods_not_found", nil)
		default:
			respondError(c, response.CodeInternal, "error.stock_deduct_failed", err)
		}
		return
	}
	response.Success(c, gin.H{
		"sku_id":    req.SkuID,
		"remaining": remaining,
	})
}

// GetPromotionOverlap 统计同类型时间窗重叠的活动商品数
func (h *Handler) GetPromotionOverlap(c *gin.Context) {
	promotionType := strings.TrimSpace(c.Query("promotion_type"))
	skuID := strings.TrimSpace(c.Query("sku_id"))
	if promotionType == "" || skuID == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	startTime, err := time.Parse(time.RFC3339, c.Query("start_time"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	endTime, err := time.Parse(time.RFC3339, c.Query("end_time"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	excludeID := strings.TrimSpace(c.Query("exclude_promotion_id"))

	count, err := h.PromotionGoodsService.FindInnerOverlap(c.Request.Context(), promotionType, skuID, startTime, endTime, excludeID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.overlap_fetch_failed", err)
		return
	}
	response.Success(c, gin.H{
		"count": count,
	})
}

// GetSkuPromotions 查询 SKU 当前有效或即将开始的促销
func (h *Handler) GetSkuPromotions(c *gin.Context) {
	skuID := strings.TrimSpace(c.Param("sku_id"))
	if skuID == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	categoryPath := strings.TrimSpace(c.Query("category_path"))
	storeIDs := splitCommaList(c.Query("store_ids"))

	goods, err := h.PromotionGoodsService.FindSkuValidPromotions(c.Request.Context(), skuID, categoryPath, storeIDs)
	if err != nil {
		respondError(c, response.CodeInternal, "error.promotion_goods_fetch_failed", err)
		return
	}
	response.Success(c, goods)
}

// DeletePromotionGoods 删除活动下指定 SKU 的活动商品
func (h *Handler) DeletePromotionGoods(c *gin.Context) {
	promotionID := strings.TrimSpace(c.Param("id"))
	if promotionID == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	skuIDs := splitCommaList(c.Query("sku_ids"))
	if err := h.PromotionGoodsService.DeleteByPromotionSkus(c.Request.Context(), promotionID, skuIDs); err != nil {
		respondError(c, response.CodeInternal, "error.promotion_goods_delete_failed", err)
		return
	}
	response.Success(c, gin.H{
		"deleted": true,
	})
}

func parseTimeNullable(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func normalizePagination(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

func splitCommaList(raw string) []string {
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		result = append(result, trimmed)
	}
	return result
}
