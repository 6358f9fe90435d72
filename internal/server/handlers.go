package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/licshop/ordermgr/internal/csvcodec"
	"github.com/licshop/ordermgr/internal/domain"
	"github.com/licshop/ordermgr/internal/localstore"
	"github.com/licshop/ordermgr/pkg/errors"
)

// listEnvelope mirrors the backend's nested list response shape.
type listEnvelope struct {
	Data struct {
		Data       []domain.Order `json:"data"`
		Pagination pagination     `json:"pagination"`
	} `json:"data"`
}

type pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// ActionRequest is the body of POST /order.php/:id
type ActionRequest struct {
	Action string `json:"action" binding:"required"`
}

// HandleListOrders handles GET /orders.php
func HandleListOrders(orders *localstore.Store, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
		search := c.Query("search")

		rows, total := orders.List(page, limit, search)

		var resp listEnvelope
		resp.Data.Data = rows
		resp.Data.Pagination = pagination{Total: total, Page: page, Limit: limit}
		c.JSON(http.StatusOK, resp)
	}
}

// HandleCreateOrder handles POST /orders.php
func HandleCreateOrder(orders *localstore.Store, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var patch domain.OrderPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid order payload"})
			return
		}

		created := orders.Add(patch)
		logger.Info("order created", zap.String("id", created.ID), zap.String("orderno", created.OrderNo))
		c.JSON(http.StatusCreated, gin.H{"data": created})
	}
}

// HandleGetOrder handles GET /order.php/:id
func HandleGetOrder(orders *localstore.Store, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := orders.Get(c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": order})
	}
}

// HandleUpdateOrder handles PUT /order.php/:id
func HandleUpdateOrder(orders *localstore.Store, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var patch domain.OrderPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid order payload"})
			return
		}

		updated, err := orders.Update(c.Param("id"), patch)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": updated})
	}
}

// HandleDeleteOrder handles DELETE /order.php/:id
func HandleDeleteOrder(orders *localstore.Store, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := orders.Delete(c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// HandleOrderAction handles POST /order.php/:id with an action body
func HandleOrderAction(orders *localstore.Store, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ActionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "action is required"})
			return
		}

		id := c.Param("id")
		switch req.Action {
		case "duplicate":
			dup, err := orders.Duplicate(id)
			if err != nil {
				respondError(c, err)
				return
			}
			logger.Info("order duplicated", zap.String("source", id), zap.String("id", dup.ID))
			c.JSON(http.StatusCreated, gin.H{"data": dup})
		case "confirm_payment":
			updated, err := orders.ConfirmPayment(id)
			if err != nil {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"data": updated})
		case "provision_resource":
			updated, err := orders.ProvisionResource(id)
			if err != nil {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"data": updated})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"message": fmt.Sprintf("unknown action: %s", req.Action)})
		}
	}
}

// HandleExportCSV handles GET /export.php
func HandleExportCSV(orders *localstore.Store, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := csvcodec.Encode(orders.Export())
		if err != nil {
			logger.Error("export failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "export failed"})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="orders.csv"`)
		c.Data(http.StatusOK, "text/csv", data)
	}
}

// HandleImportCSV handles POST /import with a multipart "file" field
func HandleImportCSV(orders *localstore.Store, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "file field is required"})
			return
		}

		f, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "cannot read uploaded file"})
			return
		}
		defer f.Close()

		content, err := io.ReadAll(f)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "cannot read uploaded file"})
			return
		}

		rows, err := csvcodec.Decode(content)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid CSV file"})
			return
		}

		imported, total := orders.ImportMerge(rows)
		logger.Info("orders imported", zap.Int("imported", imported), zap.Int("total", total))
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"imported": imported, "total": total}})
	}
}

func respondError(c *gin.Context, err error) {
	if nf, ok := err.(*errors.ErrNotFound); ok {
		c.JSON(http.StatusNotFound, gin.H{"message": nf.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
}
