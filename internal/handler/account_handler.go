package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scimind/portal-api/internal/service"
	appErrors "github.com/scimind/portal-api/pkg/errors"
	"github.com/scimind/portal-api/pkg/response"
)

// AccountHandler exposes integration account administration endpoints.
type AccountHandler struct {
	service *service.AccountService
}

// NewAccountHandler constructs an account handler.
func NewAccountHandler(svc *service.AccountService) *AccountHandler {
	return &AccountHandler{service: svc}
}

// List godoc
// @Summary List integration accounts
// @Tags Integration
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /accounts [get]
func (h *AccountHandler) List(c *gin.Context) {
	accounts, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, accounts, nil)
}

// Get godoc
// @Summary Get integration account
// @Tags Integration
// @Produce json
// @Param id path string true "Account ID"
// @Success 200 {object} response.Envelope
// @Router /accounts/{id} [get]
func (h *AccountHandler) Get(c *gin.Context) {
	account, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, account, nil)
}

// Create godoc
// @Summary Register integration account
// @Tags Integration
// @Accept json
// @Produce json
// @Param payload body service.CreateAccountRequest true "Account payload"
// @Success 201 {object} response.Envelope
// @Router /accounts [post]
func (h *AccountHandler) Create(c *gin.Context) {
	var req service.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	account, err := h.service.Create(c.Request.Context(), req, callerID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, account)
}

// Update godoc
// @Summary Update integration account
// @Tags Integration
// @Accept json
// @Produce json
// @Param id path string true "Account ID"
// @Param payload body service.UpdateAccountRequest true "Account payload"
// @Success 200 {object} response.Envelope
// @Router /accounts/{id} [patch]
func (h *AccountHandler) Update(c *gin.Context) {
	var req service.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	account, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, account, nil)
}

// Delete godoc
// @Summary Delete integration account
// @Tags Integration
// @Produce json
// @Param id path string true "Account ID"
// @Success 204
// @Router /accounts/{id} [delete]
func (h *AccountHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListPermissions godoc
// @Summary List account permission grants
// @Tags Integration
// @Produce json
// @Param id path string true "Account ID"
// @Success 200 {object} response.Envelope
// @Router /accounts/{id}/permissions [get]
func (h *AccountHandler) ListPermissions(c *gin.Context) {
	perms, err := h.service.ListPermissions(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, perms, nil)
}

// GrantPermission godoc
// @Summary Grant a user access to an integration account
// @Tags Integration
// @Accept json
// @Produce json
// @Param id path string true "Account ID"
// @Param payload body service.GrantPermissionRequest true "Permission payload"
// @Success 201 {object} response.Envelope
// @Router /accounts/{id}/permissions [post]
func (h *AccountHandler) GrantPermission(c *gin.Context) {
	var req service.GrantPermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	perm, err := h.service.GrantPermission(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, perm)
}

// RevokePermission godoc
// @Summary Revoke a permission grant
// @Tags Integration
// @Produce json
// @Param id path string true "Account ID"
// @Param permissionId path string true "Permission ID"
// @Success 204
// @Router /accounts/{id}/permissions/{permissionId} [delete]
func (h *AccountHandler) RevokePermission(c *gin.Context) {
	if err := h.service.RevokePermission(c.Request.Context(), c.Param("permissionId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
