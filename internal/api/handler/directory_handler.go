package handler

import (
	"github.com/gin-gonic/gin"

	"planning-imset/internal/service"
	"planning-imset/pkg/response"
)

// DirectoryHandler 医生 / 设备目录
type DirectoryHandler struct {
	directorySvc service.DirectoryService
}

// NewDirectoryHandler 创建 DirectoryHandler
func NewDirectoryHandler(directorySvc service.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{directorySvc: directorySvc}
}

// ListDoctors GET /api/v1/doctors
func (h *DirectoryHandler) ListDoctors(c *gin.Context) {
	doctors, err := h.directorySvc.ListDoctors(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, gin.H{"list": doctors})
}

// ListMachines GET /api/v1/machines
func (h *DirectoryHandler) ListMachines(c *gin.Context) {
	machines, err := h.directorySvc.ListMachines(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.OK(c, gin.H{"list": machines})
}
