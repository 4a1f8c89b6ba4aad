package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/iamrekas/geyserbench/internal/report"
)

// ReportProvider builds the current aggregates on demand; mid-run it serves
// an interim view, after the run the final numbers.
type ReportProvider func() report.Report

type ReportController struct {
	provider ReportProvider
}

func NewReportController(provider ReportProvider) *ReportController {
	return &ReportController{provider: provider}
}

func (c *ReportController) RegisterReportRoutes(rg *gin.RouterGroup) {
	rg.GET("/report", c.handleGetReport)
}

func (c *ReportController) handleGetReport(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, c.provider())
}
