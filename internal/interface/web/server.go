package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/KeelLabsHQ/keelbridge/internal/core/application"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.ReleaseMode)
}

type Config struct {
	Port uint32
}

type service struct {
	*gin.Engine
	server *http.Server
}

// NewService builds the JSON operator/admin surface. The caller account is
// taken from the X-Bridge-Account header; authenticating that header is the
// job of whatever fronts this API.
func NewService(cfg Config, appSvc *application.Service) *service {
	router := gin.New()
	router.Use(gin.Recovery())

	svc := &service{Engine: router}
	h := &handler{svc: appSvc}

	v1 := router.Group("/v1")

	v1.POST("/deposits", h.confirmDeposit)
	v1.GET("/deposits", h.listDeposits)
	v1.GET("/deposits/:txid/:vout", h.getDeposit)

	v1.POST("/withdrawals", h.initiateWithdrawal)
	v1.GET("/withdrawals", h.listWithdrawals)
	v1.GET("/withdrawals/:id", h.getWithdrawal)
	v1.POST("/withdrawals/lock-batch", h.lockWithdrawalBatch)
	v1.POST("/withdrawals/:id/lock", h.lockWithdrawal)
	v1.POST("/withdrawals/:id/unlock", h.unlockWithdrawal)
	v1.POST("/withdrawals/:id/finalize", h.finalizeWithdrawal)
	v1.POST("/withdrawals/:id/cancel", h.cancelWithdrawal)

	v1.POST("/custody", h.addCustodyAddress)
	v1.GET("/custody", h.listCustodyAddresses)
	v1.DELETE("/custody/:index", h.removeCustodyAddress)

	v1.POST("/admin/grants", h.grantCapability)
	v1.POST("/admin/revocations", h.revokeCapability)
	v1.GET("/admin/grants/:account", h.accountCapabilities)
	v1.POST("/admin/halt", h.halt)
	v1.POST("/admin/resume", h.resume)
	v1.POST("/admin/fee-recipient", h.setFeeRecipient)
	v1.POST("/admin/fees", h.setFeePolicy)
	v1.POST("/admin/oracle", h.setApprovalOracle)

	v1.GET("/report", h.report)

	svc.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}
	return svc
}

func (s *service) Start() error {
	go func() {
		// nolint:all
		s.server.ListenAndServe()
	}()
	return nil
}

func (s *service) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// nolint:all
	s.server.Shutdown(ctx)
}
