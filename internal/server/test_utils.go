package server

import (
	"net/http"

	auditdomain "github.com/crescendohq/crescendo/internal/audit/domain"
	contractdomain "github.com/crescendohq/crescendo/internal/contract/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TestCleanup truncates contract data so end-to-end suites start from a
// clean slate. The route is only registered outside production.
func (s *Server) TestCleanup(c *gin.Context) {
	tables := []string{
		auditdomain.ContractAuditEntry{}.TableName(),
		"contract_events",
		contractdomain.Contract{}.TableName(),
	}
	for _, table := range tables {
		if err := s.db.WithContext(c.Request.Context()).Exec("DELETE FROM " + table).Error; err != nil {
			AbortWithError(c, err)
			return
		}
	}
	s.log.Warn("test cleanup executed", zap.Strings("tables", tables))
	c.JSON(http.StatusOK, gin.H{"success": true})
}
