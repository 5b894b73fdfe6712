package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edgefleet/fleetman/pkg/log"
	"github.com/edgefleet/fleetman/pkg/types"
)

// templateParam resolves the ?type= query against the configured templates.
func (s *APIServer) templateParam(c *gin.Context) (string, bool) {
	id := c.Query("type")
	if _, err := s.options.Manager.Template(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return "", false
	}
	return id, true
}

func (s *APIServer) getAccounts(c *gin.Context) {
	accounts, err := s.options.Manager.State().Accounts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if accounts == nil {
		accounts = []types.Account{}
	}
	c.JSON(http.StatusOK, accounts)
}

func (s *APIServer) postAccounts(c *gin.Context) {
	var accounts []types.Account
	if err := c.ShouldBindJSON(&accounts); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.options.Manager.State().SaveAccounts(c.Request.Context(), accounts); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.logger.Info("Account list replaced", log.Int("count", len(accounts)))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *APIServer) getSettings(c *gin.Context) {
	templateID, ok := s.templateParam(c)
	if !ok {
		return
	}
	// First load of a never-configured template seeds and persists the
	// default working set, secret variable included.
	set, err := s.options.Manager.Settings(c.Request.Context(), templateID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, set)
}

func (s *APIServer) postSettings(c *gin.Context) {
	templateID, ok := s.templateParam(c)
	if !ok {
		return
	}
	var set []types.VariableBinding
	if err := c.ShouldBindJSON(&set); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.options.Manager.State().SaveBindings(c.Request.Context(), templateID, set); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *APIServer) getAutoConfig(c *gin.Context) {
	policy, err := s.options.Manager.State().Policy(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if policy == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, policy)
}

func (s *APIServer) postAutoConfig(c *gin.Context) {
	var incoming types.AutoPolicy
	if err := c.ShouldBindJSON(&incoming); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// LastCheckedAt belongs to the orchestrator; a settings update never
	// rewinds or advances it.
	current, err := s.options.Manager.State().Policy(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	incoming.LastCheckedAt = time.Time{}
	if current != nil {
		incoming.LastCheckedAt = current.LastCheckedAt
	}

	if err := s.options.Manager.State().SavePolicy(c.Request.Context(), &incoming); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.logger.Info("Auto policy updated",
		log.Bool("enabled", incoming.Enabled),
		log.Float64("fuse_threshold_pct", incoming.FuseThresholdPct))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *APIServer) checkUpdate(c *gin.Context) {
	templateID, ok := s.templateParam(c)
	if !ok {
		return
	}
	status, err := s.options.Manager.CheckUpdate(c.Request.Context(), templateID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"local": status.Local, "remote": status.Remote})
}

func (s *APIServer) deploy(c *gin.Context) {
	templateID, ok := s.templateParam(c)
	if !ok {
		return
	}
	var body struct {
		Variables []types.VariableBinding `json:"variables"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	logs := s.options.Manager.Deploy(c.Request.Context(), templateID, body.Variables)
	c.JSON(http.StatusOK, logs)
}

func (s *APIServer) rotate(c *gin.Context) {
	templateID, ok := s.templateParam(c)
	if !ok {
		return
	}
	logs, err := s.options.Manager.RotateSecret(c.Request.Context(), templateID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, logs)
}

func (s *APIServer) stats(c *gin.Context) {
	accounts, err := s.options.Manager.State().Accounts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	stats := s.options.Manager.FetchStats(c.Request.Context(), accounts)
	if stats == nil {
		stats = []types.UsageStat{}
	}
	c.JSON(http.StatusOK, stats)
}
