package api

import (
	"net/http"
	"strconv"
	"time"

	resdto "inventory-ledger/internal/handler/dto/response"
	"inventory-ledger/internal/handler/httperr"
	"inventory-ledger/internal/usecase/queries"
	"inventory-ledger/internal/usecase/readmodel"

	"github.com/gin-gonic/gin"
)

func historyParams(c *gin.Context) (queries.HistoryParams, bool) {
	var p queries.HistoryParams
	for name, dst := range map[string]**time.Time{"from": &p.From, "to": &p.To} {
		v := c.Query(name)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid "+name+" timestamp", nil)
			return queries.HistoryParams{}, false
		}
		*dst = &t
	}

	p.EventTypes = c.QueryArray("eventType")
	p.Limit = queries.DefaultListLimit
	if v := c.Query("limit"); v != "" {
		if iv, e := strconv.Atoi(v); e == nil {
			p.Limit = queries.ValidateLimit(iv)
		}
	}
	if after := c.Query("after"); after != "" {
		p.Cursor = &queries.Cursor{After: after}
	}
	return p, true
}

func writeHistoryPage(c *gin.Context, entries []readmodel.HistoryEntryRM, next *queries.Cursor) {
	res, err := resdto.FromHistoryPage(entries, next)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal error", nil)
		return
	}
	c.JSON(http.StatusOK, res)
}
